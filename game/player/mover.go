package player

import "math"

// Direction is a facing.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Valid reports whether d is one of the four facings.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Movement tuning.
const (
	DefaultSpeed  = 150.0
	ArriveEpsilon = 2.0
	StepDistance  = 50.0 // target offset for a directional move
	EdgeMargin    = 16.0
)

// Vec is a world position.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance to o.
func (v Vec) Dist(o Vec) float64 {
	return math.Hypot(o.X-v.X, o.Y-v.Y)
}

// Bounds is the world extent positions are clamped to.
type Bounds struct {
	Width, Height float64
}

func (b Bounds) clamp(p Vec) Vec {
	if b.Width <= 0 || b.Height <= 0 {
		return p
	}
	return Vec{
		X: math.Max(EdgeMargin, math.Min(b.Width-EdgeMargin, p.X)),
		Y: math.Max(EdgeMargin, math.Min(b.Height-EdgeMargin, p.Y)),
	}
}

// Mover is seek-to-target movement with facing.
type Mover struct {
	Position Vec
	Target   Vec
	Facing   Direction
	Moving   bool

	Speed  float64
	Bounds Bounds
	// Walkable, when set, vetoes steps into blocked terrain.
	Walkable func(x, y float64) bool

	path []Vec // waypoints after Target
}

// NewMover creates a Mover facing down.
func NewMover(speed float64, bounds Bounds) Mover {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	return Mover{Facing: Down, Speed: speed, Bounds: bounds}
}

// SetPosition teleports and stops.
func (m *Mover) SetPosition(x, y float64) {
	m.Position = m.Bounds.clamp(Vec{X: x, Y: y})
	m.Target = m.Position
	m.Moving = false
	m.path = nil
}

// MoveTo starts seeking (x, y), dropping any planned route.
func (m *Mover) MoveTo(x, y float64) {
	m.Target = m.Bounds.clamp(Vec{X: x, Y: y})
	m.Moving = true
	m.path = nil
}

// FollowPath seeks each waypoint in turn.
func (m *Mover) FollowPath(path []Vec) {
	if len(path) == 0 {
		return
	}
	m.MoveTo(path[0].X, path[0].Y)
	for _, p := range path[1:] {
		m.path = append(m.path, m.Bounds.clamp(p))
	}
}

// Waypoints returns the route still ahead after the current target.
func (m *Mover) Waypoints() []Vec {
	return append([]Vec(nil), m.path...)
}

// MoveInDirection seeks a point StepDistance away in dir and faces it.
func (m *Mover) MoveInDirection(dir Direction) {
	t := m.Position
	switch dir {
	case Up:
		t.Y -= StepDistance
	case Down:
		t.Y += StepDistance
	case Left:
		t.X -= StepDistance
	case Right:
		t.X += StepDistance
	default:
		return
	}
	m.Facing = dir
	m.MoveTo(t.X, t.Y)
}

// UpdateMovement steps toward the target by at most Speed*dt, snapping
// once within ArriveEpsilon.
func (m *Mover) UpdateMovement(dt float64) {
	if !m.Moving {
		return
	}
	dx := m.Target.X - m.Position.X
	dy := m.Target.Y - m.Position.Y
	dist := math.Hypot(dx, dy)
	if dist <= ArriveEpsilon {
		m.Position = m.Target
		if len(m.path) == 0 {
			m.Moving = false
			return
		}
		// turn onto the next leg within the same frame
		m.Target, m.path = m.path[0], m.path[1:]
		dx = m.Target.X - m.Position.X
		dy = m.Target.Y - m.Position.Y
		if dist = math.Hypot(dx, dy); dist == 0 {
			return
		}
	}
	step := math.Min(m.Speed*dt, dist)
	next := m.Bounds.clamp(Vec{X: m.Position.X + dx/dist*step, Y: m.Position.Y + dy/dist*step})
	if m.Walkable != nil && !m.Walkable(next.X, next.Y) {
		m.Target = m.Position
		m.Moving = false
		m.path = nil
		return
	}
	m.Position = next
	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			m.Facing = Right
		} else {
			m.Facing = Left
		}
	} else {
		if dy > 0 {
			m.Facing = Down
		} else {
			m.Facing = Up
		}
	}
}
