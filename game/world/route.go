package world

import (
	"math"

	"github.com/spirittosoul/server/game/ai"
	"github.com/spirittosoul/server/game/player"
)

// RouteCell is the side of the square cells routes are planned on.
const RouteCell = 20.0

// sampleStep is how finely a straight segment is sampled for obstacles.
const sampleStep = 5.0

// Clear reports whether the straight segment from a to b stays on valid
// ground.
func (w *World) Clear(a, b player.Vec) bool {
	n := int(math.Ceil(a.Dist(b) / sampleStep))
	for i := 0; i <= n; i++ {
		t := 1.0
		if n > 0 {
			t = float64(i) / float64(n)
		}
		if !w.IsValidPosition(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t) {
			return false
		}
	}
	return true
}

func (w *World) cellOf(p player.Vec) ai.Point {
	return ai.Point{X: int(p.X / RouteCell), Y: int(p.Y / RouteCell)}
}

func (w *World) centre(c ai.Point) player.Vec {
	return player.Vec{X: (float64(c.X) + 0.5) * RouteCell, Y: (float64(c.Y) + 0.5) * RouteCell}
}

// Passable implements ai.Grid over the world's terrain.
func (w *World) Passable(c ai.Point) bool {
	if c.X < 0 || c.Y < 0 || float64(c.X)*RouteCell >= w.Width || float64(c.Y)*RouteCell >= w.Height {
		return false
	}
	p := w.centre(c)
	return w.IsValidPosition(p.X, p.Y)
}

// Route plans waypoints from a to b around impassable terrain. A clear
// straight line yields just b. The last waypoint is always b itself.
// ok is false when b is invalid or unreachable.
func (w *World) Route(a, b player.Vec) (path []player.Vec, ok bool) {
	if !w.IsValidPosition(b.X, b.Y) {
		return nil, false
	}
	if w.Clear(a, b) {
		return []player.Vec{b}, true
	}
	from, to := w.cellOf(a), w.cellOf(b)
	cells := ai.AStar(w, from, to)
	if cells == nil {
		return nil, false
	}
	if start := w.centre(from); w.Clear(a, start) {
		path = append(path, start)
	}
	for _, c := range ai.Simplify(from, cells) {
		path = append(path, w.centre(c))
	}
	return append(path, b), true
}
