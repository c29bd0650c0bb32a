package world

import (
	"math"
	"math/rand"
	"sort"

	"github.com/spirittosoul/server/game/player"
	"github.com/spirittosoul/server/resource"
)

// EntityKind tells NPCs from interactable objects.
type EntityKind string

const (
	KindNPC          EntityKind = "npc"
	KindInteractable EntityKind = "interactable"
)

// Entity is a positioned thing the player can interact with.
type Entity struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     EntityKind `json:"kind"`
	Position player.Vec `json:"position"`
	Distance float64    `json:"distance"`
}

// Location is a named circular region.
type Location struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Center player.Vec `json:"center"`
	Radius float64    `json:"radius"`
}

// Contains reports whether p lies within the region.
func (l Location) Contains(p player.Vec) bool {
	return l.Center.Dist(p) <= l.Radius
}

// NPC is a live non-player character.
type NPC struct {
	Def      *resource.NPC
	Position player.Vec
	line     int
}

// NextLine returns the NPC's next line of dialogue, cycling.
func (n *NPC) NextLine() string {
	if len(n.Def.Dialogue) == 0 {
		return ""
	}
	s := n.Def.Dialogue[n.line%len(n.Def.Dialogue)]
	n.line++
	return s
}

// Interactable is a fixed object such as a well or an altar.
type Interactable struct {
	Def      *resource.Interactable
	Position player.Vec
}

// Camera is the visible viewport in world coordinates.
type Camera struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Config sizes the world.
type Config struct {
	Width, Height             float64
	CameraWidth, CameraHeight float64
	InteractionRadius         float64
}

// World holds locations, NPCs and interactables, and owns the single
// proximity query used by both rendering and interaction.
type World struct {
	Width, Height     float64
	InteractionRadius float64
	Camera            Camera

	spawn         player.Vec
	locations     []Location
	npcs          []*NPC
	interactables []*Interactable
	river         river
	wander        resource.NPCWander
	rng           *rand.Rand
}

// New lays out def in a world of the configured size. Positions in def are
// fractions of the world size.
func New(def *resource.World, cfg Config, rng *rand.Rand) *World {
	w := &World{
		Width:             cfg.Width,
		Height:            cfg.Height,
		InteractionRadius: cfg.InteractionRadius,
		Camera:            Camera{Width: cfg.CameraWidth, Height: cfg.CameraHeight},
		spawn:             player.Vec{X: def.Spawn.X * cfg.Width, Y: def.Spawn.Y * cfg.Height},
		wander:            def.NPCWander,
		rng:               rng,
		river: river{
			x:           def.River.X * cfg.Width,
			halfWidth:   def.River.Width / 2,
			fordY:       def.River.FordY * cfg.Height,
			fordHalfLen: def.River.FordHalfHeight,
		},
	}
	for _, l := range def.Locations {
		w.locations = append(w.locations, Location{
			ID:     l.ID,
			Name:   l.Name,
			Center: w.scale(l.X, l.Y),
			Radius: l.Radius,
		})
	}
	for i := range def.NPCs {
		n := &def.NPCs[i]
		w.npcs = append(w.npcs, &NPC{Def: n, Position: w.scale(n.X, n.Y)})
	}
	for i := range def.Interactables {
		in := &def.Interactables[i]
		w.interactables = append(w.interactables, &Interactable{Def: in, Position: w.scale(in.X, in.Y)})
	}
	return w
}

func (w *World) scale(fx, fy float64) player.Vec {
	return player.Vec{X: fx * w.Width, Y: fy * w.Height}
}

// Spawn is where a new character starts.
func (w *World) Spawn() player.Vec { return w.spawn }

// Locations returns every region in declaration order.
func (w *World) Locations() []Location {
	out := make([]Location, len(w.locations))
	copy(out, w.locations)
	return out
}

// Location looks a region up by id.
func (w *World) Location(id string) (Location, bool) {
	for _, l := range w.locations {
		if l.ID == id {
			return l, true
		}
	}
	return Location{}, false
}

// LocationAt returns the id of the first region containing (x, y), or "".
func (w *World) LocationAt(x, y float64) string {
	p := player.Vec{X: x, Y: y}
	for _, l := range w.locations {
		if l.Contains(p) {
			return l.ID
		}
	}
	return ""
}

// NPC returns the live NPC with id.
func (w *World) NPC(id string) *NPC {
	for _, n := range w.npcs {
		if n.Def.ID == id {
			return n
		}
	}
	return nil
}

// Interactable returns the object with id.
func (w *World) Interactable(id string) *Interactable {
	for _, in := range w.interactables {
		if in.Def.ID == id {
			return in
		}
	}
	return nil
}

// Entities lists every NPC and interactable with its distance from p.
func (w *World) Entities(p player.Vec) []Entity {
	out := make([]Entity, 0, len(w.npcs)+len(w.interactables))
	for _, n := range w.npcs {
		out = append(out, Entity{ID: n.Def.ID, Name: n.Def.Name, Kind: KindNPC, Position: n.Position, Distance: p.Dist(n.Position)})
	}
	for _, in := range w.interactables {
		out = append(out, Entity{ID: in.Def.ID, Name: in.Def.Name, Kind: KindInteractable, Position: in.Position, Distance: p.Dist(in.Position)})
	}
	return out
}

// EntitiesWithin returns entities whose Euclidean distance from p is at
// most r, nearest first. NPCs win ties over interactables.
func (w *World) EntitiesWithin(p player.Vec, r float64) []Entity {
	all := w.Entities(p)
	out := all[:0]
	for _, e := range all {
		if e.Distance <= r {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

// Nearby is EntitiesWithin at the world's interaction radius. Both
// the render halos and the interact action go through here.
func (w *World) Nearby(p player.Vec) []Entity {
	return w.EntitiesWithin(p, w.InteractionRadius)
}

// Nearest returns the closest entity within the interaction radius,
// preferring NPCs over objects.
func (w *World) Nearest(p player.Vec) (Entity, bool) {
	near := w.Nearby(p)
	for _, e := range near {
		if e.Kind == KindNPC {
			return e, true
		}
	}
	if len(near) > 0 {
		return near[0], true
	}
	return Entity{}, false
}

// UpdateCamera centres the viewport on target, clamped to the world.
func (w *World) UpdateCamera(target player.Vec) {
	w.Camera.X = math.Max(0, math.Min(w.Width-w.Camera.Width, target.X-w.Camera.Width/2))
	w.Camera.Y = math.Max(0, math.Min(w.Height-w.Camera.Height, target.Y-w.Camera.Height/2))
}

// InCameraView reports whether p is inside the viewport grown by margin.
func (w *World) InCameraView(p player.Vec, margin float64) bool {
	c := w.Camera
	return p.X >= c.X-margin && p.X <= c.X+c.Width+margin &&
		p.Y >= c.Y-margin && p.Y <= c.Y+c.Height+margin
}

// Update lets wandering NPCs drift. Each wanderer moves with probability
// ChancePerSecond*dt per tick, Step units in a random direction, staying
// Margin away from the edges and out of the river.
func (w *World) Update(dt float64) {
	if w.rng == nil {
		return
	}
	margin := w.wander.Margin
	for _, n := range w.npcs {
		if !n.Def.Wander {
			continue
		}
		if w.rng.Float64() >= w.wander.ChancePerSecond*dt {
			continue
		}
		angle := w.rng.Float64() * 2 * math.Pi
		next := player.Vec{
			X: math.Max(margin, math.Min(w.Width-margin, n.Position.X+math.Cos(angle)*w.wander.Step)),
			Y: math.Max(margin, math.Min(w.Height-margin, n.Position.Y+math.Sin(angle)*w.wander.Step)),
		}
		if w.IsValidPosition(next.X, next.Y) {
			n.Position = next
		}
	}
}
