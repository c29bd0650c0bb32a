package sim

import (
	"sync"
	"time"

	"github.com/spirittosoul/server/game/item"
	"github.com/spirittosoul/server/game/player"
	"github.com/spirittosoul/server/game/quest"
	"github.com/spirittosoul/server/game/skill"
	"github.com/spirittosoul/server/game/stats"
	"github.com/spirittosoul/server/game/world"
	"go.uber.org/zap"
)

// viewMargin lets entities just off-screen still be drawn.
const viewMargin = 32

// Frame is an immutable snapshot of everything a renderer draws.
type Frame struct {
	Seq       uint64         `json:"seq"`
	State     State          `json:"state"`
	Paused    bool           `json:"paused"`
	Player    *PlayerView    `json:"player,omitempty"`
	Camera    world.Camera   `json:"camera"`
	Entities  []world.Entity `json:"entities"`
	Nearby    []world.Entity `json:"nearby"`
	Quests    []QuestView    `json:"quests"`
	Completed []string       `json:"completed_quests"`
	FPS       int            `json:"fps"`
	GameTime  time.Duration  `json:"game_time"`
}

type PlayerView struct {
	Name             string                        `json:"name"`
	Calling          string                        `json:"calling"`
	Level            int                           `json:"level"`
	Experience       int                           `json:"experience"`
	ExperienceToNext int                           `json:"experience_to_next"`
	Resources        map[stats.Kind]stats.Resource `json:"resources"`
	Attributes       map[string]int                `json:"attributes"`
	Position         player.Vec                    `json:"position"`
	Facing           player.Direction              `json:"facing"`
	Moving           bool                          `json:"moving"`
	Location         string                        `json:"location"`
	Inventory        []item.Instance               `json:"inventory"`
	Abilities        map[string]skill.State        `json:"abilities"`
	Scriptures       []string                      `json:"scriptures"`
	Fellowship       int                           `json:"fellowship"`
}

type QuestView struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Objectives  []ObjectiveView `json:"objectives"`
}

type ObjectiveView struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Progress    int    `json:"progress,omitempty"`
	Need        int    `json:"need,omitempty"`
}

// Surface receives one frame per tick.
type Surface interface {
	Render(f Frame)
}

func (g *Game) snapshot() Frame {
	f := Frame{
		Seq:       g.seq,
		State:     g.state,
		Paused:    g.state == StatePaused,
		Camera:    g.world.Camera,
		Completed: g.quests.Completed(),
		FPS:       g.driver.FPS(),
		GameTime:  g.sched.Now(),
	}
	if g.player == nil {
		return f
	}
	c := g.player
	s := c.Snapshot()
	f.Player = &PlayerView{
		Name:             c.Name,
		Calling:          c.Calling,
		Level:            c.Level,
		Experience:       c.Experience,
		ExperienceToNext: c.ExperienceToNext,
		Resources:        s.Resources,
		Attributes:       s.Attributes,
		Position:         c.Position,
		Facing:           c.Facing,
		Moving:           c.Moving,
		Location:         g.world.LocationAt(c.Position.X, c.Position.Y),
		Inventory:        s.Inventory,
		Abilities:        s.Abilities,
		Scriptures:       s.Scriptures,
		Fellowship:       c.Fellowship,
	}
	for _, e := range g.world.Entities(c.Position) {
		if g.world.InCameraView(e.Position, viewMargin) {
			f.Entities = append(f.Entities, e)
		}
	}
	f.Nearby = g.world.Nearby(c.Position)
	for _, inst := range g.quests.Active() {
		qv := QuestView{ID: inst.Def.ID, Title: inst.Def.Title, Description: inst.Def.Description}
		for _, obj := range inst.Def.Objectives {
			st, _ := inst.Objective(obj.ID)
			ov := ObjectiveView{ID: obj.ID, Description: obj.Description, Completed: st.Completed}
			if ctr, ok := obj.Condition.(quest.Counter); ok {
				ov.Progress, ov.Need = st.Progress, ctr.Need()
			}
			qv.Objectives = append(qv.Objectives, ov)
		}
		f.Quests = append(f.Quests, qv)
	}
	return f
}

// FrameStore keeps the latest frame for readers on other goroutines.
type FrameStore struct {
	mu    sync.RWMutex
	frame Frame
	ok    bool
}

func NewFrameStore() *FrameStore { return &FrameStore{} }

func (s *FrameStore) Render(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame, s.ok = f, true
}

// Latest returns the most recent frame, or false before the first tick.
func (s *FrameStore) Latest() (Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.ok
}

// LogSurface writes a one-line summary of every Nth frame at debug level.
type LogSurface struct {
	Every  uint64
	Logger *zap.Logger
}

func (s LogSurface) Render(f Frame) {
	if s.Every == 0 || f.Seq%s.Every != 0 {
		return
	}
	fields := []zap.Field{zap.Uint64("seq", f.Seq), zap.String("state", string(f.State)), zap.Int("fps", f.FPS)}
	if f.Player != nil {
		fields = append(fields,
			zap.Float64("x", f.Player.Position.X),
			zap.Float64("y", f.Player.Position.Y),
			zap.Int("level", f.Player.Level),
			zap.Int("nearby", len(f.Nearby)),
		)
	}
	s.Logger.Debug("frame", fields...)
}

// Surfaces renders to several surfaces in order.
type Surfaces []Surface

func (ss Surfaces) Render(f Frame) {
	for _, s := range ss {
		s.Render(f)
	}
}
