package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/spirittosoul/server/config"
	"github.com/spirittosoul/server/game/clock"
	"github.com/spirittosoul/server/game/event"
	"github.com/spirittosoul/server/game/input"
	"github.com/spirittosoul/server/game/player"
	"github.com/spirittosoul/server/game/quest"
	"github.com/spirittosoul/server/game/save"
	"github.com/spirittosoul/server/game/world"
	"github.com/spirittosoul/server/metrics"
	"github.com/spirittosoul/server/resource"
	"github.com/spirittosoul/server/scheduler"
	"go.uber.org/zap"
)

// State is the top-level game state.
type State string

const (
	StateLoading           State = "loading"
	StateMenu              State = "menu"
	StateCharacterCreation State = "character_creation"
	StatePlaying           State = "playing"
	StatePaused            State = "paused"
)

var ErrWrongState = errors.New("not allowed in the current game state")

const autosaveTask = "autosave"

// Deps are the game's collaborators. Events and Input are required.
type Deps struct {
	Events  *event.Dispatcher
	Input   *input.Queue
	Saves   *save.Manager // nil disables persistence
	Surface Surface       // nil renders nowhere
	Now     func() time.Time
	Rand    *rand.Rand
}

// Game is the simulation. All mutation happens under mu, one frame at a
// time; other goroutines talk to it through the input queue or the
// lifecycle methods.
type Game struct {
	mu sync.Mutex

	cfg     config.GameConfig
	cat     *resource.ResourceLoader
	state   State
	stopped bool
	seq     uint64

	driver  *clock.Driver
	sched   *scheduler.Scheduler
	inputs  *input.Queue
	events  *event.Dispatcher
	saves   *save.Manager
	surface Surface

	world  *world.World
	player *player.Character
	quests *quest.Engine

	logger *zap.Logger
}

// New builds a game in the loading state.
func New(cfg *config.Config, cat *resource.ResourceLoader, deps Deps, logger *zap.Logger) (*Game, error) {
	if deps.Events == nil || deps.Input == nil {
		return nil, errors.New("sim: events and input are required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(deps.Now().UnixNano()))
	}
	defs, err := quest.LoadDefinitions(cat.Quests)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	g := &Game{
		cfg:     cfg.Game,
		cat:     cat,
		state:   StateLoading,
		driver:  clock.NewDriver(cfg.Game.MaxDelta(), deps.Now),
		sched:   scheduler.New(logger.Named("scheduler")),
		inputs:  deps.Input,
		events:  deps.Events,
		saves:   deps.Saves,
		surface: deps.Surface,
		world: world.New(cat.World, world.Config{
			Width:             cfg.World.Width,
			Height:            cfg.World.Height,
			CameraWidth:       cfg.World.CameraWidth,
			CameraHeight:      cfg.World.CameraHeight,
			InteractionRadius: cfg.Game.InteractionRadius,
		}, deps.Rand),
		logger: logger,
	}
	g.quests = quest.NewEngine(defs, quest.Deps{
		Player:        progress{g},
		Locations:     g.world,
		Rewarder:      g,
		Events:        g.events,
		Scheduler:     g.sched,
		FollowupDelay: cfg.Game.FollowupDelay(),
		Now:           deps.Now,
	}, logger.Named("quest"))
	return g, nil
}

// State returns the current state.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Boot leaves loading. A readable save restores the character and quest
// log and goes straight to playing; otherwise the game waits in the menu.
func (g *Game) Boot(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateLoading {
		return ErrWrongState
	}
	g.driver.Start()
	if g.saves != nil {
		if err := g.restore(ctx); err == nil {
			g.logger.Info("save restored", zap.String("player", g.player.Name), zap.Int("level", g.player.Level))
			g.enterPlaying()
			return nil
		} else if !errors.Is(err, save.ErrNoSave) && !errors.Is(err, save.ErrSaveCorrupt) {
			g.logger.Warn("save unavailable, starting fresh", zap.Error(err))
		}
	}
	g.state = StateMenu
	return nil
}

func (g *Game) restore(ctx context.Context) error {
	fresh, err := g.newCharacter(g.cfg.PlayerName, g.cfg.Calling)
	if err != nil {
		return err
	}
	rec, err := g.saves.Load(ctx, save.PlayerData{State: fresh.Snapshot()})
	if err != nil {
		return err
	}
	c := fresh
	if rec.Player.Calling != fresh.Calling {
		if c, err = g.newCharacter(rec.Player.Name, rec.Player.Calling); err != nil {
			c = fresh
		}
	}
	c.Restore(rec.Player.State, g.cat)
	g.player = c
	g.quests.Restore(rec.Player.Quests)
	return nil
}

// NewGame moves from the menu to character creation.
func (g *Game) NewGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateMenu {
		return ErrWrongState
	}
	g.state = StateCharacterCreation
	return nil
}

// CreateCharacter creates the player, begins play and starts the opening
// quest.
func (g *Game) CreateCharacter(ctx context.Context, name, calling string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateCharacterCreation {
		return ErrWrongState
	}
	c, err := g.newCharacter(name, calling)
	if err != nil {
		return err
	}
	g.player = c
	g.logger.Info("character created", zap.String("name", c.Name), zap.String("calling", c.Calling))
	g.enterPlaying()
	if id := g.cfg.StartQuest; id != "" {
		if _, err := g.quests.Start(ctx, id); err != nil {
			g.logger.Warn("start quest unavailable", zap.String("quest", id), zap.Error(err))
		}
	}
	return nil
}

func (g *Game) newCharacter(name, calling string) (*player.Character, error) {
	if name == "" {
		name = g.cfg.PlayerName
	}
	c, err := player.New(name, calling, g.cat, player.Options{
		InventorySize: g.cfg.MaxInventory,
		Speed:         g.cfg.PlayerSpeed,
		Bounds:        player.Bounds{Width: g.world.Width, Height: g.world.Height},
		Abilities:     g.cat.Abilities,
	})
	if err != nil {
		return nil, err
	}
	spawn := g.world.Spawn()
	c.SetPosition(spawn.X, spawn.Y)
	c.Walkable = g.world.IsValidPosition
	return c, nil
}

func (g *Game) enterPlaying() {
	g.state = StatePlaying
	g.world.UpdateCamera(g.player.Position)
	if interval := g.cfg.SaveInterval(); interval > 0 && g.saves != nil {
		g.sched.AddTicker(autosaveTask, interval, func(ctx context.Context) {
			_ = g.save(ctx)
		})
	}
}

// Pause freezes the simulation.
func (g *Game) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pause()
}

func (g *Game) pause() error {
	if g.state != StatePlaying {
		return ErrWrongState
	}
	g.state = StatePaused
	g.driver.Pause()
	metrics.GamePaused.Set(1)
	return nil
}

// Resume continues a paused game. The first delta after resuming is
// measured from the resume instant.
func (g *Game) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resume()
}

func (g *Game) resume() error {
	if g.state != StatePaused {
		return ErrWrongState
	}
	g.state = StatePlaying
	g.driver.Resume()
	metrics.GamePaused.Set(0)
	return nil
}

// Save writes the current character and quest log.
func (g *Game) Save(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.save(ctx)
}

func (g *Game) save(ctx context.Context) error {
	if g.saves == nil {
		return nil
	}
	if g.player == nil {
		return ErrWrongState
	}
	return g.saves.Save(ctx, save.PlayerData{
		State:  g.player.Snapshot(),
		Quests: g.quests.Snapshot(),
	})
}

// Step runs one frame with the driver's delta-time.
func (g *Game) Step(ctx context.Context) {
	start := time.Now()
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	g.frame(ctx, g.driver.Tick)
	fps := g.driver.FPS()
	g.mu.Unlock()

	metrics.TickDuration.Observe(time.Since(start).Seconds())
	metrics.FramesPerSecond.Set(float64(fps))
}

// Advance runs one frame with an explicit delta-time, capped like a
// driver tick. It is the deterministic entry point for tests and tools.
func (g *Game) Advance(ctx context.Context, dt time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	if limit := g.cfg.MaxDelta(); dt > limit {
		dt = limit
	}
	if dt < 0 {
		dt = 0
	}
	g.frame(ctx, func() time.Duration { return dt })
}

// frame is one tick: input, cooldowns and regeneration, movement, quest
// polling and completion, game-time tasks, then render. The delta is read
// after input so a Pause or Resume takes effect in the same frame.
func (g *Game) frame(ctx context.Context, delta func() time.Duration) {
	for _, in := range g.inputs.Drain() {
		g.handle(ctx, in)
	}
	dt := delta()
	if g.state == StatePlaying {
		secs := dt.Seconds()
		g.player.Update(secs)
		g.player.UpdateMovement(secs)
		g.world.Update(secs)
		g.world.UpdateCamera(g.player.Position)
		g.quests.Update(ctx)
		g.sched.Advance(dt)
	}
	g.seq++
	if g.surface != nil {
		g.surface.Render(g.snapshot())
	}
}

// Run steps the game at the configured rate until ctx ends, then stops it.
func (g *Game) Run(ctx context.Context) error {
	hz := g.cfg.TickHz
	if hz <= 0 {
		hz = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()
	g.logger.Info("simulation loop started", zap.Int("tick_hz", hz))
	for {
		select {
		case <-ctx.Done():
			g.Stop(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-ticker.C:
			g.Step(ctx)
		}
	}
}

// Stop saves a game in progress, cancels every pending game-time task and
// halts the loop. It is idempotent.
func (g *Game) Stop(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	if g.state == StatePlaying || g.state == StatePaused {
		if err := g.save(ctx); err != nil {
			g.logger.Error("final save failed", zap.Error(err))
		}
	}
	g.stopped = true
	g.sched.Stop()
	g.driver.Stop()
	g.logger.Info("simulation loop stopped", zap.Uint64("frames", g.seq))
}
