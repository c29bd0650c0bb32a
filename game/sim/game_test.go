package sim

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/spirittosoul/server/cache"
	"github.com/spirittosoul/server/config"
	"github.com/spirittosoul/server/game/event"
	"github.com/spirittosoul/server/game/input"
	"github.com/spirittosoul/server/game/player"
	"github.com/spirittosoul/server/game/save"
	"github.com/spirittosoul/server/game/stats"
	"github.com/spirittosoul/server/plugin/hook"
	"github.com/spirittosoul/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	game   *Game
	sink   *testutil.Sink
	inputs *input.Queue
	frames *FrameStore
	hooks  *hook.HookCenter
	store  save.Store
}

func newHarness(t *testing.T, kv cache.Cache, mutate func(*config.Config)) *harness {
	t.Helper()
	return newHarnessAt(t, kv, mutate, nil)
}

// newHarnessAt is newHarness with the driver reading wall time from now.
func newHarnessAt(t *testing.T, kv cache.Cache, mutate func(*config.Config), now func() time.Time) *harness {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	if kv == nil {
		kv, _ = testutil.SetupTestCache(t)
	}
	h := &harness{
		sink:   &testutil.Sink{},
		inputs: input.NewQueue(0, nil),
		frames: NewFrameStore(),
		hooks:  hook.NewHookCenter(),
		store:  save.NewCacheStore(kv),
	}
	g, err := New(cfg, testutil.LoadCatalog(t), Deps{
		Events:  event.NewDispatcher(h.sink, h.sink, h.hooks, zap.NewNop()),
		Input:   h.inputs,
		Saves:   save.NewManager(h.store, cfg.Game.SaveKey, zap.NewNop()),
		Surface: h.frames,
		Now:     now,
		Rand:    rand.New(rand.NewSource(7)),
	}, zap.NewNop())
	require.NoError(t, err)
	h.game = g
	return h
}

// play boots into a fresh disciple and the opening quest.
func (h *harness) play(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.game.Boot(ctx))
	require.Equal(t, StateMenu, h.game.State())
	require.NoError(t, h.game.NewGame())
	require.NoError(t, h.game.CreateCharacter(ctx, "Pilgrim", "disciple"))
	require.Equal(t, StatePlaying, h.game.State())
}

func (h *harness) push(t *testing.T, in input.Intent) {
	t.Helper()
	require.NoError(t, h.inputs.Push(in))
}

func (h *harness) run(d time.Duration) {
	for ; d > 0; d -= 100 * time.Millisecond {
		h.game.Advance(context.Background(), 100*time.Millisecond)
	}
}

func (h *harness) frame(t *testing.T) Frame {
	t.Helper()
	f, ok := h.frames.Latest()
	require.True(t, ok)
	return f
}

func TestLifecycle_NewGameStartsOpeningQuest(t *testing.T) {
	h := newHarness(t, nil, nil)
	assert.Equal(t, StateLoading, h.game.State())
	assert.ErrorIs(t, h.game.NewGame(), ErrWrongState)

	h.play(t)
	h.game.Advance(context.Background(), 0)
	f := h.frame(t)
	require.NotNil(t, f.Player)
	assert.Equal(t, "disciple", f.Player.Calling)
	assert.Len(t, f.Player.Inventory, 2)
	assert.Equal(t, "bethlehem", f.Player.Location)
	require.Len(t, f.Quests, 1)
	assert.Equal(t, "great_commission", f.Quests[0].ID)
	assert.Contains(t, h.sink.Notes(), "Quest Started: The Great Commission")
}

func TestGreatCommission_ThroughIntents(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game

	elder := g.world.NPC("village_elder").Position
	h.push(t, input.Intent{Type: input.MoveTo, X: elder.X, Y: elder.Y})
	h.run(2 * time.Second)
	require.Equal(t, elder, g.player.Position)
	st, _ := g.quests.Instance("great_commission").Objective("explore_village")
	assert.True(t, st.Completed)

	h.push(t, input.Intent{Type: input.Interact})
	h.run(100 * time.Millisecond)
	assert.True(t, g.player.KnowsScripture("john_3_16"))
	assert.Equal(t, 1, g.player.Fellowship)
	assert.NotNil(t, g.quests.Instance("great_commission"))

	h.push(t, input.Intent{Type: input.UseAbility, ID: "prayer"})
	h.run(100 * time.Millisecond)

	assert.Nil(t, g.quests.Instance("great_commission"))
	assert.Equal(t, []string{"great_commission"}, g.quests.Completed())
	assert.Equal(t, 2, g.player.Level)
	assert.Equal(t, 0, g.player.Experience)
	assert.True(t, g.player.KnowsScripture("matthew_4_19"))
	assert.Equal(t, 8, g.player.Attributes["faith"])
	assert.Equal(t, 6, g.player.Attributes["wisdom"])
	assert.Contains(t, h.sink.Chats(), "System: Pilgrim used Prayer")
	assert.Equal(t, 1, h.sink.CueCount(event.CueLevelUp))
	assert.Equal(t, 1, h.sink.CueCount(event.CueQuestComplete))

	// extra frames never pay the reward twice
	h.run(500 * time.Millisecond)
	assert.Equal(t, 2, g.player.Level)
	assert.Equal(t, 0, g.player.Experience)

	h.run(500 * time.Millisecond)
	assert.NotNil(t, g.quests.Instance("fishers_of_men"))
}

func TestHealingTouch_RejectedWithoutFaith(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game
	res := g.player.Resources()
	res.Set(stats.Faith, stats.Resource{Current: 10, Max: res.Get(stats.Faith).Max})
	res.Set(stats.Health, stats.Resource{Current: 50, Max: res.Get(stats.Health).Max})

	h.push(t, input.Intent{Type: input.UseAbility, ID: "healing_touch"})
	g.Advance(context.Background(), 0)

	assert.Equal(t, 10.0, res.Current(stats.Faith))
	assert.Equal(t, 50.0, res.Current(stats.Health))
	s, _ := g.player.Abilities.State("healing_touch")
	assert.Zero(t, s.CooldownRemaining)
	assert.Contains(t, h.sink.Notes(), "Cannot use ability: insufficient resource")
}

func TestPause_FreezesWorldAndTimers(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game

	h.push(t, input.Intent{Type: input.Move, Direction: "up"})
	h.push(t, input.Intent{Type: input.Pause})
	h.run(time.Second)
	assert.Equal(t, StatePaused, g.State())
	f := h.frame(t)
	assert.True(t, f.Paused)
	assert.Zero(t, f.GameTime)
	assert.Equal(t, g.world.Spawn(), g.player.Position)

	h.push(t, input.Intent{Type: input.UseAbility, ID: "prayer"})
	h.run(100 * time.Millisecond)
	assert.Empty(t, h.sink.Chats(), "actions are dropped while paused")

	h.push(t, input.Intent{Type: input.Resume})
	h.run(100 * time.Millisecond)
	assert.Equal(t, StatePlaying, g.State())
	assert.Less(t, g.player.Position.Y, g.world.Spawn().Y)
	assert.Equal(t, 100*time.Millisecond, h.frame(t).GameTime)
}

func TestStep_ResumeDoesNotReplayPausedTime(t *testing.T) {
	wall := time.Unix(1700000000, 0)
	h := newHarnessAt(t, nil, nil, func() time.Time { return wall })
	h.play(t)
	g := h.game
	ctx := context.Background()

	wall = wall.Add(16 * time.Millisecond)
	g.Step(ctx)
	require.Equal(t, 16*time.Millisecond, h.frame(t).GameTime)

	h.push(t, input.Intent{Type: input.Pause})
	wall = wall.Add(16 * time.Millisecond)
	g.Step(ctx)
	require.Equal(t, StatePaused, g.State())
	assert.Equal(t, 16*time.Millisecond, h.frame(t).GameTime)

	// a long absence while paused
	wall = wall.Add(30 * time.Second)
	g.Step(ctx)
	assert.Equal(t, 16*time.Millisecond, h.frame(t).GameTime)

	h.push(t, input.Intent{Type: input.Resume})
	wall = wall.Add(16 * time.Millisecond)
	g.Step(ctx)
	assert.Equal(t, StatePlaying, g.State())
	assert.Equal(t, 16*time.Millisecond, h.frame(t).GameTime)

	wall = wall.Add(16 * time.Millisecond)
	g.Step(ctx)
	assert.Equal(t, 32*time.Millisecond, h.frame(t).GameTime)
}

func TestBaptismWitness_ThroughIntents(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game
	ctx := context.Background()

	_, err := g.quests.Start(ctx, "baptism_witness")
	require.NoError(t, err)

	// the east bank of the Jordan, within reach of John
	john := g.world.NPC("john_baptist").Position
	g.player.SetPosition(john.X+40, john.Y)
	require.True(t, g.world.IsValidPosition(g.player.Position.X, g.player.Position.Y))
	g.Advance(ctx, 0)
	require.Equal(t, "jordan_river", h.frame(t).Player.Location)

	h.push(t, input.Intent{Type: input.Interact})
	g.Advance(ctx, 0)
	inst := g.quests.Instance("baptism_witness")
	require.NotNil(t, inst)
	st, _ := inst.Objective("witness_baptism")
	assert.True(t, st.Completed)
	st, _ = inst.Objective("meet_john_baptist")
	assert.True(t, st.Completed)

	for i := 0; i < 3; i++ {
		h.push(t, input.Intent{Type: input.UseAbility, ID: "prayer"})
		h.run(11 * time.Second)
	}
	assert.Nil(t, g.quests.Instance("baptism_witness"))
	assert.True(t, g.quests.IsCompleted("baptism_witness"))
	assert.True(t, g.player.KnowsScripture("romans_8_28"))
}

func TestMountainRevelation_SummitStone(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game
	ctx := context.Background()

	_, err := g.quests.Start(ctx, "mountain_revelation")
	require.NoError(t, err)
	summit := g.world.Interactable("summit_stone").Position
	g.player.SetPosition(summit.X, summit.Y)

	h.push(t, input.Intent{Type: input.Interact})
	g.Advance(ctx, 0)

	assert.True(t, g.player.KnowsScripture("proverbs_9_10"))
	assert.True(t, g.quests.IsCompleted("mountain_revelation"))
	assert.Equal(t, 1, h.sink.CueCount(event.CuePrayer))
}

func TestTalkTo_MaryTeachesPsalm(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game
	mary := g.world.NPC("mary_magdalene").Position
	g.player.SetPosition(mary.X, mary.Y)

	h.push(t, input.Intent{Type: input.Interact})
	g.Advance(context.Background(), 0)
	assert.True(t, g.player.KnowsScripture("psalm_23_1"))
}

func TestStartQuest_RepeatableAndGated(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game

	h.push(t, input.Intent{Type: input.StartQuest, ID: "daily_devotion"})
	g.Advance(context.Background(), 0)
	require.NotNil(t, g.quests.Instance("daily_devotion"))

	h.push(t, input.Intent{Type: input.UseAbility, ID: "prayer"})
	h.push(t, input.Intent{Type: input.UseAbility, ID: "blessing"})
	g.Advance(context.Background(), 0)
	assert.Nil(t, g.quests.Instance("daily_devotion"))
	assert.False(t, g.quests.IsCompleted("daily_devotion"), "repeatable quests are not kept")

	h.push(t, input.Intent{Type: input.StartQuest, ID: "daily_devotion"})
	g.Advance(context.Background(), 0)
	assert.NotNil(t, g.quests.Instance("daily_devotion"))

	h.push(t, input.Intent{Type: input.StartQuest, ID: "great_commission"})
	h.push(t, input.Intent{Type: input.StartQuest, ID: "shepherd_calling"})
	h.push(t, input.Intent{Type: input.StartQuest, ID: "no_such_quest"})
	g.Advance(context.Background(), 0)
	notes := h.sink.Notes()
	assert.Contains(t, notes, `Cannot start quest: quest already active or completed: "great_commission"`)
	assert.Contains(t, notes, `Cannot start quest: quest belongs to another calling: "shepherd_calling" needs shepherd`)
	assert.Contains(t, notes, `Cannot start quest: quest not found: "no_such_quest"`)
	assert.Nil(t, g.quests.Instance("shepherd_calling"))
}

func TestInteract_NothingNearby(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	h.push(t, input.Intent{Type: input.Interact})
	h.game.Advance(context.Background(), 0)
	assert.Contains(t, h.sink.Notes(), "Cannot interact: nothing close enough to interact with")
}

func TestInteract_AltarCountsAsPrayer(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game
	altar := g.world.Interactable("altar").Position
	g.player.SetPosition(altar.X, altar.Y)

	h.push(t, input.Intent{Type: input.Interact})
	g.Advance(context.Background(), 0)

	st, _ := g.quests.Instance("great_commission").Objective("pray_together")
	assert.True(t, st.Completed)
	s, _ := g.player.Abilities.State("prayer")
	assert.Zero(t, s.CooldownRemaining)
	assert.Equal(t, 1, h.sink.CueCount(event.CuePrayer))
}

func TestInteract_ProximityMatchesFrame(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game
	well := g.world.Interactable("well").Position
	g.player.SetPosition(well.X+10, well.Y)
	g.Advance(context.Background(), 0)

	f := h.frame(t)
	require.NotEmpty(t, f.Nearby)
	assert.Equal(t, "well", f.Nearby[0].ID)

	faith := g.player.Resources().Current(stats.Faith)
	g.player.Resources().Modify(stats.Faith, -20)
	h.push(t, input.Intent{Type: input.Interact})
	g.Advance(context.Background(), 0)
	assert.Equal(t, faith-15, g.player.Resources().Current(stats.Faith))
}

func TestUseItem_HookVeto(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game
	bread, ok := g.player.Inventory.FirstOf("bread")
	require.True(t, ok)

	h.hooks.Register(hook.BeforeItemUse, 0, "fast", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		return d, hook.ErrInterrupt
	})
	h.push(t, input.Intent{Type: input.UseItem, ID: bread.ID})
	g.Advance(context.Background(), 0)
	assert.Equal(t, 1, g.player.Inventory.CountByDef("bread"))

	h.hooks.UnregisterAll("fast")
	h.push(t, input.Intent{Type: input.UseItem, ID: bread.ID})
	g.Advance(context.Background(), 0)
	assert.Zero(t, g.player.Inventory.CountByDef("bread"))
	assert.Equal(t, 1, h.sink.CueCount(event.CueItemUse))
}

func TestAutosaveAndRestore(t *testing.T) {
	kv, _ := testutil.SetupTestCache(t)
	fast := func(c *config.Config) { c.Game.SaveIntervalS = 1 }

	h := newHarness(t, kv, fast)
	h.play(t)
	h.game.player.LearnScripture("psalm_23_1")
	h.game.player.Fellowship = 4
	h.run(time.Second)

	raw, err := h.store.Read(context.Background(), config.Default().Game.SaveKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "psalm_23_1")

	again := newHarness(t, kv, fast)
	require.NoError(t, again.game.Boot(context.Background()))
	assert.Equal(t, StatePlaying, again.game.State())
	assert.True(t, again.game.player.KnowsScripture("psalm_23_1"))
	assert.Equal(t, 4, again.game.player.Fellowship)
	assert.NotNil(t, again.game.quests.Instance("great_commission"))
}

func TestStop_SavesAndDropsFollowups(t *testing.T) {
	kv, _ := testutil.SetupTestCache(t)
	h := newHarness(t, kv, nil)
	h.play(t)
	g := h.game
	ctx := context.Background()
	for _, id := range []string{"explore_village", "talk_to_elder", "learn_first_scripture", "pray_together"} {
		require.NoError(t, g.quests.CompleteObjective(ctx, "great_commission", id))
	}
	g.Advance(ctx, 100*time.Millisecond)
	require.Equal(t, []string{"great_commission"}, g.quests.Completed())

	g.Stop(ctx)
	g.Stop(ctx)
	g.Advance(ctx, 100*time.Millisecond)
	assert.Nil(t, g.quests.Instance("fishers_of_men"))
	assert.Zero(t, g.sched.Pending())

	again := newHarness(t, kv, nil)
	require.NoError(t, again.game.Boot(ctx))
	assert.True(t, again.game.quests.IsCompleted("great_commission"))
	again.run(time.Second)
	assert.NotNil(t, again.game.quests.Instance("fishers_of_men"))
}

func TestBoot_CorruptSaveStartsFresh(t *testing.T) {
	kv, _ := testutil.SetupTestCache(t)
	h := newHarness(t, kv, nil)
	require.NoError(t, h.store.Write(context.Background(), config.Default().Game.SaveKey, []byte("garbage")))
	require.NoError(t, h.game.Boot(context.Background()))
	assert.Equal(t, StateMenu, h.game.State())
}

func TestSaveIntent(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	h.push(t, input.Intent{Type: input.Save})
	h.game.Advance(context.Background(), 0)
	assert.Contains(t, h.sink.Notes(), "Game Saved: Your journey has been recorded.")
	_, err := h.store.Read(context.Background(), config.Default().Game.SaveKey)
	assert.NoError(t, err)
}

func TestMoveTo_RoutesAcrossTheFord(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.play(t)
	g := h.game
	g.player.SetPosition(800, 300)

	h.push(t, input.Intent{Type: input.MoveTo, X: 640, Y: 300})
	h.run(30 * time.Second)
	assert.Equal(t, player.Vec{X: 640, Y: 300}, g.player.Position)
	assert.False(t, g.player.Moving)
}
