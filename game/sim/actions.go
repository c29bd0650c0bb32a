package sim

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spirittosoul/server/game/event"
	"github.com/spirittosoul/server/game/input"
	"github.com/spirittosoul/server/game/item"
	"github.com/spirittosoul/server/game/player"
	"github.com/spirittosoul/server/game/quest"
	"github.com/spirittosoul/server/game/stats"
	"github.com/spirittosoul/server/game/world"
	"github.com/spirittosoul/server/metrics"
	"github.com/spirittosoul/server/plugin/hook"
	"github.com/spirittosoul/server/resource"
	"go.uber.org/zap"
)

var errNothingNearby = errors.New("nothing close enough to interact with")

func (g *Game) handle(ctx context.Context, in input.Intent) {
	switch in.Type {
	case input.Pause:
		g.control(in, g.pause())
		return
	case input.Resume:
		g.control(in, g.resume())
		return
	case input.Save:
		if err := g.save(ctx); err != nil {
			g.reject(in, "save", err)
			return
		}
		g.events.Notify("Game Saved", "Your journey has been recorded.")
		return
	}
	if g.state != StatePlaying {
		g.logger.Debug("intent dropped", zap.String("intent", string(in.Type)), zap.String("state", string(g.state)))
		return
	}
	switch in.Type {
	case input.Move:
		g.player.MoveInDirection(player.Direction(in.Direction))
	case input.MoveTo:
		target := player.Vec{X: in.X, Y: in.Y}
		if path, ok := g.world.Route(g.player.Position, target); ok {
			g.player.FollowPath(path)
		} else {
			g.player.MoveTo(in.X, in.Y)
		}
	case input.Interact:
		g.interact(ctx, in)
	case input.UseAbility:
		g.useAbility(ctx, in)
	case input.UseItem:
		g.useItem(ctx, in)
	case input.StartQuest:
		if _, err := g.quests.Start(ctx, in.ID); err != nil {
			g.reject(in, "start quest", err)
		}
	}
}

func (g *Game) control(in input.Intent, err error) {
	if err != nil {
		g.logger.Debug("control intent ignored", zap.String("intent", string(in.Type)), zap.String("state", string(g.state)))
	}
}

// reject tells the player why an action failed.
func (g *Game) reject(in input.Intent, action string, err error) {
	metrics.IntentsRejected.WithLabelValues(string(in.Type), reason(err)).Inc()
	g.events.Reject(action, err)
}

func reason(err error) string {
	switch {
	case errors.Is(err, item.ErrInventoryFull):
		return "inventory_full"
	case errors.Is(err, item.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, player.ErrItemNotUsable):
		return "item_not_usable"
	case errors.Is(err, hook.ErrInterrupt):
		return "vetoed"
	case errors.Is(err, errNothingNearby):
		return "nothing_nearby"
	case errors.Is(err, ErrWrongState):
		return "wrong_state"
	case errors.Is(err, quest.ErrQuestNotFound):
		return "quest_not_found"
	case errors.Is(err, quest.ErrQuestUnavailable):
		return "quest_unavailable"
	case errors.Is(err, quest.ErrCallingMismatch):
		return "calling_mismatch"
	}
	// skill errors carry their own names
	return strings.ReplaceAll(err.Error(), " ", "_")
}

func (g *Game) interact(ctx context.Context, in input.Intent) {
	e, ok := g.world.Nearest(g.player.Position)
	if !ok {
		g.reject(in, "interact", errNothingNearby)
		return
	}
	err := g.events.Emit(ctx, hook.OnInteract, event.InteractPayload{Player: g.player.Name, EntityID: e.ID, Kind: string(e.Kind)})
	if errors.Is(err, hook.ErrInterrupt) {
		g.reject(in, "interact", err)
		return
	}
	g.events.Cue(event.CueInteract)
	switch e.Kind {
	case world.KindNPC:
		g.talkTo(ctx, g.world.NPC(e.ID))
	case world.KindInteractable:
		g.useObject(ctx, g.world.Interactable(e.ID))
	}
}

func (g *Game) talkTo(ctx context.Context, npc *world.NPC) {
	if line := npc.NextLine(); line != "" {
		g.events.Chat(npc.Def.Name, line)
	}
	g.player.Fellowship++
	if npc.Def.Teaches != "" {
		g.learnScripture(npc.Def.Teaches)
	}
	g.quests.Record(ctx, quest.TalkedTo(npc.Def.ID))
	g.witness(ctx, npc.Def.Event)
}

// witness records a special event, if any, against the quest log.
func (g *Game) witness(ctx context.Context, ev string) {
	if ev == "" {
		return
	}
	g.logger.Debug("special event", zap.String("event", ev))
	g.quests.Record(ctx, quest.Happened(ev))
}

func (g *Game) useObject(ctx context.Context, obj *world.Interactable) {
	def := obj.Def
	switch def.Kind {
	case resource.InteractRestore:
		kind := stats.Kind(def.Resource)
		if !kind.Valid() {
			g.logger.Warn("interactable restores unknown resource", zap.String("id", def.ID), zap.String("resource", def.Resource))
			return
		}
		got := g.player.Resources().Modify(kind, def.Amount)
		g.events.Notify(def.Name, fmt.Sprintf("Restored %.0f %s", got, kind))
	case resource.InteractPray:
		// Praying at an altar counts as a prayer without touching its cooldown.
		g.events.Cue(event.CuePrayer)
		g.events.Chat(event.SystemSpeaker, fmt.Sprintf("%s prays at the %s", g.player.Name, strings.ToLower(def.Name)))
		g.quests.Record(ctx, quest.Used("prayer"))
		if def.Scripture != "" {
			g.learnScripture(def.Scripture)
		}
	case resource.InteractScripture:
		if !g.learnScripture(def.Scripture) {
			g.events.Notify(def.Name, "You already know this passage.")
		}
	}
	g.witness(ctx, def.Event)
}

// learnScripture memorizes id and announces it. It reports whether the
// verse was new.
func (g *Game) learnScripture(id string) bool {
	if !g.player.LearnScripture(id) {
		return false
	}
	ref := id
	if s := g.cat.Scripture(id); s != nil {
		ref = s.Reference
	}
	g.events.Notify("Scripture Memorized", ref)
	return true
}

func (g *Game) useAbility(ctx context.Context, in input.Intent) {
	res, err := g.player.UseAbility(in.ID)
	if err != nil {
		g.reject(in, "use ability", err)
		return
	}
	g.events.Chat(event.SystemSpeaker, fmt.Sprintf("%s used %s", g.player.Name, res.Name))
	g.events.Cue(res.Cue)
	g.quests.Record(ctx, quest.Used(res.AbilityID))
	_ = g.events.Emit(ctx, hook.AfterAbilityUse, event.AbilityPayload{Player: g.player.Name, AbilityID: res.AbilityID})
}

func (g *Game) useItem(ctx context.Context, in input.Intent) {
	inst, ok := g.player.Inventory.Find(in.ID)
	if !ok {
		g.reject(in, "use item", item.ErrItemNotFound)
		return
	}
	err := g.events.Emit(ctx, hook.BeforeItemUse, event.ItemPayload{Player: g.player.Name, InstanceID: inst.ID, ItemID: inst.DefID})
	if errors.Is(err, hook.ErrInterrupt) {
		g.reject(in, "use item", err)
		return
	}
	use, err := g.player.UseItem(in.ID, g.cat)
	if err != nil {
		g.reject(in, "use "+inst.Name, err)
		return
	}
	g.events.Cue(event.CueItemUse)
	g.events.Notify(inst.Name, describe(use.Applied))
	g.announceLevels(ctx, use.LevelsGained)
}

func describe(e resource.Effects) string {
	var parts []string
	add := func(v float64, what string) {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%+.0f %s", v, what))
		}
	}
	add(e.Health, "health")
	add(e.Faith, "faith")
	add(e.Wisdom, "wisdom")
	add(float64(e.Experience), "experience")
	if len(parts) == 0 {
		return "Nothing happened."
	}
	return strings.Join(parts, ", ")
}

// announceLevels fires one notification and cue per level gained.
func (g *Game) announceLevels(ctx context.Context, gained int) {
	for i := gained - 1; i >= 0; i-- {
		lvl := g.player.Level - i
		metrics.LevelUps.Inc()
		g.logger.Info("level up", zap.String("player", g.player.Name), zap.Int("level", lvl))
		g.events.Notify("Level Up!", fmt.Sprintf("You reached level %d", lvl))
		g.events.Cue(event.CueLevelUp)
		_ = g.events.Emit(ctx, hook.OnLevelUp, event.LevelUpPayload{Player: g.player.Name, Level: lvl})
	}
}

// GrantReward applies a quest reward: experience, items, scripture, then
// attributes. A full inventory forfeits the item with a notice.
func (g *Game) GrantReward(ctx context.Context, def *quest.Definition) {
	r := def.Reward
	g.announceLevels(ctx, g.player.GainExperience(r.Experience))
	for _, id := range r.Items {
		it := g.cat.Item(id)
		if it == nil {
			continue
		}
		if _, err := g.player.Inventory.Add(it); err != nil {
			g.events.Notify("Inventory Full", fmt.Sprintf("No room for %s", it.Name))
		}
	}
	if r.Scripture != "" {
		g.learnScripture(r.Scripture)
	}
	for attr, n := range r.Attributes {
		g.player.AddAttribute(attr, n)
	}
}

// progress exposes the current character to the quest engine.
type progress struct{ g *Game }

func (p progress) PlayerName() string            { return p.g.player.Name }
func (p progress) PlayerLevel() int              { return p.g.player.Level }
func (p progress) CallingID() string             { return p.g.player.Calling }
func (p progress) KnowsScripture(id string) bool { return p.g.player.KnowsScripture(id) }
func (p progress) ItemCount(defID string) int    { return p.g.player.Inventory.CountByDef(defID) }
func (p progress) Coordinates() (x, y float64)   { return p.g.player.Position.X, p.g.player.Position.Y }
