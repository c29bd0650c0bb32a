package quest

import (
	"fmt"
	"strconv"

	"github.com/spirittosoul/server/resource"
)

// Kind is the closed set of objective kinds.
type Kind string

const (
	KindTalkTo         Kind = "talk_to"
	KindVisitLocation  Kind = "visit_location"
	KindLearnScripture Kind = "learn_scripture"
	KindUseAbility     Kind = "use_ability"
	KindReachLevel     Kind = "reach_level"
	KindCollectItem    Kind = "collect_item"
	KindSpecialEvent   Kind = "special_event"
)

// PlayerState is the read-only view of the character that poll objectives
// evaluate against.
type PlayerState interface {
	PlayerName() string
	PlayerLevel() int
	CallingID() string
	KnowsScripture(id string) bool
	ItemCount(defID string) int
	Coordinates() (x, y float64)
}

// LocationResolver maps a world position to a location id, or "".
type LocationResolver interface {
	LocationAt(x, y float64) string
}

// env is what a poll condition may read.
type env struct {
	player    PlayerState
	locations LocationResolver
}

// Condition is an objective's completion rule. Tracked conditions are
// counters advanced only by signals; the rest are predicates polled every
// tick. The unexported method keeps the set closed to this package.
type Condition interface {
	Kind() Kind
	Tracked() bool
	satisfied(progress int, e env) bool
}

// Counter is implemented by tracked conditions.
type Counter interface {
	Condition
	// Key is the signal that advances the counter.
	Key() string
	Need() int
}

type TalkTo struct{ NPC string }

func (TalkTo) Kind() Kind                           { return KindTalkTo }
func (TalkTo) Tracked() bool                        { return true }
func (c TalkTo) Key() string                        { return TalkedTo(c.NPC).Key }
func (TalkTo) Need() int                            { return 1 }
func (c TalkTo) satisfied(progress int, _ env) bool { return progress >= c.Need() }

type UseAbility struct {
	Ability string
	Count   int
}

func (UseAbility) Kind() Kind                           { return KindUseAbility }
func (UseAbility) Tracked() bool                        { return true }
func (c UseAbility) Key() string                        { return Used(c.Ability).Key }
func (c UseAbility) Need() int                          { return c.Count }
func (c UseAbility) satisfied(progress int, _ env) bool { return progress >= c.Need() }

type SpecialEvent struct{ Event string }

func (SpecialEvent) Kind() Kind                           { return KindSpecialEvent }
func (SpecialEvent) Tracked() bool                        { return true }
func (c SpecialEvent) Key() string                        { return Happened(c.Event).Key }
func (SpecialEvent) Need() int                            { return 1 }
func (c SpecialEvent) satisfied(progress int, _ env) bool { return progress >= c.Need() }

type VisitLocation struct{ Location string }

func (VisitLocation) Kind() Kind    { return KindVisitLocation }
func (VisitLocation) Tracked() bool { return false }
func (c VisitLocation) satisfied(_ int, e env) bool {
	x, y := e.player.Coordinates()
	return e.locations.LocationAt(x, y) == c.Location
}

type LearnScripture struct{ Scripture string }

func (LearnScripture) Kind() Kind    { return KindLearnScripture }
func (LearnScripture) Tracked() bool { return false }
func (c LearnScripture) satisfied(_ int, e env) bool {
	return e.player.KnowsScripture(c.Scripture)
}

type ReachLevel struct{ Level int }

func (ReachLevel) Kind() Kind    { return KindReachLevel }
func (ReachLevel) Tracked() bool { return false }
func (c ReachLevel) satisfied(_ int, e env) bool {
	return e.player.PlayerLevel() >= c.Level
}

type CollectItem struct {
	Item  string
	Count int
}

func (CollectItem) Kind() Kind    { return KindCollectItem }
func (CollectItem) Tracked() bool { return false }
func (c CollectItem) satisfied(_ int, e env) bool {
	return e.player.ItemCount(c.Item) >= c.Count
}

// Signal advances every active counter objective with a matching key.
type Signal struct{ Key string }

func TalkedTo(npc string) Signal   { return Signal{Key: "talked_to_" + npc} }
func Used(ability string) Signal   { return Signal{Key: "used_" + ability} }
func Happened(event string) Signal { return Signal{Key: "event_" + event} }

// Objective is one requirement of a quest definition.
type Objective struct {
	ID          string
	Description string
	Condition   Condition
}

// ParseObjective builds an Objective from its catalogue entry.
func ParseObjective(o resource.Objective) (Objective, error) {
	count := o.Count
	if count <= 0 {
		count = 1
	}
	var c Condition
	switch Kind(o.Type) {
	case KindTalkTo:
		c = TalkTo{NPC: o.Target}
	case KindVisitLocation:
		c = VisitLocation{Location: o.Target}
	case KindLearnScripture:
		c = LearnScripture{Scripture: o.Target}
	case KindUseAbility:
		c = UseAbility{Ability: o.Target, Count: count}
	case KindReachLevel:
		lvl, err := strconv.Atoi(o.Target)
		if err != nil || lvl < 1 {
			return Objective{}, fmt.Errorf("objective %q: bad level %q", o.ID, o.Target)
		}
		c = ReachLevel{Level: lvl}
	case KindCollectItem:
		c = CollectItem{Item: o.Target, Count: count}
	case KindSpecialEvent:
		c = SpecialEvent{Event: o.Target}
	default:
		return Objective{}, fmt.Errorf("%w: %q", ErrUnknownObjective, o.Type)
	}
	return Objective{ID: o.ID, Description: o.Description, Condition: c}, nil
}
