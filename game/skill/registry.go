package skill

import (
	"errors"
	"sort"

	"github.com/spirittosoul/server/game/stats"
	"github.com/spirittosoul/server/resource"
)

var (
	ErrUnknownAbility       = errors.New("unknown ability")
	ErrAbilityOnCooldown    = errors.New("ability on cooldown")
	ErrInsufficientResource = errors.New("insufficient resource")
)

// Caster is what an ability reads and writes on its user.
type Caster interface {
	Resources() *stats.Pool
	ScriptureCount() int
}

// State is the per-character state of one ability.
type State struct {
	Level             int     `json:"level"`
	CooldownRemaining float64 `json:"cooldown_remaining"`
	CooldownMax       float64 `json:"cooldown_max"`
}

// Result describes a successful use for relaying to chat and audio sinks.
type Result struct {
	AbilityID string
	Name      string
	Cue       string
	// Applied holds the resource deltas that actually landed after clamping,
	// costs included.
	Applied resource.Effects
}

type slot struct {
	def   *resource.Ability
	state State
}

// Registry is a character's set of learned abilities.
type Registry struct {
	slots map[string]*slot
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// Learn adds def at level 1, or raises its level by levels when known.
func (r *Registry) Learn(def *resource.Ability, levels int) {
	if levels < 1 {
		levels = 1
	}
	if s, ok := r.slots[def.ID]; ok {
		s.state.Level += levels
		return
	}
	r.slots[def.ID] = &slot{def: def, state: State{Level: levels, CooldownMax: def.Cooldown}}
}

// Has reports whether id is learned.
func (r *Registry) Has(id string) bool {
	_, ok := r.slots[id]
	return ok
}

// State returns the state for id.
func (r *Registry) State(id string) (State, bool) {
	s, ok := r.slots[id]
	if !ok {
		return State{}, false
	}
	return s.state, true
}

// Tick counts every cooldown down by dt seconds, stopping at 0.
func (r *Registry) Tick(dt float64) {
	for _, s := range r.slots {
		if s.state.CooldownRemaining > 0 {
			s.state.CooldownRemaining -= dt
			if s.state.CooldownRemaining < 0 {
				s.state.CooldownRemaining = 0
			}
		}
	}
}

// Check reports why id could not be used right now, without changing state.
func (r *Registry) Check(id string, c Caster) error {
	s, ok := r.slots[id]
	if !ok {
		return ErrUnknownAbility
	}
	if s.state.CooldownRemaining > 0 {
		return ErrAbilityOnCooldown
	}
	if c.ScriptureCount() < s.def.RequiresScripture {
		return ErrInsufficientResource
	}
	pool := c.Resources()
	costs := s.def.Costs
	if pool.Current(stats.Health) < costs.Health ||
		pool.Current(stats.Faith) < costs.Faith ||
		pool.Current(stats.Wisdom) < costs.Wisdom {
		return ErrInsufficientResource
	}
	return nil
}

// Use fires ability id. Every requirement is checked before anything is
// applied, so a rejected use leaves resources and cooldown untouched.
func (r *Registry) Use(id string, c Caster) (Result, error) {
	if err := r.Check(id, c); err != nil {
		return Result{}, err
	}
	s := r.slots[id]
	pool := c.Resources()
	applied := resource.Effects{
		Health: pool.Modify(stats.Health, s.def.Effects.Health-s.def.Costs.Health),
		Faith:  pool.Modify(stats.Faith, s.def.Effects.Faith-s.def.Costs.Faith),
		Wisdom: pool.Modify(stats.Wisdom, s.def.Effects.Wisdom-s.def.Costs.Wisdom),
	}
	s.state.CooldownRemaining = s.state.CooldownMax
	return Result{AbilityID: id, Name: s.def.Name, Cue: s.def.Cue, Applied: applied}, nil
}

// IDs returns learned ability ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.slots))
	for id := range r.slots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot copies every ability state keyed by id.
func (r *Registry) Snapshot() map[string]State {
	out := make(map[string]State, len(r.slots))
	for id, s := range r.slots {
		out[id] = s.state
	}
	return out
}

// Restore overwrites learned abilities' state from a snapshot. Entries for
// abilities not in the catalogue are skipped.
func (r *Registry) Restore(states map[string]State, lookup func(id string) *resource.Ability) {
	for id, st := range states {
		def := lookup(id)
		if def == nil {
			continue
		}
		if st.Level < 1 {
			st.Level = 1
		}
		st.CooldownMax = def.Cooldown
		if st.CooldownRemaining < 0 {
			st.CooldownRemaining = 0
		}
		if st.CooldownRemaining > st.CooldownMax {
			st.CooldownRemaining = st.CooldownMax
		}
		r.slots[id] = &slot{def: def, state: st}
	}
}
