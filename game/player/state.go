package player

import (
	"github.com/spirittosoul/server/game/item"
	"github.com/spirittosoul/server/game/skill"
	"github.com/spirittosoul/server/game/stats"
)

// State is the persistable form of a Character.
type State struct {
	Name             string                        `json:"name"`
	Calling          string                        `json:"calling"`
	Level            int                           `json:"level"`
	Experience       int                           `json:"experience"`
	ExperienceToNext int                           `json:"experience_to_next"`
	Resources        map[stats.Kind]stats.Resource `json:"resources"`
	Attributes       map[string]int                `json:"attributes"`
	Position         Vec                           `json:"position"`
	Facing           Direction                     `json:"facing"`
	Inventory        []item.Instance               `json:"inventory"`
	Abilities        map[string]skill.State        `json:"abilities"`
	Scriptures       []string                      `json:"scriptures"`
	Achievements     []Achievement                 `json:"achievements"`
	Fellowship       int                           `json:"fellowship"`
}

// Snapshot copies the character into a State.
func (c *Character) Snapshot() State {
	attrs := make(map[string]int, len(c.Attributes))
	for k, v := range c.Attributes {
		attrs[k] = v
	}
	achievements := make([]Achievement, len(c.Achievements))
	copy(achievements, c.Achievements)
	return State{
		Name:             c.Name,
		Calling:          c.Calling,
		Level:            c.Level,
		Experience:       c.Experience,
		ExperienceToNext: c.ExperienceToNext,
		Resources:        c.res.Snapshot(),
		Attributes:       attrs,
		Position:         c.Position,
		Facing:           c.Facing,
		Inventory:        c.Inventory.Items(),
		Abilities:        c.Abilities.Snapshot(),
		Scriptures:       c.Scriptures(),
		Achievements:     achievements,
		Fellowship:       c.Fellowship,
	}
}

// Restore overwrites the character from s. Out-of-range values are
// repaired rather than rejected so older saves still load.
func (c *Character) Restore(s State, cat Catalog) {
	if s.Name != "" {
		c.Name = s.Name
	}
	if s.Calling != "" && cat.Calling(s.Calling) != nil {
		c.Calling = s.Calling
	}
	c.Level = max(1, s.Level)
	c.ExperienceToNext = s.ExperienceToNext
	if c.ExperienceToNext <= 0 {
		c.ExperienceToNext = StartExperienceToNext
	}
	c.Experience = max(0, s.Experience)
	// A save written mid-level-up still satisfies experience < next after load.
	if c.Experience >= c.ExperienceToNext {
		xp := c.Experience
		c.Experience = 0
		c.GainExperience(xp)
	}
	for kind, r := range s.Resources {
		if kind.Valid() {
			c.res.Set(kind, r)
		}
	}
	for k, v := range s.Attributes {
		c.Attributes[k] = v
	}
	c.SetPosition(s.Position.X, s.Position.Y)
	if s.Facing.Valid() {
		c.Facing = s.Facing
	}
	c.Inventory.Restore(s.Inventory)
	c.Abilities.Restore(s.Abilities, cat.Ability)
	c.scriptures = make(map[string]struct{}, len(s.Scriptures))
	for _, id := range s.Scriptures {
		c.scriptures[id] = struct{}{}
	}
	c.Achievements = append(c.Achievements[:0], s.Achievements...)
	c.Fellowship = max(0, s.Fellowship)
}
