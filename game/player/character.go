package player

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spirittosoul/server/game/item"
	"github.com/spirittosoul/server/game/skill"
	"github.com/spirittosoul/server/game/stats"
	"github.com/spirittosoul/server/resource"
)

var (
	ErrUnknownCalling = errors.New("unknown calling")
	ErrItemNotUsable  = errors.New("item cannot be used")
)

// Leveling curve.
const (
	StartExperienceToNext = 100
	LevelGrowth           = 1.5
	HealthPerLevel        = 10
	FaithPerLevel         = 10
	WisdomPerLevel        = 5
)

// Regeneration rates in units per second.
const (
	FaithRegen          = 2.0
	HealthRegen         = 0.5
	HealthRegenFaithMin = 0.8 // health only regenerates while faith is above this share of max
)

const (
	baseAttribute      = 5
	scriptureMilestone = 10
)

// Attributes are the character's growth stats.
var Attributes = []string{"strength", "wisdom", "faith", "compassion", "courage", "understanding"}

var levelMilestones = map[int]bool{5: true, 10: true, 15: true, 20: true}

// Catalog is the static data a Character needs at creation and item use.
type Catalog interface {
	Item(id string) *resource.Item
	Ability(id string) *resource.Ability
	Calling(id string) *resource.Calling
}

// Achievement is an append-only log entry.
type Achievement struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Options tunes a new Character.
type Options struct {
	InventorySize int
	Speed         float64
	Bounds        Bounds
	Abilities     []*resource.Ability // learned at level 1 before calling bonuses
	Now           func() time.Time
}

// Character is the player-controlled entity: progression, resources,
// position, inventory, abilities and memorized scripture.
type Character struct {
	Name             string
	Calling          string
	Level            int
	Experience       int
	ExperienceToNext int
	Attributes       map[string]int
	Fellowship       int
	Achievements     []Achievement

	Inventory *item.Inventory
	Abilities *skill.Registry

	Mover

	res        *stats.Pool
	scriptures map[string]struct{}
	now        func() time.Time
}

// New creates a level 1 character of the given calling with full
// resources, the calling's starting items and its bonuses applied.
func New(name, callingID string, cat Catalog, opts Options) (*Character, error) {
	calling := cat.Calling(callingID)
	if calling == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCalling, callingID)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Character{
		Name:             name,
		Calling:          calling.ID,
		Level:            1,
		ExperienceToNext: StartExperienceToNext,
		Attributes:       make(map[string]int, len(Attributes)),
		Inventory:        item.NewInventory(opts.InventorySize),
		Abilities:        skill.NewRegistry(),
		Mover:            NewMover(opts.Speed, opts.Bounds),
		res:              stats.NewPool(calling.Resources.Health, calling.Resources.Faith, calling.Resources.Wisdom),
		scriptures:       make(map[string]struct{}),
		now:              opts.Now,
	}
	for _, a := range Attributes {
		c.Attributes[a] = baseAttribute
	}
	for a, bonus := range calling.AttributeBonus {
		c.Attributes[a] += bonus
	}
	for _, def := range opts.Abilities {
		c.Abilities.Learn(def, 1)
	}
	for id, bonus := range calling.AbilityBonus {
		if def := cat.Ability(id); def != nil {
			c.Abilities.Learn(def, bonus)
		}
	}
	for _, id := range calling.StartingItems {
		def := cat.Item(id)
		if def == nil {
			return nil, fmt.Errorf("calling %q: unknown starting item %q", calling.ID, id)
		}
		if _, err := c.Inventory.Add(def); err != nil {
			return nil, fmt.Errorf("calling %q: starting item %q: %w", calling.ID, id, err)
		}
	}
	return c, nil
}

// Resources exposes the resource pool.
func (c *Character) Resources() *stats.Pool { return c.res }

// ScriptureCount returns how many verses are memorized.
func (c *Character) ScriptureCount() int { return len(c.scriptures) }

// KnowsScripture reports whether id is memorized.
func (c *Character) KnowsScripture(id string) bool {
	_, ok := c.scriptures[id]
	return ok
}

// Scriptures returns memorized ids, sorted.
func (c *Character) Scriptures() []string {
	out := make([]string, 0, len(c.scriptures))
	for id := range c.scriptures {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LearnScripture memorizes id. It returns false if it was already known.
func (c *Character) LearnScripture(id string) bool {
	if _, ok := c.scriptures[id]; ok {
		return false
	}
	c.scriptures[id] = struct{}{}
	if n := len(c.scriptures); n%scriptureMilestone == 0 {
		c.Achieve("Scripture Scholar", fmt.Sprintf("Memorized %d scriptures", n))
	}
	return true
}

// Achieve appends an achievement stamped with the current time.
func (c *Character) Achieve(title, description string) {
	c.Achievements = append(c.Achievements, Achievement{Title: title, Description: description, Timestamp: c.now()})
}

// AddAttribute bumps a growth attribute.
func (c *Character) AddAttribute(name string, delta int) {
	c.Attributes[name] += delta
}

// GainExperience adds amount and applies every level-up it pays for, so one
// large grant can raise several levels. Each level raises every max and
// restores all resources. It returns the number of levels gained.
func (c *Character) GainExperience(amount int) int {
	if amount <= 0 {
		return 0
	}
	c.Experience += amount
	gained := 0
	for c.Experience >= c.ExperienceToNext {
		c.Experience -= c.ExperienceToNext
		c.Level++
		gained++
		c.ExperienceToNext = int(math.Floor(float64(c.ExperienceToNext) * LevelGrowth))
		c.res.SetMax(stats.Health, c.res.Get(stats.Health).Max+HealthPerLevel)
		c.res.SetMax(stats.Faith, c.res.Get(stats.Faith).Max+FaithPerLevel)
		c.res.SetMax(stats.Wisdom, c.res.Get(stats.Wisdom).Max+WisdomPerLevel)
		c.res.Fill()
		if levelMilestones[c.Level] {
			c.Achieve(fmt.Sprintf("Level %d", c.Level), fmt.Sprintf("Reached level %d", c.Level))
		}
	}
	return gained
}

// UseAbility fires ability id against this character.
func (c *Character) UseAbility(id string) (skill.Result, error) {
	return c.Abilities.Use(id, c)
}

// ItemUse reports what a successful item use did.
type ItemUse struct {
	Item         item.Instance
	Applied      resource.Effects
	LevelsGained int
	Consumed     bool
}

// UseItem applies a carried item's effects. Consumables are removed.
func (c *Character) UseItem(instanceID string, cat Catalog) (ItemUse, error) {
	inst, ok := c.Inventory.Find(instanceID)
	if !ok {
		return ItemUse{}, item.ErrItemNotFound
	}
	def := cat.Item(inst.DefID)
	if def == nil || def.Effects.IsZero() {
		return ItemUse{}, ErrItemNotUsable
	}
	use := ItemUse{Item: inst}
	use.Applied.Health = c.res.Modify(stats.Health, def.Effects.Health)
	use.Applied.Faith = c.res.Modify(stats.Faith, def.Effects.Faith)
	use.Applied.Wisdom = c.res.Modify(stats.Wisdom, def.Effects.Wisdom)
	use.Applied.Experience = def.Effects.Experience
	use.LevelsGained = c.GainExperience(def.Effects.Experience)
	if def.Consumable {
		if _, err := c.Inventory.Remove(instanceID); err != nil {
			return use, err
		}
		use.Consumed = true
	}
	return use, nil
}

// Update advances cooldowns and regeneration by dt seconds.
func (c *Character) Update(dt float64) {
	c.Abilities.Tick(dt)
	c.res.Regen(stats.Faith, FaithRegen, dt)
	if c.res.Get(stats.Faith).Ratio() > HealthRegenFaithMin {
		c.res.Regen(stats.Health, HealthRegen, dt)
	}
}
