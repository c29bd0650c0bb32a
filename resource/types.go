package resource

// Effects is a bundle of resource deltas and an experience grant. It is
// shared by item use, ability use and ability costs.
type Effects struct {
	Health     float64 `json:"health,omitempty"`
	Faith      float64 `json:"faith,omitempty"`
	Wisdom     float64 `json:"wisdom,omitempty"`
	Experience int     `json:"experience,omitempty"`
}

// IsZero reports whether the bundle changes nothing.
func (e Effects) IsZero() bool {
	return e == Effects{}
}

type Scripture struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Text      string `json:"text"`
}

type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Consumable  bool    `json:"consumable"`
	Effects     Effects `json:"effects"`
}

type Ability struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Cooldown          float64 `json:"cooldown"` // seconds
	RequiresScripture int     `json:"requires_scripture"`
	Costs             Effects `json:"costs"`
	Effects           Effects `json:"effects"`
	Cue               string  `json:"cue"`
}

// Resources holds per-calling maximums for health, faith and wisdom.
type Resources struct {
	Health float64 `json:"health"`
	Faith  float64 `json:"faith"`
	Wisdom float64 `json:"wisdom"`
}

type Calling struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Resources      Resources      `json:"resources"`
	StartingItems  []string       `json:"starting_items"`
	AttributeBonus map[string]int `json:"attribute_bonus"`
	AbilityBonus   map[string]int `json:"ability_bonus"`
}

type Objective struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Target      string `json:"target"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

type Reward struct {
	Experience int            `json:"experience"`
	Items      []string       `json:"items"`
	Scripture  string         `json:"scripture"`
	Attributes map[string]int `json:"attributes"`
}

type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Objectives  []Objective `json:"objectives"`
	Rewards     Reward      `json:"rewards"`
	FollowUp    []string    `json:"follow_up"`
	Calling     string      `json:"calling"`
	Repeatable  bool        `json:"repeatable"`
}

// Point is a position expressed as fractions of the world size.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Location struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

type NPC struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Wander   bool     `json:"wander"`
	Dialogue []string `json:"dialogue"`
	Teaches  string   `json:"teaches,omitempty"` // scripture shared on every conversation
	Event    string   `json:"event,omitempty"`   // special event witnessed by talking
}

// Interactable kinds.
const (
	InteractRestore   = "restore"
	InteractPray      = "pray"
	InteractScripture = "scripture"
)

type Interactable struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Kind      string  `json:"kind"`
	Resource  string  `json:"resource"`
	Amount    float64 `json:"amount"`
	Scripture string  `json:"scripture"`
	Event     string  `json:"event,omitempty"`
}

type River struct {
	X              float64 `json:"x"`
	Width          float64 `json:"width"`
	FordY          float64 `json:"ford_y"`
	FordHalfHeight float64 `json:"ford_half_height"`
}

type NPCWander struct {
	ChancePerSecond float64 `json:"chance_per_second"`
	Step            float64 `json:"step"`
	Margin          float64 `json:"margin"`
}

type World struct {
	Spawn         Point          `json:"spawn"`
	Locations     []Location     `json:"locations"`
	NPCs          []NPC          `json:"npcs"`
	Interactables []Interactable `json:"interactables"`
	River         River          `json:"river"`
	NPCWander     NPCWander      `json:"npc_wander"`
}
