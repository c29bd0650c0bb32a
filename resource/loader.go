package resource

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed data/*.json
var embedded embed.FS

// ResourceLoader loads the static game catalogues. Files are read from
// DataPath when present there and from the built-in data otherwise, so a
// data directory may override any subset of them.
type ResourceLoader struct {
	DataPath string

	Scriptures []*Scripture
	Items      []*Item
	Abilities  []*Ability
	Callings   []*Calling
	Quests     []*Quest
	World      *World

	scriptureByID map[string]*Scripture
	itemByID      map[string]*Item
	abilityByID   map[string]*Ability
	callingByID   map[string]*Calling
	questByID     map[string]*Quest
}

// NewLoader creates a ResourceLoader. An empty dataPath uses only the
// built-in data.
func NewLoader(dataPath string) *ResourceLoader {
	return &ResourceLoader{DataPath: dataPath}
}

// Load reads every catalogue, indexes it and checks cross references.
func (rl *ResourceLoader) Load() error {
	loaders := []func() error{
		func() (err error) { rl.Scriptures, err = loadJSONArray[Scripture](rl, "scriptures.json"); return },
		func() (err error) { rl.Items, err = loadJSONArray[Item](rl, "items.json"); return },
		func() (err error) { rl.Abilities, err = loadJSONArray[Ability](rl, "abilities.json"); return },
		func() (err error) { rl.Callings, err = loadJSONArray[Calling](rl, "callings.json"); return },
		func() (err error) { rl.Quests, err = loadJSONArray[Quest](rl, "quests.json"); return },
		func() error { rl.World = &World{}; return loadJSONObject(rl, "world.json", rl.World) },
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return err
		}
	}
	if err := rl.index(); err != nil {
		return err
	}
	return rl.validate()
}

func (rl *ResourceLoader) read(file string) ([]byte, error) {
	if rl.DataPath != "" {
		data, err := os.ReadFile(filepath.Join(rl.DataPath, file))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("resource: read %s: %w", file, err)
		}
	}
	data, err := embedded.ReadFile("data/" + file)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", file, err)
	}
	return data, nil
}

func loadJSONArray[T any](rl *ResourceLoader, file string) ([]*T, error) {
	data, err := rl.read(file)
	if err != nil {
		return nil, err
	}
	var arr []*T
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", file, err)
	}
	return arr, nil
}

func loadJSONObject[T any](rl *ResourceLoader, file string, out *T) error {
	data, err := rl.read(file)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("resource: parse %s: %w", file, err)
	}
	return nil
}

func indexByID[T any](file string, list []*T, id func(*T) string) (map[string]*T, error) {
	m := make(map[string]*T, len(list))
	for _, v := range list {
		if v == nil {
			continue
		}
		k := id(v)
		if k == "" {
			return nil, fmt.Errorf("resource: %s: entry without id", file)
		}
		if _, dup := m[k]; dup {
			return nil, fmt.Errorf("resource: %s: duplicate id %q", file, k)
		}
		m[k] = v
	}
	return m, nil
}

func (rl *ResourceLoader) index() (err error) {
	if rl.scriptureByID, err = indexByID("scriptures.json", rl.Scriptures, func(s *Scripture) string { return s.ID }); err != nil {
		return err
	}
	if rl.itemByID, err = indexByID("items.json", rl.Items, func(i *Item) string { return i.ID }); err != nil {
		return err
	}
	if rl.abilityByID, err = indexByID("abilities.json", rl.Abilities, func(a *Ability) string { return a.ID }); err != nil {
		return err
	}
	if rl.callingByID, err = indexByID("callings.json", rl.Callings, func(c *Calling) string { return c.ID }); err != nil {
		return err
	}
	rl.questByID, err = indexByID("quests.json", rl.Quests, func(q *Quest) string { return q.ID })
	return err
}

// validate checks that every id referenced across catalogues exists.
func (rl *ResourceLoader) validate() error {
	for _, c := range rl.Callings {
		for _, it := range c.StartingItems {
			if rl.itemByID[it] == nil {
				return fmt.Errorf("resource: calling %q: unknown starting item %q", c.ID, it)
			}
		}
		for ab := range c.AbilityBonus {
			if rl.abilityByID[ab] == nil {
				return fmt.Errorf("resource: calling %q: unknown ability %q", c.ID, ab)
			}
		}
	}
	for _, q := range rl.Quests {
		for _, f := range q.FollowUp {
			if rl.questByID[f] == nil {
				return fmt.Errorf("resource: quest %q: unknown follow-up %q", q.ID, f)
			}
		}
		for _, it := range q.Rewards.Items {
			if rl.itemByID[it] == nil {
				return fmt.Errorf("resource: quest %q: unknown reward item %q", q.ID, it)
			}
		}
		if s := q.Rewards.Scripture; s != "" && rl.scriptureByID[s] == nil {
			return fmt.Errorf("resource: quest %q: unknown reward scripture %q", q.ID, s)
		}
		if q.Calling != "" && rl.callingByID[q.Calling] == nil {
			return fmt.Errorf("resource: quest %q: unknown calling %q", q.ID, q.Calling)
		}
	}
	for _, n := range rl.World.NPCs {
		if n.Teaches != "" && rl.scriptureByID[n.Teaches] == nil {
			return fmt.Errorf("resource: npc %q: unknown scripture %q", n.ID, n.Teaches)
		}
	}
	for _, in := range rl.World.Interactables {
		if (in.Kind == InteractScripture || in.Scripture != "") && rl.scriptureByID[in.Scripture] == nil {
			return fmt.Errorf("resource: interactable %q: unknown scripture %q", in.ID, in.Scripture)
		}
	}
	return nil
}

func (rl *ResourceLoader) Scripture(id string) *Scripture { return rl.scriptureByID[id] }
func (rl *ResourceLoader) Item(id string) *Item           { return rl.itemByID[id] }
func (rl *ResourceLoader) Ability(id string) *Ability     { return rl.abilityByID[id] }
func (rl *ResourceLoader) Calling(id string) *Calling     { return rl.callingByID[id] }
func (rl *ResourceLoader) Quest(id string) *Quest         { return rl.questByID[id] }
