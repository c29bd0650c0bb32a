package resource

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeJSON writes v as JSON to dir/filename.
func writeJSON(t *testing.T, dir, filename string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0644))
}

func TestLoader_Builtin(t *testing.T) {
	rl := NewLoader("")
	require.NoError(t, rl.Load())

	disciple := rl.Calling("disciple")
	require.NotNil(t, disciple)
	assert.Equal(t, []string{"bread", "water"}, disciple.StartingItems)
	assert.Equal(t, 100.0, disciple.Resources.Health)

	gc := rl.Quest("great_commission")
	require.NotNil(t, gc)
	assert.Len(t, gc.Objectives, 4)
	assert.Equal(t, 100, gc.Rewards.Experience)
	assert.Equal(t, []string{"fishers_of_men"}, gc.FollowUp)

	ht := rl.Ability("healing_touch")
	require.NotNil(t, ht)
	assert.Equal(t, 20.0, ht.Costs.Faith)
	assert.Equal(t, 40.0, ht.Effects.Health)

	require.NotNil(t, rl.World)
	assert.NotEmpty(t, rl.World.Locations)
	assert.Equal(t, "starting_village", rl.World.Locations[0].ID)
	assert.NotNil(t, rl.Scripture("john_3_16"))
	assert.Nil(t, rl.Item("sword"))
}

func TestLoader_BuiltinEventSources(t *testing.T) {
	rl := NewLoader("")
	require.NoError(t, rl.Load())

	npcs := map[string]NPC{}
	for _, n := range rl.World.NPCs {
		npcs[n.ID] = n
	}
	assert.Equal(t, "baptism_ceremony", npcs["john_baptist"].Event)
	assert.Equal(t, "psalm_23_1", npcs["mary_magdalene"].Teaches)

	var stone *Interactable
	for i := range rl.World.Interactables {
		if rl.World.Interactables[i].ID == "summit_stone" {
			stone = &rl.World.Interactables[i]
		}
	}
	require.NotNil(t, stone)
	assert.Equal(t, InteractPray, stone.Kind)
	assert.Equal(t, "meditation", stone.Event)
	assert.NotNil(t, rl.Scripture(stone.Scripture))
}

func TestLoader_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "items.json", []*Item{
		{ID: "bread", Name: "Bread", Consumable: true, Effects: Effects{Health: 1}},
		{ID: "water", Name: "Water", Consumable: true},
		{ID: "scroll", Name: "Scroll", Consumable: true},
		{ID: "lamp", Name: "Lamp", Consumable: true},
		{ID: "staff", Name: "Staff"},
		{ID: "fig", Name: "Fig", Consumable: true},
	})

	rl := NewLoader(dir)
	require.NoError(t, rl.Load())
	require.NotNil(t, rl.Item("fig"))
	assert.Equal(t, 1.0, rl.Item("bread").Effects.Health)
	// Files absent from the override dir come from the built-in data.
	assert.NotNil(t, rl.Quest("great_commission"))
}

func TestLoader_BadJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quests.json"), []byte("{not json"), 0644))
	err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quests.json")
}

func TestLoader_DanglingFollowUp(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "quests.json", []*Quest{
		{ID: "a", Title: "A", FollowUp: []string{"missing"}},
	})
	err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestLoader_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "scriptures.json", []*Scripture{{ID: "x"}, {ID: "x"}})
	err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestEffectsIsZero(t *testing.T) {
	assert.True(t, Effects{}.IsZero())
	assert.False(t, Effects{Experience: 1}.IsZero())
}
