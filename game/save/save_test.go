package save_test

import (
	"context"
	"testing"

	"github.com/spirittosoul/server/game/player"
	"github.com/spirittosoul/server/game/quest"
	"github.com/spirittosoul/server/game/save"
	"github.com/spirittosoul/server/game/stats"
	"github.com/spirittosoul/server/model"
	"github.com/spirittosoul/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleData(t *testing.T) save.PlayerData {
	t.Helper()
	cat := testutil.LoadCatalog(t)
	c, err := player.New("Miriam", "disciple", cat, player.Options{
		Bounds:    player.Bounds{Width: 2400, Height: 1600},
		Abilities: cat.Abilities,
	})
	require.NoError(t, err)
	c.SetPosition(1200, 800)
	c.LearnScripture("john_3_16")
	c.GainExperience(40)
	return save.PlayerData{
		State: c.Snapshot(),
		Quests: quest.State{
			Active: []quest.InstanceState{{
				QuestID:    "fishers_of_men",
				Objectives: map[string]quest.ObjectiveState{"meet_peter": {Completed: true}},
			}},
			Completed: []string{"great_commission"},
		},
	}
}

func stores(t *testing.T) map[string]save.Store {
	c, _ := testutil.SetupTestCache(t)
	return map[string]save.Store{
		"cache": save.NewCacheStore(c),
		"db":    save.NewDBStore(testutil.SetupTestDB(t)),
	}
}

func TestManager_RoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := save.NewManager(store, "slot", zap.NewNop())
			data := sampleData(t)
			require.NoError(t, m.Save(ctx, data))

			rec, err := m.Load(ctx, save.PlayerData{})
			require.NoError(t, err)
			assert.Equal(t, save.CurrentVersion, rec.Version)
			assert.False(t, rec.Timestamp.IsZero())
			got := rec.Player
			assert.Equal(t, "Miriam", got.Name)
			assert.Equal(t, "disciple", got.Calling)
			assert.Equal(t, 40, got.Experience)
			assert.Equal(t, []string{"john_3_16"}, got.Scriptures)
			assert.Equal(t, data.Inventory, got.Inventory)
			assert.Equal(t, data.Resources[stats.Faith], got.Resources[stats.Faith])
			assert.Equal(t, player.Vec{X: 1200, Y: 800}, got.Position)
			assert.Equal(t, []string{"great_commission"}, got.Quests.Completed)
			require.Len(t, got.Quests.Active, 1)
			assert.True(t, got.Quests.Active[0].Objectives["meet_peter"].Completed)
		})
	}
}

func TestManager_Overwrites(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := save.NewManager(store, "slot", zap.NewNop())
			data := sampleData(t)
			require.NoError(t, m.Save(ctx, data))
			data.Fellowship = 7
			require.NoError(t, m.Save(ctx, data))

			rec, err := m.Load(ctx, save.PlayerData{})
			require.NoError(t, err)
			assert.Equal(t, 7, rec.Player.Fellowship)
		})
	}
}

func TestManager_NoSave(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := save.NewManager(store, "empty", zap.NewNop()).Load(context.Background(), save.PlayerData{})
			assert.ErrorIs(t, err, save.ErrNoSave)
		})
	}
}

func TestManager_CorruptFallsBack(t *testing.T) {
	ctx := context.Background()
	c, _ := testutil.SetupTestCache(t)
	store := save.NewCacheStore(c)
	m := save.NewManager(store, "slot", zap.NewNop())

	require.NoError(t, store.Write(ctx, "slot", []byte("{not json")))
	_, err := m.Load(ctx, save.PlayerData{})
	assert.ErrorIs(t, err, save.ErrSaveCorrupt)

	require.NoError(t, store.Write(ctx, "slot", []byte(`{"version":"1.0.0"}`)))
	_, err = m.Load(ctx, save.PlayerData{})
	assert.ErrorIs(t, err, save.ErrSaveCorrupt)
}

func TestDeserialize_MergesOlderVersionForward(t *testing.T) {
	defaults := sampleData(t)
	defaults.Fellowship = 3

	raw := []byte(`{"version":"0.9.0","player":{"name":"Old Save","level":2,"experience_to_next":150}}`)
	rec, err := save.Deserialize(raw, defaults)
	require.NoError(t, err)
	assert.Equal(t, "0.9.0", rec.Version)
	assert.Equal(t, "Old Save", rec.Player.Name)
	assert.Equal(t, 2, rec.Player.Level)
	assert.Equal(t, 3, rec.Player.Fellowship, "missing fields keep defaults")
	assert.Equal(t, "disciple", rec.Player.Calling)
	assert.Len(t, rec.Player.Inventory, 2)
}

func TestDBStore_IndexesVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := save.NewDBStore(db)
	require.NoError(t, store.Write(context.Background(), "slot", []byte(`{"version":"0.9.0","player":{}}`)))

	var slot model.SaveSlot
	require.NoError(t, db.Where("slot_key = ?", "slot").First(&slot).Error)
	assert.Equal(t, "0.9.0", slot.Version)
}
