package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/spirittosoul/server/audit"
	"github.com/spirittosoul/server/game/input"
	"github.com/spirittosoul/server/game/save"
	"github.com/spirittosoul/server/game/sim"
	"github.com/spirittosoul/server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func hasObjective(f sim.Frame, questID, objectiveID string) bool {
	for _, q := range f.Quests {
		if q.ID != questID {
			continue
		}
		for _, o := range q.Objectives {
			if o.ID == objectiveID {
				return o.Completed
			}
		}
	}
	return false
}

func TestGreatCommission_EndToEnd(t *testing.T) {
	ts := NewTestServer(t)

	code, body := ts.Do(t, http.MethodPost, "/api/character", map[string]string{"name": "Pilgrim", "calling": "disciple"})
	require.Equal(t, http.StatusCreated, code, string(body))

	f := ts.WaitFrame(t, 2*time.Second, func(f sim.Frame) bool { return len(f.Quests) == 1 })
	assert.Equal(t, "great_commission", f.Quests[0].ID)

	// walk to the elder in the village
	ts.Intent(t, input.Intent{Type: input.MoveTo, X: 1200, Y: 800})
	ts.WaitFrame(t, 5*time.Second, func(f sim.Frame) bool {
		return f.Player.Position.Y == 800 && hasObjective(f, "great_commission", "explore_village")
	})

	ts.Intent(t, input.Intent{Type: input.Interact})
	ts.WaitFrame(t, 2*time.Second, func(f sim.Frame) bool {
		return hasObjective(f, "great_commission", "talk_to_elder") &&
			hasObjective(f, "great_commission", "learn_first_scripture")
	})

	ts.Intent(t, input.Intent{Type: input.UseAbility, ID: "prayer"})
	f = ts.WaitFrame(t, 2*time.Second, func(f sim.Frame) bool { return len(f.Completed) == 1 })
	assert.Equal(t, []string{"great_commission"}, f.Completed)
	assert.Equal(t, 2, f.Player.Level)
	assert.Equal(t, 0, f.Player.Experience)
	assert.Equal(t, 150, f.Player.ExperienceToNext)
	assert.Contains(t, f.Player.Scriptures, "matthew_4_19")
	assert.Equal(t, 8, f.Player.Attributes["faith"])

	// follow-up offered after one second of game time
	f = ts.WaitFrame(t, 3*time.Second, func(f sim.Frame) bool { return len(f.Quests) == 1 })
	assert.Equal(t, "fishers_of_men", f.Quests[0].ID)

	// the feed saw the whole story
	code, body = ts.Do(t, http.MethodGet, "/api/feed?limit=200", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "Pilgrim used Prayer")
	assert.Contains(t, string(body), "Quest Complete")
	assert.Contains(t, string(body), "You reached level 2")

	// stopping saves; the journal holds the milestones
	ts.Close()
	rec, err := save.NewManager(save.NewDBStore(ts.DB), "spirit-to-soul-save", zap.NewNop()).Load(context.Background(), save.PlayerData{})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Player.Level)
	assert.Contains(t, rec.Player.Quests.Completed, "great_commission")

	var entries []model.JournalEntry
	require.NoError(t, ts.DB.Order("id").Find(&entries).Error)
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, audit.ActionQuestStarted)
	assert.Contains(t, actions, audit.ActionLevelUp)
	assert.Contains(t, actions, audit.ActionQuestCompleted)
}

func TestPauseFreezesLoop(t *testing.T) {
	ts := NewTestServer(t)
	code, _ := ts.Do(t, http.MethodPost, "/api/character", map[string]string{"calling": "shepherd"})
	require.Equal(t, http.StatusCreated, code)

	code, _ = ts.Do(t, http.MethodPost, "/api/pause", nil)
	require.Equal(t, http.StatusOK, code)
	f := ts.WaitFrame(t, time.Second, func(f sim.Frame) bool { return f.Paused })
	frozen := f.GameTime

	ts.Intent(t, input.Intent{Type: input.Move, Direction: "left"})
	time.Sleep(200 * time.Millisecond)
	f = ts.Frame(t)
	assert.Equal(t, frozen, f.GameTime)
	assert.Equal(t, 1200.0, f.Player.Position.X)

	code, _ = ts.Do(t, http.MethodPost, "/api/resume", nil)
	require.Equal(t, http.StatusOK, code)
	ts.WaitFrame(t, time.Second, func(f sim.Frame) bool { return f.GameTime > frozen })
}

func TestRejectedAbilityReachesFeed(t *testing.T) {
	ts := NewTestServer(t)
	code, _ := ts.Do(t, http.MethodPost, "/api/character", map[string]string{"calling": "disciple"})
	require.Equal(t, http.StatusCreated, code)

	ts.Intent(t, input.Intent{Type: input.UseAbility, ID: "prayer"})
	ts.Intent(t, input.Intent{Type: input.UseAbility, ID: "prayer"})
	require.Eventually(t, func() bool {
		_, body := ts.Do(t, http.MethodGet, "/api/feed", nil)
		var feed struct {
			Messages []struct {
				Title string `json:"title"`
				Text  string `json:"text"`
			} `json:"messages"`
		}
		if json.Unmarshal(body, &feed) != nil {
			return false
		}
		for _, m := range feed.Messages {
			if m.Title == "Cannot use ability" && m.Text == "ability on cooldown" {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}
