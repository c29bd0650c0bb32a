package quest

import (
	"testing"

	"github.com/spirittosoul/server/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjective_Kinds(t *testing.T) {
	cases := []struct {
		in      resource.Objective
		want    Condition
		tracked bool
	}{
		{resource.Objective{Type: "talk_to", Target: "village_elder"}, TalkTo{NPC: "village_elder"}, true},
		{resource.Objective{Type: "visit_location", Target: "jerusalem"}, VisitLocation{Location: "jerusalem"}, false},
		{resource.Objective{Type: "learn_scripture", Target: "john_3_16"}, LearnScripture{Scripture: "john_3_16"}, false},
		{resource.Objective{Type: "use_ability", Target: "prayer"}, UseAbility{Ability: "prayer", Count: 1}, true},
		{resource.Objective{Type: "use_ability", Target: "prayer", Count: 3}, UseAbility{Ability: "prayer", Count: 3}, true},
		{resource.Objective{Type: "reach_level", Target: "5"}, ReachLevel{Level: 5}, false},
		{resource.Objective{Type: "collect_item", Target: "bread", Count: 2}, CollectItem{Item: "bread", Count: 2}, false},
		{resource.Objective{Type: "special_event", Target: "meditation"}, SpecialEvent{Event: "meditation"}, true},
	}
	for _, tc := range cases {
		obj, err := ParseObjective(tc.in)
		require.NoError(t, err, tc.in.Type)
		assert.Equal(t, tc.want, obj.Condition)
		assert.Equal(t, tc.tracked, obj.Condition.Tracked(), tc.in.Type)
		assert.Equal(t, Kind(tc.in.Type), obj.Condition.Kind())
	}
}

func TestParseObjective_Rejects(t *testing.T) {
	_, err := ParseObjective(resource.Objective{ID: "x", Type: "defeat_goliath"})
	assert.ErrorIs(t, err, ErrUnknownObjective)

	_, err = ParseObjective(resource.Objective{ID: "x", Type: "reach_level", Target: "five"})
	assert.Error(t, err)
}

func TestSignalKeys(t *testing.T) {
	assert.Equal(t, "talked_to_peter", TalkTo{NPC: "peter"}.Key())
	assert.Equal(t, "used_prayer", UseAbility{Ability: "prayer"}.Key())
	assert.Equal(t, "event_meditation", SpecialEvent{Event: "meditation"}.Key())
	assert.Equal(t, TalkedTo("peter"), Signal{Key: "talked_to_peter"})
}
