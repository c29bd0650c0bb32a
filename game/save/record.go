package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spirittosoul/server/game/player"
	"github.com/spirittosoul/server/game/quest"
)

// CurrentVersion is written into every record.
const CurrentVersion = "1.0.0"

var (
	ErrSaveCorrupt = errors.New("save record corrupt")
	ErrNoSave      = errors.New("no save found")
)

// PlayerData is the character together with its quest log.
type PlayerData struct {
	player.State
	Quests quest.State `json:"quests"`
}

// Record is the persisted save layout.
type Record struct {
	Version   string     `json:"version"`
	Player    PlayerData `json:"player"`
	Timestamp time.Time  `json:"timestamp"`
}

// Serialize encodes p as a current-version record stamped at.
func Serialize(p PlayerData, at time.Time) ([]byte, error) {
	return json.Marshal(Record{Version: CurrentVersion, Player: p, Timestamp: at})
}

// Deserialize decodes raw on top of defaults. Fields missing from the
// record keep their default values, which is how records written by other
// versions are carried forward. A record that is not JSON or has no player
// object is ErrSaveCorrupt.
func Deserialize(raw []byte, defaults PlayerData) (Record, error) {
	var head struct {
		Version string          `json:"version"`
		Player  json.RawMessage `json:"player"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrSaveCorrupt, err)
	}
	if len(head.Player) == 0 || string(head.Player) == "null" {
		return Record{}, fmt.Errorf("%w: missing player", ErrSaveCorrupt)
	}

	rec := Record{Player: defaults}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrSaveCorrupt, err)
	}
	if rec.Version == "" {
		rec.Version = CurrentVersion
	}
	return rec, nil
}

// version reads only the version field, for stores that index it.
func version(raw []byte) string {
	var v struct {
		Version string `json:"version"`
	}
	if json.Unmarshal(raw, &v) != nil || v.Version == "" {
		return CurrentVersion
	}
	return v.Version
}
