package model

import (
	"time"

	"gorm.io/datatypes"
)

// JournalEntry records a progression milestone (quest start/completion,
// level-up) for the player's chronicle.
type JournalEntry struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Player    string         `gorm:"index:idx_journal_player;size:32;not null" json:"player"`
	Action    string         `gorm:"size:64;not null" json:"action"`
	Subject   string         `gorm:"size:64" json:"subject"`
	Level     int            `json:"level"`
	Detail    datatypes.JSON `json:"detail"`
	CreatedAt time.Time      `gorm:"index:idx_journal_created;autoCreateTime:milli" json:"created_at"`
}
