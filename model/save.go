package model

import (
	"time"

	"gorm.io/datatypes"
)

// SaveSlot holds one serialized save record under a slot key.
type SaveSlot struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string         `gorm:"column:slot_key;uniqueIndex;size:64;not null" json:"key"`
	Version   string         `gorm:"size:16;not null" json:"version"`
	Payload   datatypes.JSON `json:"payload"`
	SavedAt   time.Time      `gorm:"index" json:"saved_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
