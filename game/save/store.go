package save

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spirittosoul/server/cache"
	"github.com/spirittosoul/server/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is a key/value home for encoded records. Read returns ErrNoSave
// when key has never been written.
type Store interface {
	Write(ctx context.Context, key string, raw []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
}

const cacheKeyPrefix = "save:"

// CacheStore keeps records in the cache (local or Redis), without expiry.
type CacheStore struct {
	cache cache.Cache
}

func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{cache: c}
}

func (s *CacheStore) Write(ctx context.Context, key string, raw []byte) error {
	return s.cache.Set(ctx, cacheKeyPrefix+key, string(raw), 0)
}

func (s *CacheStore) Read(ctx context.Context, key string) ([]byte, error) {
	v, err := s.cache.Get(ctx, cacheKeyPrefix+key)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrNoSave
		}
		return nil, err
	}
	return []byte(v), nil
}

// DBStore keeps records in the save_slots table, one row per key.
type DBStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

func (s *DBStore) Write(ctx context.Context, key string, raw []byte) error {
	slot := &model.SaveSlot{
		Key:     key,
		Version: version(raw),
		Payload: datatypes.JSON(raw),
		SavedAt: s.now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "payload", "saved_at", "updated_at"}),
	}).Create(slot).Error
	if err != nil {
		return fmt.Errorf("save slot %q: %w", key, err)
	}
	return nil
}

func (s *DBStore) Read(ctx context.Context, key string) ([]byte, error) {
	var slot model.SaveSlot
	err := s.db.WithContext(ctx).Where("slot_key = ?", key).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("save slot %q: %w", key, err)
	}
	return []byte(slot.Payload), nil
}
