package save

import (
	"context"
	"errors"
	"time"

	"github.com/spirittosoul/server/metrics"
	"go.uber.org/zap"
)

// Manager saves and loads the single player slot.
type Manager struct {
	store  Store
	key    string
	now    func() time.Time
	logger *zap.Logger
}

func NewManager(store Store, key string, logger *zap.Logger) *Manager {
	return &Manager{store: store, key: key, now: time.Now, logger: logger}
}

// Save writes p to the slot.
func (m *Manager) Save(ctx context.Context, p PlayerData) error {
	raw, err := Serialize(p, m.now())
	if err != nil {
		metrics.Saves.WithLabelValues("error").Inc()
		return err
	}
	if err := m.store.Write(ctx, m.key, raw); err != nil {
		metrics.Saves.WithLabelValues("error").Inc()
		m.logger.Error("save failed", zap.String("key", m.key), zap.Error(err))
		return err
	}
	metrics.Saves.WithLabelValues("ok").Inc()
	m.logger.Info("game saved", zap.String("key", m.key), zap.Int("bytes", len(raw)))
	return nil
}

// Load reads the slot merged onto defaults. It returns ErrNoSave when the
// slot is empty and ErrSaveCorrupt when the record cannot be decoded; in
// both cases the caller starts a new game.
func (m *Manager) Load(ctx context.Context, defaults PlayerData) (Record, error) {
	raw, err := m.store.Read(ctx, m.key)
	if err != nil {
		if !errors.Is(err, ErrNoSave) {
			m.logger.Error("load failed", zap.String("key", m.key), zap.Error(err))
		}
		return Record{}, err
	}
	rec, err := Deserialize(raw, defaults)
	if err != nil {
		m.logger.Warn("discarding unreadable save", zap.String("key", m.key), zap.Error(err))
		return Record{}, err
	}
	if rec.Version != CurrentVersion {
		m.logger.Info("migrated save forward", zap.String("from", rec.Version), zap.String("to", CurrentVersion))
		rec.Version = CurrentVersion
	}
	return rec, nil
}
