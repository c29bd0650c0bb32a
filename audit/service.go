package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/spirittosoul/server/game/event"
	"github.com/spirittosoul/server/model"
	"github.com/spirittosoul/server/plugin/hook"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Journal actions.
const (
	ActionQuestStarted   = "quest_started"
	ActionQuestCompleted = "quest_completed"
	ActionLevelUp        = "level_up"
)

const (
	batchSize     = 100
	flushInterval = 2 * time.Second
	hookName      = "journal"
)

// Entry is one milestone to be written to the journal.
type Entry struct {
	Player  string
	Action  string
	Subject string
	Level   int
	Detail  interface{}
}

// Journal writes progression milestones asynchronously in batches.
type Journal struct {
	db     *gorm.DB
	ch     chan *model.JournalEntry
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a Journal and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Journal {
	j := &Journal{
		db:     db,
		ch:     make(chan *model.JournalEntry, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	j.wg.Add(1)
	go j.worker()
	return j
}

// Log enqueues an entry. It never blocks the caller; a full queue drops
// the entry with a warning.
func (j *Journal) Log(e Entry) {
	detail, _ := json.Marshal(e.Detail)
	record := &model.JournalEntry{
		Player:  e.Player,
		Action:  e.Action,
		Subject: e.Subject,
		Level:   e.Level,
		Detail:  datatypes.JSON(detail),
	}
	select {
	case j.ch <- record:
	default:
		j.logger.Warn("journal channel full, dropping entry",
			zap.String("action", e.Action))
	}
}

// Attach records quest starts, quest completions and level-ups from the
// hook center.
func (j *Journal) Attach(hc *hook.HookCenter) {
	hc.Register(hook.OnQuestStart, 100, hookName, func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		if p, ok := data.(event.QuestPayload); ok {
			j.Log(Entry{Player: p.Player, Action: ActionQuestStarted, Subject: p.QuestID, Level: p.Level, Detail: p})
		}
		return data, nil
	})
	hc.Register(hook.OnQuestComplete, 100, hookName, func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		if p, ok := data.(event.QuestPayload); ok {
			j.Log(Entry{Player: p.Player, Action: ActionQuestCompleted, Subject: p.QuestID, Level: p.Level, Detail: p})
		}
		return data, nil
	})
	hc.Register(hook.OnLevelUp, 100, hookName, func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		if p, ok := data.(event.LevelUpPayload); ok {
			j.Log(Entry{Player: p.Player, Action: ActionLevelUp, Level: p.Level, Detail: p})
		}
		return data, nil
	})
}

// Detach removes the journal's hooks.
func (j *Journal) Detach(hc *hook.HookCenter) {
	hc.UnregisterAll(hookName)
}

// Recent returns the newest n entries for player, newest first. An empty
// player matches everyone.
func (j *Journal) Recent(ctx context.Context, player string, n int) ([]model.JournalEntry, error) {
	if n <= 0 {
		n = 50
	}
	q := j.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(n)
	if player != "" {
		q = q.Where("player = ?", player)
	}
	var out []model.JournalEntry
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (j *Journal) Stop(_ context.Context) {
	select {
	case <-j.stopCh:
	default:
		close(j.stopCh)
	}
	j.wg.Wait()
}

func (j *Journal) worker() {
	defer j.wg.Done()
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.JournalEntry, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := j.db.Create(&batch).Error; err != nil {
			j.logger.Error("journal batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-j.ch:
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-j.stopCh:
			// Drain remaining entries.
			for {
				select {
				case entry := <-j.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
