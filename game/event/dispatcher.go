package event

import (
	"context"
	"errors"

	"github.com/spirittosoul/server/plugin/hook"
	"go.uber.org/zap"
)

// Notifier receives player-facing notifications and chat lines.
type Notifier interface {
	Notify(title, message string)
	Chat(speaker, text string)
}

// CueSink receives semantic audio cue names.
type CueSink interface {
	Cue(name string)
}

// Cue names.
const (
	CuePrayer        = "prayer"
	CueLevelUp       = "levelup"
	CueQuestStart    = "quest_start"
	CueQuestComplete = "quest_complete"
	CueItemUse       = "item_use"
	CueInteract      = "interact"
)

// SystemSpeaker is the chat speaker for game-generated lines.
const SystemSpeaker = "System"

// Dispatcher fans game events out to the notification sink, the cue sink
// and the hook center. A misbehaving collaborator is logged and never
// propagates a panic into the tick.
type Dispatcher struct {
	notifier Notifier
	cues     CueSink
	hooks    *hook.HookCenter
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher. Any collaborator may be nil.
func NewDispatcher(n Notifier, c CueSink, hooks *hook.HookCenter, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{notifier: n, cues: c, hooks: hooks, logger: logger}
}

func (d *Dispatcher) guard(what string) {
	if r := recover(); r != nil {
		d.logger.Error("event sink panicked", zap.String("call", what), zap.Any("panic", r))
	}
}

// Notify relays a titled notification.
func (d *Dispatcher) Notify(title, message string) {
	if d.notifier == nil {
		return
	}
	defer d.guard("notify")
	d.notifier.Notify(title, message)
}

// Chat relays a chat line.
func (d *Dispatcher) Chat(speaker, text string) {
	if d.notifier == nil {
		return
	}
	defer d.guard("chat")
	d.notifier.Chat(speaker, text)
}

// Reject tells the player an action was refused.
func (d *Dispatcher) Reject(action string, reason error) {
	d.Notify("Cannot "+action, reason.Error())
}

// Cue plays a semantic audio cue.
func (d *Dispatcher) Cue(name string) {
	if d.cues == nil || name == "" {
		return
	}
	defer d.guard("cue")
	d.cues.Cue(name)
}

// Emit triggers hooks for event. It returns hook.ErrInterrupt when a
// handler vetoed the event; any other hook failure is logged and
// swallowed.
func (d *Dispatcher) Emit(ctx context.Context, event string, data any) error {
	if d.hooks == nil {
		return nil
	}
	_, err := d.hooks.Trigger(ctx, event, data)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hook.ErrInterrupt):
		return err
	default:
		d.logger.Error("hook failed", zap.String("event", event), zap.Error(err))
		return nil
	}
}
