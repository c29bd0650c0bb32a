package hook

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrInterrupt signals that a handler wants to stop further processing.
	// For Before* events it vetoes the action.
	ErrInterrupt = errors.New("hook interrupted")
	ErrHookPanic = errors.New("hook panicked")
)

// HookFn is a hook handler function.
// Returns (modified data, nil) to continue, or (data, ErrInterrupt) to stop.
type HookFn func(ctx context.Context, event string, data interface{}) (interface{}, error)

type hookEntry struct {
	priority int
	fn       HookFn
	name     string
}

// HookCenter manages event hook registrations.
type HookCenter struct {
	mu    sync.RWMutex
	hooks map[string][]*hookEntry
}

// NewHookCenter creates a new HookCenter.
func NewHookCenter() *HookCenter {
	return &HookCenter{hooks: make(map[string][]*hookEntry)}
}

// Register adds a HookFn for the given event with the given priority (lower runs first).
// name is used for Unregister.
func (hc *HookCenter) Register(event string, priority int, name string, fn HookFn) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	entries := hc.hooks[event]
	entries = append(entries, &hookEntry{priority: priority, fn: fn, name: name})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	hc.hooks[event] = entries
}

// Unregister removes all hooks with the given name for the given event.
func (hc *HookCenter) Unregister(event, name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	entries := hc.hooks[event]
	n := 0
	for _, e := range entries {
		if e.name != name {
			entries[n] = e
			n++
		}
	}
	hc.hooks[event] = entries[:n]
}

// UnregisterAll removes all hooks registered with the given name across all events.
func (hc *HookCenter) UnregisterAll(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for event, entries := range hc.hooks {
		n := 0
		for _, e := range entries {
			if e.name != name {
				entries[n] = e
				n++
			}
		}
		hc.hooks[event] = entries[:n]
	}
}

// Trigger executes all registered hooks for event in priority order.
// Data flows through each handler, allowing modification.
// If any handler returns ErrInterrupt, execution stops. A handler that
// panics is reported as ErrHookPanic and the chain stops there.
func (hc *HookCenter) Trigger(ctx context.Context, event string, data interface{}) (interface{}, error) {
	hc.mu.RLock()
	entries := make([]*hookEntry, len(hc.hooks[event]))
	copy(entries, hc.hooks[event])
	hc.mu.RUnlock()

	for _, e := range entries {
		out, err := e.call(ctx, event, data)
		if errors.Is(err, ErrHookPanic) {
			return data, err
		}
		data = out
		if errors.Is(err, ErrInterrupt) {
			return data, err
		}
	}
	return data, nil
}

func (e *hookEntry) call(ctx context.Context, event string, data interface{}) (out interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = data, fmt.Errorf("%w: %s on %s: %v", ErrHookPanic, e.name, event, r)
		}
	}()
	return e.fn(ctx, event, data)
}

// Has reports whether any handler is registered for event.
func (hc *HookCenter) Has(event string) bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return len(hc.hooks[event]) > 0
}

// Progression events fired by the game loop.
const (
	OnQuestStart        = "on_quest_start"
	OnQuestComplete     = "on_quest_complete"
	OnObjectiveComplete = "on_objective_complete"
	OnLevelUp           = "on_level_up"
	AfterAbilityUse     = "after_ability_use"
	OnInteract          = "on_interact"
	BeforeItemUse       = "before_item_use"
)
