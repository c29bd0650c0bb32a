package input

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

var (
	ErrQueueFull   = errors.New("input queue full")
	ErrRateLimited = errors.New("too many intents")
	ErrBadIntent   = errors.New("malformed intent")
)

// Type names a player intent.
type Type string

const (
	Move       Type = "move"
	MoveTo     Type = "move_to"
	Interact   Type = "interact"
	UseAbility Type = "use_ability"
	UseItem    Type = "use_item"
	Pause      Type = "pause"
	Resume     Type = "resume"
	Save       Type = "save"
	StartQuest Type = "start_quest"
)

// Intent is one player action waiting for the next tick.
type Intent struct {
	Type      Type    `json:"type" binding:"required,oneof=move move_to interact use_ability use_item pause resume save start_quest"`
	Direction string  `json:"direction,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	ID        string  `json:"id,omitempty"`
}

// Validate checks the fields each intent type needs.
func (in Intent) Validate() error {
	switch in.Type {
	case Move:
		switch in.Direction {
		case "up", "down", "left", "right":
			return nil
		}
		return fmt.Errorf("%w: direction must be up, down, left or right", ErrBadIntent)
	case UseAbility, UseItem, StartQuest:
		if in.ID == "" {
			return fmt.Errorf("%w: id is required", ErrBadIntent)
		}
	case MoveTo, Interact, Pause, Resume, Save:
	default:
		return fmt.Errorf("%w: unknown intent type", ErrBadIntent)
	}
	return nil
}

// DefaultCapacity bounds the queue between two ticks.
const DefaultCapacity = 64

// Queue hands intents from any goroutine to the simulation goroutine.
type Queue struct {
	mu       sync.Mutex
	items    []Intent
	capacity int
	limiter  *rate.Limiter
}

// NewQueue creates a Queue. A nil limiter admits every intent.
func NewQueue(capacity int, limiter *rate.Limiter) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{capacity: capacity, limiter: limiter}
}

// Push validates and enqueues in. Control intents (pause, resume, save)
// bypass the rate limiter.
func (q *Queue) Push(in Intent) error {
	if err := in.Validate(); err != nil {
		return err
	}
	control := in.Type == Pause || in.Type == Resume || in.Type == Save
	if !control && q.limiter != nil && !q.limiter.Allow() {
		return ErrRateLimited
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		return ErrQueueFull
	}
	q.items = append(q.items, in)
	return nil
}

// Drain removes and returns every queued intent in arrival order.
func (q *Queue) Drain() []Intent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued intents.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
