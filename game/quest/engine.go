package quest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spirittosoul/server/game/event"
	"github.com/spirittosoul/server/metrics"
	"github.com/spirittosoul/server/plugin/hook"
	"github.com/spirittosoul/server/resource"
	"github.com/spirittosoul/server/scheduler"
	"go.uber.org/zap"
)

var (
	ErrQuestNotFound     = errors.New("quest not found")
	ErrObjectiveNotFound = errors.New("objective not found")
	ErrQuestUnavailable  = errors.New("quest already active or completed")
	ErrCallingMismatch   = errors.New("quest belongs to another calling")
	ErrUnknownObjective  = errors.New("unknown objective type")
)

// DefaultFollowupDelay is the game time between completing a quest and
// offering its follow-ups.
const DefaultFollowupDelay = time.Second

// Status is an instance's lifecycle state. There is no failed state.
type Status string

const (
	StatusInactive  Status = "inactive"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Definition is an immutable quest template.
type Definition struct {
	ID          string
	Title       string
	Description string
	Type        string
	Objectives  []Objective
	Reward      resource.Reward
	FollowUp    []string
	Calling     string
	Repeatable  bool
}

// NewDefinition converts a catalogue quest, rejecting unknown objective kinds.
func NewDefinition(q *resource.Quest) (*Definition, error) {
	def := &Definition{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Type:        q.Type,
		Reward:      q.Rewards,
		FollowUp:    q.FollowUp,
		Calling:     q.Calling,
		Repeatable:  q.Repeatable,
	}
	for _, o := range q.Objectives {
		obj, err := ParseObjective(o)
		if err != nil {
			return nil, fmt.Errorf("quest %q: %w", q.ID, err)
		}
		def.Objectives = append(def.Objectives, obj)
	}
	return def, nil
}

// LoadDefinitions converts every catalogue quest.
func LoadDefinitions(quests []*resource.Quest) ([]*Definition, error) {
	out := make([]*Definition, 0, len(quests))
	for _, q := range quests {
		def, err := NewDefinition(q)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

// ObjectiveState is the live state of one objective within an instance.
type ObjectiveState struct {
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Progress    int       `json:"progress,omitempty"`
}

// Instance is a started quest.
type Instance struct {
	Def         *Definition
	Status      Status
	StartedAt   time.Time
	CompletedAt time.Time
	objectives  []ObjectiveState
}

func newInstance(def *Definition, now time.Time) *Instance {
	return &Instance{
		Def:        def,
		Status:     StatusActive,
		StartedAt:  now,
		objectives: make([]ObjectiveState, len(def.Objectives)),
	}
}

// Objective returns the state of objective id.
func (inst *Instance) Objective(id string) (ObjectiveState, bool) {
	for i, o := range inst.Def.Objectives {
		if o.ID == id {
			return inst.objectives[i], true
		}
	}
	return ObjectiveState{}, false
}

// Done reports whether every objective is complete.
func (inst *Instance) Done() bool {
	for _, s := range inst.objectives {
		if !s.Completed {
			return false
		}
	}
	return true
}

// Rewarder grants a completed quest's reward: experience first, then
// items, scripture and attributes.
type Rewarder interface {
	GrantReward(ctx context.Context, def *Definition)
}

// Events is the notification, cue and hook surface the engine reports to.
type Events interface {
	Notify(title, message string)
	Cue(name string)
	Emit(ctx context.Context, event string, data any) error
}

// Scheduler runs follow-ups on game time.
type Scheduler interface {
	AddDelay(name string, delay time.Duration, fn scheduler.TaskFn)
	Remove(name string)
}

// Deps are the engine's collaborators.
type Deps struct {
	Player        PlayerState
	Locations     LocationResolver
	Rewarder      Rewarder
	Events        Events
	Scheduler     Scheduler
	FollowupDelay time.Duration
	Now           func() time.Time
}

// Engine owns every quest instance. It is driven from the simulation
// goroutine and is not safe for concurrent use.
type Engine struct {
	defs     map[string]*Definition
	defOrder []string

	active      map[string]*Instance
	activeOrder []string
	completed   map[string]time.Time
	doneOrder   []string

	env      env
	rewarder Rewarder
	events   Events
	sched    Scheduler
	delay    time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewEngine creates an Engine over defs.
func NewEngine(defs []*Definition, deps Deps, logger *zap.Logger) *Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.FollowupDelay <= 0 {
		deps.FollowupDelay = DefaultFollowupDelay
	}
	e := &Engine{
		defs:      make(map[string]*Definition, len(defs)),
		active:    make(map[string]*Instance),
		completed: make(map[string]time.Time),
		env:       env{player: deps.Player, locations: deps.Locations},
		rewarder:  deps.Rewarder,
		events:    deps.Events,
		sched:     deps.Scheduler,
		delay:     deps.FollowupDelay,
		now:       deps.Now,
		logger:    logger,
	}
	for _, d := range defs {
		e.defs[d.ID] = d
		e.defOrder = append(e.defOrder, d.ID)
	}
	return e
}

// Definition returns the definition for id, or nil.
func (e *Engine) Definition(id string) *Definition { return e.defs[id] }

// Definitions returns every definition in catalogue order.
func (e *Engine) Definitions() []*Definition {
	out := make([]*Definition, 0, len(e.defOrder))
	for _, id := range e.defOrder {
		out = append(out, e.defs[id])
	}
	return out
}

// CanStart reports why quest id cannot be started, or nil.
func (e *Engine) CanStart(id string) error {
	def, ok := e.defs[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrQuestNotFound, id)
	}
	if _, ok := e.active[id]; ok {
		return fmt.Errorf("%w: %q", ErrQuestUnavailable, id)
	}
	if _, ok := e.completed[id]; ok && !def.Repeatable {
		return fmt.Errorf("%w: %q", ErrQuestUnavailable, id)
	}
	if def.Calling != "" && def.Calling != e.env.player.CallingID() {
		return fmt.Errorf("%w: %q needs %s", ErrCallingMismatch, id, def.Calling)
	}
	return nil
}

// Start creates and activates an instance of quest id. Objectives are not
// evaluated until the next Update.
func (e *Engine) Start(ctx context.Context, id string) (*Instance, error) {
	if err := e.CanStart(id); err != nil {
		return nil, err
	}
	def := e.defs[id]
	inst := newInstance(def, e.now())
	e.active[id] = inst
	e.activeOrder = append(e.activeOrder, id)

	metrics.QuestsStarted.WithLabelValues(id).Inc()
	e.logger.Info("quest started", zap.String("quest", id))
	e.events.Notify("Quest Started", def.Title)
	e.events.Cue(event.CueQuestStart)
	_ = e.events.Emit(ctx, hook.OnQuestStart, e.payload(def))
	return inst, nil
}

// Record advances every active counter objective keyed by sig.
func (e *Engine) Record(ctx context.Context, sig Signal) {
	for _, id := range e.activeOrder {
		inst := e.active[id]
		for i, obj := range inst.Def.Objectives {
			st := &inst.objectives[i]
			c, ok := obj.Condition.(Counter)
			if !ok || st.Completed || c.Key() != sig.Key {
				continue
			}
			st.Progress++
			if c.satisfied(st.Progress, e.env) {
				e.finishObjective(ctx, inst, i)
			}
		}
	}
}

// Update evaluates poll objectives of every active instance and completes
// those whose objectives are all done. Completed objectives stay completed.
func (e *Engine) Update(ctx context.Context) {
	ids := append([]string(nil), e.activeOrder...)
	for _, id := range ids {
		inst, ok := e.active[id]
		if !ok {
			continue
		}
		for i, obj := range inst.Def.Objectives {
			if inst.objectives[i].Completed || obj.Condition.Tracked() {
				continue
			}
			if obj.Condition.satisfied(0, e.env) {
				e.finishObjective(ctx, inst, i)
			}
		}
		if inst.Done() {
			e.complete(ctx, inst)
		}
	}
}

// CompleteObjective marks an objective of an active quest complete
// regardless of its rule. The quest itself completes on the next Update.
func (e *Engine) CompleteObjective(ctx context.Context, questID, objectiveID string) error {
	inst, ok := e.active[questID]
	if !ok {
		return fmt.Errorf("%w: %q is not active", ErrQuestNotFound, questID)
	}
	for i, obj := range inst.Def.Objectives {
		if obj.ID != objectiveID {
			continue
		}
		if !inst.objectives[i].Completed {
			e.finishObjective(ctx, inst, i)
		}
		return nil
	}
	return fmt.Errorf("%w: %s/%s", ErrObjectiveNotFound, questID, objectiveID)
}

func (e *Engine) finishObjective(ctx context.Context, inst *Instance, i int) {
	st := &inst.objectives[i]
	st.Completed = true
	st.CompletedAt = e.now()
	obj := inst.Def.Objectives[i]
	e.events.Notify("Objective Complete", obj.Description)
	_ = e.events.Emit(ctx, hook.OnObjectiveComplete, event.ObjectivePayload{QuestID: inst.Def.ID, ObjectiveID: obj.ID})
}

// complete applies completion exactly once per instance.
func (e *Engine) complete(ctx context.Context, inst *Instance) {
	if inst.Status != StatusActive {
		return
	}
	def := inst.Def
	inst.Status = StatusCompleted
	inst.CompletedAt = e.now()
	e.removeActive(def.ID)
	if !def.Repeatable {
		e.completed[def.ID] = inst.CompletedAt
		e.doneOrder = append(e.doneOrder, def.ID)
	}

	metrics.QuestsCompleted.WithLabelValues(def.ID).Inc()
	e.logger.Info("quest completed", zap.String("quest", def.ID))
	e.events.Notify("Quest Complete", def.Title)
	e.events.Cue(event.CueQuestComplete)
	e.rewarder.GrantReward(ctx, def)
	_ = e.events.Emit(ctx, hook.OnQuestComplete, e.payload(def))

	for _, next := range def.FollowUp {
		e.offer(next)
	}
}

func (e *Engine) offer(id string) {
	e.sched.AddDelay(followupTask(id), e.delay, func(ctx context.Context) {
		if _, err := e.Start(ctx, id); err != nil {
			e.logger.Debug("follow-up not started", zap.String("quest", id), zap.Error(err))
		}
	})
}

// CancelFollowups drops every follow-up offer still pending.
func (e *Engine) CancelFollowups() {
	for _, id := range e.defOrder {
		e.sched.Remove(followupTask(id))
	}
}

func followupTask(id string) string { return "followup:" + id }

func (e *Engine) removeActive(id string) {
	delete(e.active, id)
	for i, a := range e.activeOrder {
		if a == id {
			e.activeOrder = append(e.activeOrder[:i], e.activeOrder[i+1:]...)
			return
		}
	}
}

func (e *Engine) payload(def *Definition) event.QuestPayload {
	return event.QuestPayload{
		Player:  e.env.player.PlayerName(),
		QuestID: def.ID,
		Title:   def.Title,
		Level:   e.env.player.PlayerLevel(),
	}
}

// Active returns active instances in start order.
func (e *Engine) Active() []*Instance {
	out := make([]*Instance, 0, len(e.activeOrder))
	for _, id := range e.activeOrder {
		out = append(out, e.active[id])
	}
	return out
}

// Instance returns the active instance of id, or nil.
func (e *Engine) Instance(id string) *Instance { return e.active[id] }

// Completed returns completed quest ids in completion order.
func (e *Engine) Completed() []string {
	return append([]string(nil), e.doneOrder...)
}

// IsCompleted reports whether id is in the completed set.
func (e *Engine) IsCompleted(id string) bool {
	_, ok := e.completed[id]
	return ok
}
