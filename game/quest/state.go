package quest

import (
	"time"

	"go.uber.org/zap"
)

// InstanceState is the persisted form of an active instance.
type InstanceState struct {
	QuestID    string                    `json:"quest_id"`
	StartedAt  time.Time                 `json:"started_at"`
	Objectives map[string]ObjectiveState `json:"objectives"`
}

// State is the persisted quest log.
type State struct {
	Active    []InstanceState `json:"active"`
	Completed []string        `json:"completed"`
}

// Snapshot copies the quest log for saving.
func (e *Engine) Snapshot() State {
	s := State{
		Active:    make([]InstanceState, 0, len(e.activeOrder)),
		Completed: e.Completed(),
	}
	for _, inst := range e.Active() {
		is := InstanceState{
			QuestID:    inst.Def.ID,
			StartedAt:  inst.StartedAt,
			Objectives: make(map[string]ObjectiveState, len(inst.objectives)),
		}
		for i, obj := range inst.Def.Objectives {
			is.Objectives[obj.ID] = inst.objectives[i]
		}
		s.Active = append(s.Active, is)
	}
	return s
}

// Restore replaces the quest log with s without firing any events. Quests
// and objectives no longer in the catalogue are dropped. Follow-ups of
// completed quests that never started are offered again.
func (e *Engine) Restore(s State) {
	e.CancelFollowups()
	e.active = make(map[string]*Instance)
	e.activeOrder = nil
	e.completed = make(map[string]time.Time)
	e.doneOrder = nil

	now := e.now()
	for _, id := range s.Completed {
		def, ok := e.defs[id]
		if !ok {
			e.logger.Warn("restore: dropping unknown completed quest", zap.String("quest", id))
			continue
		}
		if def.Repeatable || e.IsCompleted(id) {
			continue
		}
		e.completed[id] = now
		e.doneOrder = append(e.doneOrder, id)
	}
	for _, is := range s.Active {
		def, ok := e.defs[is.QuestID]
		if !ok {
			e.logger.Warn("restore: dropping unknown active quest", zap.String("quest", is.QuestID))
			continue
		}
		if _, dup := e.active[def.ID]; dup || (e.IsCompleted(def.ID) && !def.Repeatable) {
			continue
		}
		inst := newInstance(def, is.StartedAt)
		for i, obj := range def.Objectives {
			if st, ok := is.Objectives[obj.ID]; ok {
				inst.objectives[i] = st
			}
		}
		e.active[def.ID] = inst
		e.activeOrder = append(e.activeOrder, def.ID)
	}
	for _, id := range e.doneOrder {
		for _, next := range e.defs[id].FollowUp {
			if _, ok := e.defs[next]; !ok {
				continue
			}
			if _, ok := e.active[next]; ok || e.IsCompleted(next) {
				continue
			}
			e.offer(next)
		}
	}
}
