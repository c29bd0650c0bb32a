package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks. ctx is cancelled
// once the scheduler is stopped.
type TaskFn func(ctx context.Context)

// Scheduler runs periodic and delayed tasks against game time rather than
// wall-clock time. Time only moves when the owner calls Advance, so tasks
// never fire while the game is paused, and Stop discards everything still
// pending.
type Scheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	tasks   map[string]*task
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	logger  *zap.Logger
}

type task struct {
	name     string
	due      time.Duration
	interval time.Duration // zero for one-shot delays
	seq      uint64
	fn       TaskFn
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[string]*task),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

func (s *Scheduler) put(name string, due, interval time.Duration, fn TaskFn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.seq++
	s.tasks[name] = &task{
		name:     name,
		due:      s.now + due,
		interval: interval,
		seq:      s.seq,
		fn:       fn,
	}
	return true
}

// AddTicker registers a task to run every interval of game time.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	if interval <= 0 {
		s.logger.Warn("scheduler ticker ignored: non-positive interval", zap.String("name", name))
		return
	}
	if s.put(name, interval, interval, fn) {
		s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
	}
}

// AddDelay runs fn once after delay of game time has elapsed.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.put(name, delay, 0, fn)
}

// Remove cancels a ticker or delay task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, name)
}

// Advance moves game time forward by dt and runs every task that has come
// due, ordered by due time then registration order. Tasks run on the
// caller's goroutine; a task may register or remove other tasks.
func (s *Scheduler) Advance(dt time.Duration) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.now += dt
	now := s.now
	due := make([]*task, 0, 4)
	for _, t := range s.tasks {
		if t.due <= now {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	s.mu.Unlock()

	for _, t := range due {
		if !s.claim(t, now) {
			continue
		}
		s.run(t)
	}
}

// claim re-checks t against the live table, since an earlier task in the
// same Advance may have removed or replaced it, and reschedules or drops it.
func (s *Scheduler) claim(t *task, now time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.tasks[t.name] != t {
		return false
	}
	if t.interval > 0 {
		t.due += t.interval
		if t.due <= now {
			t.due = now + t.interval
		}
	} else {
		delete(s.tasks, t.name)
	}
	return true
}

func (s *Scheduler) run(t *task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", t.name),
				zap.Any("recover", r))
		}
	}()
	t.fn(s.ctx)
}

// Stop cancels the task context and drops all pending tasks. Later
// registrations are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.tasks = make(map[string]*task)
	s.cancel()
}

// Done is closed once Stop has been called.
func (s *Scheduler) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Now returns the elapsed game time.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of registered tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// ListTickers returns the names of all registered ticker tasks, sorted.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tasks))
	for name, t := range s.tasks {
		if t.interval > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
