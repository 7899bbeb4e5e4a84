// Package scheduler runs named one-shot and recurring tasks on an injectable
// clock. Every task can be cancelled, and stopping the scheduler cancels all
// of them and waits for running callbacks to return.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/muurk/wifipanel/internal/logging"
)

// Scheduler owns a set of pending tasks.
type Scheduler struct {
	clock clock.WithTicker

	mu      sync.Mutex
	tasks   map[*Task]struct{}
	stopped bool

	wg sync.WaitGroup
}

// Task is a handle to one scheduled callback.
type Task struct {
	name string
	s    *Scheduler
	stop chan struct{}
	once sync.Once
}

// New creates a scheduler. A nil clock means the real wall clock.
func New(c clock.WithTicker) *Scheduler {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Scheduler{
		clock: c,
		tasks: make(map[*Task]struct{}),
	}
}

// Clock returns the clock tasks are scheduled on.
func (s *Scheduler) Clock() clock.WithTicker {
	return s.clock
}

// After runs fn once, d from now. It returns nil if the scheduler is stopped.
func (s *Scheduler) After(name string, d time.Duration, fn func()) *Task {
	t := s.add(name)
	if t == nil {
		return nil
	}

	timer := s.clock.NewTimer(d)
	logging.Debug("Task scheduled", zap.String("task", name), zap.Duration("after", d))

	go func() {
		defer s.wg.Done()
		select {
		case <-timer.C():
			s.remove(t)
			s.run(t, fn)
		case <-t.stop:
			timer.Stop()
		}
	}()
	return t
}

// Every runs fn each period d until the task or the scheduler is stopped.
func (s *Scheduler) Every(name string, d time.Duration, fn func()) *Task {
	t := s.add(name)
	if t == nil {
		return nil
	}

	ticker := s.clock.NewTicker(d)
	logging.Debug("Task scheduled", zap.String("task", name), zap.Duration("every", d))

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				s.run(t, fn)
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

func (s *Scheduler) add(name string) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}

	t := &Task{name: name, s: s, stop: make(chan struct{})}
	s.tasks[t] = struct{}{}
	s.wg.Add(1)
	return t
}

func (s *Scheduler) remove(t *Task) {
	s.mu.Lock()
	delete(s.tasks, t)
	s.mu.Unlock()
}

func (s *Scheduler) run(t *Task, fn func()) {
	select {
	case <-t.stop:
		return
	default:
	}
	logging.Debug("Task fired", zap.String("task", t.name))
	fn()
}

// Name returns the task's name.
func (t *Task) Name() string {
	return t.name
}

// Stop cancels the task. A callback that is already running finishes.
// Stop is safe to call more than once and on a nil task.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		close(t.stop)
		t.s.remove(t)
	})
}

// Pending returns the names of tasks that have not fired or been stopped,
// sorted. Recurring tasks stay pending until stopped.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for t := range s.tasks {
		names = append(names, t.name)
	}
	sort.Strings(names)
	return names
}

// Stop cancels every task and waits for their goroutines to exit. Tasks
// scheduled after Stop are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	tasks := make([]*Task, 0, len(s.tasks))
	for t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
	s.wg.Wait()
}
