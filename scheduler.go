package authsession

import (
	"sync"
	"time"
)

// Task is a handle to a scheduled callback.
type Task struct {
	mu    sync.Mutex
	once  sync.Once
	stop  chan struct{}
	timer *time.Timer
	owner *Scheduler
}

// Cancel stops future runs. A callback already running is left to finish.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		close(t.stop)
		t.mu.Lock()
		if t.timer != nil {
			t.timer.Stop()
		}
		t.mu.Unlock()
		if t.owner != nil {
			t.owner.forget(t)
		}
	})
}

// Cancelled reports whether Cancel has been called.
func (t *Task) Cancelled() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}

// Scheduler tracks fire-and-forget timers so they can be cancelled together.
type Scheduler struct {
	mu    sync.Mutex
	tasks map[*Task]struct{}
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[*Task]struct{})}
}

// Every runs fn every interval until the task is cancelled. A non-positive
// interval never runs fn and returns a task that is already cancelled.
func (s *Scheduler) Every(interval time.Duration, fn func()) *Task {
	if interval <= 0 {
		t := &Task{stop: make(chan struct{})}
		t.Cancel()
		return t
	}
	t := s.track()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				if t.Cancelled() {
					return
				}
				fn()
			}
		}
	}()
	return t
}

// After runs fn once after delay unless the task is cancelled first.
func (s *Scheduler) After(delay time.Duration, fn func()) *Task {
	t := s.track()
	t.mu.Lock()
	t.timer = time.AfterFunc(delay, func() {
		if t.Cancelled() {
			return
		}
		s.forget(t)
		fn()
	})
	t.mu.Unlock()
	return t
}

// CancelAll cancels every pending task.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	pending := make([]*Task, 0, len(s.tasks))
	for t := range s.tasks {
		pending = append(pending, t)
	}
	s.mu.Unlock()
	for _, t := range pending {
		t.Cancel()
	}
}

// Pending returns the number of tasks not yet cancelled or fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) track() *Task {
	t := &Task{stop: make(chan struct{}), owner: s}
	s.mu.Lock()
	s.tasks[t] = struct{}{}
	s.mu.Unlock()
	return t
}

func (s *Scheduler) forget(t *Task) {
	s.mu.Lock()
	delete(s.tasks, t)
	s.mu.Unlock()
}
