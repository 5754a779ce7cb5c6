package session

import (
	"sync"
	"time"
)

// Task is a cancellable delayed callback. Arm always cancels the previous
// schedule first, so at most one callback per Task can fire per arm.
type Task struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Arm schedules fn after d, replacing any pending schedule. fn receives the
// generation it was armed with; Current reports whether that generation is
// still the latest, which lets a callback that raced with a re-arm bail out.
func (t *Task) Arm(d time.Duration, fn func(gen uint64)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(d, func() { fn(gen) })
	return gen
}

// Cancel stops the pending schedule, if any, and invalidates its generation.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Current reports whether gen is the latest armed generation.
func (t *Task) Current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil && t.gen == gen
}

// Armed reports whether a schedule is pending.
func (t *Task) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
