// Package frame coalesces repeated work requests into at most one run per
// frame interval. It stands in for an animation-frame callback on the server.
package frame

import (
	"sync"
	"time"
)

// DefaultInterval approximates one display frame at 60Hz.
const DefaultInterval = 16 * time.Millisecond

// Scheduler runs a pending callback at most once per frame.
type Scheduler interface {
	// Request schedules fn for the next frame. It returns false when a run is
	// already pending; the pending run wins and fn is dropped.
	Request(fn func()) bool
	// Flush runs the pending callback now, if any, and reports whether it ran.
	Flush() bool
	// Cancel drops any pending callback. Later requests are ignored.
	Cancel()
}

// Timer is a Scheduler backed by time.AfterFunc.
type Timer struct {
	interval time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	pending  func()
	canceled bool
}

// NewTimer creates a timer-backed scheduler. Non-positive intervals use DefaultInterval.
func NewTimer(interval time.Duration) *Timer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Timer{interval: interval}
}

// Request implements Scheduler.
func (t *Timer) Request(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled || t.pending != nil {
		return false
	}
	t.pending = fn
	t.timer = time.AfterFunc(t.interval, t.fire)
	return true
}

func (t *Timer) take() func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn := t.pending
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return fn
}

func (t *Timer) fire() {
	if fn := t.take(); fn != nil {
		fn()
	}
}

// Flush implements Scheduler. The callback runs on the caller's goroutine.
func (t *Timer) Flush() bool {
	fn := t.take()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Cancel implements Scheduler.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.canceled = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Manual is a Scheduler that only runs on Flush. Tests use it to step frames.
type Manual struct {
	mu       sync.Mutex
	pending  func()
	canceled bool
	requests int
}

// NewManual creates a manual scheduler.
func NewManual() *Manual { return &Manual{} }

// Request implements Scheduler.
func (m *Manual) Request(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	if m.canceled || m.pending != nil {
		return false
	}
	m.pending = fn
	return true
}

// Flush implements Scheduler.
func (m *Manual) Flush() bool {
	m.mu.Lock()
	fn := m.pending
	m.pending = nil
	m.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Cancel implements Scheduler.
func (m *Manual) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canceled = true
	m.pending = nil
}

// Pending reports whether a run is waiting.
func (m *Manual) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Requests counts every Request call, coalesced or not.
func (m *Manual) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}
