// Package window decides how many photos of a stream are revealed for layout.
//
// Reveal is by count: a prefix of the list grows in batches as the viewer
// nears the end of what is shown. Nothing is ever unmounted, which keeps the
// model simple for lists in the low thousands.
package window

import "sync"

// Defaults for the reveal formula.
const (
	DefaultMinimumInitialBatch  = 20
	DefaultPerColumnInitialRows = 6
	DefaultBatchSize            = 24
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithMinimumInitialBatch sets the lower bound of the initial reveal.
func WithMinimumInitialBatch(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.minimumInitial = n
		}
	}
}

// WithPerColumnInitialRows sets how many rows per column the initial reveal fills.
func WithPerColumnInitialRows(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.perColumnRows = n
		}
	}
}

// WithBatchSize sets how many items each growth reveals.
func WithBatchSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.batch = n
		}
	}
}

// Manager tracks the reveal count of one photo list. It is safe for concurrent use.
type Manager struct {
	minimumInitial int
	perColumnRows  int
	batch          int

	mu       sync.Mutex
	listID   string
	total    int
	columns  int
	visible  int
	settling bool
}

// New creates a Manager with no list attached.
func New(opts ...Option) *Manager {
	m := &Manager{
		minimumInitial: DefaultMinimumInitialBatch,
		perColumnRows:  DefaultPerColumnInitialRows,
		batch:          DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InitialCount is max(minimum, columns × rows per column), capped at total.
func (m *Manager) InitialCount(total, columns int) int {
	if columns < 1 {
		columns = 1
	}
	n := max(m.minimumInitial, columns*m.perColumnRows)
	return min(n, max(total, 0))
}

// Sync attaches the manager to a list. A different list identity, a
// different column count, or a shrinking list resets the reveal count to the
// initial formula. A list that only grew keeps its reveal count and is
// topped up to the initial formula. It reports whether a reset happened.
func (m *Manager) Sync(listID string, total, columns int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if columns < 1 {
		columns = 1
	}
	total = max(total, 0)
	reset := listID != m.listID || columns != m.columns || total < m.total
	m.listID = listID
	m.columns = columns
	m.total = total
	if reset {
		m.visible = m.InitialCount(total, columns)
		m.settling = false
		return true
	}
	m.visible = max(m.visible, m.InitialCount(total, columns))
	return false
}

// Grow reveals one more batch. A growth requested while the previous one is
// still settling is coalesced: nothing changes and false is returned.
func (m *Manager) Grow() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settling || m.visible >= m.total {
		return m.visible, false
	}
	m.visible = min(m.visible+m.batch, m.total)
	m.settling = true
	return m.visible, true
}

// Settle marks the last growth as laid out once a pass covering laidOut
// items has run, so the next growth can proceed. A pass computed for fewer
// items than the current reveal count predates the growth and is ignored.
func (m *Manager) Settle(laidOut int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if laidOut < m.visible {
		return false
	}
	m.settling = false
	return true
}

// RevealThrough makes sure index is revealed, growing in whole batches.
func (m *Manager) RevealThrough(index int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.visible <= index && m.visible < m.total {
		m.visible = min(m.visible+m.batch, m.total)
	}
	return m.visible
}

// Visible returns the current reveal count.
func (m *Manager) Visible() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// Settling reports whether a growth is waiting for its layout pass.
func (m *Manager) Settling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settling
}

// Total returns the length of the attached list.
func (m *Manager) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}
