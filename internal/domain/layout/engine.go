package layout

import (
	"sync"

	"github.com/okian/finishline/internal/domain/frame"
	"github.com/okian/finishline/internal/domain/types"
)

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the frame scheduler. Defaults to a frame.Timer.
func WithScheduler(s frame.Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.sched = s
		}
	}
}

// WithOnLayout registers a hook called after every completed pass, outside the engine lock.
func WithOnLayout(fn func(Layout)) Option {
	return func(e *Engine) { e.onLayout = fn }
}

// WithPlaceholderAspect sets the height/width ratio used for unknown sizes.
func WithPlaceholderAspect(aspect float64) Option {
	return func(e *Engine) {
		if aspect > 0 {
			e.aspect = aspect
		}
	}
}

// Engine keeps the masonry layout of one gallery up to date. Every change
// invalidates the current layout and requests one full relayout; requests
// within the same frame are coalesced.
type Engine struct {
	sched    frame.Scheduler
	onLayout func(Layout)
	aspect   float64

	mu        sync.Mutex
	refs      []types.PhotoRef
	sizes     map[types.PhotoRef]Size
	width     int
	columns   int
	device    Device
	current   Layout
	dirty     bool
	closed    bool
	passes    int
	coalesced int
}

// NewEngine creates an engine for a container of the given width.
func NewEngine(width, columns int, device Device, opts ...Option) *Engine {
	e := &Engine{
		aspect:  DefaultPlaceholderAspect,
		sizes:   make(map[types.PhotoRef]Size),
		width:   width,
		columns: max(columns, 1),
		device:  device,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sched == nil {
		e.sched = frame.NewTimer(frame.DefaultInterval)
	}
	e.current = e.empty()
	return e
}

// SetItems replaces the revealed photos, in display order.
func (e *Engine) SetItems(refs []types.PhotoRef) {
	e.mu.Lock()
	e.refs = append(e.refs[:0:0], refs...)
	e.mu.Unlock()
	e.invalidate()
}

// Resize changes the container width and column count.
func (e *Engine) Resize(width, columns int, device Device) {
	e.mu.Lock()
	if e.width == width && e.columns == max(columns, 1) && e.device == device {
		e.mu.Unlock()
		return
	}
	e.width = width
	e.columns = max(columns, 1)
	e.device = device
	e.mu.Unlock()
	e.invalidate()
}

// SetSize records the natural size of a photo once it has loaded. Unchanged
// sizes do not trigger a relayout.
func (e *Engine) SetSize(ref types.PhotoRef, s Size) {
	if !s.Known() {
		return
	}
	e.mu.Lock()
	if e.sizes[ref] == s {
		e.mu.Unlock()
		return
	}
	e.sizes[ref] = s
	e.mu.Unlock()
	e.invalidate()
}

func (e *Engine) invalidate() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if len(e.refs) == 0 {
		e.current = e.empty()
		e.dirty = false
		e.mu.Unlock()
		return
	}
	e.dirty = true
	e.mu.Unlock()

	if !e.sched.Request(e.pass) {
		e.mu.Lock()
		e.coalesced++
		e.mu.Unlock()
	}
}

func (e *Engine) pass() {
	e.mu.Lock()
	if e.closed || !e.dirty {
		e.mu.Unlock()
		return
	}
	items := make([]Item, len(e.refs))
	for i, r := range e.refs {
		items[i] = Item{Ref: r, Size: e.sizes[r]}
	}
	l := Compute(items, e.params())
	e.current = l
	e.dirty = false
	e.passes++
	hook := e.onLayout
	e.mu.Unlock()

	if hook != nil {
		hook(l)
	}
}

func (e *Engine) params() Params {
	return Params{
		Columns:           e.columns,
		ContainerWidth:    e.width,
		Gap:               Gap(e.device, e.columns),
		PlaceholderAspect: e.aspect,
	}
}

func (e *Engine) empty() Layout {
	return Compute(nil, e.params())
}

// Flush runs a pending pass now and returns the current layout.
func (e *Engine) Flush() Layout {
	e.sched.Flush()
	return e.Layout()
}

// Layout returns the most recent layout without waiting for a pending pass.
func (e *Engine) Layout() Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Dirty reports whether a relayout is pending.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Stats returns completed passes and coalesced requests.
func (e *Engine) Stats() (passes, coalesced int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.passes, e.coalesced
}

// Close cancels any pending pass. Later changes are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.dirty = false
	e.mu.Unlock()
	e.sched.Cancel()
}
