// Package queue defines the contract for enqueuing and consuming face-match jobs.
//
// The queue is bounded: a full queue rejects new jobs instead of blocking so
// callers can report backpressure.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/finishline/internal/domain/model"
	"github.com/okian/finishline/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Job represents the payload type flowing through the queue.
type Job = model.MatchJob

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job without blocking. It returns ErrFull when the queue
	// is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel that will receive jobs as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Capacity returns the maximum number of queued jobs.
	Capacity() int

	// Close gracefully shuts down the queue.
	// After closing, no new jobs can be enqueued and the dequeue channel will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool

	// Jobs waiting per session; only tracked when perSession > 0.
	perSession int
	pendingMu  sync.Mutex
	pending    map[string]int

	onDrop func(Job)
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.jobs = make(chan Job, q.capacity)
	q.pending = make(map[string]int)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue: %w", err)
	}

	if !q.reserve(j.SessionID) {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "session_busy")
		return ErrSessionBusy
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		q.release(j.SessionID)
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// reserve counts one more waiting job for session, failing at the limit.
func (q *InMemoryQueue) reserve(session string) bool {
	if q.perSession <= 0 {
		return true
	}
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	if q.pending[session] >= q.perSession {
		return false
	}
	q.pending[session]++
	return true
}

func (q *InMemoryQueue) hold(session string) {
	if q.perSession <= 0 {
		return
	}
	q.pendingMu.Lock()
	q.pending[session]++
	q.pendingMu.Unlock()
}

func (q *InMemoryQueue) release(session string) {
	if q.perSession <= 0 {
		return
	}
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	if q.pending[session] <= 1 {
		delete(q.pending, session)
		return
	}
	q.pending[session]--
}

// Pending returns the number of jobs of session waiting in the queue.
// It is always zero without WithMaxPerSession.
func (q *InMemoryQueue) Pending(session string) int {
	q.pendingMu.Lock()
	defer q.pendingMu.Unlock()
	return q.pending[session]
}

func (q *InMemoryQueue) observe() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				q.release(j.SessionID)
				select {
				case out <- j:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					q.requeue(j)
					return
				}
			}
		}
	}()
	return out
}

// requeue puts back a job whose consumer went away before taking it. The
// session slot is taken again even past the limit since the job was already
// accepted. When it cannot be put back it is dropped and the drop callback
// runs.
func (q *InMemoryQueue) requeue(j Job) { //nolint:gocritic // hugeParam: mirrors Enqueue
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.closed {
		select {
		case q.jobs <- j:
			q.hold(j.SessionID)
			q.observe()
			return
		default:
		}
	}
	metrics.RecordErrorByComponent("queue", "dropped")
	if q.onDrop != nil {
		q.onDrop(j)
	}
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.observe()
	return len(q.jobs)
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.jobs)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
