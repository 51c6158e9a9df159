// Package worker runs face-match jobs off the queue and merges the matched
// photos into gallery sessions.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/finishline/internal/domain/facematch"
	"github.com/okian/finishline/internal/domain/model"
	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/pkg/logger"
	"github.com/okian/finishline/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultMatchTimeout     = 10 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = model.MatchJob

// Matcher finds photos for a selfie.
type Matcher interface {
	Match(ctx context.Context, req facematch.Request) ([]types.PhotoRef, error)
}

// Applier merges matched photos into the session that asked for them.
type Applier interface {
	Apply(ctx context.Context, sessionID string, refs []types.PhotoRef) (int, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for face-match jobs.
type InMemoryWorker struct {
	queue        Queue
	matcher      Matcher
	applier      Applier
	name         string
	matchTimeout time.Duration
	onResult     func(model.MatchResult)
	active       *atomic.Int64

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, matcher Matcher, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:        queue,
		matcher:      matcher,
		applier:      applier,
		name:         "worker",
		matchTimeout: defaultMatchTimeout,
		active:       &atomic.Int64{},
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing match job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job: match, then merge into the session.
func (w *InMemoryWorker) process(ctx context.Context, job Job) (err error) { //nolint:gocritic // hugeParam: Job must be passed by value for channel semantics
	w.active.Add(1)
	start := time.Now()
	res := model.MatchResult{Job: job}
	defer func() {
		w.active.Add(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		res.Err = err
		if w.onResult != nil {
			w.onResult(res)
		}
	}()

	ctx = logger.ContextWithFields(ctx,
		logger.String("job_id", job.JobID),
		logger.String("session_id", job.SessionID),
	)
	matchCtx, cancel := context.WithTimeout(ctx, w.matchTimeout)
	defer cancel()

	matchStart := time.Now()
	refs, err := w.matcher.Match(matchCtx, facematch.Request{EventID: job.EventID, Bib: job.Bib, Selfie: job.Selfie})
	metrics.RecordFaceMatchLatency(float64(time.Since(matchStart).Milliseconds()))
	if err != nil {
		metrics.RecordFaceMatchError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "match_error")
		w.logger.Warn(ctx, "face match failed", logger.Error(err))
		return fmt.Errorf("match job %s: %w", job.JobID, err)
	}
	res.Matched = len(refs)

	added, err := w.applier.Apply(ctx, job.SessionID, refs)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "apply_error")
		w.logger.Warn(ctx, "merging matches failed", logger.Error(err))
		return fmt.Errorf("apply job %s: %w", job.JobID, err)
	}
	res.Added = added
	metrics.RecordFaceMatchesMerged(added)

	w.logger.Debug(ctx, "match job done",
		logger.Int("matched", len(refs)),
		logger.Int("added", added),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  *atomic.Int64

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool. Options apply to every worker.
func NewPool(workerCount int, queue Queue, matcher Matcher, applier Applier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		active:   &atomic.Int64{},
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, matcher, applier, wopts...)
		w.active = pool.active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers running a job.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.reportUtilization(ctx)
}

func (p *Pool) reportUtilization(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			active := p.Active()
			metrics.UpdateWorkerActiveCount(active)
			metrics.UpdateWorkerIdleCount(len(p.workers) - active)
		}
	}
}

// Shutdown closes the queue and waits for the workers to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
