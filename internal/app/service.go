// Package service composes the repository, the gallery registry and the
// face-match pipeline into the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	fmclient "github.com/okian/finishline/internal/adapters/facematch"
	matchqueue "github.com/okian/finishline/internal/adapters/mq/queue"
	workerpool "github.com/okian/finishline/internal/adapters/mq/worker"
	"github.com/okian/finishline/internal/adapters/repository"
	"github.com/okian/finishline/internal/domain/dedupe"
	"github.com/okian/finishline/internal/domain/facematch"
	"github.com/okian/finishline/internal/domain/frame"
	"github.com/okian/finishline/internal/domain/gallery"
	"github.com/okian/finishline/internal/domain/layout"
	"github.com/okian/finishline/internal/domain/leaderboard"
	"github.com/okian/finishline/internal/domain/model"
	"github.com/okian/finishline/pkg/logger"
	"github.com/okian/finishline/pkg/metrics"
)

// Service implements the API dependencies for leaderboards and galleries.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	ownStore   bool
	deduper    dedupe.Deduper
	queue      matchqueue.Queue
	matcher    facematch.Matcher
	ownMatcher bool
	pool       *workerpool.Pool
	registry   *gallery.Registry

	// Configuration
	workerCount       int
	queueSize         int
	maxPendingSelfies int
	dedupeSize        int
	dbDriver          string
	dbDSN             string
	faceMatchURL      string
	matchTimeout      time.Duration
	matchMinLatency   time.Duration
	matchMaxLatency   time.Duration
	defaultPageSize   int
	maxPageSize       int
	initialBatch      int
	perColumnRows     int
	batchSize         int
	frameInterval     time.Duration
	placeholderAspect float64
	sessionTTL        time.Duration
	maxSessions       int

	// State
	started bool
	cancel  context.CancelFunc
	janitor sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU() * 2,
		queueSize:         1024,
		maxPendingSelfies: 4,
		dedupeSize:        10000,
		dbDriver:          repository.DriverSQLite,
		dbDSN:             "finishline.db",
		matchTimeout:      10 * time.Second,
		matchMinLatency:   80 * time.Millisecond,
		matchMaxLatency:   150 * time.Millisecond,
		defaultPageSize:   leaderboard.DefaultPageSize,
		maxPageSize:       100,
		frameInterval:     frame.DefaultInterval,
		placeholderAspect: layout.DefaultPlaceholderAspect,
		sessionTTL:        gallery.DefaultTTL,
		maxSessions:       gallery.DefaultMaxSessions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and starts the match workers and the gallery janitor.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting finishline service...")

	if s.store == nil || s.ownStore {
		store, err := repository.Open(ctx, s.dbDriver, s.dbDSN)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownStore = true
	}

	if s.matcher == nil || s.ownMatcher {
		m, err := s.buildMatcher()
		if err != nil {
			s.closeStore()
			return err
		}
		s.matcher = m
		s.ownMatcher = true
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = matchqueue.NewInMemoryQueue(
		matchqueue.WithCapacity(s.queueSize),
		matchqueue.WithMaxPerSession(s.maxPendingSelfies),
		matchqueue.WithOnDrop(s.dropped),
	)
	s.registry = gallery.NewRegistry(
		gallery.WithTTL(s.sessionTTL),
		gallery.WithMaxSessions(s.maxSessions),
		gallery.WithOnEvict(s.evicted),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.matcher, s,
		workerpool.WithMatchTimeout(s.matchTimeout),
		workerpool.WithOnResult(s.matched),
	)
	s.pool.Start(runCtx)

	s.janitor.Add(1)
	go func() {
		defer s.janitor.Done()
		s.registry.Run(runCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "finishline service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("remoteMatcher", s.faceMatchURL != ""),
	)
	return nil
}

func (s *Service) buildMatcher() (facematch.Matcher, error) {
	if s.faceMatchURL != "" {
		c, err := fmclient.NewClient(s.faceMatchURL, fmclient.WithTimeout(s.matchTimeout))
		if err != nil {
			return nil, fmt.Errorf("facematch client: %w", err)
		}
		return c, nil
	}
	return facematch.NewInMemoryMatcher(s.store,
		facematch.WithLatencyRange(s.matchMinLatency, s.matchMaxLatency),
	), nil
}

// Stop drains the match workers, closes every gallery and the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool, cancel := s.pool, s.cancel
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping finishline service...")

	// Workers still draining see ErrNotStarted from Apply.
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	cancel()
	s.janitor.Wait()

	s.mu.Lock()
	s.closeStore()
	s.mu.Unlock()

	s.logger.Info(ctx, "finishline service stopped")
}

func (s *Service) closeStore() {
	if !s.ownStore || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing store", logger.Error(err))
	}
}

// running returns the live components or ErrNotStarted.
func (s *Service) running() (*gallery.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.registry, nil
}

// evicted is called by the registry after a session was closed.
func (s *Service) evicted(sess *gallery.Session, reason gallery.EvictReason) {
	metrics.RecordGallerySessionEvicted(string(reason))
	_, coalesced := sess.LayoutStats()
	metrics.RecordLayoutCoalesced(coalesced)
	if s.registry != nil {
		metrics.UpdateGalleryActiveSessions(s.registry.Len())
	}
	s.logger.Debug(context.Background(), "gallery closed",
		logger.String("session_id", sess.ID()),
		logger.String("reason", string(reason)),
	)
}

// dropped is called for a queued selfie that no worker will process.
func (s *Service) dropped(j model.MatchJob) {
	s.deduper.Unrecord(context.Background(), j.JobID)
	s.logger.Warn(context.Background(), "selfie dropped", logger.String("session_id", j.SessionID))
}

// matched is called by a worker after each job.
func (s *Service) matched(res model.MatchResult) {
	if res.Err != nil {
		// Let the client retry the same request ID.
		s.deduper.Unrecord(context.Background(), res.Job.JobID)
		return
	}
	s.logger.Info(context.Background(), "selfie matched",
		logger.String("session_id", res.Job.SessionID),
		logger.Int("matched", res.Matched),
		logger.Int("added", res.Added),
	)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"database":    s.dbDriver,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		sessions := s.registry.Len()

		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.pool.Active()
		stats["seenRequests"] = s.deduper.Size()
		stats["gallerySessions"] = sessions

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateGalleryActiveSessions(sessions)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
