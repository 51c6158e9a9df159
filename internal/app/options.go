package service

import (
	"time"

	"github.com/okian/finishline/internal/adapters/repository"
	"github.com/okian/finishline/internal/domain/facematch"
	"github.com/okian/finishline/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkerCount sets the number of match workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the match queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxPendingSelfies bounds the selfies one gallery may have waiting in
// the match queue. Zero disables the limit.
func WithMaxPendingSelfies(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxPendingSelfies = n
		}
	}
}

// WithDedupeSize sets how many selfie request IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDatabase selects the database opened by Start.
func WithDatabase(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.dbDriver = driver
		}
		if dsn != "" {
			s.dbDSN = dsn
		}
	}
}

// WithStore uses an already open store. The caller keeps ownership.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithMatcher uses m instead of building a matcher from configuration.
func WithMatcher(m facematch.Matcher) Option {
	return func(s *Service) {
		s.matcher = m
	}
}

// WithFaceMatchURL sends selfies to an external endpoint. An empty URL keeps
// the simulated matcher.
func WithFaceMatchURL(url string, timeout time.Duration) Option {
	return func(s *Service) {
		s.faceMatchURL = url
		if timeout > 0 {
			s.matchTimeout = timeout
		}
	}
}

// WithFaceMatchLatency sets the latency range of the simulated matcher.
func WithFaceMatchLatency(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency > 0 && maxLatency > minLatency {
			s.matchMinLatency = minLatency
			s.matchMaxLatency = maxLatency
		}
	}
}

// WithPageSizes sets the default and the largest accepted leaderboard page size.
func WithPageSizes(def, maxSize int) Option {
	return func(s *Service) {
		if def > 0 {
			s.defaultPageSize = def
		}
		if maxSize >= s.defaultPageSize {
			s.maxPageSize = maxSize
		}
	}
}

// WithWindow sets the reveal window parameters of new galleries.
func WithWindow(initialBatch, perColumnRows, batchSize int) Option {
	return func(s *Service) {
		s.initialBatch = initialBatch
		s.perColumnRows = perColumnRows
		s.batchSize = batchSize
	}
}

// WithFrameInterval sets how long layout requests are coalesced.
func WithFrameInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.frameInterval = d
		}
	}
}

// WithPlaceholderAspect sets the height/width ratio used for photos of unknown size.
func WithPlaceholderAspect(aspect float64) Option {
	return func(s *Service) {
		if aspect > 0 {
			s.placeholderAspect = aspect
		}
	}
}

// WithSessions sets the gallery idle TTL and the maximum number of live galleries.
func WithSessions(ttl time.Duration, maxSessions int) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
		if maxSessions > 0 {
			s.maxSessions = maxSessions
		}
	}
}
