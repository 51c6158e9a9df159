// Package facematch defines the contract of the face-matching service that
// finds a participant's photos from a selfie.
package facematch

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/finishline/internal/domain/types"
)

// Default simulation parameters.
const (
	defaultMinLatency = 80 * time.Millisecond
	defaultMaxLatency = 150 * time.Millisecond
	defaultMaxMatches = 6
	defaultRandomSeed = 42
)

// Request is one selfie submitted for an event.
type Request struct {
	EventID string
	Bib     string
	Selfie  []byte
}

// Receipt acknowledges a selfie submission.
type Receipt struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Receipt statuses.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// Matcher finds photos of the person in a selfie. Implementations may be
// slow and may fail; callers bound them with ctx.
type Matcher interface {
	Match(ctx context.Context, req Request) ([]types.PhotoRef, error)
}

// Catalog lists every photo of an event.
type Catalog interface {
	EventPhotos(ctx context.Context, eventID string) ([]types.PhotoRef, error)
}

// Option applies a configuration option to the InMemoryMatcher.
type Option func(*InMemoryMatcher)

// WithLatencyRange sets the simulated latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(m *InMemoryMatcher) {
		if minLatency > 0 && maxLatency > minLatency {
			m.minLatency = minLatency
			m.maxLatency = maxLatency
		}
	}
}

// WithMaxMatches caps how many photos one selfie matches.
func WithMaxMatches(n int) Option {
	return func(m *InMemoryMatcher) {
		if n > 0 {
			m.maxMatches = n
		}
	}
}

// InMemoryMatcher simulates a face-matching service over an event catalog.
// The same selfie always matches the same photos.
type InMemoryMatcher struct {
	catalog    Catalog
	minLatency time.Duration
	maxLatency time.Duration
	maxMatches int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewInMemoryMatcher creates a simulated matcher drawing from catalog.
func NewInMemoryMatcher(catalog Catalog, opts ...Option) *InMemoryMatcher {
	m := &InMemoryMatcher{
		catalog:    catalog,
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		maxMatches: defaultMaxMatches,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic latency for reproducible runs
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *InMemoryMatcher) latency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minLatency + time.Duration(m.rng.Int63n(int64(m.maxLatency-m.minLatency)))
}

// Match implements Matcher.
func (m *InMemoryMatcher) Match(ctx context.Context, req Request) ([]types.PhotoRef, error) {
	if len(req.Selfie) == 0 {
		return nil, ErrEmptySelfie
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrMatchFailed, ctx.Err())
	case <-time.After(m.latency()):
	}

	all, err := m.catalog.EventPhotos(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMatchFailed, err)
	}
	return pick(all, req.Selfie, m.maxMatches), nil
}

// pick chooses up to n photos from all, seeded by the selfie bytes.
func pick(all []types.PhotoRef, selfie []byte, n int) []types.PhotoRef {
	if len(all) == 0 {
		return nil
	}
	h := fnv.New64a()
	_, _ = h.Write(selfie)
	r := rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // selection only needs to be stable

	n = min(n, len(all))
	idx := r.Perm(len(all))[:n]
	out := make([]types.PhotoRef, n)
	for i, j := range idx {
		out[i] = all[j]
	}
	return out
}
