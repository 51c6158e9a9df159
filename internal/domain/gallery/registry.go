package gallery

import (
	"context"
	"sync"
	"time"
)

// Registry defaults.
const (
	DefaultTTL         = 15 * time.Minute
	DefaultMaxSessions = 1000
)

// EvictReason says why the registry dropped a session.
type EvictReason string

// Eviction reasons.
const (
	EvictIdle     EvictReason = "idle"
	EvictCapacity EvictReason = "capacity"
	EvictClosed   EvictReason = "closed"
)

// Registry holds live sessions by ID. Sessions idle for longer than the TTL
// are closed by Sweep; when full, the least recently used session is closed
// to make room.
type Registry struct {
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	onEvict     func(s *Session, reason EvictReason)

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		ttl:         DefaultTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers s, evicting the least recently used session when full.
func (r *Registry) Add(s *Session) {
	var evicted []*Session
	r.mu.Lock()
	for len(r.sessions) >= r.maxSessions {
		oldest := r.oldestLocked()
		if oldest == nil {
			break
		}
		delete(r.sessions, oldest.ID())
		evicted = append(evicted, oldest)
	}
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	for _, e := range evicted {
		r.evict(e, EvictCapacity)
	}
}

func (r *Registry) oldestLocked() *Session {
	var oldest *Session
	var at time.Time
	for _, s := range r.sessions {
		seen := s.LastSeen()
		if oldest == nil || seen.Before(at) {
			oldest, at = s, seen
		}
	}
	return oldest
}

// Get returns the live session with id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok || s.Closed() {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes and drops the session with id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	r.evict(s, EvictClosed)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	var idle []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			idle = append(idle, s)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		r.evict(s, EvictIdle)
	}
	return len(idle)
}

// Run sweeps every half TTL until ctx is done, then closes every session.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(max(r.ttl/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// CloseAll closes and drops every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		r.evict(s, EvictClosed)
	}
}

func (r *Registry) evict(s *Session, reason EvictReason) {
	s.Close()
	if r.onEvict != nil {
		r.onEvict(s, reason)
	}
}
