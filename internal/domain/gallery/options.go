package gallery

import (
	"time"

	"github.com/okian/finishline/internal/domain/layout"
	"github.com/okian/finishline/internal/domain/window"
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithID overrides the generated session ID.
func WithID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithWindowOptions passes options to the session's window manager.
func WithWindowOptions(opts ...window.Option) SessionOption {
	return func(s *Session) { s.windowOpts = append(s.windowOpts, opts...) }
}

// WithLayoutOptions passes options to the session's layout engine.
func WithLayoutOptions(opts ...layout.Option) SessionOption {
	return func(s *Session) { s.layoutOpts = append(s.layoutOpts, opts...) }
}

// WithLayoutObserver is called after every completed layout pass.
func WithLayoutObserver(fn func(layout.Layout)) SessionOption {
	return func(s *Session) { s.observer = fn }
}

// WithSessionClock sets the clock used for idle tracking.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTTL sets how long an idle session is kept.
func WithTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxSessions = n
		}
	}
}

// WithClock sets the registry clock.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithOnEvict is called for every session dropped by the registry, after it was closed.
func WithOnEvict(fn func(s *Session, reason EvictReason)) RegistryOption {
	return func(r *Registry) { r.onEvict = fn }
}
