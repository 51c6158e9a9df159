// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers .env, an optional YAML file and FINISHLINE_* env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseDriver is sqlite or postgres; DatabaseDSN is passed to it as is.
	DatabaseDriver string `koanf:"database_driver"`
	DatabaseDSN    string `koanf:"database_dsn"`

	// QueueSize bounds the face-match job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of face-match workers.
	WorkerCount int `koanf:"worker_count"`
	// MaxPendingSelfies bounds queued selfies per gallery; 0 disables the limit.
	MaxPendingSelfies int `koanf:"max_pending_selfies"`
	// DedupeSize sets how many selfie request IDs are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultPageSize and MaxPageSize bound leaderboard pages.
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// InitialBatch, PerColumnRows and BatchSize drive the gallery reveal window.
	InitialBatch  int `koanf:"initial_batch"`
	PerColumnRows int `koanf:"per_column_rows"`
	BatchSize     int `koanf:"batch_size"`

	// FrameIntervalMS is how long layout requests are coalesced.
	FrameIntervalMS int `koanf:"frame_interval_ms"`
	// PlaceholderAspect is the height/width ratio of photos with unknown size.
	PlaceholderAspect float64 `koanf:"placeholder_aspect"`

	// SessionTTLSeconds closes galleries idle for longer. MaxSessions caps live galleries.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`
	MaxSessions       int `koanf:"max_sessions"`

	// FaceMatchURL selects the external matcher; empty uses the simulated one.
	FaceMatchURL       string `koanf:"facematch_url"`
	FaceMatchTimeoutMS int    `koanf:"facematch_timeout_ms"`
	// FaceMatchLatencyMinMS and FaceMatchLatencyMaxMS bound the simulated matcher.
	FaceMatchLatencyMinMS int `koanf:"facematch_latency_min_ms"`
	FaceMatchLatencyMaxMS int `koanf:"facematch_latency_max_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		DatabaseDriver:        "sqlite",
		DatabaseDSN:           "finishline.db",
		QueueSize:             1024,
		WorkerCount:           runtime.NumCPU() * 2,
		DedupeSize:            10_000,
		MaxPendingSelfies:     4,
		DefaultPageSize:       10,
		MaxPageSize:           100,
		InitialBatch:          8,
		PerColumnRows:         2,
		BatchSize:             5,
		FrameIntervalMS:       16,
		PlaceholderAspect:     1.5,
		SessionTTLSeconds:     900,
		MaxSessions:           1000,
		FaceMatchTimeoutMS:    10_000,
		FaceMatchLatencyMinMS: 80,
		FaceMatchLatencyMaxMS: 150,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres":
		return fmt.Errorf("%w: database_driver must be sqlite or postgres, got %q", ErrInvalidConfig, c.DatabaseDriver)
	case c.DatabaseDSN == "":
		return fmt.Errorf("%w: database_dsn must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize < 1, c.WorkerCount < 1, c.DedupeSize < 1:
		return fmt.Errorf("%w: queue_size, worker_count and dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxPendingSelfies < 0:
		return fmt.Errorf("%w: max_pending_selfies must not be negative", ErrInvalidConfig)
	case c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize:
		return fmt.Errorf("%w: need 1 <= default_page_size <= max_page_size", ErrInvalidConfig)
	case c.InitialBatch < 1 || c.PerColumnRows < 1 || c.BatchSize < 1:
		return fmt.Errorf("%w: window sizes must be positive", ErrInvalidConfig)
	case c.FrameIntervalMS < 1:
		return fmt.Errorf("%w: frame_interval_ms must be positive", ErrInvalidConfig)
	case c.PlaceholderAspect <= 0:
		return fmt.Errorf("%w: placeholder_aspect must be positive", ErrInvalidConfig)
	case c.SessionTTLSeconds < 1 || c.MaxSessions < 1:
		return fmt.Errorf("%w: session_ttl_seconds and max_sessions must be positive", ErrInvalidConfig)
	case c.FaceMatchTimeoutMS < 1:
		return fmt.Errorf("%w: facematch_timeout_ms must be positive", ErrInvalidConfig)
	case c.FaceMatchLatencyMinMS < 1 || c.FaceMatchLatencyMaxMS <= c.FaceMatchLatencyMinMS:
		return fmt.Errorf("%w: need 0 < facematch_latency_min_ms < facematch_latency_max_ms", ErrInvalidConfig)
	}
	return nil
}

// FrameInterval returns FrameIntervalMS as a duration.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

// SessionTTL returns SessionTTLSeconds as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// FaceMatchTimeout returns FaceMatchTimeoutMS as a duration.
func (c *Config) FaceMatchTimeout() time.Duration {
	return time.Duration(c.FaceMatchTimeoutMS) * time.Millisecond
}

// FaceMatchLatency returns the simulated matcher latency range.
func (c *Config) FaceMatchLatency() (time.Duration, time.Duration) {
	return time.Duration(c.FaceMatchLatencyMinMS) * time.Millisecond,
		time.Duration(c.FaceMatchLatencyMaxMS) * time.Millisecond
}
