// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL points the directory at postgres; empty selects the
	// in-memory directory.
	DatabaseURL string `koanf:"database_url"`

	// DefaultCandidateCount is the match result cap when the request does
	// not specify one.
	DefaultCandidateCount int `koanf:"default_candidate_count"`

	// MaxCandidateCount caps the per-request count parameter.
	MaxCandidateCount int `koanf:"max_candidate_count"`

	// DefaultMinPerGroup applies when neither storage nor the request
	// carries a group minimum.
	DefaultMinPerGroup int `koanf:"default_min_per_group"`

	// SessionDeadlineMinutes bounds a confirmation session's lifetime.
	SessionDeadlineMinutes int `koanf:"session_deadline_minutes"`

	// SessionRetentionMinutes keeps terminal sessions queryable before the
	// registry drops them.
	SessionRetentionMinutes int `koanf:"session_retention_minutes"`

	// EventBufferSize bounds broker and session inbox buffers.
	EventBufferSize int `koanf:"event_buffer_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		DefaultCandidateCount:   5,
		MaxCandidateCount:       25,
		DefaultMinPerGroup:      1,
		SessionDeadlineMinutes:  5,
		SessionRetentionMinutes: 60,
		EventBufferSize:         256,
	}
}
