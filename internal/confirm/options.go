package confirm

import (
	"time"

	"github.com/google/uuid"

	"github.com/timesync/timesync/pkg/logger"
)

// Option applies a configuration option to a Session.
type Option func(*Session)

// WithID sets the session identifier instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(s *Session) {
		if id != uuid.Nil {
			s.id = id
		}
	}
}

// WithDeadline sets how long the session may stay pending.
func WithDeadline(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.deadline = d
		}
	}
}

// WithPublisher sets the candidate publish capability.
func WithPublisher(p Publisher) Option {
	return func(s *Session) {
		s.pub = p
	}
}

// WithSource sets the incoming event stream.
func WithSource(src EventSource) Option {
	return func(s *Session) {
		s.source = src
	}
}

// WithInboxSize sets the actor inbox buffer.
func WithInboxSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.inbox = make(chan message, n)
		}
	}
}

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}
