// Package confirm runs the stateful confirmation protocol: a per-match
// session publishes ranked candidates, consumes accept/decline events and
// decides when every group has reached quorum for one candidate, or times
// the session out.
package confirm

import (
	"context"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/domain/model"
)

// Event is one participant's accept or decline for a candidate, tagged with
// the session it belongs to.
type Event struct {
	SessionID      uuid.UUID `json:"session_id"`
	ParticipantID  string    `json:"participant_id"`
	CandidateIndex int       `json:"candidate_index"`
	Accept         bool      `json:"accept"`
}

// Publisher exposes a candidate to the external notification channel. The
// session calls it once per candidate and nothing more; message formatting
// belongs to the gateway behind it.
type Publisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, candidateIndex int, window model.Interval, eligible []string) error
}

// EventSource delivers incoming confirmation events. The channel closes when
// the source shuts down. A session discards events tagged with another
// session id.
type EventSource interface {
	Events(ctx context.Context) <-chan Event
}

// State is the session lifecycle state. Confirmed and Expired are terminal.
type State string

const (
	StatePending   State = "pending"
	StateConfirmed State = "confirmed"
	StateExpired   State = "expired"
)

// Outcome describes what applying one event did. Ignored is a non-fatal
// observation, not an error.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
)

// Result is the terminal outcome of a session.
type Result struct {
	State          State
	CandidateIndex int // meaningful only when State is StateConfirmed
}

// CandidateProgress is a read-only view of confirmation progress on one
// candidate.
type CandidateProgress struct {
	Confirmed map[uuid.UUID]int // confirmed count per group
	Quorum    bool
}

// Snapshot is a read-only view of a session for observability.
type Snapshot struct {
	ID         uuid.UUID
	State      State
	Confirmed  int // candidate index when confirmed, -1 otherwise
	Candidates []CandidateProgress
}
