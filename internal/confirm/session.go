package confirm

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/domain/model"
	"github.com/timesync/timesync/pkg/logger"
	"github.com/timesync/timesync/pkg/metrics"
)

// Default session configuration constants.
const (
	defaultDeadline  = 5 * time.Minute
	defaultInboxSize = 64
)

// message carries one event into the session actor along with a reply
// channel for the synchronous Apply path.
type message struct {
	event Event
	reply chan applyReply
}

type applyReply struct {
	outcome Outcome
	err     error
}

// Session is the per-match confirmation coordinator. It is a single-consumer
// actor: source events, direct Apply calls, the deadline timer and external
// cancellation all land in one ordered loop, so the first candidate to reach
// full quorum wins without any cross-goroutine state inspection.
type Session struct {
	id         uuid.UUID
	candidates []model.Candidate
	deadline   time.Duration
	pub        Publisher
	source     EventSource

	inbox      chan message
	cancelCh   chan struct{}
	cancelOnce sync.Once
	done       chan struct{}

	mu           sync.RWMutex
	state        State
	confirmedIdx int
	confirmed    []map[int]map[string]struct{} // candidate -> group index -> confirmed ids
	eligible     []map[string][]int            // candidate -> participant -> group indexes

	logger logger.Logger
}

// New creates a session over a fixed ordered candidate list. Candidates are
// shared read-only by reference.
func New(candidates []model.Candidate, opts ...Option) *Session {
	s := &Session{
		id:           uuid.New(),
		candidates:   candidates,
		deadline:     defaultDeadline,
		inbox:        make(chan message, defaultInboxSize),
		cancelCh:     make(chan struct{}),
		done:         make(chan struct{}),
		state:        StatePending,
		confirmedIdx: -1,
		logger:       logger.Get().Named("confirm"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.confirmed = make([]map[int]map[string]struct{}, len(candidates))
	s.eligible = make([]map[string][]int, len(candidates))
	for i, c := range candidates {
		s.confirmed[i] = make(map[int]map[string]struct{}, len(c.PerGroup))
		s.eligible[i] = make(map[string][]int)
		for gi, grp := range c.PerGroup {
			s.confirmed[i][gi] = make(map[string]struct{})
			for _, id := range grp.Attending {
				s.eligible[i][id] = append(s.eligible[i][id], gi)
			}
		}
	}
	return s
}

// ID returns the session identifier events must carry.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Deadline returns how long the session may stay pending after Start.
func (s *Session) Deadline() time.Duration {
	return s.deadline
}

// Start publishes every candidate and launches the actor loop. The session
// reaches a terminal state within its deadline of this call.
func (s *Session) Start(ctx context.Context) {
	if s.pub != nil {
		for i, c := range s.candidates {
			if err := s.pub.Publish(ctx, s.id, i, c.Window, c.Eligible()); err != nil {
				s.logger.Error(ctx, "candidate publish failed",
					logger.String("session", s.id.String()),
					logger.Int("candidate", i),
					logger.Error(err),
				)
				continue
			}
			metrics.RecordCandidatePublish()
		}
	}

	metrics.IncSessionsActive()
	go s.run(ctx)
}

func (s *Session) run(ctx context.Context) {
	timer := time.NewTimer(s.deadline)
	defer timer.Stop()

	var events <-chan Event
	if s.source != nil {
		events = s.source.Events(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.terminate(ctx, StateExpired, -1)
			return
		case <-s.cancelCh:
			s.terminate(ctx, StateExpired, -1)
			return
		case <-timer.C:
			s.terminate(ctx, StateExpired, -1)
			return
		case msg := <-s.inbox:
			outcome, terminal := s.apply(ctx, msg.event)
			msg.reply <- applyReply{outcome: outcome}
			if terminal {
				return
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.SessionID != s.id {
				continue
			}
			if _, terminal := s.apply(ctx, ev); terminal {
				return
			}
		}
	}
}

// apply processes exactly one event on the actor goroutine. It reports
// whether the session reached a terminal state.
func (s *Session) apply(ctx context.Context, ev Event) (Outcome, bool) {
	if ev.SessionID != s.id {
		metrics.RecordEventIgnored()
		return OutcomeIgnored, false
	}
	if ev.CandidateIndex < 0 || ev.CandidateIndex >= len(s.candidates) {
		metrics.RecordEventIgnored()
		s.logger.Debug(ctx, "event for unknown candidate ignored",
			logger.String("participant", ev.ParticipantID),
			logger.Int("candidate", ev.CandidateIndex),
		)
		return OutcomeIgnored, false
	}
	groupIdxs, ok := s.eligible[ev.CandidateIndex][ev.ParticipantID]
	if !ok {
		metrics.RecordEventIgnored()
		s.logger.Debug(ctx, "event from ineligible participant ignored",
			logger.String("participant", ev.ParticipantID),
			logger.Int("candidate", ev.CandidateIndex),
		)
		return OutcomeIgnored, false
	}

	s.mu.Lock()
	for _, gi := range groupIdxs {
		if ev.Accept {
			s.confirmed[ev.CandidateIndex][gi][ev.ParticipantID] = struct{}{}
		} else {
			delete(s.confirmed[ev.CandidateIndex][gi], ev.ParticipantID)
		}
	}
	quorum := ev.Accept && s.quorumLocked(ev.CandidateIndex)
	s.mu.Unlock()
	metrics.RecordEventApplied()

	if quorum {
		s.terminate(ctx, StateConfirmed, ev.CandidateIndex)
		return OutcomeApplied, true
	}
	return OutcomeApplied, false
}

// quorumLocked reports whether every group of the candidate has reached its
// minimum confirmed count. Caller holds mu.
func (s *Session) quorumLocked(idx int) bool {
	for gi, grp := range s.candidates[idx].PerGroup {
		if len(s.confirmed[idx][gi]) < grp.MinRequired {
			return false
		}
	}
	return true
}

func (s *Session) terminate(ctx context.Context, state State, idx int) {
	s.mu.Lock()
	s.state = state
	s.confirmedIdx = idx
	s.mu.Unlock()

	metrics.DecSessionsActive()
	metrics.RecordSessionOutcome(string(state))
	s.logger.Info(ctx, "session terminated",
		logger.String("session", s.id.String()),
		logger.String("state", string(state)),
		logger.Int("candidate", idx),
	)
	close(s.done)
}

// Apply injects one event synchronously and reports what it did. Events
// arriving after the session reached a terminal state fail with
// ErrSessionClosed.
func (s *Session) Apply(ctx context.Context, ev Event) (Outcome, error) {
	msg := message{event: ev, reply: make(chan applyReply, 1)}
	select {
	case <-s.done:
		metrics.RecordEventAfterClose()
		return "", ErrSessionClosed
	case <-ctx.Done():
		return "", ctx.Err()
	case s.inbox <- msg:
	}

	select {
	case r := <-msg.reply:
		return r.outcome, r.err
	case <-s.done:
		// The actor may have replied just before terminating.
		select {
		case r := <-msg.reply:
			return r.outcome, r.err
		default:
			metrics.RecordEventAfterClose()
			return "", ErrSessionClosed
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Cancel force-expires the session regardless of candidate state. Idempotent.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancelCh) })
}

// Done is closed when the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the session outcome. Meaningful once Done is closed; before
// that it reports StatePending.
func (s *Session) Result() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Result{State: s.state, CandidateIndex: s.confirmedIdx}
}

// Snapshot returns a read-only view of confirmation progress.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ID:         s.id,
		State:      s.state,
		Confirmed:  s.confirmedIdx,
		Candidates: make([]CandidateProgress, len(s.candidates)),
	}
	for i, c := range s.candidates {
		progress := CandidateProgress{Confirmed: make(map[uuid.UUID]int, len(c.PerGroup))}
		quorum := true
		for gi, grp := range c.PerGroup {
			n := len(s.confirmed[i][gi])
			progress.Confirmed[grp.GroupID] = n
			if n < grp.MinRequired {
				quorum = false
			}
		}
		progress.Quorum = quorum
		snap.Candidates[i] = progress
	}
	return snap
}
