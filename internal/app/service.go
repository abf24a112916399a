// Package service provides the core business service that implements the
// dependencies required by the HTTP API: the match pipeline and the
// confirmation session registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/adapters/notify"
	"github.com/timesync/timesync/internal/adapters/repository"
	"github.com/timesync/timesync/internal/confirm"
	"github.com/timesync/timesync/internal/domain/grid"
	"github.com/timesync/timesync/internal/domain/match"
	"github.com/timesync/timesync/internal/domain/model"
	"github.com/timesync/timesync/internal/domain/normalize"
	"github.com/timesync/timesync/pkg/logger"
	"github.com/timesync/timesync/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultCandidateCount = 5
	defaultMaxCount       = 25
	defaultMinPerGroup    = 1
	defaultDeadline       = 5 * time.Minute
	defaultRetention      = time.Hour
	defaultEventBuffer    = 256
)

type sessionEntry struct {
	session *confirm.Session
	sub     *notify.Subscription
}

// Service wires the matching pipeline and owns active confirmation sessions.
type Service struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry

	directory repository.Directory
	broker    *notify.Broker

	defaultCount int
	maxCount     int
	defaultMin   int
	deadline     time.Duration
	retention    time.Duration
	eventBuffer  int

	started bool
	runCtx  context.Context
	stop    context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDirectory sets the group/schedule read store.
func WithDirectory(d repository.Directory) Option {
	return func(s *Service) {
		if d != nil {
			s.directory = d
		}
	}
}

// WithBroker sets the confirmation publish/subscribe broker.
func WithBroker(b *notify.Broker) Option {
	return func(s *Service) {
		if b != nil {
			s.broker = b
		}
	}
}

// WithDefaultCandidateCount sets the result cap applied when a request has
// no explicit count.
func WithDefaultCandidateCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultCount = n
		}
	}
}

// WithMaxCandidateCount caps the per-request count parameter.
func WithMaxCandidateCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCount = n
		}
	}
}

// WithDefaultMinPerGroup sets the fallback group minimum.
func WithDefaultMinPerGroup(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultMin = n
		}
	}
}

// WithSessionDeadline sets how long confirmation sessions stay pending.
func WithSessionDeadline(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deadline = d
		}
	}
}

// WithSessionRetention sets how long terminal sessions stay queryable.
func WithSessionRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithEventBufferSize bounds broker and session inbox buffers.
func WithEventBufferSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.eventBuffer = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessions:     make(map[uuid.UUID]*sessionEntry),
		defaultCount: defaultCandidateCount,
		maxCount:     defaultMaxCount,
		defaultMin:   defaultMinPerGroup,
		deadline:     defaultDeadline,
		retention:    defaultRetention,
		eventBuffer:  defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.directory == nil {
		s.directory = repository.NewMemoryDirectory()
		s.logger.Info(ctx, "using in-memory directory")
	}
	if s.broker == nil {
		s.broker = notify.New(notify.WithBufferSize(s.eventBuffer))
	}
	s.runCtx, s.stop = context.WithCancel(context.WithoutCancel(ctx))
	s.started = true

	s.logger.Info(ctx, "matching service started",
		logger.Int("defaultCount", s.defaultCount),
		logger.Int("deadlineSec", int(s.deadline.Seconds())),
	)
	return nil
}

// Stop cancels every live session and shuts the broker down.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	broker := s.broker
	stop := s.stop
	s.mu.Unlock()

	for _, e := range entries {
		e.session.Cancel()
	}
	if broker != nil {
		_ = broker.Close()
	}
	if stop != nil {
		stop()
	}
}

// Match runs the full pipeline: directory reads, normalization, aggregation
// and group matching. Group validation failures abort before any grid work.
func (s *Service) Match(ctx context.Context, req model.MatchRequest) ([]model.Candidate, error) {
	start := time.Now()
	metrics.RecordMatchRequest()
	defer func() {
		metrics.RecordMatchLatency(float64(time.Since(start).Milliseconds()))
	}()

	if len(req.GroupIDs) == 0 {
		metrics.RecordMatchFailure("no_groups")
		return nil, ErrNoGroups
	}

	groups := make([]model.Group, 0, len(req.GroupIDs))
	for _, id := range req.GroupIDs {
		g, err := s.directory.Group(ctx, id)
		if err != nil {
			metrics.RecordMatchFailure("group_lookup")
			return nil, err
		}
		if req.MinPerGroup > 0 {
			g.MinRequired = req.MinPerGroup
		} else if g.MinRequired < 1 {
			g.MinRequired = s.defaultMin
		}
		groups = append(groups, g)
	}

	// Static group validation happens before any schedule is fetched.
	if err := match.Validate(groups); err != nil {
		metrics.RecordMatchFailure("invalid_group")
		return nil, err
	}
	count := req.Count
	if count <= 0 {
		count = s.defaultCount
	}
	if count > s.maxCount {
		count = s.maxCount
	}

	parts, err := s.loadAvailability(ctx, groups)
	if err != nil {
		return nil, err
	}

	g := grid.Aggregate(parts)
	metrics.RecordGridUnits(g.Units())

	candidates, err := match.Match(g, groups, count)
	if err != nil {
		metrics.RecordMatchFailure("invalid_group")
		return nil, err
	}
	metrics.RecordCandidatesReturned(len(candidates))
	return candidates, nil
}

// loadAvailability fetches and normalizes every distinct member's schedule.
// Members without a stored schedule are simply unavailable, not errors.
func (s *Service) loadAvailability(ctx context.Context, groups []model.Group) ([]model.ParticipantAvailability, error) {
	seen := make(map[string]struct{})
	var parts []model.ParticipantAvailability
	for _, g := range groups {
		for _, id := range g.MemberIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			ms, err := s.directory.MemberSchedule(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrMemberNotFound) {
					continue
				}
				metrics.RecordMatchFailure("schedule_lookup")
				return nil, err
			}
			intervals, err := normalize.Normalize(ms.Slots, ms.Timezone)
			if err != nil {
				metrics.RecordNormalizeError()
				metrics.RecordMatchFailure("normalize")
				return nil, fmt.Errorf("normalize %s: %w", id, err)
			}
			parts = append(parts, model.ParticipantAvailability{
				ParticipantID: id,
				Intervals:     intervals,
			})
		}
	}
	return parts, nil
}

// StartConfirmation opens a confirmation session over ranked candidates and
// returns it. The session expires on its own within the deadline.
func (s *Service) StartConfirmation(ctx context.Context, candidates []model.Candidate, deadline time.Duration) (*confirm.Session, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if deadline <= 0 {
		deadline = s.deadline
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	id := uuid.New()
	sub := s.broker.Subscribe(id)
	sess := confirm.New(candidates,
		confirm.WithID(id),
		confirm.WithDeadline(deadline),
		confirm.WithPublisher(s.broker),
		confirm.WithSource(sub),
		confirm.WithInboxSize(s.eventBuffer),
	)
	s.sessions[id] = &sessionEntry{session: sess, sub: sub}
	runCtx := s.runCtx
	s.mu.Unlock()

	sess.Start(runCtx)
	go s.reap(sess, sub)

	s.logger.Info(ctx, "confirmation session started",
		logger.String("session", id.String()),
		logger.Int("candidates", len(candidates)),
	)
	return sess, nil
}

// reap tears the subscription down once the session terminates and drops the
// registry entry after the retention window.
func (s *Service) reap(sess *confirm.Session, sub *notify.Subscription) {
	<-sess.Done()
	sub.Cancel()
	time.AfterFunc(s.retention, func() {
		s.mu.Lock()
		delete(s.sessions, sess.ID())
		s.mu.Unlock()
	})
}

// Session returns a live or recently terminated session.
func (s *Service) Session(id uuid.UUID) (*confirm.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// SubmitEvent routes one confirmation event to its session's stream.
func (s *Service) SubmitEvent(ctx context.Context, ev confirm.Event) bool {
	return s.broker.Submit(ctx, ev)
}

// Notices exposes the published-candidate stream for delivery gateways.
func (s *Service) Notices() <-chan notify.Notice {
	return s.broker.Notices()
}
