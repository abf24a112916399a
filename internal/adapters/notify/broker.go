// Package notify provides an in-memory publish/subscribe broker bridging
// confirmation sessions and the outer delivery layer. A live chat gateway
// would sit behind the same contracts; this broker is the in-process
// implementation used by the HTTP adapter and tests.
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/timesync/timesync/internal/confirm"
	"github.com/timesync/timesync/internal/domain/model"
)

// Default broker configuration constants.
const (
	defaultBufferSize = 256
)

// Notice is one published candidate, ready for a delivery gateway to format.
type Notice struct {
	SessionID      uuid.UUID
	CandidateIndex int
	Window         model.Interval
	Eligible       []string
}

// Broker routes published candidates out and confirmation events in. Events
// are fanned out per session id, so concurrent sessions never steal each
// other's events.
type Broker struct {
	buffer  int
	notices chan Notice

	mu     sync.RWMutex
	subs   map[uuid.UUID]chan confirm.Event
	closed bool
}

// New creates a broker with configuration options.
func New(opts ...Option) *Broker {
	b := &Broker{
		buffer: defaultBufferSize,
		subs:   make(map[uuid.UUID]chan confirm.Event),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.notices = make(chan Notice, b.buffer)
	return b
}

// Publish implements confirm.Publisher. Returns ErrBrokerClosed after Close
// and ErrBufferFull when no gateway is draining notices.
func (b *Broker) Publish(ctx context.Context, sessionID uuid.UUID, candidateIndex int, window model.Interval, eligible []string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBrokerClosed
	}

	n := Notice{
		SessionID:      sessionID,
		CandidateIndex: candidateIndex,
		Window:         window,
		Eligible:       eligible,
	}
	select {
	case b.notices <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// Notices exposes the published-candidate stream for a delivery gateway.
func (b *Broker) Notices() <-chan Notice {
	return b.notices
}

// Subscribe registers an event stream for one session. The returned
// subscription implements confirm.EventSource.
func (b *Broker) Subscribe(sessionID uuid.UUID) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan confirm.Event, b.buffer)
	if b.closed {
		close(ch)
	} else {
		b.subs[sessionID] = ch
	}
	return &Subscription{broker: b, sessionID: sessionID, ch: ch}
}

// Submit routes one incoming event to its session's subscription. Returns
// false when no subscription exists or its buffer is full.
func (b *Broker) Submit(ctx context.Context, ev confirm.Event) bool {
	b.mu.RLock()
	ch, ok := b.subs[ev.SessionID]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	default:
		return false
	}
}

// Close shuts the broker down; all subscriptions close.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	close(b.notices)
	return nil
}

func (b *Broker) unsubscribe(sessionID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[sessionID]; ok {
		close(ch)
		delete(b.subs, sessionID)
	}
}

// Subscription is one session's view of the inbound event stream.
type Subscription struct {
	broker    *Broker
	sessionID uuid.UUID
	ch        chan confirm.Event
}

// Events implements confirm.EventSource.
func (s *Subscription) Events(_ context.Context) <-chan confirm.Event {
	return s.ch
}

// Cancel removes the subscription and closes its stream. Idempotent.
func (s *Subscription) Cancel() {
	s.broker.unsubscribe(s.sessionID)
}
