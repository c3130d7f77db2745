// Package notify implements the change-notification bridge: a per-party
// channel that carries payload-free "something changed, re-fetch" signals.
// Delivery is at-least-once; subscribers may see duplicates and must not
// assume ordering across mutations.
package notify

import (
	"context"
	"sync"

	"bookline/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Bridge is what mutation paths and viewers see: publish a signal for a
// party, or subscribe to a party's signals.
type Bridge interface {
	Notify(ctx context.Context, partyID int64)
	Subscribe(partyID int64) *Subscription
}

// Subscription is one viewer's handle on a party channel. Close it on
// teardown; the signal channel is closed afterwards.
type Subscription struct {
	id      uuid.UUID
	partyID int64
	ch      chan struct{}
	cancel  func()
	once    sync.Once
}

// C returns the signal channel. A receive means "re-fetch"; it carries
// nothing else.
func (s *Subscription) C() <-chan struct{} {
	return s.ch
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// Hub is the in-process bridge implementation.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[uuid.UUID]chan struct{}
	log  zerolog.Logger
}

func NewHub(logger *zerolog.Logger) *Hub {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "notify").Logger()
	}
	return &Hub{
		subs: make(map[int64]map[uuid.UUID]chan struct{}),
		log:  log,
	}
}

func (h *Hub) Subscribe(partyID int64) *Subscription {
	id := uuid.New()
	// Buffer of one: a pending signal coalesces further publishes, which
	// preserves at-least-once without ever blocking the writer.
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[partyID] == nil {
		h.subs[partyID] = make(map[uuid.UUID]chan struct{})
	}
	h.subs[partyID][id] = ch
	h.mu.Unlock()

	return &Subscription{
		id:      id,
		partyID: partyID,
		ch:      ch,
		cancel:  func() { h.unsubscribe(partyID, id) },
	}
}

func (h *Hub) unsubscribe(partyID int64, id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if chans, ok := h.subs[partyID]; ok {
		if ch, ok := chans[id]; ok {
			delete(chans, id)
			close(ch)
		}
		if len(chans) == 0 {
			delete(h.subs, partyID)
		}
	}
}

// Notify signals every active subscriber of the party. It never blocks:
// a subscriber with a signal already pending is skipped, since the pending
// signal already tells it to re-fetch.
func (h *Hub) Notify(ctx context.Context, partyID int64) {
	h.mu.RLock()
	chans := make([]chan struct{}, 0, len(h.subs[partyID]))
	for _, ch := range h.subs[partyID] {
		chans = append(chans, ch)
	}
	h.mu.RUnlock()

	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	metrics.IncNotification()
	h.log.Debug().Int64("party_id", partyID).Int("subscribers", len(chans)).Msg("change published")
}
