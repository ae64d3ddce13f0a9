// Package hub fans room events out to live subscriptions.
//
// Each room keeps its own subscriber set behind its own mutex. Broadcast holds
// that mutex while enqueueing, and Release takes the same mutex, so a
// subscription sees events in broadcast order and receives nothing once
// Release has returned.
package hub

import (
	"sync"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/log"
)

const DefaultBufferSize = 256

type room struct {
	name string
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

type Hub struct {
	mu         sync.RWMutex // guards rooms and closed; taken before any room.mu
	rooms      map[string]*room
	closed     bool
	bufferSize int
}

func New(bufferSize int) *Hub {
	if bufferSize < 1 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		rooms:      make(map[string]*room),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a new subscription on roomName, creating the room's
// subscriber set on first use. The caller must Release it.
func (h *Hub) Subscribe(roomName string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, domain.ErrHubClosed
	}

	r, ok := h.rooms[roomName]
	if !ok {
		r = &room{name: roomName, subs: make(map[*Subscription]struct{})}
		h.rooms[roomName] = r
	}

	sub := newSubscription(h, r, h.bufferSize)

	r.mu.Lock()
	r.subs[sub] = struct{}{}
	r.mu.Unlock()

	l := log.L()
	l.Debug().
		Str(log.FieldRoom, roomName).
		Str(log.FieldSubscriptionID, sub.ID).
		Msg("subscription registered")
	return sub, nil
}

// Broadcast enqueues evt on every subscription of roomName and returns how
// many received it. A subscription whose buffer is full is dropped: its
// channel is closed and it gets nothing further. Broadcasting to a room
// without subscribers is a no-op.
func (h *Hub) Broadcast(roomName string, evt domain.Event) int {
	h.mu.RLock()
	r, ok := h.rooms[roomName]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	r.mu.Lock()
	delivered := 0
	var lagging []*Subscription
	for sub := range r.subs {
		select {
		case sub.events <- evt:
			delivered++
		default:
			lagging = append(lagging, sub)
		}
	}
	for _, sub := range lagging {
		sub.lagged.Store(true)
		r.removeLocked(sub)
	}
	empty := len(r.subs) == 0
	r.mu.Unlock()

	if len(lagging) > 0 {
		l := log.L()
		for _, sub := range lagging {
			l.Warn().
				Str(log.FieldRoom, roomName).
				Str(log.FieldSubscriptionID, sub.ID).
				Msg("dropping lagging subscription")
		}
		if empty {
			h.prune(r)
		}
	}
	return delivered
}

// release removes sub from its room. Safe to call more than once.
func (h *Hub) release(sub *Subscription) {
	r := sub.room

	r.mu.Lock()
	_, present := r.subs[sub]
	if present {
		r.removeLocked(sub)
	}
	empty := len(r.subs) == 0
	r.mu.Unlock()

	if !present {
		return
	}

	l := log.L()
	l.Debug().
		Str(log.FieldRoom, r.name).
		Str(log.FieldSubscriptionID, sub.ID).
		Msg("subscription released")

	if empty {
		h.prune(r)
	}
}

// prune forgets r if it is still registered and has no subscribers left.
func (h *Hub) prune(r *room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[r.name] != r {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.subs) == 0 {
		delete(h.rooms, r.name)
	}
}

// removeLocked must be called with r.mu held.
func (r *room) removeLocked(sub *Subscription) {
	delete(r.subs, sub)
	close(sub.events)
}

// RoomCount returns the number of rooms with at least one subscription.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) SubscriberCount(roomName string) int {
	h.mu.RLock()
	r, ok := h.rooms[roomName]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// TotalSubscribers sums SubscriberCount over every room.
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, r := range h.rooms {
		r.mu.Lock()
		total += len(r.subs)
		r.mu.Unlock()
	}
	return total
}

// Close releases every subscription and rejects new ones. Streams draining a
// subscription observe a closed channel and end.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	released := 0
	for name, r := range h.rooms {
		r.mu.Lock()
		for sub := range r.subs {
			r.removeLocked(sub)
			released++
		}
		r.mu.Unlock()
		delete(h.rooms, name)
	}

	l := log.L()
	l.Info().Int("released", released).Msg("hub closed")
}
