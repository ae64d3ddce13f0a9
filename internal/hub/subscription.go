package hub

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
)

// Subscription is a live handle on one room's event stream.
type Subscription struct {
	ID string

	hub    *Hub
	room   *room
	events chan domain.Event
	lagged atomic.Bool
	once   sync.Once
}

func newSubscription(h *Hub, r *room, bufferSize int) *Subscription {
	return &Subscription{
		ID:     uuid.NewString(),
		hub:    h,
		room:   r,
		events: make(chan domain.Event, bufferSize),
	}
}

// Room returns the code of the room this subscription listens to.
func (s *Subscription) Room() string {
	return s.room.name
}

// Events yields the room's events in broadcast order. The channel is closed
// when the subscription is released, dropped for lagging, or the hub closes.
func (s *Subscription) Events() <-chan domain.Event {
	return s.events
}

// Lagged reports whether the hub dropped this subscription because its
// buffer was full.
func (s *Subscription) Lagged() bool {
	return s.lagged.Load()
}

// Release unregisters the subscription. It is idempotent and safe to call
// concurrently with Broadcast.
func (s *Subscription) Release() {
	s.once.Do(func() {
		s.hub.release(s)
	})
}
