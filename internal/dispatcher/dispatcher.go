// Package dispatcher combines validation, registry mutation and fan-out for
// the user-facing room actions.
package dispatcher

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/audit"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/log"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/pubsub"
)

const stripes = 64

// UserLookup resolves user IDs.
type UserLookup interface {
	GetUser(id string) (domain.User, error)
}

// LobbyStore is the subset of the lobby registry the dispatcher mutates.
type LobbyStore interface {
	Exists(code string) bool
	Join(user domain.User, code string) error
	Leave(userID, code string) (domain.User, bool, error)
	AppendMessage(code string, msg domain.Message) error
}

// Broadcaster delivers an event to a room's live subscriptions.
type Broadcaster interface {
	Broadcast(room string, evt domain.Event) int
}

// IDGenerator issues message IDs.
type IDGenerator interface {
	Generate() (string, error)
}

type Dispatcher struct {
	users     UserLookup
	lobbies   LobbyStore
	hub       Broadcaster
	ids       IDGenerator
	publisher pubsub.Publisher
	prefix    string
	now       func() time.Time

	// locks[i] serializes mutate+broadcast for every room hashing to i, so
	// subscribers see events in the order the registry applied them.
	locks [stripes]sync.Mutex

	seqMu sync.Mutex
	seq   map[string]uint64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPublisher mirrors every emitted event to p under channels prefixed
// with prefix.
func WithPublisher(p pubsub.Publisher, prefix string) Option {
	return func(d *Dispatcher) {
		d.publisher = p
		d.prefix = prefix
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func New(users UserLookup, lobbies LobbyStore, hub Broadcaster, ids IDGenerator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		users:     users,
		lobbies:   lobbies,
		hub:       hub,
		ids:       ids,
		publisher: pubsub.NopPublisher{},
		now:       time.Now,
		seq:       make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) lock(room string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(room))
	return &d.locks[h.Sum32()%stripes]
}

// SendMessage appends content to the room's log and broadcasts a message
// event. The lobby is checked before the author.
func (d *Dispatcher) SendMessage(ctx context.Context, room, userID, content string) error {
	mu := d.lock(room)
	mu.Lock()

	if !d.lobbies.Exists(room) {
		mu.Unlock()
		return domain.ErrLobbyNotFound
	}
	author, err := d.users.GetUser(userID)
	if err != nil {
		mu.Unlock()
		return err
	}

	id, err := d.ids.Generate()
	if err != nil {
		mu.Unlock()
		return fmt.Errorf("generate message id: %w", err)
	}
	msg := domain.Message{
		ID:         id,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Content:    content,
		SentAt:     d.now(),
	}
	if err := d.lobbies.AppendMessage(room, msg); err != nil {
		mu.Unlock()
		return err
	}

	evt := d.emitLocked(ctx, domain.NewMessageEvent(room, msg))
	mu.Unlock()

	d.mirror(ctx, evt)
	audit.LogWithDetail(ctx, audit.ActionSendMessage, room, author.ID, msg.ID, "message sent")
	return nil
}

// Join adds the user to the room and broadcasts a join event.
func (d *Dispatcher) Join(ctx context.Context, room, userID string) error {
	user, err := d.users.GetUser(userID)
	if err != nil {
		return err
	}

	mu := d.lock(room)
	mu.Lock()
	if err := d.lobbies.Join(user, room); err != nil {
		mu.Unlock()
		return err
	}
	evt := d.emitLocked(ctx, domain.NewMemberEvent(domain.EventJoin, room, user, d.now()))
	mu.Unlock()

	d.mirror(ctx, evt)
	audit.Log(ctx, audit.ActionJoinLobby, room, user.ID, "user joined lobby")
	return nil
}

// Leave removes the user from the room. A leave event is broadcast only when
// the user had been a member; leaving as a non-member succeeds silently.
func (d *Dispatcher) Leave(ctx context.Context, room, userID string) error {
	mu := d.lock(room)
	mu.Lock()
	user, removed, err := d.lobbies.Leave(userID, room)
	if err != nil {
		mu.Unlock()
		return err
	}
	if !removed {
		mu.Unlock()
		l := log.Ctx(ctx)
		l.Debug().Str(log.FieldRoom, room).Str(log.FieldUserID, userID).Msg("leave by non-member ignored")
		return nil
	}
	evt := d.emitLocked(ctx, domain.NewMemberEvent(domain.EventLeave, room, user, d.now()))
	mu.Unlock()

	d.mirror(ctx, evt)
	audit.Log(ctx, audit.ActionLeaveLobby, room, user.ID, "user left lobby")
	return nil
}

// emitLocked stamps evt with the room's next sequence number and hands it to
// the hub. Must be called with the room's stripe lock held.
func (d *Dispatcher) emitLocked(ctx context.Context, evt domain.Event) domain.Event {
	d.seqMu.Lock()
	d.seq[evt.Room]++
	evt.Seq = d.seq[evt.Room]
	d.seqMu.Unlock()

	delivered := d.hub.Broadcast(evt.Room, evt)

	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldRoom, evt.Room).
		Str(log.FieldEventType, string(evt.Type)).
		Uint64("seq", evt.Seq).
		Int(log.FieldDelivered, delivered).
		Msg("event broadcast")
	return evt
}

// mirror publishes evt to the external bus. Failures are logged only; live
// delivery has already happened.
func (d *Dispatcher) mirror(ctx context.Context, evt domain.Event) {
	if _, nop := d.publisher.(pubsub.NopPublisher); nop {
		return
	}

	out, err := pubsub.NewEvent(string(evt.Type), evt.Room, evt.Seq, evt.Payload, time.UnixMilli(evt.Timestamp))
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, evt.Room).Msg("failed to encode mirrored event")
		return
	}
	if err := d.publisher.Publish(ctx, pubsub.RoomEventsChannel(d.prefix, evt.Room), out); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoom, evt.Room).Msg("failed to mirror event")
	}
}
