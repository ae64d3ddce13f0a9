package domain

import "time"

// EventType discriminates room events.
type EventType string

const (
	EventMessage EventType = "message"
	EventJoin    EventType = "join"
	EventLeave   EventType = "leave"
)

// EventPayload carries the author or member the event is about. Content is
// only set for message events.
type EventPayload struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

// Event is a transient room notification fanned out to live subscribers.
// Seq increases by one per event within a room.
type Event struct {
	Type      EventType    `json:"type"`
	Room      string       `json:"room"`
	Payload   EventPayload `json:"payload"`
	Seq       uint64       `json:"seq"`
	Timestamp int64        `json:"timestamp"`
}

// NewMessageEvent builds the event announcing msg in room.
func NewMessageEvent(room string, msg Message) Event {
	return Event{
		Type: EventMessage,
		Room: room,
		Payload: EventPayload{
			ID:      msg.AuthorID,
			Name:    msg.AuthorName,
			Content: msg.Content,
		},
		Timestamp: msg.SentAt.UnixMilli(),
	}
}

// NewMemberEvent builds a join or leave event for user in room.
func NewMemberEvent(t EventType, room string, user User, at time.Time) Event {
	return Event{
		Type:      t,
		Room:      room,
		Payload:   EventPayload{ID: user.ID, Name: user.Name},
		Timestamp: at.UnixMilli(),
	}
}
