package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event represents a room event mirrored to the external bus.
type Event struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"room_id"`
	Seq       uint64          `json:"seq"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event, marshalling payload as JSON.
func NewEvent(eventType, roomID string, seq uint64, payload interface{}, at time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		RoomID:    roomID,
		Seq:       seq,
		Payload:   data,
		Timestamp: at,
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher publishes events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
	Close() error
}

// NopPublisher discards every event. Used when mirroring is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *Event) error { return nil }

func (NopPublisher) Close() error { return nil }
