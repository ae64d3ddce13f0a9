package pubsub

import "fmt"

// Channel naming conventions for mirrored lobby traffic.
const (
	// ChannelRoomEvents carries every event broadcast in one room.
	ChannelRoomEvents = "%s:room:%s:events"
)

// RoomEventsChannel returns the channel name for a room's events.
func RoomEventsChannel(prefix, roomID string) string {
	return fmt.Sprintf(ChannelRoomEvents, prefix, roomID)
}
