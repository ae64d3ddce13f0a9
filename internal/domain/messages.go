package domain

// HTTP request bodies. Field names follow the public chat API.

// CreateUserRequest registers a display name.
type CreateUserRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// MembershipRequest is used by join and leave.
type MembershipRequest struct {
	UserID string `json:"userId" binding:"required"`
	Room   string `json:"room" binding:"required"`
}

// SendMessageRequest posts a message to the room in the URL.
type SendMessageRequest struct {
	UserID  string `json:"userId" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// CreateUserResponse is returned from user registration.
type CreateUserResponse struct {
	ID string `json:"id"`
}

// CreateLobbyResponse is returned from lobby creation.
type CreateLobbyResponse struct {
	Room string `json:"room"`
}

// WebSocket frames sent by the server besides events.
const (
	MsgTypeSubscribed = "subscribed"
	MsgTypePong       = "pong"
	MsgTypePing       = "ping"
)

// SubscribedMessage acknowledges a live stream.
type SubscribedMessage struct {
	Type           string `json:"type"`
	Room           string `json:"room"`
	SubscriptionID string `json:"subscription_id"`
}
