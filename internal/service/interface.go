package service

import (
	"context"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/hub"
)

// ChatService is the boundary consumed by the transport layer.
type ChatService interface {
	CreateUser(ctx context.Context, name string) (domain.User, error)
	ListUsers(ctx context.Context) []domain.User
	CreateLobby(ctx context.Context) (string, error)
	ListLobbies(ctx context.Context) []domain.LobbySummary
	GetLobby(ctx context.Context, code string) (domain.LobbySnapshot, error)
	JoinLobby(ctx context.Context, userID, code string) error
	LeaveLobby(ctx context.Context, userID, code string) error
	SendMessage(ctx context.Context, code, userID, content string) error

	// Subscribe opens a live event stream on code. The caller must pass the
	// subscription to Unsubscribe (or Release it) on every exit path.
	Subscribe(ctx context.Context, code string) (*hub.Subscription, error)
	Unsubscribe(ctx context.Context, sub *hub.Subscription)

	Stats() Stats
}

// Stats is a point-in-time view of registry and hub sizes.
type Stats struct {
	Users       int `json:"users"`
	Lobbies     int `json:"lobbies"`
	Rooms       int `json:"live_rooms"`
	Subscribers int `json:"subscribers"`
}
