package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/audit"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/dispatcher"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/hub"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/identity"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/lobby"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/log"
)

const maxNameLength = 64

// Options tunes boundary validation.
type Options struct {
	MaxContentLength  int
	AllowUnknownRooms bool
}

// chatServiceImpl implements ChatService interface.
type chatServiceImpl struct {
	users      *identity.Registry
	lobbies    *lobby.Registry
	hub        *hub.Hub
	dispatcher *dispatcher.Dispatcher
	opts       Options
}

// NewChatService wires the registries, hub and dispatcher into the boundary.
func NewChatService(users *identity.Registry, lobbies *lobby.Registry, h *hub.Hub, d *dispatcher.Dispatcher, opts Options) ChatService {
	return &chatServiceImpl{
		users:      users,
		lobbies:    lobbies,
		hub:        h,
		dispatcher: d,
		opts:       opts,
	}
}

func (s *chatServiceImpl) CreateUser(ctx context.Context, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return domain.User{}, fmt.Errorf("%w: name exceeds %d characters", domain.ErrInvalidArgument, maxNameLength)
	}

	user, err := s.users.CreateUser(name)
	if err != nil {
		return domain.User{}, err
	}

	audit.LogWithDetail(ctx, audit.ActionCreateUser, "", user.ID, user.Name, "user created")
	return user, nil
}

func (s *chatServiceImpl) ListUsers(ctx context.Context) []domain.User {
	return s.users.ListUsers()
}

func (s *chatServiceImpl) CreateLobby(ctx context.Context) (string, error) {
	code, err := s.lobbies.CreateLobby()
	if err != nil {
		return "", err
	}

	audit.Log(ctx, audit.ActionCreateLobby, code, "", "lobby created")
	return code, nil
}

func (s *chatServiceImpl) ListLobbies(ctx context.Context) []domain.LobbySummary {
	return s.lobbies.ListLobbies()
}

func (s *chatServiceImpl) GetLobby(ctx context.Context, code string) (domain.LobbySnapshot, error) {
	return s.lobbies.GetLobby(code)
}

func (s *chatServiceImpl) JoinLobby(ctx context.Context, userID, code string) error {
	return s.dispatcher.Join(ctx, code, userID)
}

func (s *chatServiceImpl) LeaveLobby(ctx context.Context, userID, code string) error {
	return s.dispatcher.Leave(ctx, code, userID)
}

func (s *chatServiceImpl) SendMessage(ctx context.Context, code, userID, content string) error {
	if s.opts.MaxContentLength > 0 && utf8.RuneCountInString(content) > s.opts.MaxContentLength {
		return fmt.Errorf("%w: message exceeds %d characters", domain.ErrInvalidArgument, s.opts.MaxContentLength)
	}
	return s.dispatcher.SendMessage(ctx, code, userID, content)
}

func (s *chatServiceImpl) Subscribe(ctx context.Context, code string) (*hub.Subscription, error) {
	if !s.opts.AllowUnknownRooms && !s.lobbies.Exists(code) {
		return nil, domain.ErrLobbyNotFound
	}

	sub, err := s.hub.Subscribe(code)
	if err != nil {
		return nil, err
	}

	audit.LogWithDetail(ctx, audit.ActionSubscribe, code, "", sub.ID, "stream opened")
	return sub, nil
}

func (s *chatServiceImpl) Unsubscribe(ctx context.Context, sub *hub.Subscription) {
	if sub == nil {
		return
	}
	sub.Release()

	if sub.Lagged() {
		l := log.Ctx(ctx)
		l.Warn().Str(log.FieldRoom, sub.Room()).Str(log.FieldSubscriptionID, sub.ID).Msg("stream ended after falling behind")
	}
	audit.LogWithDetail(ctx, audit.ActionUnsubscribe, sub.Room(), "", sub.ID, "stream closed")
}

func (s *chatServiceImpl) Stats() Stats {
	return Stats{
		Users:       s.users.Count(),
		Lobbies:     s.lobbies.Count(),
		Rooms:       s.hub.RoomCount(),
		Subscribers: s.hub.TotalSubscribers(),
	}
}
