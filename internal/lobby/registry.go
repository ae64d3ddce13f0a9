// Package lobby owns lobbies, their member sets and their message logs.
//
// The registry knows nothing about users beyond the domain.User values its
// callers hand it, and nothing about live subscribers.
package lobby

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/generator"
)

type lobby struct {
	code     string
	members  map[string]domain.User
	joined   []string // member IDs in join order
	messages []domain.Message
}

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	codes    generator.Generator
	attempts int
	lobbies  map[string]*lobby
	order    []string // creation order
}

// NewRegistry creates a registry drawing codes from codes. A colliding code
// is regenerated up to attempts times.
func NewRegistry(codes generator.Generator, attempts int) *Registry {
	if attempts < 1 {
		attempts = 1
	}
	return &Registry{
		codes:    codes,
		attempts: attempts,
		lobbies:  make(map[string]*lobby),
	}
}

// CreateLobby allocates a new empty lobby and returns its code.
func (r *Registry) CreateLobby() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < r.attempts; i++ {
		code, err := r.codes.Generate()
		if err != nil {
			return "", fmt.Errorf("generate lobby code: %w", err)
		}
		if _, taken := r.lobbies[code]; taken {
			continue
		}
		r.lobbies[code] = &lobby{
			code:    code,
			members: make(map[string]domain.User),
		}
		r.order = append(r.order, code)
		return code, nil
	}
	return "", domain.ErrCodeExhausted
}

// ListLobbies returns every lobby with its member count, in creation order.
func (r *Registry) ListLobbies() []domain.LobbySummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(code string, _ int) domain.LobbySummary {
		return domain.LobbySummary{
			Code:        code,
			MemberCount: len(r.lobbies[code].members),
		}
	})
}

// GetLobby returns a copy of the lobby's members and message log.
func (r *Registry) GetLobby(code string) (domain.LobbySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lobbies[code]
	if !ok {
		return domain.LobbySnapshot{}, domain.ErrLobbyNotFound
	}
	messages := make([]domain.Message, len(l.messages))
	copy(messages, l.messages)
	return domain.LobbySnapshot{
		Code: code,
		Members: lo.Map(l.joined, func(id string, _ int) domain.User {
			return l.members[id]
		}),
		Messages: messages,
	}, nil
}

// Exists reports whether code names a tracked lobby.
func (r *Registry) Exists(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.lobbies[code]
	return ok
}

// IsMember reports whether userID is currently in the lobby.
func (r *Registry) IsMember(code, userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lobbies[code]
	if !ok {
		return false
	}
	_, member := l.members[userID]
	return member
}

// Join adds user to the lobby. The membership check and the insert happen
// under one write lock.
func (r *Registry) Join(user domain.User, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[code]
	if !ok {
		return domain.ErrLobbyNotFound
	}
	if _, member := l.members[user.ID]; member {
		return domain.ErrAlreadyMember
	}
	l.members[user.ID] = user
	l.joined = append(l.joined, user.ID)
	return nil
}

// Leave removes userID from the lobby. removed is false when the user was
// not a member, which is not an error.
func (r *Registry) Leave(userID, code string) (user domain.User, removed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[code]
	if !ok {
		return domain.User{}, false, domain.ErrLobbyNotFound
	}
	user, member := l.members[userID]
	if !member {
		return domain.User{}, false, nil
	}
	delete(l.members, userID)
	l.joined = lo.Without(l.joined, userID)
	return user, true, nil
}

// AppendMessage adds msg to the end of the lobby's log.
func (r *Registry) AppendMessage(code string, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[code]
	if !ok {
		return domain.ErrLobbyNotFound
	}
	l.messages = append(l.messages, msg)
	return nil
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lobbies)
}
