// Package identity owns the set of registered users.
package identity

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/generator"
)

// Registry stores users by ID. Users are never removed.
type Registry struct {
	mu    sync.RWMutex
	ids   generator.Generator
	users map[string]domain.User
	order []string // insertion order, for listing
}

func NewRegistry(ids generator.Generator) *Registry {
	return &Registry{
		ids:   ids,
		users: make(map[string]domain.User),
	}
}

// CreateUser registers name under a fresh ID. Names need not be unique.
func (r *Registry) CreateUser(name string) (domain.User, error) {
	id, err := r.ids.Generate()
	if err != nil {
		return domain.User{}, fmt.Errorf("generate user id: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[id]; exists {
		return domain.User{}, fmt.Errorf("generated user id %s already in use", id)
	}

	user := domain.User{ID: id, Name: name}
	r.users[id] = user
	r.order = append(r.order, id)
	return user, nil
}

// GetUser returns domain.ErrUserNotFound when id is unknown.
func (r *Registry) GetUser(id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// ListUsers returns every user in registration order.
func (r *Registry) ListUsers() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Map(r.order, func(id string, _ int) domain.User {
		return r.users[id]
	})
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
