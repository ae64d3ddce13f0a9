package lobby

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/generator"
)

var (
	amy = domain.User{ID: "u-amy", Name: "Amy"}
	bob = domain.User{ID: "u-bob", Name: "Bob"}
)

type scriptedCodes struct {
	codes []string
}

func (s *scriptedCodes) Generate() (string, error) {
	code := s.codes[0]
	if len(s.codes) > 1 {
		s.codes = s.codes[1:]
	}
	return code, nil
}

func (s *scriptedCodes) Validate(string) error { return nil }

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	codes, err := generator.NewLobbyCodeGenerator("", generator.DefaultCodeLength, "")
	require.NoError(t, err)
	return NewRegistry(codes, 16)
}

func TestRegistry_CreateLobby_StartsEmpty(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)

	// When a lobby is created
	code, err := registry.CreateLobby()
	req.NoError(err)
	req.Len(code, generator.DefaultCodeLength)

	// Then it is listed with no members
	req.Equal([]domain.LobbySummary{{Code: code, MemberCount: 0}}, registry.ListLobbies())

	snapshot, err := registry.GetLobby(code)
	req.NoError(err)
	req.Empty(snapshot.Members)
	req.Empty(snapshot.Messages)
}

func TestRegistry_CreateLobby_RegeneratesOnCollision(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(&scriptedCodes{codes: []string{"aaaaa", "aaaaa", "bbbbb"}}, 4)

	first, err := registry.CreateLobby()
	req.NoError(err)
	second, err := registry.CreateLobby()
	req.NoError(err)

	req.Equal("aaaaa", first)
	req.Equal("bbbbb", second)
	req.Equal(2, registry.Count())
}

func TestRegistry_CreateLobby_ExhaustsAttempts(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(&scriptedCodes{codes: []string{"aaaaa"}}, 3)

	_, err := registry.CreateLobby()
	req.NoError(err)

	// When every candidate collides
	_, err = registry.CreateLobby()

	// Then creation fails without touching state
	req.True(errors.Is(err, domain.ErrCodeExhausted))
	req.Equal(1, registry.Count())
}

func TestRegistry_Join_And_Leave(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)
	code, err := registry.CreateLobby()
	req.NoError(err)

	// Given Amy and Bob join
	req.NoError(registry.Join(amy, code))
	req.NoError(registry.Join(bob, code))
	req.Equal(2, registry.ListLobbies()[0].MemberCount)
	req.True(registry.IsMember(code, amy.ID))

	// When Amy leaves
	user, removed, err := registry.Leave(amy.ID, code)
	req.NoError(err)

	// Then only Bob remains
	req.True(removed)
	req.Equal(amy, user)
	snapshot, err := registry.GetLobby(code)
	req.NoError(err)
	req.Equal([]domain.User{bob}, snapshot.Members)
	req.False(registry.IsMember(code, amy.ID))
}

func TestRegistry_Join_Twice(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)
	code, err := registry.CreateLobby()
	req.NoError(err)

	req.NoError(registry.Join(amy, code))
	err = registry.Join(amy, code)

	req.True(errors.Is(err, domain.ErrAlreadyMember))
	req.Equal(1, registry.ListLobbies()[0].MemberCount)
}

func TestRegistry_Join_UnknownLobby(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)

	err := registry.Join(amy, "nope0")
	req.True(errors.Is(err, domain.ErrLobbyNotFound))
	req.False(registry.Exists("nope0"))
}

func TestRegistry_Leave_NonMember_IsNoop(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)
	code, err := registry.CreateLobby()
	req.NoError(err)

	_, removed, err := registry.Leave(amy.ID, code)
	req.NoError(err)
	req.False(removed)

	_, _, err = registry.Leave(amy.ID, "nope0")
	req.True(errors.Is(err, domain.ErrLobbyNotFound))
}

func TestRegistry_AppendMessage_KeepsOrder(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)
	code, err := registry.CreateLobby()
	req.NoError(err)

	now := time.Now()
	for _, content := range []string{"one", "two", "three"} {
		req.NoError(registry.AppendMessage(code, domain.Message{
			AuthorID: amy.ID, AuthorName: amy.Name, Content: content, SentAt: now,
		}))
	}

	snapshot, err := registry.GetLobby(code)
	req.NoError(err)
	req.Len(snapshot.Messages, 3)
	req.Equal("one", snapshot.Messages[0].Content)
	req.Equal("three", snapshot.Messages[2].Content)

	// Snapshots are copies
	snapshot.Messages[0].Content = "edited"
	again, err := registry.GetLobby(code)
	req.NoError(err)
	req.Equal("one", again.Messages[0].Content)

	err = registry.AppendMessage("nope0", domain.Message{Content: "lost"})
	req.True(errors.Is(err, domain.ErrLobbyNotFound))
}

func TestRegistry_ConcurrentJoin_SingleWinner(t *testing.T) {
	req := require.New(t)
	registry := newRegistry(t)
	code, err := registry.CreateLobby()
	req.NoError(err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		joined  int
		already int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := registry.Join(amy, code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, domain.ErrAlreadyMember):
				already++
			}
		}()
	}
	wg.Wait()

	req.Equal(1, joined)
	req.Equal(19, already)
}

func TestRegistry_ListLobbies_CreationOrder(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(&scriptedCodes{codes: []string{"ccccc", "aaaaa", "bbbbb"}}, 1)

	for i := 0; i < 3; i++ {
		_, err := registry.CreateLobby()
		req.NoError(err)
	}

	var codes []string
	for _, l := range registry.ListLobbies() {
		codes = append(codes, l.Code)
	}
	req.Equal([]string{"ccccc", "aaaaa", "bbbbb"}, codes)
}
