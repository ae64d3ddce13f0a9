package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/config"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/dispatcher"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/generator"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/hub"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/identity"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/lobby"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/service"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
}

func newEngine(t *testing.T, allowUnknownRooms bool) *gin.Engine {
	t.Helper()
	codes, err := generator.NewLobbyCodeGenerator("", generator.DefaultCodeLength, "")
	require.NoError(t, err)
	ids, err := generator.NewSnowflakeGenerator(1, generator.DefaultEpoch)
	require.NoError(t, err)

	users := identity.NewRegistry(generator.NewUUIDGenerator())
	lobbies := lobby.NewRegistry(codes, 16)
	h := hub.New(32)
	t.Cleanup(h.Close)
	d := dispatcher.New(users, lobbies, h, ids)
	svc := service.NewChatService(users, lobbies, h, d, service.Options{
		MaxContentLength:  100,
		AllowUnknownRooms: allowUnknownRooms,
	})

	wsCfg := config.WebSocketConfig{
		PingInterval:   time.Second,
		PongWait:       2 * time.Second,
		WriteWait:      time.Second,
		MaxMessageSize: 4096,
	}
	r := gin.New()
	NewHandler(svc, wsCfg, config.SSEConfig{KeepaliveInterval: time.Minute}).RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func createUser(t *testing.T, r http.Handler, name string) string {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/chat/user", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, code)
	var out domain.CreateUserResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.ID
}

func createLobby(t *testing.T, r http.Handler) string {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/chat", nil)
	require.Equal(t, http.StatusCreated, code)
	var out domain.CreateLobbyResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.Room
}

func TestHandler_Ping(t *testing.T) {
	req := require.New(t)
	r := newEngine(t, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chat/ping", nil))

	req.Equal(http.StatusOK, w.Code)
	req.Equal("pong", w.Body.String())
}

func TestHandler_UsersAndLobbies(t *testing.T) {
	req := require.New(t)
	r := newEngine(t, true)

	amyID := createUser(t, r, "Amy")
	room := createLobby(t, r)

	status, env := do(t, r, http.MethodGet, "/chat/users", nil)
	req.Equal(http.StatusOK, status)
	var users []domain.User
	req.NoError(json.Unmarshal(env.Data, &users))
	req.Equal([]domain.User{{ID: amyID, Name: "Amy"}}, users)

	status, _ = do(t, r, http.MethodPost, "/chat/join", map[string]string{"userId": amyID, "room": room})
	req.Equal(http.StatusOK, status)

	status, env = do(t, r, http.MethodGet, "/chat", nil)
	req.Equal(http.StatusOK, status)
	var lobbies []domain.LobbySummary
	req.NoError(json.Unmarshal(env.Data, &lobbies))
	req.Equal([]domain.LobbySummary{{Code: room, MemberCount: 1}}, lobbies)

	status, _ = do(t, r, http.MethodPost, "/chat/"+room+"/message", map[string]string{"userId": amyID, "message": "hello"})
	req.Equal(http.StatusOK, status)

	status, env = do(t, r, http.MethodGet, "/chat/"+room, nil)
	req.Equal(http.StatusOK, status)
	var snapshot domain.LobbySnapshot
	req.NoError(json.Unmarshal(env.Data, &snapshot))
	req.Len(snapshot.Members, 1)
	req.Len(snapshot.Messages, 1)
	req.Equal("hello", snapshot.Messages[0].Content)

	status, _ = do(t, r, http.MethodPost, "/chat/leave", map[string]string{"userId": amyID, "room": room})
	req.Equal(http.StatusOK, status)
}

func TestHandler_ErrorMapping(t *testing.T) {
	req := require.New(t)
	r := newEngine(t, true)
	amyID := createUser(t, r, "Amy")
	room := createLobby(t, r)

	// Unknown user
	status, env := do(t, r, http.MethodPost, "/chat/join", map[string]string{"userId": "ghost", "room": room})
	req.Equal(http.StatusNotFound, status)
	req.Equal(domain.ErrCodeUserNotFound, env.Error.Code)

	// Unknown lobby
	status, env = do(t, r, http.MethodPost, "/chat/nonexistent-code/message", map[string]string{"userId": amyID, "message": "x"})
	req.Equal(http.StatusNotFound, status)
	req.Equal(domain.ErrCodeLobbyNotFound, env.Error.Code)

	status, env = do(t, r, http.MethodGet, "/chat/nonexistent-code", nil)
	req.Equal(http.StatusNotFound, status)
	req.Equal(domain.ErrCodeLobbyNotFound, env.Error.Code)

	// Double join
	status, _ = do(t, r, http.MethodPost, "/chat/join", map[string]string{"userId": amyID, "room": room})
	req.Equal(http.StatusOK, status)
	status, env = do(t, r, http.MethodPost, "/chat/join", map[string]string{"userId": amyID, "room": room})
	req.Equal(http.StatusConflict, status)
	req.Equal(domain.ErrCodeAlreadyMember, env.Error.Code)

	// Malformed bodies
	status, env = do(t, r, http.MethodPost, "/chat/user", map[string]string{})
	req.Equal(http.StatusBadRequest, status)
	req.Equal(domain.ErrCodeBadRequest, env.Error.Code)

	status, _ = do(t, r, http.MethodPost, "/chat/"+room+"/message", map[string]string{"userId": amyID, "message": strings.Repeat("x", 101)})
	req.Equal(http.StatusBadRequest, status)
}

func TestHandler_StreamSSE(t *testing.T) {
	req := require.New(t)
	r := newEngine(t, true)
	srv := httptest.NewServer(r)
	defer srv.Close()

	amyID := createUser(t, r, "Amy")
	room := createLobby(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	streamReq, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/chat/"+room+"/events", nil)
	req.NoError(err)
	resp, err := http.DefaultClient.Do(streamReq)
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
	req.Contains(resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			req.NoError(err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimPrefix(line, "data:")
			case line == "" && name != "":
				return name, data
			}
		}
	}

	name, _ := readEvent()
	req.Equal(domain.MsgTypeSubscribed, name)

	status, _ := do(t, r, http.MethodPost, "/chat/"+room+"/message", map[string]string{"userId": amyID, "message": "hello"})
	req.Equal(http.StatusOK, status)

	name, data := readEvent()
	req.Equal(string(domain.EventMessage), name)
	var evt domain.Event
	req.NoError(json.Unmarshal([]byte(data), &evt))
	req.Equal(domain.EventPayload{ID: amyID, Name: "Amy", Content: "hello"}, evt.Payload)
}

func TestHandler_StreamWebSocket(t *testing.T) {
	req := require.New(t)
	r := newEngine(t, true)
	srv := httptest.NewServer(r)
	defer srv.Close()

	amyID := createUser(t, r, "Amy")
	room := createLobby(t, r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/" + room + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	defer conn.Close()
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))

	var ack domain.SubscribedMessage
	req.NoError(conn.ReadJSON(&ack))
	req.Equal(domain.MsgTypeSubscribed, ack.Type)
	req.Equal(room, ack.Room)

	// Join is broadcast to the stream
	status, _ := do(t, r, http.MethodPost, "/chat/join", map[string]string{"userId": amyID, "room": room})
	req.Equal(http.StatusOK, status)

	var evt domain.Event
	req.NoError(conn.ReadJSON(&evt))
	req.Equal(domain.EventJoin, evt.Type)
	req.Equal(amyID, evt.Payload.ID)

	// Application-level ping
	req.NoError(conn.WriteJSON(map[string]string{"type": domain.MsgTypePing}))
	var pong map[string]string
	req.NoError(conn.ReadJSON(&pong))
	req.Equal(domain.MsgTypePong, pong["type"])
}

func TestHandler_StreamWebSocket_UnknownRoomRejected(t *testing.T) {
	req := require.New(t)
	r := newEngine(t, false)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ghost/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusNotFound, resp.StatusCode)
}
