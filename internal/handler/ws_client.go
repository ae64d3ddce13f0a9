package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/config"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/hub"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/log"
)

// wsClient pumps one subscription onto one WebSocket connection. The only
// inbound frames it understands are pings; the connection is push-only.
type wsClient struct {
	conn    *websocket.Conn
	sub     *hub.Subscription
	control chan []byte // replies to client frames, written by the write pump
	done    chan struct{}
	config  config.WebSocketConfig
}

func newWSClient(conn *websocket.Conn, sub *hub.Subscription, cfg config.WebSocketConfig) *wsClient {
	return &wsClient{
		conn:    conn,
		sub:     sub,
		control: make(chan []byte, 8),
		done:    make(chan struct{}),
		config:  cfg,
	}
}

type wsInbound struct {
	Type string `json:"type"`
}

// readPump drains client frames until the connection fails, then closes done.
func (c *wsClient) readPump(ctx context.Context) {
	defer close(c.done)

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				l := log.Ctx(ctx)
				l.Warn().Err(err).Str(log.FieldSubscriptionID, c.sub.ID).Msg("websocket read error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))

		var in wsInbound
		if err := json.Unmarshal(message, &in); err != nil || in.Type != domain.MsgTypePing {
			continue
		}
		reply, _ := json.Marshal(map[string]string{"type": domain.MsgTypePong})
		select {
		case c.control <- reply:
		default:
		}
	}
}

// writePump forwards events, control replies and keepalive pings until the
// subscription ends, the reader stops, or ctx is cancelled.
func (c *wsClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-c.sub.Events():
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				reason := "subscription closed"
				if c.sub.Lagged() {
					reason = "too slow"
				}
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, reason))
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}

		case reply := <-c.control:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return

		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
