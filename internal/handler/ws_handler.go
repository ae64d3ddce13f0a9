package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/log"
)

const transportWebSocket = "websocket"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamWebSocket relays a room's events over a WebSocket. The subscription
// is taken before the upgrade so an unknown room can still be answered with
// a plain HTTP error.
func (h *Handler) StreamWebSocket(c *gin.Context) {
	room := c.Param("room")
	ctx := log.WithRoom(c.Request.Context(), room)
	c.Set(log.FieldTransport, transportWebSocket)

	sub, err := h.chatService.Subscribe(ctx, room)
	if err != nil {
		writeError(c, err, "failed to subscribe")
		return
	}
	defer h.chatService.Unsubscribe(ctx, sub)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	client := newWSClient(conn, sub, h.wsCfg)
	if err := conn.WriteJSON(domain.SubscribedMessage{
		Type:           domain.MsgTypeSubscribed,
		Room:           room,
		SubscriptionID: sub.ID,
	}); err != nil {
		return
	}

	go client.readPump(ctx)
	client.writePump(ctx)
}
