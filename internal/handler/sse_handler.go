package handler

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/log"
)

const transportSSE = "sse"

// StreamSSE relays a room's events as server-sent events until the client
// disconnects or the subscription ends.
func (h *Handler) StreamSSE(c *gin.Context) {
	room := c.Param("room")
	ctx := log.WithRoom(c.Request.Context(), room)
	c.Set(log.FieldTransport, transportSSE)

	sub, err := h.chatService.Subscribe(ctx, room)
	if err != nil {
		writeError(c, err, "failed to subscribe")
		return
	}
	defer h.chatService.Unsubscribe(ctx, sub)

	keepalive := time.NewTicker(h.sseCfg.KeepaliveInterval)
	defer keepalive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(domain.MsgTypeSubscribed, domain.SubscribedMessage{
		Type:           domain.MsgTypeSubscribed,
		Room:           room,
		SubscriptionID: sub.ID,
	})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(string(evt.Type), evt)
			return true
		case <-keepalive.C:
			c.SSEvent(domain.MsgTypePing, time.Now().UnixMilli())
			return true
		case <-ctx.Done():
			return false
		}
	})
}
