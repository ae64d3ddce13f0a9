package audit

import (
	"context"

	"github.com/weiawesome/wes-io-live/lobby-service/pkg/log"
)

// Audit actions for the lobby service.
const (
	ActionCreateUser  = "chat.create_user"
	ActionCreateLobby = "chat.create_lobby"
	ActionJoinLobby   = "chat.join_lobby"
	ActionLeaveLobby  = "chat.leave_lobby"
	ActionSendMessage = "chat.send_message"
	ActionSubscribe   = "chat.subscribe"
	ActionUnsubscribe = "chat.unsubscribe"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit entry via the context logger. room and userID
// are omitted when empty.
func Log(ctx context.Context, action, room, userID, msg string) {
	l := log.Ctx(ctx)
	evt := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action)
	if room != "" {
		evt = evt.Str(log.FieldRoom, room)
	}
	if userID != "" {
		evt = evt.Str(log.FieldUserID, userID)
	}
	evt.Msg(msg)
}

// LogWithDetail is Log with an extra detail field.
func LogWithDetail(ctx context.Context, action, room, userID, detail, msg string) {
	l := log.Ctx(ctx)
	evt := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(FieldDetail, detail)
	if room != "" {
		evt = evt.Str(log.FieldRoom, room)
	}
	if userID != "" {
		evt = evt.Str(log.FieldUserID, userID)
	}
	evt.Msg(msg)
}
