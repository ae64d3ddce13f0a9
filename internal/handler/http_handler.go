package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/lobby-service/internal/config"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/domain"
	"github.com/weiawesome/wes-io-live/lobby-service/internal/service"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/log"
	"github.com/weiawesome/wes-io-live/lobby-service/pkg/response"
)

// Handler handles HTTP requests and push streams for the lobby service.
type Handler struct {
	chatService service.ChatService
	wsCfg       config.WebSocketConfig
	sseCfg      config.SSEConfig
}

// NewHandler creates a new HTTP handler.
func NewHandler(chatService service.ChatService, wsCfg config.WebSocketConfig, sseCfg config.SSEConfig) *Handler {
	return &Handler{
		chatService: chatService,
		wsCfg:       wsCfg,
		sseCfg:      sseCfg,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	chat := r.Group("/chat")
	{
		chat.GET("", h.ListLobbies)
		chat.POST("", h.CreateLobby)
		chat.GET("/ping", h.Ping)
		chat.GET("/users", h.ListUsers)
		chat.POST("/user", h.CreateUser)
		chat.POST("/join", h.JoinLobby)
		chat.POST("/leave", h.LeaveLobby)
		chat.GET("/:room", h.GetLobby)
		chat.POST("/:room/message", h.SendMessage)

		// Push streams
		chat.GET("/:room/events", h.StreamSSE)
		chat.GET("/:room/ws", h.StreamWebSocket)
	}
}

// Ping answers liveness probes from chat clients.
func (h *Handler) Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (h *Handler) ListLobbies(c *gin.Context) {
	response.Success(c, h.chatService.ListLobbies(c.Request.Context()))
}

func (h *Handler) CreateLobby(c *gin.Context) {
	code, err := h.chatService.CreateLobby(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to create lobby")
		return
	}

	response.Created(c, domain.CreateLobbyResponse{Room: code})
}

func (h *Handler) GetLobby(c *gin.Context) {
	snapshot, err := h.chatService.GetLobby(c.Request.Context(), c.Param("room"))
	if err != nil {
		writeError(c, err, "failed to get lobby")
		return
	}

	response.Success(c, snapshot)
}

func (h *Handler) ListUsers(c *gin.Context) {
	response.Success(c, h.chatService.ListUsers(c.Request.Context()))
}

func (h *Handler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind create user request")
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.chatService.CreateUser(ctx, req.Name)
	if err != nil {
		writeError(c, err, "failed to create user")
		return
	}

	c.Set(log.FieldUserID, user.ID)
	response.Created(c, domain.CreateUserResponse{ID: user.ID})
}

func (h *Handler) JoinLobby(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind join request")
		response.BadRequest(c, err.Error())
		return
	}
	c.Set(log.FieldUserID, req.UserID)

	if err := h.chatService.JoinLobby(ctx, req.UserID, req.Room); err != nil {
		writeError(c, err, "failed to join lobby")
		return
	}

	response.Success(c, nil)
}

func (h *Handler) LeaveLobby(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind leave request")
		response.BadRequest(c, err.Error())
		return
	}
	c.Set(log.FieldUserID, req.UserID)

	if err := h.chatService.LeaveLobby(ctx, req.UserID, req.Room); err != nil {
		writeError(c, err, "failed to leave lobby")
		return
	}

	response.Success(c, nil)
}

func (h *Handler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind send message request")
		response.BadRequest(c, err.Error())
		return
	}
	c.Set(log.FieldUserID, req.UserID)

	if err := h.chatService.SendMessage(ctx, c.Param("room"), req.UserID, req.Message); err != nil {
		writeError(c, err, "failed to send message")
		return
	}

	response.Success(c, nil)
}

// writeError maps domain errors onto the response envelope. Anything
// unrecognized is logged and reported as an internal error with fallback as
// the client-facing message.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		response.NotFound(c, domain.ErrCodeUserNotFound, err.Error())
	case errors.Is(err, domain.ErrLobbyNotFound):
		response.NotFound(c, domain.ErrCodeLobbyNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyMember):
		response.Conflict(c, domain.ErrCodeAlreadyMember, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrHubClosed):
		response.ServiceUnavailable(c, err.Error())
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldRoute, c.FullPath()).Msg(fallback)
		response.InternalError(c, fallback)
	}
}
