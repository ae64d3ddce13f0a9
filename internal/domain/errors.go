package domain

import "errors"

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrLobbyNotFound = errors.New("lobby not found")
	ErrAlreadyMember = errors.New("user is already a member of the lobby")

	// ErrInvalidArgument marks input rejected before any state is touched.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCodeExhausted is returned when no free lobby code could be generated.
	ErrCodeExhausted = errors.New("could not generate a unique lobby code")
	// ErrHubClosed is returned when subscribing after shutdown.
	ErrHubClosed = errors.New("subscription hub is closed")
)

// Error codes exposed to clients.
const (
	ErrCodeUserNotFound  = "USER_NOT_FOUND"
	ErrCodeLobbyNotFound = "LOBBY_NOT_FOUND"
	ErrCodeAlreadyMember = "ALREADY_MEMBER"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternalError = "INTERNAL_ERROR"
)
