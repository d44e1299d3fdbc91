package roomerrors

import "errors"

// Room/game sentinel errors. Used by the room, ws, and game packages
// to avoid circular imports.
var (
	ErrBanned             = errors.New("identity is banned")
	ErrRateLimited        = errors.New("connection rate limit exceeded")
	ErrInvalidPassword    = errors.New("invalid room password")
	ErrUnknownMode        = errors.New("unknown game mode")
	ErrDictionaryNotReady = errors.New("dictionary not loaded yet")
	ErrWordNotFound       = errors.New("no matching word found")
)
