package domain

import "errors"

// Engine failure taxonomy. Adapters translate these into wire error codes;
// nothing is retried automatically.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrInvalidRoomType   = errors.New("invalid room type")
	ErrInvalidCallTarget = errors.New("invalid call target")
	ErrNotAMember        = errors.New("not a member")
	ErrLiveNotActive     = errors.New("live stream is not active")
	ErrAlreadySpeaking   = errors.New("already speaking")
	ErrUnauthenticated   = errors.New("unauthenticated")
)
