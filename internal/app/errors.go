package service

import "errors"

// Sentinel error kinds for the session service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidAction = errors.New("invalid action")
)
