package loggen

import "errors"

var (
	// ErrInvalidConfig is returned for a config that cannot produce logs.
	ErrInvalidConfig = errors.New("invalid generator config")
	// ErrServer is returned when the server answers with an unexpected status.
	ErrServer = errors.New("unexpected server response")
	// ErrMismatch is returned when server totals differ from generated totals.
	ErrMismatch = errors.New("server totals do not match generated logs")
)
