package window

import "errors"

var (
	// ErrUnknownMode is returned by ParseMode for an unrecognised mode name.
	ErrUnknownMode = errors.New("unknown time mode")
	// ErrInvalidRange indicates a range whose end precedes its start.
	ErrInvalidRange = errors.New("invalid time range")
)
