package repository

import "errors"

// Sentinel kinds for file store errors.
var (
	ErrNotFound     = errors.New("file not found")
	ErrTooManyFiles = errors.New("file limit reached")
)
