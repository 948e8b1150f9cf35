package ingest

import "errors"

// Sentinel kinds for file reading errors.
var (
	ErrRead     = errors.New("read log file")
	ErrTooLarge = errors.New("log file too large")
	ErrNoFiles  = errors.New("no log files")
)
