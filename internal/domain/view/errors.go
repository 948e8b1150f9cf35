package view

import "errors"

// ErrUnknownDetailMode is returned for a detail mode other than table or graph.
var ErrUnknownDetailMode = errors.New("unknown detail mode")
