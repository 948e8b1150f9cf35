package chartpng

import "errors"

// Sentinel kinds for chart rendering errors.
var (
	ErrEmptyChart = errors.New("chart has no series")
	ErrRender     = errors.New("render chart")
)
