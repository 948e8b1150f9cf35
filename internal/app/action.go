package service

import (
	"fmt"

	"github.com/okian/dpsmeter/internal/domain/bucket"
	"github.com/okian/dpsmeter/internal/domain/stats"
	"github.com/okian/dpsmeter/internal/domain/view"
	"github.com/okian/dpsmeter/internal/domain/window"
)

// Action types accepted by Apply.
const (
	ActionSelectTarget = "select_target"
	ActionSelectSource = "select_source"
	ActionSort         = "sort"
	ActionSetNormalize = "set_normalize"
	ActionSetInterval  = "set_interval"
	ActionDrag         = "drag"
	ActionSetRange     = "set_range"
	ActionResetFilter  = "reset_filter"
	ActionOpenDetail   = "open_detail"
	ActionCloseDetail  = "close_detail"
	ActionSortDetail   = "sort_detail"
	ActionDetailView   = "detail_view"
)

// Action is one user trigger. Only the fields of its type are read.
type Action struct {
	Type string `json:"type"`

	Target string `json:"target,omitempty"`
	Source string `json:"source,omitempty"`
	Column string `json:"column,omitempty"`
	Skill  string `json:"skill,omitempty"`
	Mode   string `json:"mode,omitempty"`

	Normalize *bool `json:"normalize,omitempty"`
	Interval  int   `json:"interval,omitempty"`

	// Drag gesture: chart area bounds and the pointer positions in pixels.
	Left   float64 `json:"left,omitempty"`
	Right  float64 `json:"right,omitempty"`
	StartX float64 `json:"start_x,omitempty"`
	EndX   float64 `json:"end_x,omitempty"`

	Range *window.Range `json:"range,omitempty"`
}

// apply returns the state after a. chart is the chart currently on screen;
// drags are mapped through its axis.
func apply(s view.State, a Action, chart bucket.Chart) (view.State, error) {
	switch a.Type {
	case ActionSelectTarget:
		return s.SelectTarget(a.Target), nil
	case ActionSelectSource:
		return s.SelectSource(a.Source), nil
	case ActionSort:
		col, err := stats.ParseColumn(a.Column)
		if err != nil {
			return s, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		return s.ToggleSort(col), nil
	case ActionSetNormalize:
		if a.Normalize == nil {
			return s, fmt.Errorf("%w: normalize is required", ErrInvalidAction)
		}
		return s.SetNormalize(*a.Normalize), nil
	case ActionSetInterval:
		return s.SetInterval(a.Interval), nil
	case ActionDrag:
		if a.Right <= a.Left {
			return s, fmt.Errorf("%w: chart area right must exceed left", ErrInvalidAction)
		}
		next, _ := s.Drag(chart.Axis(a.Left, a.Right), a.StartX, a.EndX)
		return next, nil
	case ActionSetRange:
		if a.Range == nil || !a.Range.Valid() {
			return s, fmt.Errorf("%w: %v", ErrInvalidAction, window.ErrInvalidRange)
		}
		return s.SetRange(*a.Range), nil
	case ActionResetFilter:
		return s.ResetRange(), nil
	case ActionOpenDetail:
		if a.Skill == "" {
			return s, fmt.Errorf("%w: skill is required", ErrInvalidAction)
		}
		return s.OpenDetail(a.Skill), nil
	case ActionCloseDetail:
		return s.CloseDetail(), nil
	case ActionSortDetail:
		col, err := stats.ParseDetailColumn(a.Column)
		if err != nil {
			return s, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		return s.ToggleDetailSort(col), nil
	case ActionDetailView:
		mode, err := view.ParseDetailMode(a.Mode)
		if err != nil {
			return s, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		return s.SetDetailMode(mode), nil
	}
	return s, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}
