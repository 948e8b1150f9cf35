// Package view holds the UI view state and renders it against the uploaded
// files.
//
// State is a plain value. Every trigger is a method that returns a new State
// and leaves the receiver untouched; Render is a pure function of the file
// list and a State.
package view

import (
	"fmt"

	"github.com/okian/dpsmeter/internal/domain/bucket"
	"github.com/okian/dpsmeter/internal/domain/stats"
	"github.com/okian/dpsmeter/internal/domain/window"
)

// DetailMode selects how the per-skill detail is shown.
type DetailMode string

const (
	DetailTable DetailMode = "table"
	DetailGraph DetailMode = "graph"
)

// ParseDetailMode validates a detail mode name.
func ParseDetailMode(s string) (DetailMode, error) {
	switch m := DetailMode(s); m {
	case DetailTable, DetailGraph:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDetailMode, s)
}

// Detail is the state of the per-skill detail view.
type Detail struct {
	Open  bool             `json:"open"`
	Skill string           `json:"skill,omitempty"`
	Sort  stats.DetailSort `json:"sort"`
	Mode  DetailMode       `json:"mode"`
}

// State is everything the user has selected.
type State struct {
	Target          string        `json:"target"`
	Source          string        `json:"source"`
	Sort            stats.Sort    `json:"sort"`
	Normalize       bool          `json:"normalize"`
	IntervalSeconds int           `json:"interval_seconds"`
	Range           *window.Range `json:"range,omitempty"`
	RangeMode       window.Mode   `json:"range_mode"`
	Detail          Detail        `json:"detail"`
}

// New returns the initial state.
func New(normalize bool, intervalSeconds int) State {
	return State{
		Source:          stats.AllSources,
		Sort:            stats.DefaultSort,
		Normalize:       normalize,
		IntervalSeconds: bucket.Interval(intervalSeconds),
		Detail:          Detail{Sort: stats.DefaultDetailSort, Mode: DetailTable},
	}
}

// Mode returns the active time mode.
func (s State) Mode() window.Mode { return window.ModeFor(s.Normalize) }

// RangeModeMismatch reports whether the active range was taken in the other
// time mode. The range is kept as is.
func (s State) RangeModeMismatch() bool {
	return s.Range != nil && s.RangeMode != s.Mode()
}

// SelectTarget switches target and resets the source to all.
func (s State) SelectTarget(target string) State {
	s.Target = target
	s.Source = stats.AllSources
	s.Detail = s.Detail.closed()
	return s
}

// SelectSource switches the table to one source or back to AllSources.
func (s State) SelectSource(source string) State {
	if source == "" {
		source = stats.AllSources
	}
	s.Source = source
	return s
}

// ToggleSort applies a click on a table column header.
func (s State) ToggleSort(col stats.Column) State {
	s.Sort = s.Sort.Toggle(col)
	return s
}

// SetNormalize flips the time mode.
func (s State) SetNormalize(normalize bool) State {
	s.Normalize = normalize
	return s
}

// SetInterval changes the bucket width. Non-positive values use the default.
func (s State) SetInterval(seconds int) State {
	s.IntervalSeconds = bucket.Interval(seconds)
	return s
}

// SetRange commits a time range in the current mode.
func (s State) SetRange(r window.Range) State {
	s.Range = &r
	s.RangeMode = s.Mode()
	return s
}

// Drag turns a drag gesture over the chart into a committed range. It
// reports false and returns s unchanged when the drag is not a selection.
func (s State) Drag(axis window.Axis, startX, endX float64) (State, bool) {
	r, ok := axis.Selection(startX, endX)
	if !ok {
		return s, false
	}
	return s.SetRange(r), true
}

// ResetRange clears the time filter.
func (s State) ResetRange() State {
	s.Range = nil
	s.RangeMode = window.Normalized
	return s
}

// OpenDetail opens the detail of skill sorted by time.
func (s State) OpenDetail(skill string) State {
	s.Detail.Open = true
	s.Detail.Skill = skill
	s.Detail.Sort = stats.DefaultDetailSort
	if s.Detail.Mode == "" {
		s.Detail.Mode = DetailTable
	}
	return s
}

// CloseDetail closes the detail view.
func (s State) CloseDetail() State {
	s.Detail = s.Detail.closed()
	return s
}

// ToggleDetailSort applies a click on a detail column header.
func (s State) ToggleDetailSort(col stats.DetailColumn) State {
	s.Detail.Sort = s.Detail.Sort.Toggle(col)
	return s
}

// SetDetailMode switches the detail between table and graph.
func (s State) SetDetailMode(mode DetailMode) State {
	s.Detail.Mode = mode
	return s
}

// FilesAdded resets the target and source so the new data is visible.
func (s State) FilesAdded() State {
	s.Target = ""
	s.Source = stats.AllSources
	return s
}

// FilesRemoved resets the selection once no file is left.
func (s State) FilesRemoved(remaining int) State {
	if remaining > 0 {
		return s
	}
	s.Target = ""
	s.Source = stats.AllSources
	s = s.ResetRange()
	s.Detail = s.Detail.closed()
	return s
}

func (d Detail) closed() Detail {
	d.Open = false
	d.Skill = ""
	d.Sort = stats.DefaultDetailSort
	return d
}
