package output

import (
	"github.com/okian/dpsmeter/internal/domain/parser"
	"github.com/okian/dpsmeter/internal/domain/stats"
	"github.com/okian/dpsmeter/internal/domain/view"
	"github.com/okian/dpsmeter/internal/domain/window"
)

// Report is the printable result of one analysis run.
type Report struct {
	Files             []string      `json:"files"`
	Targets           []string      `json:"targets"`
	Target            string        `json:"target"`
	Source            string        `json:"source"`
	Mode              window.Mode   `json:"mode"`
	Range             *window.Range `json:"range,omitempty"`
	Filter            string        `json:"filter,omitempty"`
	RangeModeMismatch bool          `json:"range_mode_mismatch,omitempty"`
	Empty             string        `json:"empty,omitempty"`
	Summary           stats.Summary `json:"summary"`
	Rows              []stats.Row   `json:"rows"`
	Parse             parser.Report `json:"parse"`
	Detail            *stats.Detail `json:"detail,omitempty"`
	DetailMissing     string        `json:"detail_missing,omitempty"`
}

// NewReport builds a report from a rendered snapshot.
func NewReport(snap view.Snapshot, files []string) *Report {
	r := &Report{
		Files:             files,
		Targets:           snap.Targets,
		Target:            snap.State.Target,
		Source:            snap.State.Source,
		Mode:              snap.Mode,
		Range:             snap.State.Range,
		Filter:            snap.Filter,
		RangeModeMismatch: snap.RangeModeMismatch,
		Empty:             snap.Empty,
		Summary:           snap.Summary,
		Rows:              snap.Rows,
		Parse:             snap.Parse,
		Detail:            snap.Detail,
	}
	if snap.DetailMissing {
		r.DetailMissing = snap.State.Detail.Skill
	}
	return r
}
