package view

import (
	"fmt"
	"time"

	"github.com/okian/dpsmeter/internal/domain/aggregate"
	"github.com/okian/dpsmeter/internal/domain/bucket"
	"github.com/okian/dpsmeter/internal/domain/model"
	"github.com/okian/dpsmeter/internal/domain/parser"
	"github.com/okian/dpsmeter/internal/domain/stats"
	"github.com/okian/dpsmeter/internal/domain/window"
)

// Reasons a snapshot has nothing to show.
const (
	EmptyNoFiles   = "no_files"
	EmptyNoTargets = "no_targets"
	EmptyNoEvents  = "no_events_in_range"
)

// FileInfo describes one uploaded file.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
	Lines      int       `json:"lines"`
}

// Upload summarises the uploaded files.
type Upload struct {
	Files   int        `json:"files"`
	Players int        `json:"players"`
	List    []FileInfo `json:"list"`
}

// Snapshot is everything the UI draws for one State.
type Snapshot struct {
	// State is the effective state: target and source resolved against the
	// data that is actually loaded.
	State State  `json:"state"`
	Empty string `json:"empty,omitempty"`

	Targets []string `json:"targets"`
	Sources []string `json:"sources"`

	Mode              window.Mode `json:"mode"`
	Filter            string      `json:"filter,omitempty"`
	RangeModeMismatch bool        `json:"range_mode_mismatch"`

	Rows    []stats.Row   `json:"rows"`
	Summary stats.Summary `json:"summary"`
	Chart   bucket.Chart  `json:"chart"`

	Detail        *stats.Detail `json:"detail,omitempty"`
	DetailMissing bool          `json:"detail_missing,omitempty"`

	Upload Upload        `json:"upload"`
	Parse  parser.Report `json:"parse"`
}

// Render rebuilds the index from files and computes the snapshot of s.
func Render(files []model.File, s State, p *parser.Parser) Snapshot {
	idx, rep := aggregate.Build(files, p)
	return RenderIndex(idx, rep, files, s)
}

// RenderIndex computes the snapshot of s over an already built index.
func RenderIndex(idx *aggregate.Index, rep parser.Report, files []model.File, s State) Snapshot {
	snap := Snapshot{
		State:             s,
		Targets:           []string{},
		Sources:           []string{},
		Rows:              []stats.Row{},
		Mode:              s.Mode(),
		RangeModeMismatch: s.RangeModeMismatch(),
		Chart:             bucket.Chart{Labels: []string{}, Series: []bucket.Series{}, IntervalSeconds: bucket.Interval(s.IntervalSeconds)},
		Upload:            upload(idx, files),
		Parse:             rep,
	}
	if s.Range != nil {
		snap.Filter = fmt.Sprintf("%.1fs - %.1fs", s.Range.Start, s.Range.End)
	}

	if len(files) == 0 {
		snap.Empty = EmptyNoFiles
		snap.Summary = stats.Reduce(nil, "", stats.AllSources, s.Mode(), s.Range).Summary()
		return snap
	}
	snap.Targets = idx.Targets()
	if len(snap.Targets) == 0 {
		snap.Empty = EmptyNoTargets
		snap.Summary = stats.Reduce(nil, "", stats.AllSources, s.Mode(), s.Range).Summary()
		return snap
	}

	eff := resolve(idx, s, snap.Targets)
	snap.State = eff
	snap.Sources = idx.Sources(eff.Target)

	v := stats.Reduce(idx, eff.Target, eff.Source, eff.Mode(), eff.Range)
	snap.Rows = v.Rows(eff.Sort)
	snap.Summary = v.Summary()
	snap.Chart = bucket.Build(idx, eff.Target, eff.Mode(), eff.IntervalSeconds)
	if v.Empty() {
		snap.Empty = EmptyNoEvents
	}

	if eff.Detail.Open {
		d, err := v.Detail(eff.Detail.Skill, eff.Detail.Sort)
		if err != nil {
			snap.DetailMissing = true
		} else {
			snap.Detail = &d
		}
	}
	return snap
}

// resolve picks the first target when none or an unknown one is selected and
// falls back to all sources when the selected one never hit the target.
func resolve(idx *aggregate.Index, s State, targets []string) State {
	if s.Target == "" || !idx.HasTarget(s.Target) {
		s.Target = targets[0]
	}
	if s.Source == "" || (s.Source != stats.AllSources && idx.Scope(s.Target, s.Source) == nil) {
		s.Source = stats.AllSources
	}
	s.IntervalSeconds = bucket.Interval(s.IntervalSeconds)
	return s
}

func upload(idx *aggregate.Index, files []model.File) Upload {
	u := Upload{Files: len(files), List: make([]FileInfo, 0, len(files))}
	if idx != nil {
		u.Players = len(idx.AllSources())
	}
	for _, f := range files {
		u.List = append(u.List, FileInfo{
			ID:         f.ID,
			Name:       f.Name,
			UploadedAt: f.UploadedAt,
			Lines:      len(f.Lines),
		})
	}
	return u
}
