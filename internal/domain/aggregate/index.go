// Package aggregate builds the target -> source -> skill index of damage events.
//
// The index is derived state: it is always rebuilt wholesale from the list of
// uploaded files and never patched afterwards.
package aggregate

import (
	"sort"

	"github.com/okian/dpsmeter/internal/domain/model"
	"github.com/okian/dpsmeter/internal/domain/parser"
)

// Scope holds the events one source dealt to one target.
//
// Undated events count toward the scope but never move Min or Max.
type Scope struct {
	Min    int64 // earliest dated instant; valid only when Dated() > 0
	Max    int64 // latest dated instant; valid only when Dated() > 0
	Skills map[string][]model.Event

	count int
	dated int
}

func newScope() *Scope {
	return &Scope{Skills: make(map[string][]model.Event)}
}

func (s *Scope) add(ev model.Event) {
	s.Skills[ev.Skill] = append(s.Skills[ev.Skill], ev)
	s.count++
	if ev.Undated {
		return
	}
	if s.dated == 0 || ev.Instant < s.Min {
		s.Min = ev.Instant
	}
	if s.dated == 0 || ev.Instant > s.Max {
		s.Max = ev.Instant
	}
	s.dated++
}

// Count returns the number of events in the scope.
func (s *Scope) Count() int { return s.count }

// Dated returns the number of events with a parsed timestamp.
func (s *Scope) Dated() int { return s.dated }

// Span returns Max-Min in milliseconds, or 0 when no event is dated.
func (s *Scope) Span() int64 {
	if s.dated == 0 {
		return 0
	}
	return s.Max - s.Min
}

// SkillNames returns the scope's skill names in ascending order.
func (s *Scope) SkillNames() []string { return sortedKeys(s.Skills) }

// Index maps target -> source -> Scope.
type Index struct {
	targets map[string]map[string]*Scope
}

// New returns an empty index.
func New() *Index {
	return &Index{targets: make(map[string]map[string]*Scope)}
}

// Add routes one event into its scope, creating the scope on first touch.
func (idx *Index) Add(ev model.Event) {
	sources, ok := idx.targets[ev.Target]
	if !ok {
		sources = make(map[string]*Scope)
		idx.targets[ev.Target] = sources
	}
	scope, ok := sources[ev.Source]
	if !ok {
		scope = newScope()
		sources[ev.Source] = scope
	}
	scope.add(ev)
}

// Build parses every line of every file and returns the resulting index and
// the merged parse report.
func Build(files []model.File, p *parser.Parser) (*Index, parser.Report) {
	if p == nil {
		p = parser.New()
	}
	idx := New()
	var rep parser.Report
	for _, f := range files {
		events, r := p.ParseLines(f.Lines)
		rep.Add(r)
		for _, ev := range events {
			idx.Add(ev)
		}
	}
	return idx, rep
}

// Empty reports whether the index holds no targets.
func (idx *Index) Empty() bool { return len(idx.targets) == 0 }

// Targets returns every target id in ascending order.
func (idx *Index) Targets() []string { return sortedKeys(idx.targets) }

// HasTarget reports whether target has at least one scope.
func (idx *Index) HasTarget(target string) bool {
	_, ok := idx.targets[target]
	return ok
}

// Sources returns the source ids that hit target, in ascending order.
func (idx *Index) Sources(target string) []string { return sortedKeys(idx.targets[target]) }

// Scope returns the scope of (target, source), or nil.
func (idx *Index) Scope(target, source string) *Scope {
	return idx.targets[target][source]
}

// AllSources returns every distinct source across all targets.
func (idx *Index) AllSources() []string {
	seen := make(map[string]struct{})
	for _, sources := range idx.targets {
		for src := range sources {
			seen[src] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// TargetBounds returns the earliest and latest dated instant over every
// source of target. ok is false when the target has no dated events.
func (idx *Index) TargetBounds(target string) (lo, hi int64, ok bool) {
	for _, scope := range idx.targets[target] {
		if scope.Dated() == 0 {
			continue
		}
		if !ok || scope.Min < lo {
			lo = scope.Min
		}
		if !ok || scope.Max > hi {
			hi = scope.Max
		}
		ok = true
	}
	return lo, hi, ok
}

// TargetMin returns the earliest instant over every source of target.
func (idx *Index) TargetMin(target string) (int64, bool) {
	lo, _, ok := idx.TargetBounds(target)
	return lo, ok
}

// EventCount returns the total number of events in the index.
func (idx *Index) EventCount() int {
	n := 0
	for _, sources := range idx.targets {
		for _, scope := range sources {
			n += scope.Count()
		}
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
