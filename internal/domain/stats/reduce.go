// Package stats folds filtered damage events into per-skill and view totals.
package stats

import (
	"math"

	"github.com/okian/dpsmeter/internal/domain/aggregate"
	"github.com/okian/dpsmeter/internal/domain/model"
	"github.com/okian/dpsmeter/internal/domain/window"
)

// AllSources is the source selection that folds every source of a target.
const AllSources = "all"

// Totals counts damage and hits by category.
type Totals struct {
	Damage    int64 `json:"damage"`
	Hits      int   `json:"hits"`
	Critical  int   `json:"critical"`
	Heavy     int   `json:"heavy"`
	CritHeavy int   `json:"crit_heavy"`
}

// Add counts ev into exactly one category.
func (t *Totals) Add(ev model.Event) {
	t.Damage += ev.Damage
	t.Hits++
	switch ev.Category() {
	case model.CritHeavy:
		t.CritHeavy++
	case model.Critical:
		t.Critical++
	case model.Heavy:
		t.Heavy++
	}
}

// Normal returns the hits that were neither critical nor heavy.
func (t Totals) Normal() int { return t.Hits - t.Critical - t.Heavy - t.CritHeavy }

// AvgHit returns Damage/Hits, or 0 without hits.
func (t Totals) AvgHit() float64 {
	if t.Hits == 0 {
		return 0
	}
	return float64(t.Damage) / float64(t.Hits)
}

// Rate returns n/Hits, or 0 without hits.
func (t Totals) Rate(n int) float64 {
	if t.Hits == 0 {
		return 0
	}
	return float64(n) / float64(t.Hits)
}

// Skill holds one skill's totals and the events that passed the filter.
type Skill struct {
	Name string
	Totals
	Events []model.Event
}

// View is the reduced statistics of one (target, source) selection.
type View struct {
	Target string
	Source string
	Mode   window.Mode
	Range  *window.Range
	Totals
	Skills map[string]*Skill

	// Duration is the combat time in seconds, never below 1.
	Duration float64

	first, last int64
	dated       int
}

// Empty reports whether no event passed the filter.
func (v View) Empty() bool { return v.Hits == 0 }

// DPS returns Damage/Duration.
func (v View) DPS() float64 { return float64(v.Damage) / v.Duration }

// Span returns the first and last passing dated instants.
func (v View) Span() (first, last int64, ok bool) {
	return v.first, v.last, v.dated > 0
}

// Reduce folds every event of the selected sources that passes the range
// into per-skill and view totals. source may be AllSources.
func Reduce(idx *aggregate.Index, target, source string, mode window.Mode, rng *window.Range) View {
	v := View{
		Target: target,
		Source: source,
		Mode:   mode,
		Range:  rng,
		Skills: make(map[string]*Skill),
	}
	if idx == nil {
		v.Duration = duration(v)
		return v
	}

	targetMin, _ := idx.TargetMin(target)
	filter := window.Filter{Mode: mode, Range: rng, TargetMin: targetMin}

	sources := []string{source}
	if source == AllSources {
		sources = idx.Sources(target)
	}
	for _, src := range sources {
		scope := idx.Scope(target, src)
		if scope == nil {
			continue
		}
		for _, name := range scope.SkillNames() {
			for _, ev := range scope.Skills[name] {
				if !filter.Pass(scope, ev) {
					continue
				}
				v.add(name, ev)
			}
		}
	}
	v.Duration = duration(v)
	return v
}

func (v *View) add(name string, ev model.Event) {
	sk, ok := v.Skills[name]
	if !ok {
		sk = &Skill{Name: name}
		v.Skills[name] = sk
	}
	sk.Add(ev)
	sk.Events = append(sk.Events, ev)

	v.Totals.Add(ev)
	if ev.Undated {
		return
	}
	if v.dated == 0 || ev.Instant < v.first {
		v.first = ev.Instant
	}
	if v.dated == 0 || ev.Instant > v.last {
		v.last = ev.Instant
	}
	v.dated++
}

// duration is the range width when a range is active, else the span of the
// passing events, floored to 1 second.
func duration(v View) float64 {
	var d float64
	switch {
	case v.Range != nil:
		d = v.Range.Width()
	case v.dated > 0:
		d = float64(v.last-v.first) / 1000
	}
	if !(d > 0) || math.IsInf(d, 0) {
		d = 1
	}
	return d
}
