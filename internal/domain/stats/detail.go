package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/influxdata/tdigest"

	"github.com/okian/dpsmeter/internal/domain/model"
)

// DetailColumn is a sortable column of the per-skill detail table.
type DetailColumn string

const (
	DetailTime   DetailColumn = "time"
	DetailDamage DetailColumn = "damage"
	DetailType   DetailColumn = "type"
)

// ParseDetailColumn validates a detail column name.
func ParseDetailColumn(s string) (DetailColumn, error) {
	switch c := DetailColumn(s); c {
	case DetailTime, DetailDamage, DetailType:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDetailColumn, s)
}

// DetailSort is the detail table ordering.
type DetailSort struct {
	Column DetailColumn `json:"column"`
	Desc   bool         `json:"desc"`
}

// DefaultDetailSort orders by time, oldest first.
var DefaultDetailSort = DetailSort{Column: DetailTime}

// Toggle returns the sort after clicking col: the same column flips
// direction, a new column starts descending, except time which starts
// ascending.
func (s DetailSort) Toggle(col DetailColumn) DetailSort {
	if s.Column == col {
		return DetailSort{Column: col, Desc: !s.Desc}
	}
	return DetailSort{Column: col, Desc: col != DetailTime}
}

// DetailRow is one event of the detail table.
type DetailRow struct {
	Time      string `json:"time"`
	Timestamp string `json:"timestamp"`
	Damage    int64  `json:"damage"`
	Type      string `json:"type"`
	Color     string `json:"color"`
}

// Point is one event of the detail graph.
type Point struct {
	Label  string `json:"label"`
	Damage int64  `json:"damage"`
	Color  string `json:"color"`
}

// Quantiles summarises the hit damage distribution.
type Quantiles struct {
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
}

// Detail is the drill-down of one skill in the current view.
type Detail struct {
	Skill     string      `json:"skill"`
	Sort      DetailSort  `json:"sort"`
	Totals    Totals      `json:"totals"`
	Rows      []DetailRow `json:"rows"`
	Points    []Point     `json:"points"`
	Quantiles Quantiles   `json:"quantiles"`
}

// Detail returns the drill-down of skill, built from the events that passed
// the view's filter.
func (v View) Detail(skill string, s DetailSort) (Detail, error) {
	sk, ok := v.Skills[skill]
	if !ok || len(sk.Events) == 0 {
		return Detail{}, fmt.Errorf("%w: %q", ErrSkillNotInView, skill)
	}

	rows := append([]model.Event(nil), sk.Events...)
	sort.SliceStable(rows, func(i, j int) bool { return detailLess(rows[i], rows[j], s) })

	byTime := append([]model.Event(nil), sk.Events...)
	sort.SliceStable(byTime, func(i, j int) bool { return byTime[i].Timestamp < byTime[j].Timestamp })

	d := Detail{
		Skill:     skill,
		Sort:      s,
		Totals:    sk.Totals,
		Rows:      make([]DetailRow, 0, len(rows)),
		Points:    make([]Point, 0, len(byTime)),
		Quantiles: quantiles(sk.Events),
	}
	for _, ev := range rows {
		cat := ev.Category()
		d.Rows = append(d.Rows, DetailRow{
			Time:      shortTime(ev.Timestamp, "-"),
			Timestamp: ev.Timestamp,
			Damage:    ev.Damage,
			Type:      cat.Label(),
			Color:     cat.Color(),
		})
	}
	for _, ev := range byTime {
		d.Points = append(d.Points, Point{
			Label:  shortTime(ev.Timestamp, ""),
			Damage: ev.Damage,
			Color:  ev.Category().Color(),
		})
	}
	return d, nil
}

func detailLess(a, b model.Event, s DetailSort) bool {
	var c int
	switch s.Column {
	case DetailDamage:
		c = cmpFloat(float64(a.Damage), float64(b.Damage))
	case DetailType:
		c = cmpFloat(float64(a.Category()), float64(b.Category()))
	default:
		c = strings.Compare(a.Timestamp, b.Timestamp)
	}
	if s.Desc {
		return c > 0
	}
	return c < 0
}

// shortTime returns the clock part of a timestamp, or fallback when the
// timestamp has no date separator.
func shortTime(ts, fallback string) string {
	if _, clock, ok := strings.Cut(ts, "-"); ok {
		return clock
	}
	return fallback
}

func quantiles(events []model.Event) Quantiles {
	td := tdigest.NewWithCompression(100)
	for _, ev := range events {
		td.Add(float64(ev.Damage), 1)
	}
	return Quantiles{Median: td.Quantile(0.5), P95: td.Quantile(0.95)}
}
