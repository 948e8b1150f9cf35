package stats

import (
	"fmt"
	"sort"
	"strings"
)

// Column is a sortable column of the skill table.
type Column string

const (
	ColumnName      Column = "name"
	ColumnDamage    Column = "damage"
	ColumnHits      Column = "hits"
	ColumnCrit      Column = "crit"
	ColumnHeavy     Column = "heavy"
	ColumnCritHeavy Column = "critHeavy"
)

// ParseColumn validates a column name.
func ParseColumn(s string) (Column, error) {
	switch c := Column(s); c {
	case ColumnName, ColumnDamage, ColumnHits, ColumnCrit, ColumnHeavy, ColumnCritHeavy:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, s)
}

// Sort is the skill table ordering.
type Sort struct {
	Column Column `json:"column"`
	Desc   bool   `json:"desc"`
}

// DefaultSort orders by damage, highest first.
var DefaultSort = Sort{Column: ColumnDamage, Desc: true}

// Toggle returns the sort after clicking col: the same column flips
// direction, a new column starts descending, except name which starts
// ascending.
func (s Sort) Toggle(col Column) Sort {
	if s.Column == col {
		return Sort{Column: col, Desc: !s.Desc}
	}
	return Sort{Column: col, Desc: col != ColumnName}
}

// Row is one line of the skill table. Percentages are 0-100.
type Row struct {
	Skill         string  `json:"skill"`
	Damage        int64   `json:"damage"`
	Share         float64 `json:"share_pct"`
	Hits          int     `json:"hits"`
	CritRate      float64 `json:"crit_pct"`
	HeavyRate     float64 `json:"heavy_pct"`
	CritHeavyRate float64 `json:"crit_heavy_pct"`
	DPS           float64 `json:"dps"`
}

// Rows returns the skill table ordered by s.
func (v View) Rows(s Sort) []Row {
	skills := make([]*Skill, 0, len(v.Skills))
	for _, sk := range v.Skills {
		skills = append(skills, sk)
	}
	sort.Slice(skills, func(i, j int) bool { return less(skills[i], skills[j], s) })

	rows := make([]Row, 0, len(skills))
	for _, sk := range skills {
		share := 0.0
		if v.Damage > 0 {
			share = float64(sk.Damage) / float64(v.Damage) * 100
		}
		rows = append(rows, Row{
			Skill:         sk.Name,
			Damage:        sk.Damage,
			Share:         share,
			Hits:          sk.Hits,
			CritRate:      sk.Rate(sk.Critical) * 100,
			HeavyRate:     sk.Rate(sk.Heavy) * 100,
			CritHeavyRate: sk.Rate(sk.CritHeavy) * 100,
			DPS:           float64(sk.Damage) / v.Duration,
		})
	}
	return rows
}

func less(a, b *Skill, s Sort) bool {
	var c int
	switch s.Column {
	case ColumnName:
		c = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case ColumnHits:
		c = cmpFloat(float64(a.Hits), float64(b.Hits))
	case ColumnCrit:
		c = cmpFloat(a.Rate(a.Critical), b.Rate(b.Critical))
	case ColumnHeavy:
		c = cmpFloat(a.Rate(a.Heavy), b.Rate(b.Heavy))
	case ColumnCritHeavy:
		c = cmpFloat(a.Rate(a.CritHeavy), b.Rate(b.CritHeavy))
	default:
		c = cmpFloat(float64(a.Damage), float64(b.Damage))
	}
	if c == 0 {
		return a.Name < b.Name
	}
	if s.Desc {
		return c > 0
	}
	return c < 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Summary is the stats panel of a view. Percentages are 0-100.
type Summary struct {
	TotalDamage   int64   `json:"total_damage"`
	DPS           float64 `json:"dps"`
	CombatSeconds float64 `json:"combat_seconds"`
	Hits          int     `json:"hits"`
	AvgHit        float64 `json:"avg_hit"`
	Critical      int     `json:"critical"`
	CriticalPct   float64 `json:"critical_pct"`
	Heavy         int     `json:"heavy"`
	HeavyPct      float64 `json:"heavy_pct"`
	CritHeavy     int     `json:"crit_heavy"`
	CritHeavyPct  float64 `json:"crit_heavy_pct"`
	Normal        int     `json:"normal"`
}

// Summary returns the view's stats panel.
func (v View) Summary() Summary {
	return Summary{
		TotalDamage:   v.Damage,
		DPS:           v.DPS(),
		CombatSeconds: v.Duration,
		Hits:          v.Hits,
		AvgHit:        v.AvgHit(),
		Critical:      v.Critical,
		CriticalPct:   v.Rate(v.Critical) * 100,
		Heavy:         v.Heavy,
		HeavyPct:      v.Rate(v.Heavy) * 100,
		CritHeavy:     v.CritHeavy,
		CritHeavyPct:  v.Rate(v.CritHeavy) * 100,
		Normal:        v.Normal(),
	}
}
