// Package model contains domain models passed between layers.
package model

import "time"

// DamageTag is the event-type field value of a damage record.
const DamageTag = "DamageDone"

// Event represents one parsed damage occurrence.
type Event struct {
	Instant   int64  // milliseconds since the Unix epoch, local calendar
	Timestamp string // raw timestamp as it appeared in the log
	Damage    int64  // never negative
	Critical  bool
	Heavy     bool
	Skill     string
	Source    string // actor dealing damage
	Target    string // actor receiving damage
	Undated   bool   // timestamp failed to parse; Instant is 0
}

// Category is the mutually exclusive hit classification of an event.
type Category int

// Categories ordered by sort weight.
const (
	Normal Category = iota
	Heavy
	Critical
	CritHeavy
)

// Category classifies the event. Critical+heavy wins over critical, critical
// over heavy.
func (e Event) Category() Category {
	switch {
	case e.Critical && e.Heavy:
		return CritHeavy
	case e.Critical:
		return Critical
	case e.Heavy:
		return Heavy
	default:
		return Normal
	}
}

// Hit colours shared by the detail view and the browser UI.
const (
	ColorCritical  = "#e79600"
	ColorHeavy     = "#cd84cf"
	ColorCritHeavy = "#ffd700"
	ColorNormal    = "#ffffff"
)

// Label returns the display name of the category.
func (c Category) Label() string {
	switch c {
	case CritHeavy:
		return "Crit + Heavy"
	case Critical:
		return "Critical"
	case Heavy:
		return "Heavy"
	default:
		return "Normal"
	}
}

// Color returns the display colour of the category.
func (c Category) Color() string {
	switch c {
	case CritHeavy:
		return ColorCritHeavy
	case Critical:
		return ColorCritical
	case Heavy:
		return ColorHeavy
	default:
		return ColorNormal
	}
}

// File is an uploaded log file reduced to its data lines.
type File struct {
	ID         string
	Name       string
	UploadedAt time.Time
	Lines      []string // non-empty, non-comment lines
}
