// Package parser turns raw combat-log lines into damage events.
//
// Parsing is tolerant: malformed lines are skipped and unparseable numeric or
// timestamp fields default to zero. Nothing in this package returns an error;
// the Report counts what was skipped or defaulted instead.
package parser

import (
	"strings"
	"time"

	"github.com/okian/dpsmeter/internal/domain/model"
)

// Record layout constants.
const (
	fieldSeparator = ","
	minFields      = 10

	fieldTimestamp = 0
	fieldType      = 1
	fieldSkill     = 2
	fieldDamage    = 4
	fieldCritical  = 5
	fieldHeavy     = 6
	fieldSource    = 8
	fieldTarget    = 9

	DefaultCommentPrefix = "//"
)

// Report summarises what a parse pass kept, skipped and defaulted.
type Report struct {
	Lines              int `json:"lines"`
	Events             int `json:"events"`
	SkippedShort       int `json:"skipped_short"`
	SkippedOtherType   int `json:"skipped_other_type"`
	DefaultedTimestamp int `json:"defaulted_timestamp"`
	DefaultedDamage    int `json:"defaulted_damage"`
}

// Skipped returns the number of lines that produced no event.
func (r Report) Skipped() int { return r.SkippedShort + r.SkippedOtherType }

// Add merges other into r.
func (r *Report) Add(other Report) {
	r.Lines += other.Lines
	r.Events += other.Events
	r.SkippedShort += other.SkippedShort
	r.SkippedOtherType += other.SkippedOtherType
	r.DefaultedTimestamp += other.DefaultedTimestamp
	r.DefaultedDamage += other.DefaultedDamage
}

// Parser parses damage records.
type Parser struct {
	loc           *time.Location
	eventTag      string
	commentPrefix string
}

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithLocation sets the calendar used to interpret timestamps.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithEventTag overrides the event-type value that marks damage records.
func WithEventTag(tag string) Option {
	return func(p *Parser) {
		if tag != "" {
			p.eventTag = tag
		}
	}
}

// WithCommentPrefix overrides the marker of comment lines.
func WithCommentPrefix(prefix string) Option {
	return func(p *Parser) {
		if prefix != "" {
			p.commentPrefix = prefix
		}
	}
}

// New creates a Parser with defaults: local time, DamageDone, "//" comments.
func New(opts ...Option) *Parser {
	p := &Parser{
		loc:           time.Local,
		eventTag:      model.DamageTag,
		commentPrefix: DefaultCommentPrefix,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SplitLines splits file content into data lines, dropping empty and comment
// lines. A trailing carriage return is stripped from every line.
func (p *Parser) SplitLines(content string) []string {
	return SplitLines(content, p.commentPrefix)
}

// SplitLines splits content on newlines and drops empty lines and lines
// starting with commentPrefix.
func SplitLines(content, commentPrefix string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if commentPrefix != "" && strings.HasPrefix(line, commentPrefix) {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseLine parses one line. It reports false for lines with fewer than ten
// fields or a different event type.
func (p *Parser) ParseLine(line string) (model.Event, bool) {
	ev, _, ok := p.parseLine(line)
	return ev, ok
}

// lineResult records why a line was skipped or which fields were defaulted.
type lineResult struct {
	short, otherType             bool
	defaultedTS, defaultedDamage bool
}

func (p *Parser) parseLine(line string) (model.Event, lineResult, bool) {
	var res lineResult
	parts := strings.Split(line, fieldSeparator)
	if len(parts) < minFields {
		res.short = true
		return model.Event{}, res, false
	}
	if parts[fieldType] != p.eventTag {
		res.otherType = true
		return model.Event{}, res, false
	}

	ts := parts[fieldTimestamp]
	instant, ok := parseTimestamp(ts, p.loc)
	if !ok {
		instant = 0
		res.defaultedTS = true
	}

	damage, ok := leadingInt(parts[fieldDamage])
	if !ok || damage < 0 {
		damage = 0
		res.defaultedDamage = true
	}

	return model.Event{
		Instant:   instant,
		Timestamp: ts,
		Damage:    damage,
		Critical:  flag(parts[fieldCritical]),
		Heavy:     flag(parts[fieldHeavy]),
		Skill:     parts[fieldSkill],
		Source:    parts[fieldSource],
		Target:    parts[fieldTarget],
		Undated:   res.defaultedTS,
	}, res, true
}

// ParseLines parses every line and returns the events together with a report.
func (p *Parser) ParseLines(lines []string) ([]model.Event, Report) {
	events := make([]model.Event, 0, len(lines))
	var rep Report
	for _, line := range lines {
		rep.Lines++
		ev, res, ok := p.parseLine(line)
		switch {
		case res.short:
			rep.SkippedShort++
		case res.otherType:
			rep.SkippedOtherType++
		}
		if !ok {
			continue
		}
		if res.defaultedTS {
			rep.DefaultedTimestamp++
		}
		if res.defaultedDamage {
			rep.DefaultedDamage++
		}
		rep.Events++
		events = append(events, ev)
	}
	return events, rep
}

// Location returns the calendar used for timestamps.
func (p *Parser) Location() *time.Location { return p.loc }

func flag(s string) bool {
	v, ok := leadingInt(s)
	return ok && v != 0
}
