// Package window converts event instants into relative seconds and filters
// events against the active time range.
package window

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/dpsmeter/internal/domain/aggregate"
	"github.com/okian/dpsmeter/internal/domain/model"
)

// Mode selects the time origin used for relative seconds.
type Mode int

const (
	// Normalized measures each event from its own source scope's first event.
	Normalized Mode = iota
	// Absolute measures every event from the target's earliest event.
	Absolute
)

// String returns the mode's wire name.
func (m Mode) String() string {
	if m == Absolute {
		return "absolute"
	}
	return "normalized"
}

// ParseMode accepts "normalized" or "absolute", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normalized", "normalised", "":
		return Normalized, nil
	case "absolute", "shared":
		return Absolute, nil
	default:
		return Normalized, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ModeFor maps the UI's normalize toggle to a Mode.
func ModeFor(normalize bool) Mode {
	if normalize {
		return Normalized
	}
	return Absolute
}

// Range is an inclusive window in relative seconds.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Width returns End-Start.
func (r Range) Width() float64 { return r.End - r.Start }

// Contains reports whether sec lies in [Start, End].
func (r Range) Contains(sec float64) bool { return sec >= r.Start && sec <= r.End }

// ParseRange parses "start:end" in seconds, e.g. "10:25.5".
func ParseRange(s string) (Range, error) {
	lo, hi, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return Range{}, fmt.Errorf("%w: %q: want start:end", ErrInvalidRange, s)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start: %v", ErrInvalidRange, err)
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: end: %v", ErrInvalidRange, err)
	}
	if !finite(start) || !finite(end) {
		return Range{}, fmt.Errorf("%w: bounds must be finite", ErrInvalidRange)
	}
	if end < start {
		return Range{}, fmt.Errorf("%w: end %g before start %g", ErrInvalidRange, end, start)
	}
	return Range{Start: start, End: end}, nil
}

// Valid reports whether both bounds are finite and End >= Start.
func (r Range) Valid() bool {
	return finite(r.Start) && finite(r.End) && r.End >= r.Start
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Origin returns the instant relative seconds are measured from.
func Origin(mode Mode, scope *aggregate.Scope, targetMin int64) int64 {
	if mode == Normalized && scope != nil {
		return scope.Min
	}
	return targetMin
}

// RelativeSeconds returns (instant-origin)/1000.
func RelativeSeconds(instant, origin int64) float64 {
	return float64(instant-origin) / 1000
}

// InRange reports whether ev passes rng. A nil range passes everything;
// undated events have no position and fail any explicit range.
func InRange(ev model.Event, origin int64, rng *Range) bool {
	if rng == nil {
		return true
	}
	if ev.Undated {
		return false
	}
	return rng.Contains(RelativeSeconds(ev.Instant, origin))
}

// Filter binds a mode, range and target origin into a per-scope predicate.
type Filter struct {
	Mode      Mode
	Range     *Range
	TargetMin int64
}

// Pass reports whether ev, taken from scope, passes the filter.
func (f Filter) Pass(scope *aggregate.Scope, ev model.Event) bool {
	return InRange(ev, Origin(f.Mode, scope, f.TargetMin), f.Range)
}
