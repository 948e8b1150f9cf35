package parser

import (
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp converts a YYYYMMDD-HH:MM:SS:mmm timestamp into milliseconds
// since the Unix epoch, interpreting the wall clock in loc. A nil loc means
// time.Local.
//
// Any missing or non-numeric component yields 0. Out-of-range components
// (month 13, second 61) roll over like calendar arithmetic.
func ParseTimestamp(ts string, loc *time.Location) int64 {
	instant, ok := parseTimestamp(ts, loc)
	if !ok {
		return 0
	}
	return instant
}

func parseTimestamp(ts string, loc *time.Location) (int64, bool) {
	if len(ts) < 9 {
		return 0, false
	}
	if loc == nil {
		loc = time.Local
	}

	year, ok1 := atoiStrict(ts[0:4])
	month, ok2 := atoiStrict(ts[4:6])
	day, ok3 := atoiStrict(ts[6:8])
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}

	parts := strings.Split(ts[9:], ":")
	if len(parts) < 4 {
		return 0, false
	}
	var clock [4]int
	for i := range clock {
		v, ok := atoiStrict(parts[i])
		if !ok {
			return 0, false
		}
		clock[i] = v
	}

	t := time.Date(year, time.Month(month), day, clock[0], clock[1], clock[2], clock[3]*int(time.Millisecond), loc)
	return t.UnixMilli(), true
}

// atoiStrict accepts an optionally signed run of decimal digits surrounded by
// optional whitespace.
func atoiStrict(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// leadingInt scans an optionally signed integer prefix, ignoring leading
// whitespace and anything after the digits ("12abc" -> 12). It reports false
// when no digits are found.
func leadingInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}
