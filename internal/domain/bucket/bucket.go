// Package bucket groups a target's damage into fixed-width time buckets, one
// DPS series per source.
package bucket

import (
	"math"
	"strconv"

	"github.com/okian/dpsmeter/internal/domain/aggregate"
	"github.com/okian/dpsmeter/internal/domain/window"
)

// DefaultIntervalSeconds is used when the requested interval is not positive.
const DefaultIntervalSeconds = 5

// MaxBuckets bounds the axis length; events past the last bucket are dropped
// from the chart and the chart is marked truncated.
const MaxBuckets = 20000

// Series style.
const (
	BorderWidth = 2
	PointRadius = 0
)

// Palette is cycled by series index.
var Palette = []string{
	"#4caf50", "#2196f3", "#ff9800", "#e91e63", "#9c27b0",
	"#00bcd4", "#cddc39", "#795548", "#607d8b",
}

// Series is one source's DPS per bucket.
type Series struct {
	Label       string    `json:"label"`
	Data        []float64 `json:"data"`
	Color       string    `json:"color"`
	BorderWidth int       `json:"border_width"`
	PointRadius int       `json:"point_radius"`
}

// Chart is the DPS-over-time chart of one target.
type Chart struct {
	Labels          []string `json:"labels"`
	Series          []Series `json:"series"`
	IntervalSeconds int      `json:"interval_seconds"`
	Truncated       bool     `json:"truncated,omitempty"`
}

// Empty reports whether the chart has nothing to draw.
func (c Chart) Empty() bool { return len(c.Series) == 0 }

// Count returns the number of buckets.
func (c Chart) Count() int { return len(c.Labels) }

// Axis returns the pixel mapping of the chart drawn between left and right.
func (c Chart) Axis(left, right float64) window.Axis {
	return window.Axis{Left: left, Right: right, Count: c.Count(), IntervalSeconds: c.IntervalSeconds}
}

// Interval returns seconds, or DefaultIntervalSeconds when seconds <= 0.
func Interval(seconds int) int {
	if seconds <= 0 {
		return DefaultIntervalSeconds
	}
	return seconds
}

// Build buckets every source of target, regardless of which source the table
// is showing. The bucket axis is shared by all series.
func Build(idx *aggregate.Index, target string, mode window.Mode, intervalSeconds int) Chart {
	interval := Interval(intervalSeconds)
	chart := Chart{IntervalSeconds: interval}
	if idx == nil {
		return chart
	}
	sources := idx.Sources(target)
	if len(sources) == 0 {
		return chart
	}

	globalMin, globalMax, _ := idx.TargetBounds(target)
	var axisMs int64
	if mode == window.Normalized {
		for _, src := range sources {
			if span := idx.Scope(target, src).Span(); span > axisMs {
				axisMs = span
			}
		}
	} else {
		axisMs = globalMax - globalMin
	}

	widthMs := int64(interval) * 1000
	buckets := math.Ceil(float64(axisMs)/float64(widthMs)) + 1
	count := MaxBuckets
	if buckets <= MaxBuckets {
		count = int(buckets)
	} else {
		chart.Truncated = true
	}

	chart.Labels = make([]string, count)
	for i := range chart.Labels {
		chart.Labels[i] = strconv.Itoa(i*interval) + "s"
	}

	for i, src := range sources {
		scope := idx.Scope(target, src)
		origin := window.Origin(mode, scope, globalMin)
		damage := make([]int64, count)
		for _, events := range scope.Skills {
			for _, ev := range events {
				if ev.Undated {
					continue
				}
				offset := ev.Instant - origin
				if offset < 0 {
					continue
				}
				if b := offset / widthMs; b < int64(count) {
					damage[b] += ev.Damage
				}
			}
		}

		data := make([]float64, count)
		for b, d := range damage {
			data[b] = float64(d) / float64(interval)
		}
		chart.Series = append(chart.Series, Series{
			Label:       src,
			Data:        data,
			Color:       Palette[i%len(Palette)],
			BorderWidth: BorderWidth,
			PointRadius: PointRadius,
		})
	}
	return chart
}
