package window

import "math"

// MinDragPixels is the shortest drag that counts as a selection.
const MinDragPixels = 10

// Axis maps between chart pixels, bucket indexes and relative seconds.
//
// The horizontal scale is a category scale with Count labels spread evenly
// from Left (index 0) to Right (index Count-1). Selection and Overlay both go
// through IndexForPixel/PixelForIndex so the two directions stay consistent.
type Axis struct {
	Left            float64 `json:"left"`
	Right           float64 `json:"right"`
	Count           int     `json:"count"`
	IntervalSeconds int     `json:"interval_seconds"`
}

// Valid reports whether the axis has a drawable area and at least one bucket.
func (a Axis) Valid() bool {
	return a.Right > a.Left && a.Count > 0 && a.IntervalSeconds > 0
}

func (a Axis) span() float64 {
	if a.Count <= 1 {
		return 1
	}
	return float64(a.Count - 1)
}

// IndexForPixel returns the nearest category index for px.
func (a Axis) IndexForPixel(px float64) int {
	width := a.Right - a.Left
	if width <= 0 {
		return 0
	}
	return int(math.Round((px - a.Left) * a.span() / width))
}

// PixelForIndex returns the pixel of a possibly fractional index.
func (a Axis) PixelForIndex(idx float64) float64 {
	return a.Left + idx*(a.Right-a.Left)/a.span()
}

// SecondsForIndex returns index * interval.
func (a Axis) SecondsForIndex(idx int) float64 {
	return float64(idx * a.IntervalSeconds)
}

// IndexForSeconds returns the fractional index of sec.
func (a Axis) IndexForSeconds(sec float64) float64 {
	if a.IntervalSeconds <= 0 {
		return 0
	}
	return sec / float64(a.IntervalSeconds)
}

// Selection turns a drag from startX to endX into a range. It reports false
// for drags shorter than MinDragPixels and for drags that fall outside the
// chart area once clamped.
func (a Axis) Selection(startX, endX float64) (Range, bool) {
	if !a.Valid() || math.Abs(endX-startX) < MinDragPixels {
		return Range{}, false
	}
	lo := math.Max(math.Min(startX, endX), a.Left)
	hi := math.Min(math.Max(startX, endX), a.Right)
	if lo >= hi {
		return Range{}, false
	}
	return Range{
		Start: a.SecondsForIndex(a.IndexForPixel(lo)),
		End:   a.SecondsForIndex(a.IndexForPixel(hi)),
	}, true
}

// Overlay projects r back onto the chart and returns the left edge and width
// of the selection rectangle, clamped to the chart area.
func (a Axis) Overlay(r Range) (left, width float64, ok bool) {
	if !a.Valid() {
		return 0, 0, false
	}
	p1 := a.PixelForIndex(a.IndexForSeconds(r.Start))
	p2 := a.PixelForIndex(a.IndexForSeconds(r.End))
	left = math.Min(p1, p2)
	width = math.Abs(p2 - p1)
	if math.IsNaN(left) || math.IsNaN(width) {
		return 0, 0, false
	}
	if left < a.Left {
		width -= a.Left - left
		left = a.Left
	}
	if left+width > a.Right {
		width = a.Right - left
	}
	if width < 0 {
		width = 0
	}
	return left, width, true
}
