package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dpsmeter/internal/domain/stats"
	"github.com/okian/dpsmeter/internal/domain/view"
	"github.com/okian/dpsmeter/internal/domain/window"
)

func sampleReport() *Report {
	return &Report{
		Files:   []string{"raid.log"},
		Targets: []string{"Boss"},
		Target:  "Boss",
		Source:  stats.AllSources,
		Mode:    window.Normalized,
		Summary: stats.Summary{TotalDamage: 300, DPS: 15, CombatSeconds: 20, Hits: 2, AvgHit: 150},
		Rows: []stats.Row{
			{Skill: "Slash", Damage: 300, Share: 100, Hits: 2, CritRate: 50, DPS: 15},
		},
	}
}

func TestNewFormatter(t *testing.T) {
	Convey("Given format names", t, func() {
		Convey("text and the empty name give the text formatter", func() {
			f, err := NewFormatter("text", FormatOptions{})
			So(err, ShouldBeNil)
			So(f.Name(), ShouldEqual, "text")

			f, err = NewFormatter("", FormatOptions{})
			So(err, ShouldBeNil)
			So(f.Name(), ShouldEqual, "text")
		})

		Convey("json gives the JSON formatter", func() {
			f, err := NewFormatter("json", FormatOptions{})
			So(err, ShouldBeNil)
			So(f.Name(), ShouldEqual, "json")
		})

		Convey("anything else is rejected", func() {
			_, err := NewFormatter("yaml", FormatOptions{})
			So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
		})
	})
}

func TestTextFormatter(t *testing.T) {
	Convey("Given a report", t, func() {
		ctx := context.Background()
		var buf bytes.Buffer

		Convey("When formatted in full", func() {
			So(NewTextFormatter(FormatOptions{}).Format(ctx, sampleReport(), &buf), ShouldBeNil)
			out := buf.String()

			So(out, ShouldContainSubstring, "=== DPS Report: Boss / all (normalized) ===")
			So(out, ShouldContainSubstring, "Slash")
			So(out, ShouldContainSubstring, "100.0%")
			So(out, ShouldContainSubstring, "Total damage: 300  DPS: 15.0  Combat time: 20.0s")
			So(out, ShouldContainSubstring, "Parsed: 1 files")
		})

		Convey("When the view is empty", func() {
			r := sampleReport()
			r.Target = ""
			r.Rows = nil
			r.Empty = view.EmptyNoFiles
			So(NewTextFormatter(FormatOptions{}).Format(ctx, r, &buf), ShouldBeNil)

			So(buf.String(), ShouldContainSubstring, "=== DPS Report: - / all")
			So(buf.String(), ShouldContainSubstring, view.EmptyNoFiles)
			So(buf.String(), ShouldNotContainSubstring, "Skill")
		})

		Convey("When a range from the other mode is active", func() {
			r := sampleReport()
			r.Filter = "0.0s - 5.0s"
			r.RangeModeMismatch = true
			So(NewTextFormatter(FormatOptions{}).Format(ctx, r, &buf), ShouldBeNil)

			So(buf.String(), ShouldContainSubstring, "Filter: 0.0s - 5.0s")
			So(buf.String(), ShouldContainSubstring, "Warning: range was taken in the other time mode")
		})

		Convey("When quiet", func() {
			So(NewTextFormatter(FormatOptions{Quiet: true}).Format(ctx, sampleReport(), &buf), ShouldBeNil)

			So(buf.String(), ShouldStartWith, "---\n")
			So(buf.String(), ShouldNotContainSubstring, "Slash")
		})
	})
}

func TestJSONFormatter(t *testing.T) {
	Convey("Given a report", t, func() {
		ctx := context.Background()
		var buf bytes.Buffer

		Convey("When formatted in full", func() {
			So(NewJSONFormatter(FormatOptions{}).Format(ctx, sampleReport(), &buf), ShouldBeNil)

			var got map[string]any
			So(json.Unmarshal(buf.Bytes(), &got), ShouldBeNil)
			So(got["target"], ShouldEqual, "Boss")
			So(got["mode"], ShouldEqual, "normalized")
			So(got, ShouldNotContainKey, "range")
		})

		Convey("When quiet only the summary is encoded", func() {
			So(NewJSONFormatter(FormatOptions{Quiet: true}).Format(ctx, sampleReport(), &buf), ShouldBeNil)

			var got stats.Summary
			So(json.Unmarshal(buf.Bytes(), &got), ShouldBeNil)
			So(got.TotalDamage, ShouldEqual, 300)
		})
	})
}
