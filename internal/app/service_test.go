package service_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/dpsmeter/internal/adapters/ingest"
	"github.com/okian/dpsmeter/internal/adapters/repository"
	service "github.com/okian/dpsmeter/internal/app"
	"github.com/okian/dpsmeter/internal/domain/parser"
	"github.com/okian/dpsmeter/internal/domain/stats"
	"github.com/okian/dpsmeter/internal/domain/view"
	"github.com/okian/dpsmeter/internal/domain/window"
	"github.com/okian/dpsmeter/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// Two sources on Boss: Alice over 20s, Bob over 10s. Carol hits Adds.
var raidLines = []string{
	"20240101-10:00:00:000,DamageDone,Slash,1,100,1,0,0,Alice,Boss",
	"20240101-10:00:10:000,DamageDone,Slash,1,200,0,1,0,Alice,Boss",
	"20240101-10:00:20:000,DamageDone,Kick,1,300,1,1,0,Alice,Boss",
	"20240101-10:00:05:000,DamageDone,Stab,1,50,0,0,0,Bob,Boss",
	"20240101-10:00:15:000,DamageDone,Stab,1,50,0,0,0,Bob,Boss",
	"20240101-10:00:00:000,DamageDone,Fireball,1,500,0,0,0,Carol,Adds",
	"20240101-10:00:00:000,HealDone,Mend,1,500,0,0,0,Carol,Alice",
	"short,line",
}

func startedService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{
		service.WithParser(parser.New(parser.WithLocation(time.UTC))),
	}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When it is not started", func() {
			_, err := svc.View(ctx)

			Convey("Then calls fail with ErrNotStarted", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.AddFile(ctx, "a.log", raidLines)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When starting and stopping the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["files"], ShouldEqual, 0)

			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Files(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When nothing is uploaded", func() {
			snap, err := svc.View(ctx)

			Convey("Then the snapshot is the no-files empty state", func() {
				So(err, ShouldBeNil)
				So(snap.Empty, ShouldEqual, view.EmptyNoFiles)
				So(snap.Rows, ShouldBeEmpty)
				So(snap.Chart.Empty(), ShouldBeTrue)
			})
		})

		Convey("When a file is uploaded", func() {
			f, err := svc.UploadFile(ctx, "raid.log", strings.NewReader(strings.Join(raidLines, "\n")))
			So(err, ShouldBeNil)
			snap, err := svc.View(ctx)
			So(err, ShouldBeNil)

			Convey("Then the first target and all sources are shown", func() {
				So(snap.Targets, ShouldResemble, []string{"Adds", "Boss"})
				So(snap.State.Target, ShouldEqual, "Adds")
				So(snap.State.Source, ShouldEqual, stats.AllSources)
				So(snap.Upload.Files, ShouldEqual, 1)
				So(snap.Upload.Players, ShouldEqual, 3)
				So(snap.Parse.SkippedShort, ShouldEqual, 1)
				So(snap.Parse.SkippedOtherType, ShouldEqual, 1)
			})

			Convey("Then the file is listed", func() {
				files, err := svc.Files(ctx)
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 1)
				So(files[0].ID, ShouldEqual, f.ID)
				So(files[0].Lines, ShouldEqual, len(raidLines))
			})

			Convey("And the last file is removed", func() {
				_, err := svc.Apply(ctx, service.Action{Type: service.ActionSetRange, Range: &window.Range{Start: 0, End: 5}})
				So(err, ShouldBeNil)
				So(svc.RemoveFile(ctx, f.ID), ShouldBeNil)
				snap, err := svc.View(ctx)
				So(err, ShouldBeNil)

				Convey("Then target, source and range are reset", func() {
					So(snap.Empty, ShouldEqual, view.EmptyNoFiles)
					So(snap.State.Target, ShouldEqual, "")
					So(snap.State.Source, ShouldEqual, stats.AllSources)
					So(snap.State.Range, ShouldBeNil)
				})
			})

			Convey("And an unknown file is removed", func() {
				err := svc.RemoveFile(ctx, "nope")

				Convey("Then ErrNotFound is returned", func() {
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})
			})
		})

		Convey("When an upload selection is active and another file arrives", func() {
			_, err := svc.AddFile(ctx, "a.log", raidLines)
			So(err, ShouldBeNil)
			_, err = svc.Apply(ctx, service.Action{Type: service.ActionSelectTarget, Target: "Boss"})
			So(err, ShouldBeNil)
			_, err = svc.Apply(ctx, service.Action{Type: service.ActionSelectSource, Source: "Bob"})
			So(err, ShouldBeNil)
			_, err = svc.Apply(ctx, service.Action{Type: service.ActionSetRange, Range: &window.Range{Start: 0, End: 10}})
			So(err, ShouldBeNil)

			_, err = svc.AddFile(ctx, "b.log", raidLines[:1])
			So(err, ShouldBeNil)
			snap, err := svc.View(ctx)
			So(err, ShouldBeNil)

			Convey("Then target and source reset but the range stays", func() {
				So(snap.State.Target, ShouldEqual, "Adds")
				So(snap.State.Source, ShouldEqual, stats.AllSources)
				So(snap.State.Range, ShouldNotBeNil)
			})
		})
	})
}

func TestService_Actions(t *testing.T) {
	Convey("Given a service with a raid loaded on Boss", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()
		_, err := svc.AddFile(ctx, "raid.log", raidLines)
		So(err, ShouldBeNil)
		snap, err := svc.Apply(ctx, service.Action{Type: service.ActionSelectTarget, Target: "Boss"})
		So(err, ShouldBeNil)

		Convey("Then the skill table covers both sources", func() {
			So(snap.Sources, ShouldResemble, []string{"Alice", "Bob"})
			So(snap.Rows, ShouldHaveLength, 3)
			So(snap.Rows[0].Skill, ShouldEqual, "Kick")
			So(snap.Summary.TotalDamage, ShouldEqual, 700)
			So(snap.Chart.Series, ShouldHaveLength, 2)
		})

		Convey("When selecting a source", func() {
			snap, err := svc.Apply(ctx, service.Action{Type: service.ActionSelectSource, Source: "Bob"})

			Convey("Then the table narrows but the chart keeps every source", func() {
				So(err, ShouldBeNil)
				So(snap.Rows, ShouldHaveLength, 1)
				So(snap.Rows[0].Skill, ShouldEqual, "Stab")
				So(snap.Chart.Series, ShouldHaveLength, 2)
			})
		})

		Convey("When sorting by name twice", func() {
			_, err := svc.Apply(ctx, service.Action{Type: service.ActionSort, Column: "name"})
			So(err, ShouldBeNil)
			snap, err := svc.Apply(ctx, service.Action{Type: service.ActionSort, Column: "name"})

			Convey("Then the order flips to descending names", func() {
				So(err, ShouldBeNil)
				So(snap.State.Sort, ShouldResemble, stats.Sort{Column: stats.ColumnName, Desc: true})
				So(snap.Rows[0].Skill, ShouldEqual, "Stab")
			})
		})

		Convey("When dragging across the chart", func() {
			// Normalized axis: Alice spans 20s, so 5 buckets of 5s.
			So(snap.Chart.Count(), ShouldEqual, 5)
			snap, err := svc.Apply(ctx, service.Action{Type: service.ActionDrag, Left: 0, Right: 400, StartX: 0, EndX: 100})

			Convey("Then the range covers the first bucket span", func() {
				So(err, ShouldBeNil)
				So(snap.State.Range, ShouldResemble, &window.Range{Start: 0, End: 5})
				So(snap.Filter, ShouldEqual, "0.0s - 5.0s")
				So(snap.Summary.TotalDamage, ShouldEqual, 150)
				So(snap.Chart.Count(), ShouldEqual, 5)
			})

			Convey("Then the overlay projects the range back", func() {
				o, err := svc.Overlay(ctx, 0, 400)
				So(err, ShouldBeNil)
				So(o.Visible, ShouldBeTrue)
				So(o.Left, ShouldAlmostEqual, 0)
				So(o.Width, ShouldAlmostEqual, 100)
			})

			Convey("And the time mode flips", func() {
				f := false
				snap, err := svc.Apply(ctx, service.Action{Type: service.ActionSetNormalize, Normalize: &f})

				Convey("Then the range is kept and the mismatch reported", func() {
					So(err, ShouldBeNil)
					So(snap.State.Range, ShouldNotBeNil)
					So(snap.RangeModeMismatch, ShouldBeTrue)
				})
			})

			Convey("And the filter is reset", func() {
				snap, err := svc.Apply(ctx, service.Action{Type: service.ActionResetFilter})

				So(err, ShouldBeNil)
				So(snap.State.Range, ShouldBeNil)
				So(snap.Summary.TotalDamage, ShouldEqual, 700)
			})
		})

		Convey("When the drag is too short", func() {
			snap, err := svc.Apply(ctx, service.Action{Type: service.ActionDrag, Left: 0, Right: 400, StartX: 100, EndX: 105})

			Convey("Then no range is committed", func() {
				So(err, ShouldBeNil)
				So(snap.State.Range, ShouldBeNil)
			})
		})

		Convey("When opening a skill detail", func() {
			snap, err := svc.Apply(ctx, service.Action{Type: service.ActionOpenDetail, Skill: "Slash"})
			So(err, ShouldBeNil)

			Convey("Then the detail lists the skill's hits by time", func() {
				So(snap.Detail, ShouldNotBeNil)
				So(snap.Detail.Rows, ShouldHaveLength, 2)
				So(snap.Detail.Rows[0].Time, ShouldEqual, "10:00:00:000")
			})

			Convey("And switching to graph then re-opening keeps the graph mode", func() {
				_, err := svc.Apply(ctx, service.Action{Type: service.ActionDetailView, Mode: "graph"})
				So(err, ShouldBeNil)
				_, err = svc.Apply(ctx, service.Action{Type: service.ActionCloseDetail})
				So(err, ShouldBeNil)
				snap, err := svc.Apply(ctx, service.Action{Type: service.ActionOpenDetail, Skill: "Kick"})
				So(err, ShouldBeNil)
				So(snap.State.Detail.Mode, ShouldEqual, view.DetailGraph)
			})

			Convey("And sorting the detail by damage", func() {
				snap, err := svc.Apply(ctx, service.Action{Type: service.ActionSortDetail, Column: "damage"})
				So(err, ShouldBeNil)
				So(snap.Detail.Rows[0].Damage, ShouldEqual, 200)
			})
		})

		Convey("When an action is invalid", func() {
			before, _ := svc.View(ctx)
			_, errUnknown := svc.Apply(ctx, service.Action{Type: "explode"})
			_, errColumn := svc.Apply(ctx, service.Action{Type: service.ActionSort, Column: "bogus"})
			_, errNorm := svc.Apply(ctx, service.Action{Type: service.ActionSetNormalize})
			_, errNaN := svc.Apply(ctx, service.Action{Type: service.ActionSetRange, Range: &window.Range{Start: math.NaN(), End: math.NaN()}})
			_, errInf := svc.Apply(ctx, service.Action{Type: service.ActionSetRange, Range: &window.Range{Start: 0, End: math.Inf(1)}})
			after, _ := svc.View(ctx)

			Convey("Then it is rejected and the state is unchanged", func() {
				So(errors.Is(errUnknown, service.ErrUnknownAction), ShouldBeTrue)
				So(errors.Is(errColumn, service.ErrInvalidAction), ShouldBeTrue)
				So(errors.Is(errNorm, service.ErrInvalidAction), ShouldBeTrue)
				So(errors.Is(errNaN, service.ErrInvalidAction), ShouldBeTrue)
				So(errors.Is(errInf, service.ErrInvalidAction), ShouldBeTrue)
				So(after.State, ShouldResemble, before.State)
			})
		})

		Convey("When rendering the chart as PNG", func() {
			var buf bytes.Buffer
			err := svc.ChartPNG(ctx, &buf)

			So(err, ShouldBeNil)
			_, err = png.Decode(&buf)
			So(err, ShouldBeNil)
		})
	})
}

func TestService_Preload(t *testing.T) {
	Convey("Given log files on disk", t, func() {
		dir := t.TempDir()
		a := filepath.Join(dir, "a.log")
		b := filepath.Join(dir, "b.log")
		So(os.WriteFile(a, []byte(strings.Join(raidLines[:3], "\n")), 0o600), ShouldBeNil)
		So(os.WriteFile(b, []byte(strings.Join(raidLines[3:], "\n")), 0o600), ShouldBeNil)

		svc := startedService(service.WithReader(ingest.New(ingest.WithConcurrency(2))))
		defer svc.Stop()

		Convey("When they are preloaded", func() {
			files, err := svc.Preload(context.Background(), []string{a, b})

			Convey("Then both are stored in path order", func() {
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 2)
				So(files[0].Name, ShouldEqual, "a.log")
				So(svc.GetStats()["files"], ShouldEqual, 2)
			})
		})
	})
}

func TestService_UploadFiles(t *testing.T) {
	body := strings.Join(raidLines, "\n")
	ctx := context.Background()

	Convey("Given a service that holds at most two files", t, func() {
		svc := startedService(service.WithMaxFiles(2))
		defer svc.Stop()

		Convey("When three files arrive in one batch", func() {
			files, err := svc.UploadFiles(ctx, []service.Upload{
				{Name: "a.log", Body: strings.NewReader(body)},
				{Name: "b.log", Body: strings.NewReader(body)},
				{Name: "c.log", Body: strings.NewReader(body)},
			})

			Convey("Then none of them is stored", func() {
				So(errors.Is(err, repository.ErrTooManyFiles), ShouldBeTrue)
				So(files, ShouldBeNil)
				stored, _ := svc.Files(ctx)
				So(stored, ShouldBeEmpty)
			})
		})

		Convey("When two files arrive in one batch", func() {
			files, err := svc.UploadFiles(ctx, []service.Upload{
				{Name: "a.log", Body: strings.NewReader(body)},
				{Name: "b.log", Body: strings.NewReader(body)},
			})

			Convey("Then both are stored in order", func() {
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 2)
				So(files[1].Name, ShouldEqual, "b.log")
			})
		})
	})

	Convey("Given a service whose reader caps file size", t, func() {
		svc := startedService(service.WithReader(ingest.New(ingest.WithMaxBytes(64))))
		defer svc.Stop()

		Convey("When a later file in the batch is too large", func() {
			_, err := svc.UploadFiles(ctx, []service.Upload{
				{Name: "small.log", Body: strings.NewReader(raidLines[0])},
				{Name: "big.log", Body: strings.NewReader(body)},
			})

			Convey("Then the earlier file is not stored either", func() {
				So(errors.Is(err, ingest.ErrTooLarge), ShouldBeTrue)
				stored, _ := svc.Files(ctx)
				So(stored, ShouldBeEmpty)
			})
		})
	})
}

func TestService_Concurrency(t *testing.T) {
	Convey("Given a started service under concurrent triggers", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = svc.AddFile(ctx, "f.log", raidLines)
				_, _ = svc.Apply(ctx, service.Action{Type: service.ActionSort, Column: "hits"})
				_, _ = svc.View(ctx)
			}(i)
		}
		wg.Wait()

		Convey("Then every file is stored", func() {
			files, err := svc.Files(ctx)
			So(err, ShouldBeNil)
			So(files, ShouldHaveLength, 8)
		})
	})
}
