package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gathered(reg *prometheus.Registry) map[string]float64 {
	out := map[string]float64{}
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

// withManager swaps the global manager for one on a fresh registry.
func withManager(opts ...Option) (*prometheus.Registry, func()) {
	reg := prometheus.NewRegistry()
	prev := globalManager
	globalManager = NewManager(append(opts, WithPrometheusRegistry(reg))...)
	return reg, func() { globalManager = prev }
}

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			reg := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(reg),
			)

			Convey("Then metrics are registered under the namespace", func() {
				So(m, ShouldNotBeNil)
				m.filesUploaded.Inc()
				families, err := reg.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, mf := range families {
					names[mf.GetName()] = true
				}
				So(names["test_unit_files_uploaded_total"], ShouldBeTrue)
			})
		})

		Convey("When options get empty values", func() {
			reg := prometheus.NewRegistry()
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil),
				WithCustomLabels(nil), WithPrometheusRegistry(reg))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "dpsmeter")
				So(m.subsystem, ShouldEqual, "analyzer")
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(m.customLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given a fresh global manager", t, func() {
		reg, restore := withManager()
		defer restore()

		Convey("When recording file and parse metrics", func() {
			RecordFileUploaded()
			RecordFileUploaded()
			RecordFileRemoved()
			UpdateStoredFiles(1)
			UpdateStoredLines(42)
			RecordLinesParsed(42)
			RecordEventsIngested(40)
			RecordLinesSkipped("short", 1)
			RecordLinesSkipped("other_type", 1)
			RecordLinesSkipped("short", 0)
			RecordFieldsDefaulted("timestamp", 3)

			Convey("Then the values are exposed", func() {
				got := gathered(reg)
				So(got["dpsmeter_analyzer_files_uploaded_total"], ShouldEqual, 2)
				So(got["dpsmeter_analyzer_files_removed_total"], ShouldEqual, 1)
				So(got["dpsmeter_analyzer_stored_lines"], ShouldEqual, 42)
				So(got["dpsmeter_analyzer_events_ingested_total"], ShouldEqual, 40)
				So(got["dpsmeter_analyzer_lines_skipped_total"], ShouldEqual, 2)
				So(got["dpsmeter_analyzer_fields_defaulted_total"], ShouldEqual, 3)
			})
		})

		Convey("When recording render and HTTP metrics", func() {
			RecordRebuildDuration(1.5)
			RecordChartRenderDuration(3)
			RecordAction("drag")
			UpdateTargets(2)
			UpdateSources(5)
			RecordRepositoryLatency("add", 0.1)
			RecordHTTPRequest("/api/view", "GET", "200")
			RecordHTTPRequestDuration("/api/view", "GET", "200", 2)
			RecordErrorByComponent("api", "bad_request")
			RecordErrorByEndpoint("/api/actions", "POST", "bad_request")

			Convey("Then the values are exposed", func() {
				got := gathered(reg)
				So(got["dpsmeter_analyzer_rebuild_duration_milliseconds"], ShouldEqual, 1)
				So(got["dpsmeter_analyzer_actions_total"], ShouldEqual, 1)
				So(got["dpsmeter_analyzer_sources"], ShouldEqual, 5)
				So(got["dpsmeter_analyzer_http_requests_total"], ShouldEqual, 1)
				So(got["dpsmeter_analyzer_errors_by_endpoint_total"], ShouldEqual, 1)
			})
		})

		Convey("When recording system metrics", func() {
			UpdateSystemMemoryUsage(1 << 20)
			UpdateSystemGoroutineCount(12)
			RecordSystemGCPauseTime(0.25)

			Convey("Then the values are exposed", func() {
				got := gathered(reg)
				So(got["dpsmeter_analyzer_memory_usage_bytes"], ShouldEqual, 1<<20)
				So(got["dpsmeter_analyzer_goroutine_count"], ShouldEqual, 12)
				So(got["dpsmeter_analyzer_gc_pause_time_milliseconds"], ShouldEqual, 1)
			})
		})

		Convey("When recording is disabled", func() {
			SetEnabled(false)
			RecordFileUploaded()
			SetEnabled(true)

			Convey("Then nothing is counted", func() {
				So(gathered(reg)["dpsmeter_analyzer_files_uploaded_total"], ShouldEqual, 0)
			})
		})
	})
}

func TestConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		reg, restore := withManager()
		defer restore()

		Convey("When recording metrics concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						RecordEventsIngested(1)
						RecordHTTPRequest("/test", "GET", "200")
					}
				}()
			}
			wg.Wait()

			Convey("Then every increment is counted", func() {
				got := gathered(reg)
				So(got["dpsmeter_analyzer_events_ingested_total"], ShouldEqual, 1000)
				So(got["dpsmeter_analyzer_http_requests_total"], ShouldEqual, 1000)
			})
		})
	})
}
