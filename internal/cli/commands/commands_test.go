package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dpsmeter/internal/cli/output"
	"github.com/okian/dpsmeter/internal/domain/stats"
	"github.com/okian/dpsmeter/internal/domain/window"
)

const raidLog = `// raid night
20240101-10:00:00:000,DamageDone,Slash,1,100,1,0,0,Alice,Boss
20240101-10:00:10:000,DamageDone,Slash,1,200,0,1,0,Alice,Boss
20240101-10:00:20:000,DamageDone,Kick,1,300,1,1,0,Alice,Boss
20240101-10:00:05:000,DamageDone,Stab,1,50,0,0,0,Bob,Boss
20240101-10:00:15:000,DamageDone,Stab,1,50,0,0,0,Bob,Boss
20240101-10:00:00:000,DamageDone,Fireball,1,500,0,0,0,Carol,Adds
20240101-10:00:00:000,HealDone,Mend,1,500,0,0,0,Carol,Alice
short,line
`

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DPSMETER_CONFIG", "")
	t.Setenv("DPSMETER_DOTENV", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DPSMETER_TIMEZONE", "UTC")
	t.Setenv("DPSMETER_LOG_LEVEL", "error")
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func runCommand(args ...string) (string, error) {
	cmd := NewReportCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportCommand(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	raid := writeLog(t, dir, "raid.log", raidLog)

	Convey("Given a raid log", t, func() {
		Convey("When reporting on Boss as text", func() {
			out, err := runCommand(raid, "--target", "Boss")

			Convey("Then the table and summary cover every source", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "=== DPS Report: Boss / all (normalized) ===")
				So(out, ShouldContainSubstring, "Slash")
				So(out, ShouldContainSubstring, "Stab")
				So(out, ShouldContainSubstring, "Total damage: 700")
				So(out, ShouldContainSubstring, "Parsed: 1 files, 8 lines, 6 events, 2 skipped")
				So(out, ShouldNotContainSubstring, "Fireball")
			})
		})

		Convey("When no target is given", func() {
			out, err := runCommand(raid)

			Convey("Then the first target is used", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Adds / all")
				So(out, ShouldContainSubstring, "Fireball")
			})
		})

		Convey("When reporting one source as JSON sorted by hits ascending", func() {
			out, err := runCommand(raid, "--target", "Boss", "--source", "Alice", "--sort", "hits:asc", "-o", "json")
			So(err, ShouldBeNil)

			var rep output.Report
			So(json.Unmarshal([]byte(out), &rep), ShouldBeNil)

			Convey("Then only that source is counted in the requested order", func() {
				So(rep.Target, ShouldEqual, "Boss")
				So(rep.Source, ShouldEqual, "Alice")
				So(rep.Summary.TotalDamage, ShouldEqual, 600)
				So(len(rep.Rows), ShouldEqual, 2)
				So(rep.Rows[0].Skill, ShouldEqual, "Kick")
				So(rep.Rows[1].Skill, ShouldEqual, "Slash")
				So(rep.Targets, ShouldResemble, []string{"Adds", "Boss"})
			})
		})

		Convey("When a range is given", func() {
			out, err := runCommand(raid, "--target", "Boss", "--range", "0:5", "-o", "json")
			So(err, ShouldBeNil)

			var rep output.Report
			So(json.Unmarshal([]byte(out), &rep), ShouldBeNil)

			Convey("Then only hits inside it are counted", func() {
				So(rep.Summary.TotalDamage, ShouldEqual, 150)
				So(rep.Filter, ShouldEqual, "0.0s - 5.0s")
				So(rep.Range, ShouldNotBeNil)
				So(rep.Range.End, ShouldEqual, 5.0)
			})
		})

		Convey("When the detail of a skill is requested", func() {
			out, err := runCommand(raid, "--target", "Boss", "--detail", "Slash")

			Convey("Then every hit is listed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "[Slash] 300 damage in 2 hits")
			})
		})

		Convey("When the detail skill has no hits", func() {
			out, err := runCommand(raid, "--target", "Boss", "--detail", "Fireball")

			Convey("Then the report says so", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, `Skill "Fireball" has no hits in this view`)
			})
		})

		Convey("When quiet output is requested", func() {
			out, err := runCommand(raid, "--target", "Boss", "-q")

			Convey("Then only the summary is printed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldStartWith, "---")
				So(out, ShouldNotContainSubstring, "Slash")
			})
		})

		Convey("When a PNG is requested", func() {
			png := filepath.Join(dir, "dps.png")
			_, err := runCommand(raid, "--target", "Boss", "--png", png)

			Convey("Then the chart is written", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(png)
				So(readErr, ShouldBeNil)
				So(bytes.HasPrefix(data, []byte("\x89PNG")), ShouldBeTrue)
			})
		})
	})
}

func TestReportCommandGlobs(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	lines := strings.Split(strings.TrimSpace(raidLog), "\n")
	writeLog(t, dir, "a.log", strings.Join(lines[:4], "\n"))
	writeLog(t, dir, "b.log", strings.Join(lines[4:], "\n"))

	Convey("Given logs split across files", t, func() {
		out, err := runCommand(filepath.Join(dir, "*.log"), "--target", "Boss", "-o", "json")
		So(err, ShouldBeNil)

		var rep output.Report
		So(json.Unmarshal([]byte(out), &rep), ShouldBeNil)

		Convey("Then the glob is expanded and the files are merged", func() {
			So(len(rep.Files), ShouldEqual, 2)
			So(rep.Summary.TotalDamage, ShouldEqual, 700)
		})
	})
}

func TestReportCommandErrors(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	raid := writeLog(t, dir, "raid.log", raidLog)

	Convey("Given invalid flags", t, func() {
		Convey("An unknown target is rejected", func() {
			_, err := runCommand(raid, "--target", "Nobody")
			So(errors.Is(err, ErrUnknownTarget), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Adds, Boss")
		})

		Convey("An unknown output format is rejected", func() {
			_, err := runCommand(raid, "-o", "xml")
			So(errors.Is(err, output.ErrUnknownFormat), ShouldBeTrue)
		})

		Convey("A bad mode is rejected", func() {
			_, err := runCommand(raid, "--mode", "sideways")
			So(err, ShouldNotBeNil)
		})

		Convey("A reversed range is rejected", func() {
			_, err := runCommand(raid, "--range", "9:1")
			So(err, ShouldNotBeNil)
		})

		Convey("A non-finite range is rejected before rendering", func() {
			for _, rng := range []string{"NaN:NaN", "0:Inf"} {
				_, err := runCommand(raid, "--range", rng, "-o", "json")
				So(errors.Is(err, window.ErrInvalidRange), ShouldBeTrue)
			}
		})

		Convey("A missing file is reported", func() {
			_, err := runCommand(filepath.Join(dir, "nope.log"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "reading log files")
		})

		Convey("No arguments is a usage error", func() {
			_, err := runCommand()
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		in      string
		want    stats.Sort
		wantErr bool
	}{
		{"damage", stats.Sort{Column: stats.ColumnDamage, Desc: true}, false},
		{"hits:asc", stats.Sort{Column: stats.ColumnHits}, false},
		{"name", stats.Sort{Column: stats.ColumnName}, false},
		{"name:desc", stats.Sort{Column: stats.ColumnName, Desc: true}, false},
		{"critHeavy:DESC", stats.Sort{Column: stats.ColumnCritHeavy, Desc: true}, false},
		{"hits:up", stats.Sort{}, true},
		{"mana", stats.Sort{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSort(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSort(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSort(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	Convey("Given the version command", t, func() {
		cmd := NewVersionCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})

		So(cmd.Execute(), ShouldBeNil)
		So(out.String(), ShouldEqual, "dpsmeter dev\n")
	})
}
