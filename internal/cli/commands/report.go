// Package commands implements the dpsmeter subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/dpsmeter/internal/adapters/chartpng"
	"github.com/okian/dpsmeter/internal/adapters/ingest"
	"github.com/okian/dpsmeter/internal/cli/output"
	"github.com/okian/dpsmeter/internal/config"
	"github.com/okian/dpsmeter/internal/domain/model"
	"github.com/okian/dpsmeter/internal/domain/parser"
	"github.com/okian/dpsmeter/internal/domain/stats"
	"github.com/okian/dpsmeter/internal/domain/view"
	"github.com/okian/dpsmeter/internal/domain/window"
	"github.com/okian/dpsmeter/pkg/logger"
)

// ErrUnknownTarget is returned when --target names no target in the logs.
var ErrUnknownTarget = errors.New("unknown target")

// ReportOptions holds command-line options for the report command.
type ReportOptions struct {
	Target   string
	Source   string
	Mode     string
	Interval int
	Range    string
	Sort     string
	Detail   string
	Output   string
	PNG      string
	Quiet    bool
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report <file|glob>...",
		Short: "Print per-skill damage statistics for combat logs",
		Long: `Read combat log files, aggregate DamageDone records and print the skill
table and stats panel for one target and source.

Globs are expanded. Without --target the first target alphabetically is used.

Examples:
  dpsmeter report logs/*.log
  dpsmeter report raid.log --target Boss --source Alice --sort hits:asc
  dpsmeter report raid.log --mode absolute --range 30:90 --png dps.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Target, "target", "", "Target to report on")
	cmd.Flags().StringVar(&opts.Source, "source", stats.AllSources, "Source to report on, or \"all\"")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Time mode (normalized|absolute); defaults to config")
	cmd.Flags().IntVar(&opts.Interval, "interval", 0, "Chart bucket width in seconds; defaults to config")
	cmd.Flags().StringVar(&opts.Range, "range", "", "Time window in relative seconds, start:end")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Table column, optionally with :asc or :desc (e.g. hits:asc)")
	cmd.Flags().StringVar(&opts.Detail, "detail", "", "Also print every hit of this skill")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.PNG, "png", "", "Write the DPS chart to this PNG file")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only")

	return cmd
}

func runReport(cmd *cobra.Command, args []string, opts *ReportOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logger.InitWithWriter(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log := logger.Named("report")

	// Validate flags before touching the disk.
	formatter, err := output.NewFormatter(opts.Output, output.FormatOptions{Quiet: opts.Quiet})
	if err != nil {
		return err
	}
	state, err := buildState(cfg, opts)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	paths, err := ingest.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding log files: %w", err)
	}
	reader := ingest.New(
		ingest.WithConcurrency(cfg.ReadConcurrency),
		ingest.WithCommentPrefix(cfg.CommentPrefix),
	)
	docs, err := reader.ReadFiles(ctx, paths)
	if err != nil {
		return fmt.Errorf("reading log files: %w", err)
	}
	files := make([]model.File, 0, len(docs))
	for _, d := range docs {
		files = append(files, model.File{ID: uuid.NewString(), Name: d.Name, Lines: d.Lines})
	}

	p := parser.New(
		parser.WithLocation(loc),
		parser.WithEventTag(cfg.EventTag),
		parser.WithCommentPrefix(cfg.CommentPrefix),
	)
	snap := view.Render(files, state, p)
	if opts.Target != "" && !slices.Contains(snap.Targets, opts.Target) {
		return fmt.Errorf("%w %q (have %s)", ErrUnknownTarget, opts.Target, strings.Join(snap.Targets, ", "))
	}
	log.Debug(ctx, "report rendered",
		logger.Int("files", len(files)),
		logger.Int("events", snap.Parse.Events),
		logger.String("target", snap.State.Target),
		logger.String("source", snap.State.Source),
	)

	report := output.NewReport(snap, paths)
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.PNG != "" {
		if err := writePNG(opts.PNG, snap); err != nil {
			return err
		}
		log.Info(ctx, "chart written", logger.String("path", opts.PNG))
	}
	return nil
}

// buildState turns config defaults and flags into the view state.
func buildState(cfg *config.Config, opts *ReportOptions) (view.State, error) {
	normalize := cfg.DefaultNormalize
	if opts.Mode != "" {
		mode, err := window.ParseMode(opts.Mode)
		if err != nil {
			return view.State{}, err
		}
		normalize = mode == window.Normalized
	}
	interval := cfg.DefaultIntervalSeconds
	if opts.Interval > 0 {
		interval = opts.Interval
	}

	state := view.New(normalize, interval).
		SelectTarget(opts.Target).
		SelectSource(opts.Source)

	if opts.Sort != "" {
		sort, err := parseSort(opts.Sort)
		if err != nil {
			return view.State{}, err
		}
		state.Sort = sort
	}
	if opts.Range != "" {
		rng, err := window.ParseRange(opts.Range)
		if err != nil {
			return view.State{}, err
		}
		state = state.SetRange(rng)
	}
	if opts.Detail != "" {
		state = state.OpenDetail(opts.Detail)
	}
	return state, nil
}

// parseSort accepts "column", "column:asc" or "column:desc". A bare column
// sorts the way a header click does: name ascending, numbers descending.
func parseSort(s string) (stats.Sort, error) {
	name, dir, _ := strings.Cut(s, ":")
	col, err := stats.ParseColumn(name)
	if err != nil {
		return stats.Sort{}, err
	}
	switch strings.ToLower(dir) {
	case "":
		return stats.Sort{Column: col, Desc: col != stats.ColumnName}, nil
	case "desc":
		return stats.Sort{Column: col, Desc: true}, nil
	case "asc":
		return stats.Sort{Column: col}, nil
	default:
		return stats.Sort{}, fmt.Errorf("sort direction %q: want asc or desc", dir)
	}
}

func writePNG(path string, snap view.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	title := fmt.Sprintf("DPS on %s (%s)", snap.State.Target, snap.Mode)
	r := chartpng.New(chartpng.WithTitle(title))
	if err := r.Render(f, snap.Chart, snap.State.Range); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
