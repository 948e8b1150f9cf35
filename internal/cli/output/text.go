package output

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
)

// TextFormatter formats reports as aligned text tables.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatSummary(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintf(w, "=== DPS Report: %s / %s (%s) ===\n", orDash(report.Target), orDash(report.Source), report.Mode)
	if report.Filter != "" {
		fmt.Fprintf(w, "Filter: %s\n", report.Filter)
	}
	if report.RangeModeMismatch {
		fmt.Fprintln(w, "Warning: range was taken in the other time mode")
	}
	fmt.Fprintln(w)

	if report.Empty != "" {
		fmt.Fprintln(w, report.Empty)
		fmt.Fprintln(w)
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "Skill\tDamage\tShare\tHits\tCrit\tHeavy\tCrit heavy\tDPS\t")
		for _, r := range report.Rows {
			fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%d\t%.1f%%\t%.1f%%\t%.1f%%\t%.1f\t\n",
				r.Skill, r.Damage, r.Share, r.Hits, r.CritRate, r.HeavyRate, r.CritHeavyRate, r.DPS)
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("flush table: %w", err)
		}
		fmt.Fprintln(w)
	}

	if err := f.formatSummary(report, w); err != nil {
		return err
	}
	if err := f.formatDetail(report, w); err != nil {
		return err
	}
	p := report.Parse
	fmt.Fprintf(w, "Parsed: %d files, %d lines, %d events, %d skipped, %d defaulted timestamps, %d defaulted damage\n",
		len(report.Files), p.Lines, p.Events, p.Skipped(), p.DefaultedTimestamp, p.DefaultedDamage)
	return nil
}

func (f *TextFormatter) formatSummary(report *Report, w io.Writer) error {
	s := report.Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Total damage: %d  DPS: %.1f  Combat time: %.1fs\n", s.TotalDamage, s.DPS, s.CombatSeconds)
	fmt.Fprintf(w, "Hits: %d  Average hit: %.1f\n", s.Hits, s.AvgHit)
	fmt.Fprintf(w, "Critical: %d (%.1f%%)  Heavy: %d (%.1f%%)  Crit heavy: %d (%.1f%%)  Normal: %d\n",
		s.Critical, s.CriticalPct, s.Heavy, s.HeavyPct, s.CritHeavy, s.CritHeavyPct, s.Normal)
	return nil
}

func (f *TextFormatter) formatDetail(report *Report, w io.Writer) error {
	if report.DetailMissing != "" {
		fmt.Fprintf(w, "\nSkill %q has no hits in this view\n", report.DetailMissing)
		return nil
	}
	d := report.Detail
	if d == nil {
		return nil
	}
	fmt.Fprintf(w, "\n[%s] %d damage in %d hits, median %.0f, p95 %.0f\n",
		d.Skill, d.Totals.Damage, d.Totals.Hits, d.Quantiles.Median, d.Quantiles.P95)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Time\tDamage\tType\t")
	for _, r := range d.Rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", r.Time, r.Damage, r.Type)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush detail: %w", err)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
