package loggen

import (
	"context"
	"fmt"
	"slices"

	"github.com/okian/dpsmeter/pkg/logger"
)

// targetTotals reads the unfiltered all-sources totals of every target in
// want from the server. Targets the server does not know report zero.
func targetTotals(ctx context.Context, c *HTTPClient, want map[string]Totals) (map[string]Totals, error) {
	if _, err := c.Action(ctx, map[string]any{"type": "reset_filter"}); err != nil {
		return nil, err
	}
	out := make(map[string]Totals, len(want))
	for target := range want {
		v, err := c.Action(ctx, map[string]any{"type": "select_target", "target": target})
		if err != nil {
			return nil, err
		}
		if v.State.Target != target || !slices.Contains(v.Targets, target) {
			out[target] = Totals{}
			continue
		}
		out[target] = Totals{Damage: v.Summary.TotalDamage, Hits: v.Summary.Hits}
	}
	return out, nil
}

// verify checks that every target gained exactly the generated damage.
func verify(ctx context.Context, before, after, generated map[string]Totals, stats *Stats) error {
	var mismatches []string
	for target, gen := range generated {
		got := Totals{
			Damage: after[target].Damage - before[target].Damage,
			Hits:   after[target].Hits - before[target].Hits,
		}
		if got != gen {
			mismatches = append(mismatches, fmt.Sprintf("%s: got %d damage in %d hits, want %d in %d",
				target, got.Damage, got.Hits, gen.Damage, gen.Hits))
			continue
		}
		stats.TargetsVerified++
		logger.Get().Debug(ctx, "target verified",
			logger.String("target", target),
			logger.Int64("damage", gen.Damage),
			logger.Int("hits", gen.Hits))
	}
	if len(mismatches) > 0 {
		slices.Sort(mismatches)
		return fmt.Errorf("%w: %v", ErrMismatch, mismatches)
	}
	return nil
}
