// Package loggen generates synthetic combat logs, uploads them to a running
// server and checks that the server reports the damage that was written.
package loggen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/dpsmeter/internal/domain/model"
	"github.com/okian/dpsmeter/pkg/logger"
)

// Record generation constants.
const (
	encounterSpacing = 10 * time.Minute
	minGapMillis     = 50
	maxGapMillis     = 800
	skillBaseDamage  = 100
	critChance       = 0.25
	heavyChance      = 0.15
	noiseEvery       = 25
)

// Result is the output of Generate.
type Result struct {
	Files  []File
	Totals map[string]Totals
}

// Events returns the number of damage records across all files.
func (r Result) Events() int {
	n := 0
	for _, t := range r.Totals {
		n += t.Hits
	}
	return n
}

// Validate reports whether cfg can produce logs.
func (c Config) Validate() error {
	switch {
	case c.Files < 1:
		return fmt.Errorf("%w: files must be at least 1", ErrInvalidConfig)
	case c.EventsPerFile < 1:
		return fmt.Errorf("%w: events per file must be at least 1", ErrInvalidConfig)
	case len(c.Targets) == 0, len(c.Sources) == 0, len(c.Skills) == 0:
		return fmt.Errorf("%w: targets, sources and skills must not be empty", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Generate builds cfg.Files logs concurrently. File i only depends on the
// seed and i, so the output is the same for any worker count.
func Generate(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	logger.Get().Info(ctx, "generating combat logs",
		logger.Int("files", cfg.Files),
		logger.Int("eventsPerFile", cfg.EventsPerFile))

	files := make([]File, cfg.Files)
	totals := make([]map[string]Totals, cfg.Files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files[i], totals[i] = generateFile(cfg, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}

	res := Result{Files: files, Totals: map[string]Totals{}}
	for _, t := range totals {
		for target, v := range t {
			sum := res.Totals[target]
			sum.Damage += v.Damage
			sum.Hits += v.Hits
			res.Totals[target] = sum
		}
	}
	return res, nil
}

func generateFile(cfg Config, index int) (File, map[string]Totals) {
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(index)))
	totals := map[string]Totals{}
	lines := make([]string, 0, cfg.EventsPerFile+cfg.EventsPerFile/noiseEvery+2)

	at := cfg.Start.Add(time.Duration(index) * encounterSpacing)
	if cfg.Noise {
		lines = append(lines, fmt.Sprintf("// encounter %d seed %d", index+1, cfg.Seed))
	}

	for n := 0; n < cfg.EventsPerFile; n++ {
		at = at.Add(time.Duration(minGapMillis+rng.IntN(maxGapMillis-minGapMillis)) * time.Millisecond)

		skillIdx := rng.IntN(len(cfg.Skills))
		source := cfg.Sources[rng.IntN(len(cfg.Sources))]
		target := cfg.Targets[rng.IntN(len(cfg.Targets))]
		crit := rng.Float64() < critChance
		heavy := rng.Float64() < heavyChance
		damage := hitDamage(rng, skillIdx, crit, heavy)

		lines = append(lines, Line(at, cfg.Skills[skillIdx], skillIdx, damage, crit, heavy, source, target))
		t := totals[target]
		t.Damage += damage
		t.Hits++
		totals[target] = t

		if cfg.Noise && n%noiseEvery == noiseEvery-1 {
			lines = append(lines, strings.Join([]string{
				timestamp(at), "HealDone", "Mend", "0", strconv.Itoa(rng.IntN(500)), "0", "0", "0", source, source,
			}, ","))
		}
	}
	if cfg.Noise {
		lines = append(lines, "truncated,record")
	}
	return File{Name: fmt.Sprintf("encounter-%03d.log", index+1), Lines: lines}, totals
}

// hitDamage rolls a hit of the skill at skillIdx. Later skills hit harder.
func hitDamage(rng *rand.Rand, skillIdx int, crit, heavy bool) int64 {
	base := skillBaseDamage * (skillIdx + 1)
	dmg := float64(base/2 + rng.IntN(base))
	if crit {
		dmg *= 2
	}
	if heavy {
		dmg *= 1.5
	}
	return int64(dmg)
}

// Line formats one DamageDone record.
func Line(at time.Time, skill string, skillID int, damage int64, crit, heavy bool, source, target string) string {
	return strings.Join([]string{
		timestamp(at),
		model.DamageTag,
		skill,
		strconv.Itoa(skillID),
		strconv.FormatInt(damage, 10),
		flag(crit),
		flag(heavy),
		"0",
		source,
		target,
	}, ",")
}

// timestamp formats t as YYYYMMDD-HH:MM:SS:mmm.
func timestamp(t time.Time) string {
	return fmt.Sprintf("%04d%02d%02d-%02d:%02d:%02d:%03d",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
