package loggen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/dpsmeter/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o640
)

// Run generates logs, writes them to cfg.OutputDir and, when cfg.BaseURL is
// set, uploads them and verifies the server totals.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	stats := Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting log generation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("files", cfg.Files),
		logger.Int("eventsPerFile", cfg.EventsPerFile),
		logger.Int("workers", cfg.Workers),
		logger.String("outputDir", cfg.OutputDir))

	var client *HTTPClient
	if cfg.BaseURL != "" {
		client = NewHTTPClient(cfg.BaseURL, cfg.Timeout)
		if err := client.Health(ctx); err != nil {
			return stats, fmt.Errorf("service health check failed: %w", err)
		}
	}

	res, err := Generate(ctx, cfg)
	if err != nil {
		return stats, err
	}
	stats.FilesGenerated = len(res.Files)
	stats.EventsGenerated = res.Events()

	if cfg.OutputDir != "" {
		n, err := WriteFiles(cfg.OutputDir, res.Files)
		stats.FilesWritten = n
		if err != nil {
			return stats, err
		}
		log.Info(ctx, "logs written", logger.String("dir", cfg.OutputDir), logger.Int("files", n))
	}

	if client != nil {
		if err := uploadAndVerify(ctx, client, cfg, res, &stats); err != nil {
			return stats, err
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func uploadAndVerify(ctx context.Context, client *HTTPClient, cfg Config, res Result, stats *Stats) error {
	before, err := targetTotals(ctx, client, res.Totals)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}

	uploaded := make([]bool, len(res.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, f := range res.Files {
		g.Go(func() error {
			if err := client.Upload(gctx, f); err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			uploaded[i] = true
			return nil
		})
	}
	err = g.Wait()
	for _, ok := range uploaded {
		if ok {
			stats.FilesUploaded++
		}
	}
	if err != nil {
		return err
	}

	after, err := targetTotals(ctx, client, res.Totals)
	if err != nil {
		return fmt.Errorf("verification: %w", err)
	}
	return verify(ctx, before, after, res.Totals, stats)
}

// WriteFiles writes every file into dir, creating it when needed.
func WriteFiles(dir string, files []File) (int, error) {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	for i, f := range files {
		data := strings.Join(f.Lines, "\n") + "\n"
		if err := os.WriteFile(filepath.Join(dir, f.Name), []byte(data), filePermission); err != nil {
			return i, fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	return len(files), nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, stats Stats) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsGenerated) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("filesGenerated", stats.FilesGenerated),
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("filesWritten", stats.FilesWritten),
		logger.Int("filesUploaded", stats.FilesUploaded),
		logger.Int("targetsVerified", stats.TargetsVerified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("eventsPerSecond", eventsPerSecond))
}
