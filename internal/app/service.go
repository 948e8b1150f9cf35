// Package service provides the session service behind the HTTP API and the
// report CLI: the uploaded file list plus the current view state.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/dpsmeter/internal/adapters/chartpng"
	"github.com/okian/dpsmeter/internal/adapters/ingest"
	"github.com/okian/dpsmeter/internal/adapters/repository"
	"github.com/okian/dpsmeter/internal/domain/aggregate"
	"github.com/okian/dpsmeter/internal/domain/model"
	"github.com/okian/dpsmeter/internal/domain/parser"
	"github.com/okian/dpsmeter/internal/domain/view"
	"github.com/okian/dpsmeter/pkg/logger"
	"github.com/okian/dpsmeter/pkg/metrics"
)

// Overlay is the pixel rectangle of the committed range over the chart area.
type Overlay struct {
	Visible bool    `json:"visible"`
	Left    float64 `json:"left"`
	Width   float64 `json:"width"`
}

// Service serialises triggers and renders the session.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	parser   *parser.Parser
	reader   *ingest.Reader
	renderer *chartpng.Renderer

	// Configuration
	maxFiles        int
	normalize       bool
	intervalSeconds int

	// State
	state     view.State
	started   bool
	ownsStore bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		normalize:       true,
		intervalSeconds: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = parser.New()
	}
	if s.reader == nil {
		s.reader = ingest.New()
	}
	if s.renderer == nil {
		s.renderer = chartpng.New()
	}
	s.state = view.New(s.normalize, s.intervalSeconds)
	return s
}

// Start initializes the file store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx, repository.WithMaxFiles(s.maxFiles))
		s.ownsStore = true
	}

	s.started = true
	s.logger.Info(ctx, "session service started",
		logger.Bool("normalize", s.normalize),
		logger.Int("interval_seconds", s.intervalSeconds),
		logger.Int("max_files", s.maxFiles),
	)
	return nil
}

// Stop releases the file store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.ownsStore {
		if closer, ok := s.store.(io.Closer); ok {
			_ = closer.Close()
		}
		s.store = nil
		s.ownsStore = false
	}
	s.started = false
	s.logger.Info(context.Background(), "session service stopped")
}

// Upload is one named file body.
type Upload struct {
	Name string
	Body io.Reader
}

// UploadFile reads src and adds it as a new file.
func (s *Service) UploadFile(ctx context.Context, name string, src io.Reader) (model.File, error) {
	files, err := s.UploadFiles(ctx, []Upload{{Name: name, Body: src}})
	if err != nil {
		return model.File{}, err
	}
	return files[0], nil
}

// UploadFiles reads every upload before storing any of them. Either every
// file is stored or none is.
func (s *Service) UploadFiles(ctx context.Context, uploads []Upload) ([]model.File, error) {
	docs := make([]ingest.Document, 0, len(uploads))
	for _, u := range uploads {
		doc, err := s.reader.ReadUpload(u.Name, u.Body)
		if err != nil {
			metrics.RecordErrorByComponent("service", "read")
			return nil, err
		}
		docs = append(docs, doc)
	}
	return s.addDocuments(ctx, docs)
}

// Preload reads every path concurrently and adds the files.
func (s *Service) Preload(ctx context.Context, paths []string) ([]model.File, error) {
	docs, err := s.reader.ReadFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	return s.addDocuments(ctx, docs)
}

// AddFile stores lines as a new file and resets the target and source.
func (s *Service) AddFile(ctx context.Context, name string, lines []string) (model.File, error) {
	files, err := s.addDocuments(ctx, []ingest.Document{{Name: name, Lines: lines}})
	if err != nil {
		return model.File{}, err
	}
	return files[0], nil
}

// addDocuments stores docs under one lock and rolls back the batch when any
// add fails.
func (s *Service) addDocuments(ctx context.Context, docs []ingest.Document) ([]model.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	files := make([]model.File, 0, len(docs))
	for _, doc := range docs {
		f, err := s.store.Add(ctx, doc.Name, doc.Lines)
		if err != nil {
			for _, added := range files {
				_, _ = s.store.Remove(ctx, added.ID)
			}
			return nil, fmt.Errorf("add file %s: %w", doc.Name, err)
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return files, nil
	}
	s.state = s.state.FilesAdded()

	for _, f := range files {
		_, rep := s.parser.ParseLines(f.Lines)
		recordParse(rep)
		metrics.RecordFileUploaded()
		s.logger.Info(ctx, "file added",
			logger.String("id", f.ID),
			logger.String("name", f.Name),
			logger.Int("lines", rep.Lines),
			logger.Int("events", rep.Events),
			logger.Int("skipped", rep.Skipped()),
		)
	}
	metrics.UpdateStoredFiles(s.store.Count(ctx))
	return files, nil
}

// RemoveFile deletes a file. Removing the last file resets the view.
func (s *Service) RemoveFile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	f, err := s.store.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("remove file %s: %w", id, err)
	}
	remaining := s.store.Count(ctx)
	s.state = s.state.FilesRemoved(remaining)

	metrics.RecordFileRemoved()
	metrics.UpdateStoredFiles(remaining)
	s.logger.Info(ctx, "file removed",
		logger.String("id", f.ID),
		logger.String("name", f.Name),
		logger.Int("remaining", remaining),
	)
	return nil
}

// Files lists the uploaded files in upload order.
func (s *Service) Files(ctx context.Context) ([]view.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return nil, ErrNotStarted
	}
	files := s.store.List(ctx)
	out := make([]view.FileInfo, 0, len(files))
	for _, f := range files {
		out = append(out, view.FileInfo{ID: f.ID, Name: f.Name, UploadedAt: f.UploadedAt, Lines: len(f.Lines)})
	}
	return out, nil
}

// View renders the current state.
func (s *Service) View(ctx context.Context) (view.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return view.Snapshot{}, ErrNotStarted
	}
	return s.render(ctx), nil
}

// Apply runs one trigger and renders the resulting state. An invalid action
// leaves the state unchanged.
func (s *Service) Apply(ctx context.Context, a Action) (view.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return view.Snapshot{}, ErrNotStarted
	}
	current := s.render(ctx)
	next, err := apply(s.state, a, current.Chart)
	if err != nil {
		s.logger.Debug(ctx, "action rejected", logger.String("type", a.Type), logger.Error(err))
		metrics.RecordErrorByComponent("service", "action")
		return current, err
	}
	metrics.RecordAction(a.Type)
	s.state = next
	return s.render(ctx), nil
}

// Overlay projects the committed range onto a chart area spanning left to
// right pixels.
func (s *Service) Overlay(ctx context.Context, left, right float64) (Overlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return Overlay{}, ErrNotStarted
	}
	if right <= left {
		return Overlay{}, fmt.Errorf("%w: chart area right must exceed left", ErrInvalidAction)
	}
	snap := s.render(ctx)
	if snap.State.Range == nil || snap.Chart.Empty() {
		return Overlay{}, nil
	}
	l, w, ok := snap.Chart.Axis(left, right).Overlay(*snap.State.Range)
	return Overlay{Visible: ok, Left: l, Width: w}, nil
}

// ChartPNG writes the current chart as a PNG image.
func (s *Service) ChartPNG(ctx context.Context, w io.Writer) error {
	snap, err := s.View(ctx)
	if err != nil {
		return err
	}
	return s.renderer.Render(w, snap.Chart, snap.State.Range)
}

// render rebuilds the index from the stored files and stores the effective
// state. Callers hold s.mu.
func (s *Service) render(ctx context.Context) view.Snapshot {
	start := time.Now()
	files := s.store.List(ctx)
	idx, rep := aggregate.Build(files, s.parser)
	snap := view.RenderIndex(idx, rep, files, s.state)
	s.state = snap.State

	metrics.RecordRebuildDuration(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateTargets(len(snap.Targets))
	metrics.UpdateSources(snap.Upload.Players)
	return snap
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"normalize":        s.state.Normalize,
		"interval_seconds": s.state.IntervalSeconds,
		"target":           s.state.Target,
		"source":           s.state.Source,
		"range_set":        s.state.Range != nil,
	}
	if s.started {
		ctx := context.Background()
		files := s.store.List(ctx)
		lines := 0
		for _, f := range files {
			lines += len(f.Lines)
		}
		stats["files"] = len(files)
		stats["lines"] = lines
	}
	return stats
}

func recordParse(rep parser.Report) {
	metrics.RecordLinesParsed(rep.Lines)
	metrics.RecordEventsIngested(rep.Events)
	metrics.RecordLinesSkipped("short", rep.SkippedShort)
	metrics.RecordLinesSkipped("other_type", rep.SkippedOtherType)
	metrics.RecordFieldsDefaulted("timestamp", rep.DefaultedTimestamp)
	metrics.RecordFieldsDefaulted("damage", rep.DefaultedDamage)
}
