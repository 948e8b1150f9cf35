package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dpsmeter/internal/domain/model"
	"github.com/okian/dpsmeter/pkg/metrics"
)

// MemoryStore keeps uploaded files in memory, in upload order.
type MemoryStore struct {
	mu    sync.RWMutex
	files []model.File
	byID  map[string]int // index into files

	maxFiles              int
	metricsUpdateInterval time.Duration
	now                   func() time.Time
	newID                 func() string

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an in-memory store with configuration options.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:                  make(map[string]int),
		metricsUpdateInterval: 5 * time.Second,
		now:                   time.Now,
		newID:                 uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.stopChan = make(chan struct{})
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics goroutine.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Add implements Store.Add.
func (s *MemoryStore) Add(_ context.Context, name string, lines []string) (model.File, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("add", float64(time.Since(start).Microseconds())/1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxFiles > 0 && len(s.files) >= s.maxFiles {
		metrics.RecordErrorByComponent("repository", "too_many_files")
		return model.File{}, ErrTooManyFiles
	}

	f := model.File{
		ID:         s.newID(),
		Name:       name,
		UploadedAt: s.now(),
		Lines:      append([]string(nil), lines...),
	}
	s.byID[f.ID] = len(s.files)
	s.files = append(s.files, f)
	return f, nil
}

// Remove implements Store.Remove.
func (s *MemoryStore) Remove(_ context.Context, id string) (model.File, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("remove", float64(time.Since(start).Microseconds())/1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.File{}, ErrNotFound
	}
	f := s.files[i]
	s.files = append(s.files[:i:i], s.files[i+1:]...)
	delete(s.byID, id)
	for j := i; j < len(s.files); j++ {
		s.byID[s.files[j].ID] = j
	}
	return f, nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (model.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return model.File{}, ErrNotFound
	}
	return s.files[i], nil
}

// List implements Store.List.
func (s *MemoryStore) List(_ context.Context) []model.File {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryLatency("list", float64(time.Since(start).Microseconds())/1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.File(nil), s.files...)
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// startMetricsUpdater starts a background goroutine that publishes store gauges.
func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	files := len(s.files)
	lines := 0
	for _, f := range s.files {
		lines += len(f.Lines)
	}
	s.mu.RUnlock()

	metrics.UpdateStoredFiles(files)
	metrics.UpdateStoredLines(lines)
}
