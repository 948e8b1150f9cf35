package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts ...Option) *MemoryStore {
	t.Helper()
	n := 0
	base := []Option{
		WithIDGenerator(func() string { n++; return fmt.Sprintf("f%d", n) }),
		WithClock(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }),
	}
	s := NewMemoryStore(context.Background(), append(base, opts...)...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemoryStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	lines := []string{"a", "b"}
	f, err := store.Add(ctx, "raid.log", lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ID != "f1" || f.Name != "raid.log" || len(f.Lines) != 2 {
		t.Errorf("unexpected file %+v", f)
	}
	if !f.UploadedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("unexpected upload time %v", f.UploadedAt)
	}

	// Stored lines are a copy.
	lines[0] = "mutated"
	got, err := store.Get(ctx, "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Lines[0] != "a" {
		t.Errorf("store shares caller's slice: %q", got.Lines[0])
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_RemoveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, name := range []string{"one", "two", "three", "four"} {
		if _, err := store.Add(ctx, name, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	removed, err := store.Remove(ctx, "f2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed.Name != "two" {
		t.Errorf("expected to remove two, got %s", removed.Name)
	}

	list := store.List(ctx)
	want := []string{"one", "three", "four"}
	if len(list) != len(want) {
		t.Fatalf("expected %d files, got %d", len(want), len(list))
	}
	for i, f := range list {
		if f.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], f.Name)
		}
	}

	// Index stays valid after the shift.
	if f, err := store.Get(ctx, "f4"); err != nil || f.Name != "four" {
		t.Errorf("expected four, got %+v (%v)", f, err)
	}

	if _, err := store.Remove(ctx, "f2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestMemoryStore_MaxFiles(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, WithMaxFiles(1))

	if _, err := store.Add(ctx, "one", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Add(ctx, "two", nil); !errors.Is(err, ErrTooManyFiles) {
		t.Errorf("expected ErrTooManyFiles, got %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestMemoryStore_ListIsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, _ = store.Add(ctx, "one", nil)

	list := store.List(ctx)
	_, _ = store.Add(ctx, "two", nil)

	if len(list) != 1 {
		t.Errorf("snapshot changed after add: %d files", len(list))
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	defer func() { _ = store.Close() }()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				f, err := store.Add(ctx, fmt.Sprintf("w%d-%d", w, i), []string{"x"})
				if err != nil {
					t.Errorf("add: %v", err)
					return
				}
				if i%2 == 0 {
					if _, err := store.Remove(ctx, f.ID); err != nil {
						t.Errorf("remove: %v", err)
					}
				}
				_ = store.List(ctx)
			}
		}(w)
	}
	wg.Wait()

	if count := store.Count(ctx); count != workers*perWorker/2 {
		t.Errorf("expected %d files, got %d", workers*perWorker/2, count)
	}
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore(context.Background())
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}
