// Package ingest reads combat-log files from disk or upload streams into
// data lines.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/okian/dpsmeter/internal/domain/parser"
)

// Document is one read file reduced to its data lines.
type Document struct {
	Name  string
	Lines []string
}

// Reader turns raw files into Documents.
type Reader struct {
	concurrency   int
	commentPrefix string
	maxBytes      int64
}

// New creates a Reader.
func New(opts ...Option) *Reader {
	r := &Reader{
		concurrency:   4,
		commentPrefix: parser.DefaultCommentPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadUpload reads one uploaded file.
func (r *Reader) ReadUpload(name string, src io.Reader) (Document, error) {
	if r.maxBytes > 0 {
		src = io.LimitReader(src, r.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrRead, name, err)
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return Document{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, r.maxBytes)
	}
	return Document{Name: name, Lines: parser.SplitLines(string(data), r.commentPrefix)}, nil
}

// ReadFiles reads every path in parallel. Documents keep the order of paths.
// The first failure cancels the remaining reads.
func (r *Reader) ReadFiles(ctx context.Context, paths []string) ([]Document, error) {
	docs := make([]Document, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			doc, err := r.readFile(path)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *Reader) readFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer func() { _ = f.Close() }()
	return r.ReadUpload(filepath.Base(path), f)
}

// ExpandGlobs expands paths and glob patterns into a sorted, deduplicated
// list. Patterns that match nothing are kept as literal paths so the read
// reports them.
func ExpandGlobs(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, ErrNoFiles
	}
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
