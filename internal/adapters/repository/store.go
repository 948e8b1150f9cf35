// Package repository defines the uploaded file store interface and errors.
package repository

import (
	"context"

	"github.com/okian/dpsmeter/internal/domain/model"
)

// Store provides read/write access to the session's uploaded files.
type Store interface {
	// Add stores a new file and returns it with its assigned ID.
	// Returns ErrTooManyFiles when the store is full.
	Add(ctx context.Context, name string, lines []string) (model.File, error)

	// Remove deletes a file by ID and returns it.
	// Returns ErrNotFound if the ID is unknown.
	Remove(ctx context.Context, id string) (model.File, error)

	// Get returns a file by ID.
	Get(ctx context.Context, id string) (model.File, error)

	// List returns every file in upload order.
	List(ctx context.Context) []model.File

	// Count returns the number of stored files.
	Count(ctx context.Context) int
}
