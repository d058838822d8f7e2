package catalog

import (
	"context"

	"github.com/google/uuid"
)

// VideoStore abstracts catalog persistence.
type VideoStore interface {
	// GetByID returns a single video or ErrVideoNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (Video, error)

	// List returns videos newest first, optionally narrowed by filter.
	List(ctx context.Context, filter ListFilter) ([]Video, error)

	// Categories returns the distinct category names present in the
	// catalog, sorted alphabetically.
	Categories(ctx context.Context) ([]string, error)
}
