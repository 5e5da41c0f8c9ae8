package repo

import (
	"context"

	"github.com/covermapio/api/pkg/pagination"
)

// Store is the repository-list store. List is cursor-paginated; callers
// must discard cursors whenever the query parameters change.
type Store interface {
	// List returns one page of repositories for an owner.
	List(ctx context.Context, provider, owner string, params QueryParams) (pagination.Page[*Repository], error)

	// GetByName retrieves a single repository by name.
	GetByName(ctx context.Context, provider, owner, name string) (*Repository, error)

	// CountConfigured returns the owner's count of configured repos,
	// feeding the demo-row onboarding heuristic.
	CountConfigured(ctx context.Context, provider, owner string) (int, error)

	// Create persists a repository row. Used by seeding and ingestion.
	Create(ctx context.Context, r *Repository) error
}
