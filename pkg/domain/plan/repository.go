package plan

import "context"

// Repository is the plan catalog store.
type Repository interface {
	// GetByCode retrieves a plan by its stable plan code.
	GetByCode(ctx context.Context, code string) (*Plan, error)

	// List returns the catalog in display order.
	List(ctx context.Context) ([]*Plan, error)

	// Upsert inserts or replaces a catalog entry. Used by seeding.
	Upsert(ctx context.Context, p *Plan) error
}
