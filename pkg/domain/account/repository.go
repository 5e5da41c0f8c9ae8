package account

import (
	"context"
	"time"
)

// Repository is the subscription store.
type Repository interface {
	// GetByOwner retrieves the subscription for a (provider, owner) pair.
	GetByOwner(ctx context.Context, provider, owner string) (*Subscription, error)

	// Create persists a new subscription.
	Create(ctx context.Context, sub *Subscription) error

	// Update persists subscription changes.
	Update(ctx context.Context, sub *Subscription) error

	// ExpireTrialsDue marks ongoing trials whose window closed before now
	// as expired, returning the number of rows affected.
	ExpireTrialsDue(ctx context.Context, now time.Time) (int64, error)
}
