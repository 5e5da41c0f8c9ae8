package app

import (
	"context"
	"fmt"
	"time"

	"github.com/covermapio/api/internal/infra/redis"
	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/shared"
	"github.com/covermapio/api/pkg/logger"
)

// accountSnapshot is the cacheable form of a subscription.
type accountSnapshot struct {
	ID                     string        `json:"id"`
	Provider               string        `json:"provider"`
	Owner                  string        `json:"owner"`
	Plan                   *planSnapshot `json:"plan"`
	Seats                  int           `json:"seats"`
	ActivatedUserCount     int           `json:"activated_user_count"`
	InactiveUserCount      int           `json:"inactive_user_count"`
	TrialStatus            string        `json:"trial_status"`
	TrialEndAt             *time.Time    `json:"trial_end_at"`
	DefaultPaymentMethod   bool          `json:"default_payment_method"`
	PendingVerificationURL string        `json:"pending_verification_url"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`
}

func snapshotSubscription(sub *account.Subscription) accountSnapshot {
	snap := accountSnapshot{
		ID:                     sub.ID().String(),
		Provider:               sub.Provider(),
		Owner:                  sub.Owner(),
		Seats:                  sub.Seats(),
		ActivatedUserCount:     sub.ActivatedUserCount(),
		InactiveUserCount:      sub.InactiveUserCount(),
		TrialStatus:            sub.TrialStatus().String(),
		TrialEndAt:             sub.TrialEndAt(),
		DefaultPaymentMethod:   sub.DefaultPaymentMethod(),
		PendingVerificationURL: sub.PendingVerificationURL(),
		CreatedAt:              sub.CreatedAt(),
		UpdatedAt:              sub.UpdatedAt(),
	}
	if sub.Plan() != nil {
		ps := snapshotPlan(sub.Plan())
		snap.Plan = &ps
	}
	return snap
}

func (s accountSnapshot) restore() (*account.Subscription, error) {
	id, err := shared.IDFromString(s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cached subscription id: %w", err)
	}
	var p *plan.Plan
	if s.Plan != nil {
		p = s.Plan.restore()
	}
	return account.Reconstitute(
		id,
		s.Provider,
		s.Owner,
		p,
		s.Seats,
		s.ActivatedUserCount,
		s.InactiveUserCount,
		account.ParseTrialStatus(s.TrialStatus),
		s.TrialEndAt,
		s.DefaultPaymentMethod,
		s.PendingVerificationURL,
		s.CreatedAt,
		s.UpdatedAt,
	), nil
}

// AccountService serves subscription state, backed by a Redis cache over
// the database row.
type AccountService struct {
	repo   account.Repository
	cache  *redis.Cache[accountSnapshot]
	logger *logger.Logger
}

// NewAccountService creates a new AccountService. The cache is optional.
func NewAccountService(repo account.Repository, cache *redis.Cache[accountSnapshot], log *logger.Logger) *AccountService {
	return &AccountService{
		repo:   repo,
		cache:  cache,
		logger: log.With("service", "account"),
	}
}

// NewAccountCache builds the subscription cache used by NewAccountService.
func NewAccountCache(client *redis.Client) (*redis.Cache[accountSnapshot], error) {
	return redis.NewCache[accountSnapshot](client, "account", 5*time.Minute)
}

func accountCacheKey(provider, owner string) string {
	return provider + ":" + owner
}

// GetAccount retrieves the subscription for an owner.
func (s *AccountService) GetAccount(ctx context.Context, provider, owner string) (*account.Subscription, error) {
	if s.cache == nil {
		return s.repo.GetByOwner(ctx, provider, owner)
	}

	snap, err := s.cache.GetOrSetFallback(ctx, accountCacheKey(provider, owner), func(ctx context.Context) (*accountSnapshot, error) {
		sub, err := s.repo.GetByOwner(ctx, provider, owner)
		if err != nil {
			return nil, err
		}
		sn := snapshotSubscription(sub)
		return &sn, nil
	})
	if err != nil {
		return nil, err
	}
	return snap.restore()
}

// InvalidateAccount drops the cached subscription for an owner.
func (s *AccountService) InvalidateAccount(ctx context.Context, provider, owner string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, accountCacheKey(provider, owner)); err != nil {
		s.logger.Warn("failed to invalidate account cache",
			"provider", provider,
			"owner", owner,
			"error", err,
		)
	}
}

// SyncAccount re-reads the subscription from the database and re-caches
// it. Runs as a background job after upgrades.
func (s *AccountService) SyncAccount(ctx context.Context, provider, owner string) error {
	sub, err := s.repo.GetByOwner(ctx, provider, owner)
	if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, accountCacheKey(provider, owner), snapshotSubscription(sub)); err != nil {
			return fmt.Errorf("failed to cache subscription: %w", err)
		}
	}
	return nil
}

// StartTrialInput is the input for starting a trial.
type StartTrialInput struct {
	Provider string `validate:"required,provider"`
	Owner    string `validate:"required"`
	Days     int    `validate:"required,min=1,max=90"`
}

// StartTrial opens a trial window on the owner's subscription.
func (s *AccountService) StartTrial(ctx context.Context, input StartTrialInput) (*account.Subscription, error) {
	sub, err := s.repo.GetByOwner(ctx, input.Provider, input.Owner)
	if err != nil {
		return nil, err
	}
	if sub.TrialStatus() != account.TrialNotStarted {
		return nil, fmt.Errorf("%w: trial already used", shared.ErrConflict)
	}

	sub.StartTrial(input.Days)
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.InvalidateAccount(ctx, input.Provider, input.Owner)
	s.logger.Info("trial started",
		"provider", input.Provider,
		"owner", input.Owner,
		"days", input.Days,
	)
	return sub, nil
}

// ExpireDueTrials closes all trials whose window has passed. Returns the
// number of subscriptions updated.
func (s *AccountService) ExpireDueTrials(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireTrialsDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire trials: %w", err)
	}
	if n > 0 {
		s.logger.Info("trials expired", "count", n)
	}
	return n, nil
}
