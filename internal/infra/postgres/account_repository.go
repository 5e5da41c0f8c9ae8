package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/shared"
)

// AccountRepository implements account.Repository using PostgreSQL.
// Subscriptions join their current plan so callers always get the nested
// plan fields in one read.
type AccountRepository struct {
	db    *DB
	plans *PlanRepository
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *DB, plans *PlanRepository) *AccountRepository {
	return &AccountRepository{db: db, plans: plans}
}

const subscriptionColumns = `
	id, provider, owner, plan_code, seats, activated_user_count, inactive_user_count,
	trial_status, trial_end_at, default_payment_method, pending_verification_url,
	created_at, updated_at
`

// GetByOwner retrieves the subscription for a (provider, owner) pair.
func (r *AccountRepository) GetByOwner(ctx context.Context, provider, owner string) (*account.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM account_subscriptions WHERE provider = $1 AND owner = $2`
	row := r.db.QueryRowContext(ctx, query, provider, owner)

	sub, err := r.doScan(ctx, row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.NotFoundError(provider, owner)
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return sub, nil
}

// Create persists a new subscription.
func (r *AccountRepository) Create(ctx context.Context, sub *account.Subscription) error {
	query := `
		INSERT INTO account_subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		sub.ID().String(),
		sub.Provider(),
		sub.Owner(),
		sub.Plan().Code(),
		sub.Seats(),
		sub.ActivatedUserCount(),
		sub.InactiveUserCount(),
		sub.TrialStatus().String(),
		nullTime(sub.TrialEndAt()),
		sub.DefaultPaymentMethod(),
		nullString(sub.PendingVerificationURL()),
		sub.CreatedAt(),
		sub.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("subscription for %s/%s: %w", sub.Provider(), sub.Owner(), shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// Update persists subscription changes.
func (r *AccountRepository) Update(ctx context.Context, sub *account.Subscription) error {
	query := `
		UPDATE account_subscriptions SET
			plan_code = $2, seats = $3, activated_user_count = $4, inactive_user_count = $5,
			trial_status = $6, trial_end_at = $7, default_payment_method = $8,
			pending_verification_url = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		sub.ID().String(),
		sub.Plan().Code(),
		sub.Seats(),
		sub.ActivatedUserCount(),
		sub.InactiveUserCount(),
		sub.TrialStatus().String(),
		nullTime(sub.TrialEndAt()),
		sub.DefaultPaymentMethod(),
		nullString(sub.PendingVerificationURL()),
		sub.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return account.ErrNotFound
	}
	return nil
}

// ExpireTrialsDue marks ongoing trials whose window closed as expired.
func (r *AccountRepository) ExpireTrialsDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE account_subscriptions
		SET trial_status = $1, updated_at = $2
		WHERE trial_status = $3 AND trial_end_at IS NOT NULL AND trial_end_at < $2
	`

	result, err := r.db.ExecContext(ctx, query,
		account.TrialExpired.String(), now.UTC(), account.TrialOngoing.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire trials: %w", err)
	}
	return result.RowsAffected()
}

func (r *AccountRepository) doScan(ctx context.Context, scan func(dest ...any) error) (*account.Subscription, error) {
	var (
		idStr                  string
		provider               string
		owner                  string
		planCode               string
		seats                  int
		activatedUserCount     int
		inactiveUserCount      int
		trialStatus            string
		trialEndAt             sql.NullTime
		defaultPaymentMethod   bool
		pendingVerificationURL sql.NullString
		createdAt              time.Time
		updatedAt              time.Time
	)

	err := scan(
		&idStr, &provider, &owner, &planCode, &seats, &activatedUserCount, &inactiveUserCount,
		&trialStatus, &trialEndAt, &defaultPaymentMethod, &pendingVerificationURL,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsedID, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}

	currentPlan, err := r.plans.GetByCode(ctx, planCode)
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			return nil, fmt.Errorf("subscription references unknown plan %q: %w", planCode, err)
		}
		return nil, err
	}

	return account.Reconstitute(
		parsedID,
		provider,
		owner,
		currentPlan,
		seats,
		activatedUserCount,
		inactiveUserCount,
		account.ParseTrialStatus(trialStatus),
		nullTimeValue(trialEndAt),
		defaultPaymentMethod,
		nullStringValue(pendingVerificationURL),
		createdAt,
		updatedAt,
	), nil
}
