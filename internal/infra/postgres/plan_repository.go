package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/covermapio/api/pkg/domain/plan"
)

// PlanRepository implements plan.Repository using PostgreSQL.
type PlanRepository struct {
	db *DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `
	code, marketing_name, tier, billing_rate, base_unit_price,
	benefits, monthly_upload_limit, quantity, trial_days, has_seats_left, created_at
`

// GetByCode retrieves a plan by its stable plan code.
func (r *PlanRepository) GetByCode(ctx context.Context, code string) (*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE code = $1`
	row := r.db.QueryRowContext(ctx, query, code)

	p, err := r.doScan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, plan.NotFoundError(code)
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	return p, nil
}

// List returns the catalog in display order: paid tiers grouped, monthly
// before annual, then by price.
func (r *PlanRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY tier, billing_rate, base_unit_price`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := r.doScan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}
	return plans, nil
}

// Upsert inserts or replaces a catalog entry.
func (r *PlanRepository) Upsert(ctx context.Context, p *plan.Plan) error {
	query := `
		INSERT INTO plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (code) DO UPDATE SET
			marketing_name = EXCLUDED.marketing_name,
			tier = EXCLUDED.tier,
			billing_rate = EXCLUDED.billing_rate,
			base_unit_price = EXCLUDED.base_unit_price,
			benefits = EXCLUDED.benefits,
			monthly_upload_limit = EXCLUDED.monthly_upload_limit,
			quantity = EXCLUDED.quantity,
			trial_days = EXCLUDED.trial_days,
			has_seats_left = EXCLUDED.has_seats_left
	`

	_, err := r.db.ExecContext(ctx, query,
		p.Code(),
		p.MarketingName(),
		p.Tier().String(),
		p.BillingRate().String(),
		int64(p.BaseUnitPrice()),
		pq.Array(p.Benefits()),
		nullInt(p.MonthlyUploadLimit()),
		p.Quantity(),
		nullInt(p.TrialDays()),
		p.HasSeatsLeft(),
		p.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) doScan(scan func(dest ...any) error) (*plan.Plan, error) {
	var (
		code               string
		marketingName      string
		tier               string
		billingRate        string
		baseUnitPrice      int64
		benefits           pq.StringArray
		monthlyUploadLimit sql.NullInt32
		quantity           int
		trialDays          sql.NullInt32
		hasSeatsLeft       bool
		createdAt          time.Time
	)

	err := scan(
		&code, &marketingName, &tier, &billingRate, &baseUnitPrice,
		&benefits, &monthlyUploadLimit, &quantity, &trialDays, &hasSeatsLeft, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	return plan.Reconstitute(
		code,
		marketingName,
		plan.ParseTier(tier),
		plan.ParseBillingRate(billingRate),
		plan.Cents(baseUnitPrice),
		[]string(benefits),
		nullIntValue(monthlyUploadLimit),
		quantity,
		nullIntValue(trialDays),
		hasSeatsLeft,
		createdAt,
	), nil
}
