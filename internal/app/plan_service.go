// Package app contains the application services sitting between the HTTP
// handlers and the domain packages.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/covermapio/api/internal/infra/redis"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/logger"
)

const catalogCacheKey = "catalog"

// planSnapshot is the cacheable form of a catalog entry.
type planSnapshot struct {
	Code               string    `json:"code"`
	MarketingName      string    `json:"marketing_name"`
	Tier               string    `json:"tier"`
	BillingRate        string    `json:"billing_rate"`
	BaseUnitPrice      int64     `json:"base_unit_price"`
	Benefits           []string  `json:"benefits"`
	MonthlyUploadLimit *int      `json:"monthly_upload_limit"`
	Quantity           int       `json:"quantity"`
	TrialDays          *int      `json:"trial_days"`
	HasSeatsLeft       bool      `json:"has_seats_left"`
	CreatedAt          time.Time `json:"created_at"`
}

func snapshotPlan(p *plan.Plan) planSnapshot {
	return planSnapshot{
		Code:               p.Code(),
		MarketingName:      p.MarketingName(),
		Tier:               p.Tier().String(),
		BillingRate:        p.BillingRate().String(),
		BaseUnitPrice:      int64(p.BaseUnitPrice()),
		Benefits:           p.Benefits(),
		MonthlyUploadLimit: p.MonthlyUploadLimit(),
		Quantity:           p.Quantity(),
		TrialDays:          p.TrialDays(),
		HasSeatsLeft:       p.HasSeatsLeft(),
		CreatedAt:          p.CreatedAt(),
	}
}

func (s planSnapshot) restore() *plan.Plan {
	return plan.Reconstitute(
		s.Code,
		s.MarketingName,
		plan.ParseTier(s.Tier),
		plan.ParseBillingRate(s.BillingRate),
		plan.Cents(s.BaseUnitPrice),
		s.Benefits,
		s.MonthlyUploadLimit,
		s.Quantity,
		s.TrialDays,
		s.HasSeatsLeft,
		s.CreatedAt,
	)
}

// PlanService serves the plan catalog, backed by a Redis cache over the
// database table.
type PlanService struct {
	repo   plan.Repository
	cache  *redis.Cache[[]planSnapshot]
	logger *logger.Logger
}

// NewPlanService creates a new PlanService. The cache is optional; a nil
// cache reads through to the repository on every call.
func NewPlanService(repo plan.Repository, cache *redis.Cache[[]planSnapshot], log *logger.Logger) *PlanService {
	return &PlanService{
		repo:   repo,
		cache:  cache,
		logger: log.With("service", "plan"),
	}
}

// NewPlanCache builds the catalog cache used by NewPlanService.
func NewPlanCache(client *redis.Client) (*redis.Cache[[]planSnapshot], error) {
	return redis.NewCache[[]planSnapshot](client, "plans", 10*time.Minute)
}

// Catalog returns the full plan catalog in display order.
func (s *PlanService) Catalog(ctx context.Context) ([]*plan.Plan, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}

	snapshots, err := s.cache.GetOrSetFallback(ctx, catalogCacheKey, func(ctx context.Context) (*[]planSnapshot, error) {
		plans, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		snaps := make([]planSnapshot, len(plans))
		for i, p := range plans {
			snaps[i] = snapshotPlan(p)
		}
		return &snaps, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load plan catalog: %w", err)
	}

	plans := make([]*plan.Plan, len(*snapshots))
	for i, snap := range *snapshots {
		plans[i] = snap.restore()
	}
	return plans, nil
}

// GetByCode returns the catalog entry with the given plan code.
func (s *PlanService) GetByCode(ctx context.Context, code string) (*plan.Plan, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := plan.FindByCode(catalog, code); ok {
		return p, nil
	}
	return nil, plan.NotFoundError(code)
}

// InvalidateCatalog drops the cached catalog, forcing the next read to
// hit the database. Called after catalog seeding.
func (s *PlanService) InvalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, catalogCacheKey); err != nil {
		s.logger.Warn("failed to invalidate plan catalog cache", "error", err)
	}
}
