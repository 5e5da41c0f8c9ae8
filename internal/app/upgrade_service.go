package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/covermapio/api/internal/infra/jobs"
	"github.com/covermapio/api/internal/metrics"
	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/logger"
	"github.com/covermapio/api/pkg/validator"
)

// ErrSubmitInFlight is returned when a second submission arrives while
// one is still being processed for the same owner.
var ErrSubmitInFlight = errors.New("upgrade already in progress")

// SeatValidationError carries the seat rule failures of a rejected
// upgrade, in evaluation order.
type SeatValidationError struct {
	Errors []plan.SeatError
}

func (e *SeatValidationError) Error() string {
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	return "seat validation failed"
}

// UpgradeService runs the upgrade mutation: seat validation, the
// pending-verification gate, the billing gateway call and the follow-up
// bookkeeping.
type UpgradeService struct {
	accounts  *AccountService
	plans     *PlanService
	repo      account.Repository
	gateway   account.BillingGateway
	jobClient *jobs.Client
	validate  *validator.Validator
	guard     *submitGuard
	logger    *logger.Logger
}

// NewUpgradeService creates a new UpgradeService. jobClient is optional;
// without it the post-upgrade sync runs inline as a cache invalidation
// only.
func NewUpgradeService(
	accounts *AccountService,
	plans *PlanService,
	repo account.Repository,
	gateway account.BillingGateway,
	jobClient *jobs.Client,
	log *logger.Logger,
) *UpgradeService {
	return &UpgradeService{
		accounts:  accounts,
		plans:     plans,
		repo:      repo,
		gateway:   gateway,
		jobClient: jobClient,
		validate:  validator.New(),
		guard:     newSubmitGuard(),
		logger:    log.With("service", "upgrade"),
	}
}

// UpgradeInput is the input for submitting an upgrade.
type UpgradeInput struct {
	Provider string `validate:"required,provider"`
	Owner    string `validate:"required"`
	PlanCode string `validate:"required"`
	Seats    int    `validate:"required,min=1"`
	// ConfirmDiscardPending acknowledges abandoning a prior incomplete
	// upgrade whose payment method still awaits verification.
	ConfirmDiscardPending bool
}

// UpgradeResult reports a completed upgrade.
type UpgradeResult struct {
	Subscription *account.Subscription
	// RedirectPath is where the client should land after success.
	RedirectPath string
}

// PreviewUpgrade computes the form view for a candidate selection
// without submitting anything.
func (s *UpgradeService) PreviewUpgrade(ctx context.Context, provider, owner, planCode string, seats int) (UpgradeFormView, error) {
	catalog, err := s.plans.Catalog(ctx)
	if err != nil {
		return UpgradeFormView{}, err
	}

	sub, err := s.accounts.GetAccount(ctx, provider, owner)
	if err != nil && !errors.Is(err, account.ErrNotFound) {
		return UpgradeFormView{}, err
	}

	view, ok := BuildUpgradeFormView(sub, catalog, planCode, seats)
	if !ok {
		return UpgradeFormView{}, plan.NotFoundError(planCode)
	}
	return view, nil
}

// SubmitUpgrade validates and submits an upgrade. On success the local
// subscription is updated, its cache invalidated and a background sync
// queued. The gateway is called at most once per submission.
func (s *UpgradeService) SubmitUpgrade(ctx context.Context, input UpgradeInput) (*UpgradeResult, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	guardKey := input.Provider + ":" + input.Owner
	if !s.guard.begin(guardKey) {
		return nil, ErrSubmitInFlight
	}
	defer s.guard.end(guardKey)

	sub, err := s.repo.GetByOwner(ctx, input.Provider, input.Owner)
	if err != nil {
		return nil, err
	}

	target, err := s.plans.GetByCode(ctx, input.PlanCode)
	if err != nil {
		return nil, err
	}

	sel := plan.Selection{Plan: target, Seats: input.Seats}
	if seatErrs := plan.ValidateSeats(sel, sub.ActivatedUserCount(), sub.TrialOngoing()); len(seatErrs) > 0 {
		metrics.UpgradesTotal.WithLabelValues(metrics.OutcomeValidated).Inc()
		return nil, &SeatValidationError{Errors: seatErrs}
	}

	if sub.HasPendingVerification() && !input.ConfirmDiscardPending {
		metrics.UpgradesTotal.WithLabelValues(metrics.OutcomePending).Inc()
		return nil, account.ErrPendingVerification
	}

	payload := account.UpgradePayload{
		Plan: account.UpgradePlan{
			Value:    target.Code(),
			Quantity: input.Seats,
		},
	}
	if err := s.gateway.UpdateSubscription(ctx, input.Provider, input.Owner, payload); err != nil {
		metrics.UpgradesTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.logger.Warn("upgrade rejected by billing gateway",
			"provider", input.Provider,
			"owner", input.Owner,
			"plan", target.Code(),
			"error", err,
		)
		return nil, err
	}

	sub.ApplyUpgrade(target, input.Seats)
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to persist upgrade: %w", err)
	}

	s.accounts.InvalidateAccount(ctx, input.Provider, input.Owner)

	if s.jobClient != nil {
		if err := s.jobClient.EnqueueBillingSync(ctx, jobs.BillingSyncPayload{
			Provider: input.Provider,
			Owner:    input.Owner,
		}); err != nil {
			// The upgrade already succeeded; the cache will repopulate on
			// the next read.
			s.logger.Warn("failed to enqueue billing sync", "error", err)
		}
	}

	metrics.UpgradesTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("upgrade applied",
		"provider", input.Provider,
		"owner", input.Owner,
		"plan", target.Code(),
		"seats", input.Seats,
	)

	return &UpgradeResult{
		Subscription: sub,
		RedirectPath: fmt.Sprintf("/plan/%s/%s", input.Provider, input.Owner),
	}, nil
}
