// Package account holds an owner's subscription state: the current plan,
// seat usage, trial status and payment verification state.
package account

import (
	"fmt"
	"time"

	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/shared"
)

// TrialStatus tracks the account's trial lifecycle.
type TrialStatus string

const (
	TrialNotStarted TrialStatus = "NOT_STARTED"
	TrialOngoing    TrialStatus = "ONGOING"
	TrialExpired    TrialStatus = "EXPIRED"
)

// IsValid reports whether the trial status is a known value.
func (s TrialStatus) IsValid() bool {
	switch s {
	case TrialNotStarted, TrialOngoing, TrialExpired:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s TrialStatus) String() string {
	return string(s)
}

// ParseTrialStatus parses a trial status, falling back to NOT_STARTED.
func ParseTrialStatus(s string) TrialStatus {
	ts := TrialStatus(s)
	if !ts.IsValid() {
		return TrialNotStarted
	}
	return ts
}

// Subscription is an account's current billing commitment, keyed by
// (provider, owner). It is mutated only by a successful upgrade or by the
// trial sweeper; the pricing engine reads it and never writes.
type Subscription struct {
	id                     shared.ID
	provider               string
	owner                  string
	plan                   *plan.Plan
	seats                  int
	activatedUserCount     int
	inactiveUserCount      int
	trialStatus            TrialStatus
	trialEndAt             *time.Time
	defaultPaymentMethod   bool
	pendingVerificationURL string
	createdAt              time.Time
	updatedAt              time.Time
}

// NewSubscription creates a subscription on the given plan.
func NewSubscription(provider, owner string, p *plan.Plan, seats int) (*Subscription, error) {
	if provider == "" || owner == "" {
		return nil, fmt.Errorf("%w: provider and owner are required", shared.ErrValidation)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: plan is required", shared.ErrValidation)
	}
	if seats < 1 {
		seats = p.Quantity()
	}
	now := time.Now().UTC()
	return &Subscription{
		id:          shared.NewID(),
		provider:    provider,
		owner:       owner,
		plan:        p,
		seats:       seats,
		trialStatus: TrialNotStarted,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstitute recreates a Subscription from persistence.
func Reconstitute(
	id shared.ID,
	provider string,
	owner string,
	p *plan.Plan,
	seats int,
	activatedUserCount int,
	inactiveUserCount int,
	trialStatus TrialStatus,
	trialEndAt *time.Time,
	defaultPaymentMethod bool,
	pendingVerificationURL string,
	createdAt time.Time,
	updatedAt time.Time,
) *Subscription {
	return &Subscription{
		id:                     id,
		provider:               provider,
		owner:                  owner,
		plan:                   p,
		seats:                  seats,
		activatedUserCount:     activatedUserCount,
		inactiveUserCount:      inactiveUserCount,
		trialStatus:            trialStatus,
		trialEndAt:             trialEndAt,
		defaultPaymentMethod:   defaultPaymentMethod,
		pendingVerificationURL: pendingVerificationURL,
		createdAt:              createdAt,
		updatedAt:              updatedAt,
	}
}

// Getters

func (s *Subscription) ID() shared.ID                  { return s.id }
func (s *Subscription) Provider() string               { return s.provider }
func (s *Subscription) Owner() string                  { return s.owner }
func (s *Subscription) Plan() *plan.Plan               { return s.plan }
func (s *Subscription) Seats() int                     { return s.seats }
func (s *Subscription) ActivatedUserCount() int        { return s.activatedUserCount }
func (s *Subscription) InactiveUserCount() int         { return s.inactiveUserCount }
func (s *Subscription) TrialStatus() TrialStatus       { return s.trialStatus }
func (s *Subscription) TrialEndAt() *time.Time         { return s.trialEndAt }
func (s *Subscription) DefaultPaymentMethod() bool     { return s.defaultPaymentMethod }
func (s *Subscription) PendingVerificationURL() string { return s.pendingVerificationURL }
func (s *Subscription) CreatedAt() time.Time           { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time           { return s.updatedAt }

// TrialOngoing reports whether the downgrade rule is currently suspended.
func (s *Subscription) TrialOngoing() bool {
	return s.trialStatus == TrialOngoing
}

// HasPendingVerification reports whether a prior incomplete upgrade left a
// payment method awaiting verification.
func (s *Subscription) HasPendingVerification() bool {
	return s.pendingVerificationURL != ""
}

// Mutators

// ApplyUpgrade records a successful plan change. The pending verification
// state is cleared since the billing gateway accepted the new commitment.
func (s *Subscription) ApplyUpgrade(p *plan.Plan, seats int) {
	s.plan = p
	s.seats = seats
	s.pendingVerificationURL = ""
	s.updatedAt = time.Now().UTC()
}

// StartTrial opens a trial window of the given length.
func (s *Subscription) StartTrial(days int) {
	now := time.Now().UTC()
	end := now.AddDate(0, 0, days)
	s.trialStatus = TrialOngoing
	s.trialEndAt = &end
	s.updatedAt = now
}

// ExpireTrial closes an ongoing trial.
func (s *Subscription) ExpireTrial() {
	s.trialStatus = TrialExpired
	s.updatedAt = time.Now().UTC()
}

// SetUserCounts updates seat usage counters.
func (s *Subscription) SetUserCounts(activated, inactive int) {
	s.activatedUserCount = activated
	s.inactiveUserCount = inactive
	s.updatedAt = time.Now().UTC()
}

// SetPendingVerification records an unverified payment method URL.
func (s *Subscription) SetPendingVerification(url string) {
	s.pendingVerificationURL = url
	s.updatedAt = time.Now().UTC()
}

// SetDefaultPaymentMethod marks whether a default payment method exists.
func (s *Subscription) SetDefaultPaymentMethod(v bool) {
	s.defaultPaymentMethod = v
	s.updatedAt = time.Now().UTC()
}
