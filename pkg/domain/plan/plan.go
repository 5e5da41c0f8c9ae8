// Package plan holds the subscription plan catalog and the seat/price
// rules evaluated by the upgrade form.
package plan

import (
	"fmt"
	"time"

	"github.com/covermapio/api/pkg/domain/shared"
)

// Tier classifies a plan. It is computed once when a plan is loaded and
// switched on exhaustively; callers never re-derive plan shape from flags.
type Tier string

const (
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierSentry     Tier = "sentry"
	TierTeam       Tier = "team"
	TierEnterprise Tier = "enterprise"
	TierTrial      Tier = "trial"
)

// IsValid reports whether the tier is a known value.
func (t Tier) IsValid() bool {
	switch t {
	case TierBasic, TierPro, TierSentry, TierTeam, TierEnterprise, TierTrial:
		return true
	}
	return false
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}

// Paid reports whether the tier carries per-seat billing.
func (t Tier) Paid() bool {
	switch t {
	case TierPro, TierSentry, TierTeam, TierEnterprise:
		return true
	}
	return false
}

// ParseTier parses a tier string, falling back to basic.
func ParseTier(s string) Tier {
	t := Tier(s)
	if !t.IsValid() {
		return TierBasic
	}
	return t
}

// BillingRate is the billing cadence of a plan variant.
type BillingRate string

const (
	BillingRateMonthly  BillingRate = "monthly"
	BillingRateAnnually BillingRate = "annually"
	// BillingRateNone applies to unpriced plans (basic, trial).
	BillingRateNone BillingRate = ""
)

// IsValid reports whether the billing rate is a known value.
func (r BillingRate) IsValid() bool {
	switch r {
	case BillingRateMonthly, BillingRateAnnually, BillingRateNone:
		return true
	}
	return false
}

// String returns the string representation of the rate.
func (r BillingRate) String() string {
	return string(r)
}

// ParseBillingRate parses a billing rate string, falling back to none.
func ParseBillingRate(s string) BillingRate {
	r := BillingRate(s)
	if !r.IsValid() {
		return BillingRateNone
	}
	return r
}

// Plan is an immutable catalog entry keyed by its stable plan code
// (for example "users-pr-inappm"). Each paid tier has one monthly and one
// annual variant differing only in billing rate and base unit price.
type Plan struct {
	code               string
	marketingName      string
	tier               Tier
	billingRate        BillingRate
	baseUnitPrice      Cents
	benefits           []string
	monthlyUploadLimit *int
	quantity           int
	trialDays          *int
	hasSeatsLeft       bool
	createdAt          time.Time
}

// NewPlan creates a catalog entry. The tier is fixed at construction;
// quantity is the default and minimum seat count for the plan.
func NewPlan(code, marketingName string, tier Tier, rate BillingRate, baseUnitPrice Cents, quantity int) (*Plan, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: plan code is required", shared.ErrValidation)
	}
	if !tier.IsValid() {
		return nil, fmt.Errorf("%w: unknown tier %q", shared.ErrValidation, tier)
	}
	if !rate.IsValid() {
		return nil, fmt.Errorf("%w: unknown billing rate %q", shared.ErrValidation, rate)
	}
	if quantity < 1 {
		quantity = 1
	}
	return &Plan{
		code:          code,
		marketingName: marketingName,
		tier:          tier,
		billingRate:   rate,
		baseUnitPrice: baseUnitPrice,
		quantity:      quantity,
		hasSeatsLeft:  true,
		createdAt:     time.Now().UTC(),
	}, nil
}

// Reconstitute recreates a Plan from persistence.
func Reconstitute(
	code string,
	marketingName string,
	tier Tier,
	rate BillingRate,
	baseUnitPrice Cents,
	benefits []string,
	monthlyUploadLimit *int,
	quantity int,
	trialDays *int,
	hasSeatsLeft bool,
	createdAt time.Time,
) *Plan {
	return &Plan{
		code:               code,
		marketingName:      marketingName,
		tier:               tier,
		billingRate:        rate,
		baseUnitPrice:      baseUnitPrice,
		benefits:           benefits,
		monthlyUploadLimit: monthlyUploadLimit,
		quantity:           quantity,
		trialDays:          trialDays,
		hasSeatsLeft:       hasSeatsLeft,
		createdAt:          createdAt,
	}
}

// Getters

func (p *Plan) Code() string             { return p.code }
func (p *Plan) MarketingName() string    { return p.marketingName }
func (p *Plan) Tier() Tier               { return p.tier }
func (p *Plan) BillingRate() BillingRate { return p.billingRate }
func (p *Plan) BaseUnitPrice() Cents     { return p.baseUnitPrice }
func (p *Plan) Benefits() []string       { return p.benefits }
func (p *Plan) MonthlyUploadLimit() *int { return p.monthlyUploadLimit }
func (p *Plan) Quantity() int            { return p.quantity }
func (p *Plan) TrialDays() *int          { return p.trialDays }
func (p *Plan) HasSeatsLeft() bool       { return p.hasSeatsLeft }
func (p *Plan) CreatedAt() time.Time     { return p.createdAt }

// Paid reports whether the plan bills per seat.
func (p *Plan) Paid() bool {
	return p.tier.Paid() && p.billingRate != BillingRateNone
}

// SetBenefits sets the ordered benefit list shown on the pricing page.
func (p *Plan) SetBenefits(benefits []string) {
	p.benefits = benefits
}

// SetMonthlyUploadLimit sets the upload cap, nil meaning unlimited.
func (p *Plan) SetMonthlyUploadLimit(limit *int) {
	p.monthlyUploadLimit = limit
}

// SetTrialDays sets the trial window length, nil meaning no trial.
func (p *Plan) SetTrialDays(days *int) {
	p.trialDays = days
}

// SetHasSeatsLeft marks whether new seats can still be purchased.
func (p *Plan) SetHasSeatsLeft(v bool) {
	p.hasSeatsLeft = v
}

// FindByCode returns the catalog entry with the given plan code.
func FindByCode(catalog []*Plan, code string) (*Plan, bool) {
	for _, p := range catalog {
		if p.code == code {
			return p, true
		}
	}
	return nil, false
}

// FindByTierAndRate returns the catalog variant for a tier and cadence.
func FindByTierAndRate(catalog []*Plan, tier Tier, rate BillingRate) (*Plan, bool) {
	for _, p := range catalog {
		if p.tier == tier && p.billingRate == rate {
			return p, true
		}
	}
	return nil, false
}
