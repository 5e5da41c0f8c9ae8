package plan

import "fmt"

// Seat floor and ceiling constants for paid plans.
const (
	// MinSeats is the floor for standard per-user plans.
	MinSeats = 2
	// SentryMinSeats is the floor on the Sentry upgrade path.
	SentryMinSeats = 5
	// TeamMaxSeats is the ceiling for the team plan.
	TeamMaxSeats = 10
)

// Selection is the upgrade form's working state: a chosen plan variant and
// a seat count. Seats are always re-validated against the selected plan;
// changing the plan changes the applicable rules.
type Selection struct {
	Plan  *Plan
	Seats int
}

// SeatError is a single seat-validation failure with the exact message the
// form renders inline.
type SeatError struct {
	Field   string
	Message string
}

func (e SeatError) Error() string {
	return e.Message
}

// MinimumSeats returns the seat floor for the selected plan.
// First match wins: team plans take the team floor, Sentry-path plans take
// the Sentry floor, everything else the standard floor.
func MinimumSeats(sel Selection) int {
	switch sel.Plan.Tier() {
	case TierTeam:
		return MinSeats
	case TierSentry:
		return SentryMinSeats
	default:
		return MinSeats
	}
}

// MaximumSeats returns the seat ceiling for the selected plan and whether
// one applies. Only the team plan is bounded.
func MaximumSeats(sel Selection) (int, bool) {
	if sel.Plan.Tier() == TierTeam {
		return TeamMaxSeats, true
	}
	return 0, false
}

// ValidateSeats evaluates the seat rules in order. Rules are independent;
// more than one may fire. A non-empty result blocks submission, and the
// first entry is the message shown inline.
//
// The downgrade rule is suspended while the account's trial is ongoing: a
// trialing account may pick any seat count at or above the tier floor.
func ValidateSeats(sel Selection, activatedUsers int, trialOngoing bool) []SeatError {
	var errs []SeatError

	if min := MinimumSeats(sel); sel.Seats < min {
		errs = append(errs, SeatError{
			Field:   "seats",
			Message: fmt.Sprintf("You cannot purchase a per user plan for less than %d users.", min),
		})
	}

	if max, bounded := MaximumSeats(sel); bounded && sel.Seats > max {
		errs = append(errs, SeatError{
			Field:   "seats",
			Message: fmt.Sprintf("Team plan is only available for %d seats or fewer.", max),
		})
	}

	if sel.Seats < activatedUsers && !trialOngoing {
		errs = append(errs, SeatError{
			Field:   "seats",
			Message: "You must deactivate more users before downgrading plans.",
		})
	}

	return errs
}

// ComputePrice returns seats times the catalog's per-seat rate. Annual
// catalog rates are already discounted; no further arithmetic is applied.
func ComputePrice(sel Selection) Cents {
	return sel.Plan.BaseUnitPrice().Mul(sel.Seats)
}

// PricePreview holds both cadence totals for the same seat count, so the
// form's cadence toggle can switch between them without recomputing.
type PricePreview struct {
	Monthly Cents
	Annual  Cents
}

// PreviewPrices computes the monthly and annual totals for a seat count
// from the two catalog variants of the selected tier. A missing variant
// yields a zero total for that cadence.
func PreviewPrices(monthly, annual *Plan, seats int) PricePreview {
	var pv PricePreview
	if monthly != nil {
		pv.Monthly = ComputePrice(Selection{Plan: monthly, Seats: seats})
	}
	if annual != nil {
		pv.Annual = ComputePrice(Selection{Plan: annual, Seats: seats})
	}
	return pv
}

// ResolveDefaultSelection seeds the upgrade form.
//
// An explicitly preselected plan wins. Otherwise an account on a paid plan
// keeps that plan with seats covering its activated users; an account with
// no paid plan defaults to Pro annual at the catalog's minimum quantity.
func ResolveDefaultSelection(current *Plan, activatedUsers int, catalog []*Plan, preselected *Plan) (Selection, bool) {
	if preselected != nil {
		sel := Selection{Plan: preselected}
		sel.Seats = maxInt(activatedUsers, MinimumSeats(sel))
		return sel, true
	}

	if current != nil && current.Paid() {
		sel := Selection{Plan: current}
		sel.Seats = maxInt(activatedUsers, MinimumSeats(sel))
		return sel, true
	}

	proAnnual, ok := FindByTierAndRate(catalog, TierPro, BillingRateAnnually)
	if !ok {
		return Selection{}, false
	}
	return Selection{Plan: proAnnual, Seats: proAnnual.Quantity()}, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
