package app

import (
	"sync"

	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/domain/plan"
)

// FormButton is the upgrade form's submit button state.
type FormButton string

const (
	ButtonEnabled    FormButton = "enabled"
	ButtonDisabled   FormButton = "disabled"
	ButtonSubmitting FormButton = "submitting"
)

// UpgradeFormView is the server-computed state of the upgrade form for
// one candidate selection: seat bounds, both cadence totals and any seat
// validation errors.
type UpgradeFormView struct {
	PlanCode     string
	Seats        int
	MinSeats     int
	MaxSeats     *int
	Monthly      plan.Cents
	Annual       plan.Cents
	SeatErrors   []plan.SeatError
	Button       FormButton
	TrialOngoing bool
}

// BuildUpgradeFormView evaluates a candidate selection against the
// account. A zero seat count means "use the default selection's seats".
func BuildUpgradeFormView(sub *account.Subscription, catalog []*plan.Plan, planCode string, seats int) (UpgradeFormView, bool) {
	var preselected *plan.Plan
	if planCode != "" {
		p, ok := plan.FindByCode(catalog, planCode)
		if !ok {
			return UpgradeFormView{}, false
		}
		preselected = p
	}

	var current *plan.Plan
	activated := 0
	trialOngoing := false
	if sub != nil {
		current = sub.Plan()
		activated = sub.ActivatedUserCount()
		trialOngoing = sub.TrialOngoing()
	}

	sel, ok := plan.ResolveDefaultSelection(current, activated, catalog, preselected)
	if !ok {
		return UpgradeFormView{}, false
	}
	if seats > 0 {
		sel.Seats = seats
	}

	view := UpgradeFormView{
		PlanCode:     sel.Plan.Code(),
		Seats:        sel.Seats,
		MinSeats:     plan.MinimumSeats(sel),
		TrialOngoing: trialOngoing,
	}
	if max, bounded := plan.MaximumSeats(sel); bounded {
		view.MaxSeats = &max
	}

	monthly, _ := plan.FindByTierAndRate(catalog, sel.Plan.Tier(), plan.BillingRateMonthly)
	annual, _ := plan.FindByTierAndRate(catalog, sel.Plan.Tier(), plan.BillingRateAnnually)
	preview := plan.PreviewPrices(monthly, annual, sel.Seats)
	view.Monthly = preview.Monthly
	view.Annual = preview.Annual

	view.SeatErrors = plan.ValidateSeats(sel, activated, trialOngoing)
	if len(view.SeatErrors) > 0 {
		view.Button = ButtonDisabled
	} else {
		view.Button = ButtonEnabled
	}

	return view, true
}

// submitGuard prevents concurrent upgrade submissions for the same
// owner. The gateway call is not idempotent, so a double click must
// never produce two calls.
type submitGuard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

func newSubmitGuard() *submitGuard {
	return &submitGuard{inFlight: make(map[string]bool)}
}

// begin marks a submission in flight. Returns false if one already is.
func (g *submitGuard) begin(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[key] {
		return false
	}
	g.inFlight[key] = true
	return true
}

func (g *submitGuard) end(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}
