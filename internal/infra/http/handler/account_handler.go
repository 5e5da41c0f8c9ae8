package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/covermapio/api/internal/app"
	"github.com/covermapio/api/pkg/apierror"
	"github.com/covermapio/api/pkg/domain/account"
	"github.com/covermapio/api/pkg/logger"
)

// AccountHandler handles account and upgrade HTTP requests.
type AccountHandler struct {
	accounts *app.AccountService
	upgrades *app.UpgradeService
	logger   *logger.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accounts *app.AccountService, upgrades *app.UpgradeService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		upgrades: upgrades,
		logger:   log,
	}
}

// AccountResponse represents an account subscription in API responses.
type AccountResponse struct {
	Provider               string        `json:"provider"`
	Owner                  string        `json:"owner"`
	Plan                   *PlanResponse `json:"plan,omitempty"`
	Seats                  int           `json:"seats"`
	ActivatedUserCount     int           `json:"activatedUserCount"`
	InactiveUserCount      int           `json:"inactiveUserCount"`
	TrialStatus            string        `json:"trialStatus"`
	TrialEndAt             *time.Time    `json:"trialEndAt,omitempty"`
	DefaultPaymentMethod   bool          `json:"hasDefaultPaymentMethod"`
	PendingVerificationURL string        `json:"unverifiedPaymentMethodUrl,omitempty"`
}

func toAccountResponse(sub *account.Subscription) AccountResponse {
	resp := AccountResponse{
		Provider:               sub.Provider(),
		Owner:                  sub.Owner(),
		Seats:                  sub.Seats(),
		ActivatedUserCount:     sub.ActivatedUserCount(),
		InactiveUserCount:      sub.InactiveUserCount(),
		TrialStatus:            sub.TrialStatus().String(),
		TrialEndAt:             sub.TrialEndAt(),
		DefaultPaymentMethod:   sub.DefaultPaymentMethod(),
		PendingVerificationURL: sub.PendingVerificationURL(),
	}
	if p := sub.Plan(); p != nil {
		pr := toPlanResponse(p)
		resp.Plan = &pr
	}
	return resp
}

// SeatErrorResponse is one inline seat validation message.
type SeatErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UpgradeFormResponse is the server-computed upgrade form state for one
// candidate selection.
type UpgradeFormResponse struct {
	PlanCode         string              `json:"plan"`
	Seats            int                 `json:"seats"`
	MinSeats         int                 `json:"minSeats"`
	MaxSeats         *int                `json:"maxSeats,omitempty"`
	MonthlyCents     int64               `json:"monthlyCents"`
	AnnualCents      int64               `json:"annualCents"`
	MonthlyFormatted string              `json:"monthlyFormatted"`
	AnnualFormatted  string              `json:"annualFormatted"`
	SeatErrors       []SeatErrorResponse `json:"seatErrors,omitempty"`
	Button           string              `json:"button"`
	TrialOngoing     bool                `json:"trialOngoing"`
}

func toUpgradeFormResponse(view app.UpgradeFormView) UpgradeFormResponse {
	resp := UpgradeFormResponse{
		PlanCode:         view.PlanCode,
		Seats:            view.Seats,
		MinSeats:         view.MinSeats,
		MaxSeats:         view.MaxSeats,
		MonthlyCents:     int64(view.Monthly),
		AnnualCents:      int64(view.Annual),
		MonthlyFormatted: view.Monthly.Format(),
		AnnualFormatted:  view.Annual.Format(),
		Button:           string(view.Button),
		TrialOngoing:     view.TrialOngoing,
	}
	for _, se := range view.SeatErrors {
		resp.SeatErrors = append(resp.SeatErrors, SeatErrorResponse{
			Field:   se.Field,
			Message: se.Message,
		})
	}
	return resp
}

// Get handles GET /api/v1/{provider}/{owner}/account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	owner := chi.URLParam(r, "owner")

	sub, err := h.accounts.GetAccount(r.Context(), provider, owner)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(sub))
}

// PlanSelection is the (plan, seats) pair sent to the preview and
// upgrade endpoints.
type PlanSelection struct {
	Value    string `json:"value"`
	Quantity int    `json:"quantity"`
}

// PreviewRequest represents a candidate selection to evaluate.
type PreviewRequest struct {
	Plan PlanSelection `json:"plan"`
}

// Preview handles POST /api/v1/{provider}/{owner}/account/preview.
// It computes the upgrade form state for the candidate plan and seat
// count without submitting anything. An empty selection yields the
// default form state for the account.
func (h *AccountHandler) Preview(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	owner := chi.URLParam(r, "owner")

	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	view, err := h.upgrades.PreviewUpgrade(r.Context(), provider, owner, req.Plan.Value, req.Plan.Quantity)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toUpgradeFormResponse(view))
}

// UpgradeRequest represents the request to change an account's plan.
type UpgradeRequest struct {
	Plan                  PlanSelection `json:"plan"`
	ConfirmDiscardPending bool          `json:"confirmDiscardPending"`
}

// UpgradeResponse reports a completed upgrade.
type UpgradeResponse struct {
	Success      bool            `json:"success"`
	Account      AccountResponse `json:"account"`
	RedirectPath string          `json:"redirectPath"`
}

// Upgrade handles PATCH /api/v1/{provider}/{owner}/account.
func (h *AccountHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	owner := chi.URLParam(r, "owner")

	var req UpgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}

	result, err := h.upgrades.SubmitUpgrade(r.Context(), app.UpgradeInput{
		Provider:              provider,
		Owner:                 owner,
		PlanCode:              req.Plan.Value,
		Seats:                 req.Plan.Quantity,
		ConfirmDiscardPending: req.ConfirmDiscardPending,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, UpgradeResponse{
		Success:      true,
		Account:      toAccountResponse(result.Subscription),
		RedirectPath: result.RedirectPath,
	})
}
