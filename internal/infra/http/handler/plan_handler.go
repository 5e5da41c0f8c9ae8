package handler

import (
	"net/http"

	"github.com/covermapio/api/internal/app"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/logger"
)

// PlanHandler handles plan catalog HTTP requests.
type PlanHandler struct {
	service *app.PlanService
	logger  *logger.Logger
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(svc *app.PlanService, log *logger.Logger) *PlanHandler {
	return &PlanHandler{service: svc, logger: log}
}

// PlanResponse represents a catalog plan in API responses.
type PlanResponse struct {
	Code               string   `json:"value"`
	MarketingName      string   `json:"marketingName"`
	Tier               string   `json:"tierName"`
	BillingRate        string   `json:"billingRate,omitempty"`
	BaseUnitPrice      int64    `json:"baseUnitPrice"`
	FormattedPrice     string   `json:"formattedPrice"`
	Benefits           []string `json:"benefits,omitempty"`
	MonthlyUploadLimit *int     `json:"monthlyUploadLimit,omitempty"`
	Quantity           int      `json:"quantity"`
	TrialDays          *int     `json:"trialDays,omitempty"`
	HasSeatsLeft       bool     `json:"hasSeatsLeft"`
}

func toPlanResponse(p *plan.Plan) PlanResponse {
	return PlanResponse{
		Code:               p.Code(),
		MarketingName:      p.MarketingName(),
		Tier:               p.Tier().String(),
		BillingRate:        p.BillingRate().String(),
		BaseUnitPrice:      int64(p.BaseUnitPrice()),
		FormattedPrice:     p.BaseUnitPrice().Format(),
		Benefits:           p.Benefits(),
		MonthlyUploadLimit: p.MonthlyUploadLimit(),
		Quantity:           p.Quantity(),
		TrialDays:          p.TrialDays(),
		HasSeatsLeft:       p.HasSeatsLeft(),
	}
}

// List handles GET /api/v1/plans.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.Catalog(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	data := make([]PlanResponse, len(catalog))
	for i, p := range catalog {
		data[i] = toPlanResponse(p)
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}
