package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/covermapio/api/internal/app"
	"github.com/covermapio/api/internal/infra/http/middleware"
	"github.com/covermapio/api/pkg/apierror"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/repo"
	"github.com/covermapio/api/pkg/logger"
	"github.com/covermapio/api/pkg/pagination"
)

// RepoHandler handles repository list HTTP requests.
type RepoHandler struct {
	service *app.RepoListService
	logger  *logger.Logger
}

// NewRepoHandler creates a new repository handler.
func NewRepoHandler(svc *app.RepoListService, log *logger.Logger) *RepoHandler {
	return &RepoHandler{service: svc, logger: log}
}

// RepoRowResponse is one row of the merged repository list.
type RepoRowResponse struct {
	Name           string     `json:"name"`
	Private        bool       `json:"private"`
	Active         bool       `json:"active"`
	Configured     bool       `json:"configured"`
	Coverage       *float64   `json:"coverage,omitempty"`
	TrackedLines   *int       `json:"trackedLines,omitempty"`
	LatestCommitAt *time.Time `json:"latestCommitAt,omitempty"`
	Kind           string     `json:"kind"`
}

func toRepoRowResponse(row repo.Row) RepoRowResponse {
	r := row.Repo
	return RepoRowResponse{
		Name:           r.Name(),
		Private:        r.IsPrivate(),
		Active:         r.IsActive(),
		Configured:     r.IsConfigured(),
		Coverage:       r.Coverage(),
		TrackedLines:   r.TrackedLines(),
		LatestCommitAt: r.LastCommitAt(),
		Kind:           string(row.Kind),
	}
}

// RepoListResponse is one page of the merged repository list.
type RepoListResponse struct {
	Data       []RepoRowResponse   `json:"data"`
	PageInfo   pagination.PageInfo `json:"pageInfo"`
	EmptyState string              `json:"emptyState,omitempty"`
	// SuggestedFilter points a fresh owner at the not-configured view.
	SuggestedFilter string `json:"suggestedFilter,omitempty"`
	LoadMoreLabel   string `json:"loadMoreLabel,omitempty"`
}

// List handles GET /api/v1/{provider}/{owner}/repos.
func (h *RepoHandler) List(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	owner := chi.URLParam(r, "owner")

	viewer, ok := middleware.GetViewer(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	query := r.URL.Query()
	state := repo.DefaultQueryState()
	state.SearchTerm = query.Get("term")
	if s := query.Get("sort"); s != "" {
		state.SortColumn = repo.ParseSortColumn(s)
		state.Direction = repo.NaturalDirection(state.SortColumn)
	}
	if d := query.Get("direction"); d != "" {
		state.Direction = repo.ParseDirection(d)
	}
	state.Filter = repo.ParseConfiguredFilter(query.Get("filter"))
	state.Cursor = query.Get("after")
	state.PageSize = parseQueryInt(query.Get("pageSize"), 0)

	result, err := h.service.ListRepos(r.Context(), app.ListReposInput{
		Provider:    provider,
		Owner:       owner,
		ViewerTier:  viewer.Tier,
		IsOwnerPage: viewer.IsOwnerPage(provider, owner),
		State:       state,
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	// The coverage column is hidden from team-tier viewers.
	hideCoverage := viewer.Tier == plan.TierTeam

	data := make([]RepoRowResponse, len(result.Rows))
	for i, row := range result.Rows {
		data[i] = toRepoRowResponse(row)
		if hideCoverage {
			data[i].Coverage = nil
			data[i].TrackedLines = nil
		}
	}

	resp := RepoListResponse{
		Data:       data,
		PageInfo:   result.PageInfo,
		EmptyState: result.EmptyState,
	}
	if resp.EmptyState == app.EmptyStateNoRepos {
		resp.SuggestedFilter = string(repo.FilterNotConfigured)
	}
	if result.PageInfo.HasNextPage {
		resp.LoadMoreLabel = app.LoadMoreLabel
	}

	writeJSON(w, http.StatusOK, resp)
}

// RecordVisit handles POST /api/v1/{provider}/{owner}/repos/{name}/visit.
// It marks the repository as recently visited for the owner page.
func (h *RepoHandler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")

	if err := h.service.RecordVisit(r.Context(), provider, owner, name); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
