package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covermapio/api/internal/app"
	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/internal/infra/http/middleware"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/repo"
	"github.com/covermapio/api/pkg/logger"
	"github.com/covermapio/api/pkg/pagination"
)

type stubRepoStore struct {
	page pagination.Page[*repo.Repository]
}

func (s *stubRepoStore) List(_ context.Context, _, _ string, _ repo.QueryParams) (pagination.Page[*repo.Repository], error) {
	return s.page, nil
}

func (s *stubRepoStore) GetByName(_ context.Context, _, _, name string) (*repo.Repository, error) {
	return nil, repo.NotFoundError(name)
}

func (s *stubRepoStore) CountConfigured(_ context.Context, _, _ string) (int, error) {
	return 0, nil
}

func (s *stubRepoStore) Create(_ context.Context, _ *repo.Repository) error {
	return nil
}

func newTestRepoHandler(t *testing.T, store *stubRepoStore) *RepoHandler {
	t.Helper()
	svc := app.NewRepoListService(store, nil, config.DemoConfig{}, false, logger.NewNop())
	return NewRepoHandler(svc, logger.NewNop())
}

func newListRequest(viewer *middleware.Viewer) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/gh/critical-role/repos", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("provider", "gh")
	rctx.URLParams.Add("owner", "critical-role")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if viewer != nil {
		ctx = middleware.WithViewer(ctx, *viewer)
	}
	return req.WithContext(ctx)
}

func coveredRepo(t *testing.T) *repo.Repository {
	t.Helper()
	r, err := repo.NewRepository("gh", "critical-role", "alpha", false)
	require.NoError(t, err)
	r.EnableCoverage()
	r.SetCoverage(94.3, 1200)
	return r
}

func TestListCoverageVisibilityByTier(t *testing.T) {
	store := &stubRepoStore{page: pagination.Page[*repo.Repository]{
		Data: []*repo.Repository{coveredRepo(t)},
	}}
	h := newTestRepoHandler(t, store)

	t.Run("team tier hides coverage columns", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, newListRequest(&middleware.Viewer{
			Username: "vex", Provider: "gh", Owner: "critical-role", Tier: plan.TierTeam,
		}))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp RepoListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Nil(t, resp.Data[0].Coverage)
		assert.Nil(t, resp.Data[0].TrackedLines)
	})

	t.Run("pro tier keeps coverage columns", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.List(rec, newListRequest(&middleware.Viewer{
			Username: "vex", Provider: "gh", Owner: "critical-role", Tier: plan.TierPro,
		}))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp RepoListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.NotNil(t, resp.Data[0].Coverage)
		assert.InDelta(t, 94.3, *resp.Data[0].Coverage, 0.001)
		require.NotNil(t, resp.Data[0].TrackedLines)
		assert.Equal(t, 1200, *resp.Data[0].TrackedLines)
	})
}

func TestListRequiresViewer(t *testing.T) {
	h := newTestRepoHandler(t, &stubRepoStore{})

	rec := httptest.NewRecorder()
	h.List(rec, newListRequest(nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
