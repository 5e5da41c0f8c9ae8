package unit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covermapio/api/internal/app"
	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/repo"
	"github.com/covermapio/api/pkg/domain/shared"
	"github.com/covermapio/api/pkg/logger"
	"github.com/covermapio/api/pkg/pagination"
)

// MockRepoStore implements repo.Store for testing. List and the
// per-repo lookups run concurrently in the service, so access is
// mutex-guarded.
type MockRepoStore struct {
	mu         sync.Mutex
	repos      map[string]*repo.Repository
	getErrs    map[string]error
	getCalls   int
	listPage   pagination.Page[*repo.Repository]
	listErr    error
	lastParams repo.QueryParams
	configured int
}

func NewMockRepoStore() *MockRepoStore {
	return &MockRepoStore{
		repos:   make(map[string]*repo.Repository),
		getErrs: make(map[string]error),
	}
}

func (m *MockRepoStore) key(provider, owner, name string) string {
	return provider + "/" + owner + "/" + name
}

func (m *MockRepoStore) List(_ context.Context, _, _ string, params repo.QueryParams) (pagination.Page[*repo.Repository], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastParams = params
	if m.listErr != nil {
		return pagination.Page[*repo.Repository]{}, m.listErr
	}
	return m.listPage, nil
}

func (m *MockRepoStore) GetByName(_ context.Context, provider, owner, name string) (*repo.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	k := m.key(provider, owner, name)
	if err := m.getErrs[k]; err != nil {
		return nil, err
	}
	if r, ok := m.repos[k]; ok {
		return r, nil
	}
	return nil, repo.NotFoundError(name)
}

func (m *MockRepoStore) CountConfigured(_ context.Context, _, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configured, nil
}

func (m *MockRepoStore) Create(_ context.Context, r *repo.Repository) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repos[m.key(r.Provider(), r.Owner(), r.Name())] = r
	return nil
}

func (m *MockRepoStore) add(r *repo.Repository) {
	m.repos[m.key(r.Provider(), r.Owner(), r.Name())] = r
}

func (m *MockRepoStore) lastAfter() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastParams.After
}

// MockRecentSource implements app.RecentRepoSource for testing.
type MockRecentSource struct {
	mu       sync.Mutex
	name     string
	err      error
	getCalls int
	recorded []string
}

func (m *MockRecentSource) Get(_ context.Context, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	return m.name, m.err
}

func (m *MockRecentSource) Record(_ context.Context, provider, owner, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, provider+"/"+owner+"/"+name)
	return nil
}

func newListRepo(t *testing.T, provider, owner, name string, private bool) *repo.Repository {
	t.Helper()
	r, err := repo.NewRepository(provider, owner, name, private)
	require.NoError(t, err)
	return r
}

var testDemoConfig = config.DemoConfig{Provider: "gh", Owner: "covermap", RepoName: "covermap-demo"}

func newRepoListFixture(store *MockRepoStore, recent app.RecentRepoSource) *app.RepoListService {
	return app.NewRepoListService(store, recent, testDemoConfig, false, logger.NewNop())
}

func listInput(tier plan.Tier, state repo.QueryState) app.ListReposInput {
	return app.ListReposInput{
		Provider:    "gh",
		Owner:       "critical-role",
		ViewerTier:  tier,
		IsOwnerPage: true,
		State:       state,
	}
}

func rowKinds(rows []repo.Row) []repo.RowKind {
	kinds := make([]repo.RowKind, len(rows))
	for i, r := range rows {
		kinds[i] = r.Kind
	}
	return kinds
}

func rowRepoNames(rows []repo.Row) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Repo.Name()
	}
	return names
}

func TestListReposMergesSpecialRows(t *testing.T) {
	store := NewMockRepoStore()

	demoRepo := newListRepo(t, "gh", "covermap", "covermap-demo", false)
	demoRepo.EnableCoverage()
	store.add(demoRepo)

	visited := newListRepo(t, "gh", "critical-role", "beta", false)
	visited.EnableCoverage()
	store.add(visited)

	store.listPage = pagination.Page[*repo.Repository]{
		Data: []*repo.Repository{
			newListRepo(t, "gh", "critical-role", "alpha", false),
			newListRepo(t, "gh", "critical-role", "gamma", false),
		},
		PageInfo: pagination.PageInfo{HasNextPage: true, EndCursor: "cur-1"},
	}

	svc := newRepoListFixture(store, &MockRecentSource{name: "beta"})

	result, err := svc.ListRepos(context.Background(), listInput(plan.TierPro, repo.DefaultQueryState()))
	require.NoError(t, err)

	assert.Equal(t, []string{"covermap-demo", "beta", "alpha", "gamma"}, rowRepoNames(result.Rows))
	assert.Equal(t, []repo.RowKind{repo.RowDemo, repo.RowRecentlyVisited, repo.RowPrimary, repo.RowPrimary}, rowKinds(result.Rows))
	assert.Empty(t, result.EmptyState)
	assert.True(t, result.PageInfo.HasNextPage)
}

func TestListReposDemoLookupFailureDegrades(t *testing.T) {
	store := NewMockRepoStore()
	store.getErrs["gh/covermap/covermap-demo"] = errors.New("connection refused")
	store.listPage = pagination.Page[*repo.Repository]{
		Data: []*repo.Repository{newListRepo(t, "gh", "critical-role", "alpha", false)},
	}

	svc := newRepoListFixture(store, nil)

	result, err := svc.ListRepos(context.Background(), listInput(plan.TierPro, repo.DefaultQueryState()))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, rowRepoNames(result.Rows))
	assert.Equal(t, []repo.RowKind{repo.RowPrimary}, rowKinds(result.Rows))
}

func TestListReposRecentLookupFailureDegrades(t *testing.T) {
	store := NewMockRepoStore()
	store.listPage = pagination.Page[*repo.Repository]{
		Data: []*repo.Repository{newListRepo(t, "gh", "critical-role", "alpha", false)},
	}

	svc := newRepoListFixture(store, &MockRecentSource{err: errors.New("redis down")})

	result, err := svc.ListRepos(context.Background(), listInput(plan.TierPro, repo.DefaultQueryState()))
	require.NoError(t, err)
	assert.Equal(t, []repo.RowKind{repo.RowPrimary}, rowKinds(result.Rows))
}

func TestListReposPrimaryQueryErrorPropagates(t *testing.T) {
	store := NewMockRepoStore()
	listErr := errors.New("query timed out")
	store.listErr = listErr

	svc := newRepoListFixture(store, nil)

	result, err := svc.ListRepos(context.Background(), listInput(plan.TierPro, repo.DefaultQueryState()))
	require.ErrorIs(t, err, listErr)
	assert.Nil(t, result)
}

func TestListReposSpecialRowsOnFirstPageOnly(t *testing.T) {
	store := NewMockRepoStore()

	demoRepo := newListRepo(t, "gh", "covermap", "covermap-demo", false)
	store.add(demoRepo)
	store.add(newListRepo(t, "gh", "critical-role", "beta", false))
	store.listPage = pagination.Page[*repo.Repository]{
		Data: []*repo.Repository{newListRepo(t, "gh", "critical-role", "gamma", false)},
	}

	recent := &MockRecentSource{name: "beta"}
	svc := newRepoListFixture(store, recent)

	state := repo.DefaultQueryState()
	state.Cursor = "cur-1"

	result, err := svc.ListRepos(context.Background(), listInput(plan.TierPro, state))
	require.NoError(t, err)

	assert.Equal(t, []repo.RowKind{repo.RowPrimary}, rowKinds(result.Rows))
	assert.Equal(t, "cur-1", store.lastAfter())
	assert.Zero(t, recent.getCalls)
	assert.Zero(t, store.getCalls)
}

func TestListReposEmptyStates(t *testing.T) {
	t.Run("no repos setup yet", func(t *testing.T) {
		store := NewMockRepoStore()
		svc := newRepoListFixture(store, nil)

		result, err := svc.ListRepos(context.Background(), listInput(plan.TierPro, repo.DefaultQueryState()))
		require.NoError(t, err)
		assert.Empty(t, result.Rows)
		assert.Equal(t, "No repos setup yet", result.EmptyState)
	})

	t.Run("no results for search term", func(t *testing.T) {
		store := NewMockRepoStore()
		svc := newRepoListFixture(store, nil)

		state := repo.DefaultQueryState()
		state.SearchTerm = "zzz"

		result, err := svc.ListRepos(context.Background(), listInput(plan.TierPro, state))
		require.NoError(t, err)
		assert.Empty(t, result.Rows)
		assert.Equal(t, "No results found", result.EmptyState)
	})
}

func TestListReposTeamTierFiltersPrivateSpecialRows(t *testing.T) {
	store := NewMockRepoStore()

	demoRepo := newListRepo(t, "gh", "covermap", "covermap-demo", true)
	demoRepo.EnableCoverage()
	store.add(demoRepo)

	visited := newListRepo(t, "gh", "critical-role", "secret", true)
	visited.EnableCoverage()
	store.add(visited)

	store.listPage = pagination.Page[*repo.Repository]{
		Data: []*repo.Repository{newListRepo(t, "gh", "critical-role", "alpha", false)},
	}

	svc := newRepoListFixture(store, &MockRecentSource{name: "secret"})

	result, err := svc.ListRepos(context.Background(), listInput(plan.TierTeam, repo.DefaultQueryState()))
	require.NoError(t, err)

	require.NotNil(t, store.lastParams.IsPublic)
	assert.True(t, *store.lastParams.IsPublic)
	assert.Equal(t, []string{"alpha"}, rowRepoNames(result.Rows))
	assert.Equal(t, []repo.RowKind{repo.RowPrimary}, rowKinds(result.Rows))
}

func TestListReposConfiguredFilterConstrainsSpecialRows(t *testing.T) {
	store := NewMockRepoStore()

	demoRepo := newListRepo(t, "gh", "covermap", "covermap-demo", false)
	demoRepo.EnableCoverage()
	store.add(demoRepo)

	// Recently visited but never configured, so the CONFIGURED view
	// must not pin it.
	store.add(newListRepo(t, "gh", "critical-role", "beta", false))

	configured := newListRepo(t, "gh", "critical-role", "alpha", false)
	configured.EnableCoverage()
	store.listPage = pagination.Page[*repo.Repository]{Data: []*repo.Repository{configured}}

	svc := newRepoListFixture(store, &MockRecentSource{name: "beta"})

	state := repo.DefaultQueryState()
	state.Filter = repo.FilterConfigured

	result, err := svc.ListRepos(context.Background(), listInput(plan.TierPro, state))
	require.NoError(t, err)

	assert.Equal(t, []string{"covermap-demo", "alpha"}, rowRepoNames(result.Rows))
	assert.Equal(t, []repo.RowKind{repo.RowDemo, repo.RowPrimary}, rowKinds(result.Rows))
}

func TestRecordVisit(t *testing.T) {
	t.Run("records known repo", func(t *testing.T) {
		store := NewMockRepoStore()
		store.add(newListRepo(t, "gh", "critical-role", "beta", false))
		recent := &MockRecentSource{}
		svc := newRepoListFixture(store, recent)

		require.NoError(t, svc.RecordVisit(context.Background(), "gh", "critical-role", "beta"))
		assert.Equal(t, []string{"gh/critical-role/beta"}, recent.recorded)
	})

	t.Run("rejects unknown repo", func(t *testing.T) {
		store := NewMockRepoStore()
		recent := &MockRecentSource{}
		svc := newRepoListFixture(store, recent)

		err := svc.RecordVisit(context.Background(), "gh", "critical-role", "ghost")
		require.ErrorIs(t, err, shared.ErrNotFound)
		assert.Empty(t, recent.recorded)
	})

	t.Run("no-op without a recent store", func(t *testing.T) {
		svc := newRepoListFixture(NewMockRepoStore(), nil)
		require.NoError(t, svc.RecordVisit(context.Background(), "gh", "critical-role", "beta"))
	})
}
