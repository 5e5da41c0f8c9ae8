package repo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/repo"
)

func TestDefaultQueryState(t *testing.T) {
	state := repo.DefaultQueryState()

	assert.Equal(t, repo.SortByLatestCommit, state.SortColumn)
	assert.Equal(t, repo.DirectionDESC, state.Direction)
	assert.Equal(t, repo.FilterAll, state.Filter)
	assert.Empty(t, state.SearchTerm)
	assert.Empty(t, state.Cursor)
}

func TestNaturalDirection(t *testing.T) {
	assert.Equal(t, repo.DirectionASC, repo.NaturalDirection(repo.SortByName))
	assert.Equal(t, repo.DirectionDESC, repo.NaturalDirection(repo.SortByCoverage))
	assert.Equal(t, repo.DirectionDESC, repo.NaturalDirection(repo.SortByLatestCommit))
}

func TestParseSortColumnFallsBackToName(t *testing.T) {
	assert.Equal(t, repo.SortByCoverage, repo.ParseSortColumn("coverage"))
	assert.Equal(t, repo.SortByName, repo.ParseSortColumn("bogus"))
}

func TestDirectionToggle(t *testing.T) {
	assert.Equal(t, repo.DirectionDESC, repo.DirectionASC.Toggle())
	assert.Equal(t, repo.DirectionASC, repo.DirectionDESC.Toggle())
}

func TestNormalizeTerm(t *testing.T) {
	assert.Equal(t, "gazebo", repo.NormalizeTerm("  Gazebo "))
	assert.Equal(t, "", repo.NormalizeTerm("   "))
	// Case folding handles characters beyond ASCII.
	assert.Equal(t, repo.NormalizeTerm("STRASSE"), repo.NormalizeTerm("strasse"))
}

func TestBuildQueryParamsIsPure(t *testing.T) {
	state := repo.QueryState{
		SearchTerm: "Api",
		SortColumn: repo.SortByCoverage,
		Direction:  repo.DirectionDESC,
		Filter:     repo.FilterConfigured,
		Cursor:     "abc",
		PageSize:   25,
	}

	first := repo.BuildQueryParams(state, plan.TierPro)
	second := repo.BuildQueryParams(state, plan.TierPro)

	assert.Equal(t, first, second)
	assert.Equal(t, "api", first.Term)
	assert.Equal(t, repo.OrderingCoverage, first.Ordering)
	assert.Equal(t, "abc", first.After)
	assert.Equal(t, 25, first.First)
	require.NotNil(t, first.IsConfigured)
	assert.True(t, *first.IsConfigured)
	assert.Nil(t, first.IsPublic)
}

func TestBuildQueryParamsNotConfiguredFilter(t *testing.T) {
	state := repo.DefaultQueryState()
	state.Filter = repo.FilterNotConfigured

	params := repo.BuildQueryParams(state, plan.TierPro)

	require.NotNil(t, params.IsConfigured)
	assert.False(t, *params.IsConfigured)
}

func TestBuildQueryParamsAllFilterOmitsConfigured(t *testing.T) {
	params := repo.BuildQueryParams(repo.DefaultQueryState(), plan.TierPro)

	assert.Nil(t, params.IsConfigured)
}

func TestBuildQueryParamsTeamTierForcesPublic(t *testing.T) {
	params := repo.BuildQueryParams(repo.DefaultQueryState(), plan.TierTeam)

	require.NotNil(t, params.IsPublic)
	assert.True(t, *params.IsPublic)

	for _, tier := range []plan.Tier{plan.TierBasic, plan.TierPro, plan.TierSentry, plan.TierEnterprise} {
		params := repo.BuildQueryParams(repo.DefaultQueryState(), tier)
		assert.Nil(t, params.IsPublic, "tier %s", tier)
	}
}

func TestBuildQueryParamsTeamTierHidesCoverageColumn(t *testing.T) {
	state := repo.DefaultQueryState()
	state.SortColumn = repo.SortByCoverage

	params := repo.BuildQueryParams(state, plan.TierTeam)
	assert.Equal(t, repo.OrderingName, params.Ordering)

	params = repo.BuildQueryParams(state, plan.TierPro)
	assert.Equal(t, repo.OrderingCoverage, params.Ordering)
}
