package repo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covermapio/api/pkg/domain/repo"
)

func mustRepo(t *testing.T, name string) *repo.Repository {
	t.Helper()
	r, err := repo.NewRepository("gh", "critical-role", name, false)
	require.NoError(t, err)
	return r
}

func names(rows []repo.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Repo.Name()
	}
	return out
}

func kinds(rows []repo.Row) []repo.RowKind {
	out := make([]repo.RowKind, len(rows))
	for i, r := range rows {
		out[i] = r.Kind
	}
	return out
}

func TestMergeSpecialRowsOrdering(t *testing.T) {
	primary := []*repo.Repository{mustRepo(t, "alpha"), mustRepo(t, "beta")}
	demo := []*repo.Repository{mustRepo(t, "covermap-demo")}
	recent := []*repo.Repository{mustRepo(t, "gamma")}

	rows := repo.MergeSpecialRows(primary, demo, recent, "", repo.MergeOptions{
		IsOwnerPage: true,
	})

	assert.Equal(t, []string{"covermap-demo", "gamma", "alpha", "beta"}, names(rows))
	assert.Equal(t, []repo.RowKind{
		repo.RowDemo, repo.RowRecentlyVisited, repo.RowPrimary, repo.RowPrimary,
	}, kinds(rows))
}

func TestMergeSpecialRowsDeduplicatesRepeatedRepo(t *testing.T) {
	// The recently-visited repo also appears in the primary page; it
	// keeps its special slot and drops out of the primary rows.
	primary := []*repo.Repository{mustRepo(t, "gamma"), mustRepo(t, "beta")}
	recent := []*repo.Repository{mustRepo(t, "gamma")}

	rows := repo.MergeSpecialRows(primary, nil, recent, "", repo.MergeOptions{
		IsOwnerPage: true,
	})

	assert.Equal(t, []string{"gamma", "beta"}, names(rows))
	assert.Equal(t, repo.RowRecentlyVisited, rows[0].Kind)
}

func TestMergeSpecialRowsNameCollisionAcrossOwnersKept(t *testing.T) {
	// The demo repo lives under its own owner; a primary repo that only
	// shares its name is a different repo and must stay on the page.
	sameName, err := repo.NewRepository("gh", "covermap", "covermap-demo", false)
	require.NoError(t, err)
	primary := []*repo.Repository{mustRepo(t, "covermap-demo"), mustRepo(t, "beta")}

	rows := repo.MergeSpecialRows(primary, []*repo.Repository{sameName}, nil, "", repo.MergeOptions{
		IsOwnerPage: true,
	})

	assert.Equal(t, []string{"covermap-demo", "covermap-demo", "beta"}, names(rows))
	assert.Equal(t, []repo.RowKind{
		repo.RowDemo, repo.RowPrimary, repo.RowPrimary,
	}, kinds(rows))
}

func TestMergeSpecialRowsDemoSkippedOffOwnerPage(t *testing.T) {
	demo := []*repo.Repository{mustRepo(t, "covermap-demo")}

	rows := repo.MergeSpecialRows(nil, demo, nil, "", repo.MergeOptions{
		IsOwnerPage: false,
	})

	assert.Empty(t, rows)
}

func TestMergeSpecialRowsDemoSkippedOnSelfHosted(t *testing.T) {
	demo := []*repo.Repository{mustRepo(t, "covermap-demo")}

	rows := repo.MergeSpecialRows(nil, demo, nil, "", repo.MergeOptions{
		IsOwnerPage: true,
		SelfHosted:  true,
	})

	assert.Empty(t, rows)
}

func TestMergeSpecialRowsDemoSkippedAfterOnboarding(t *testing.T) {
	demo := []*repo.Repository{mustRepo(t, "covermap-demo")}

	rows := repo.MergeSpecialRows(nil, demo, nil, "", repo.MergeOptions{
		IsOwnerPage:     true,
		ConfiguredCount: 2,
	})

	assert.Empty(t, rows)
}

func TestMergeSpecialRowsSearchOverridesOnboarding(t *testing.T) {
	// An owner past the onboarding threshold still sees the demo row when
	// the search term matches its name.
	demo := []*repo.Repository{mustRepo(t, "covermap-demo")}

	rows := repo.MergeSpecialRows(nil, demo, nil, "Demo", repo.MergeOptions{
		IsOwnerPage:     true,
		ConfiguredCount: 5,
	})

	require.Len(t, rows, 1)
	assert.Equal(t, repo.RowDemo, rows[0].Kind)
}

func TestMergeSpecialRowsSearchMismatchDropsDemo(t *testing.T) {
	demo := []*repo.Repository{mustRepo(t, "covermap-demo")}

	rows := repo.MergeSpecialRows(nil, demo, nil, "gazebo", repo.MergeOptions{
		IsOwnerPage: true,
	})

	assert.Empty(t, rows)
}

func TestMergeSpecialRowsNilEntriesIgnored(t *testing.T) {
	primary := []*repo.Repository{nil, mustRepo(t, "alpha")}

	rows := repo.MergeSpecialRows(primary, []*repo.Repository{nil}, []*repo.Repository{nil}, "", repo.MergeOptions{
		IsOwnerPage: true,
	})

	assert.Equal(t, []string{"alpha"}, names(rows))
}
