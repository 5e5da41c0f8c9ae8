package unit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covermapio/api/internal/app"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/repo"
	"github.com/covermapio/api/pkg/logger"
	"github.com/covermapio/api/pkg/pagination"
)

// scriptedCall is one queued fetcher response. A non-nil gate blocks the
// response until the test closes it.
type scriptedCall struct {
	result *app.RepoListResult
	err    error
	gate   chan struct{}
}

// FakeRepoFetcher implements app.RepoListFetcher with scripted responses.
type FakeRepoFetcher struct {
	mu     sync.Mutex
	calls  []app.ListReposInput
	script []scriptedCall
}

func (f *FakeRepoFetcher) ListRepos(_ context.Context, input app.ListReposInput) (*app.RepoListResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	var call scriptedCall
	if len(f.script) > 0 {
		call = f.script[0]
		f.script = f.script[1:]
	}
	f.mu.Unlock()

	if call.gate != nil {
		<-call.gate
	}
	if call.err != nil {
		return nil, call.err
	}
	if call.result != nil {
		return call.result, nil
	}
	return &app.RepoListResult{}, nil
}

func (f *FakeRepoFetcher) enqueue(calls ...scriptedCall) {
	f.mu.Lock()
	f.script = append(f.script, calls...)
	f.mu.Unlock()
}

func (f *FakeRepoFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *FakeRepoFetcher) call(t *testing.T, i int) app.ListReposInput {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.calls), i)
	return f.calls[i]
}

func (f *FakeRepoFetcher) waitForCalls(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.callCount() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("fetcher never reached %d calls (got %d)", n, f.callCount())
}

// updateRecorder collects published list updates.
type updateRecorder struct {
	ch chan app.RepoListUpdate
}

func newUpdateRecorder() *updateRecorder {
	return &updateRecorder{ch: make(chan app.RepoListUpdate, 16)}
}

func (r *updateRecorder) record(u app.RepoListUpdate) {
	r.ch <- u
}

func (r *updateRecorder) next(t *testing.T) app.RepoListUpdate {
	t.Helper()
	select {
	case u := <-r.ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("no update published")
		return app.RepoListUpdate{}
	}
}

func (r *updateRecorder) expectNone(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case u := <-r.ch:
		t.Fatalf("unexpected update published: %+v", u)
	case <-time.After(within):
	}
}

func primaryRows(t *testing.T, names ...string) []repo.Row {
	t.Helper()
	rows := make([]repo.Row, len(names))
	for i, name := range names {
		r, err := repo.NewRepository("gh", "critical-role", name, false)
		require.NoError(t, err)
		rows[i] = repo.Row{Repo: r, Kind: repo.RowPrimary}
	}
	return rows
}

func rowNames(rows []repo.Row) []string {
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Repo.Name()
	}
	return names
}

func newControllerFixture(t *testing.T) (*app.RepoListController, *FakeRepoFetcher, *updateRecorder) {
	t.Helper()
	fetcher := &FakeRepoFetcher{}
	rec := newUpdateRecorder()
	ctrl := app.NewRepoListController(
		fetcher,
		"gh", "critical-role",
		plan.TierPro,
		true,
		rec.record,
		logger.NewNop(),
	)
	t.Cleanup(ctrl.Close)
	return ctrl, fetcher, rec
}

func TestControllerDebouncesSearchToLastTerm(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)
	fetcher.enqueue(scriptedCall{result: &app.RepoListResult{Rows: primaryRows(t, "api")}})

	ctrl.SetSearchTerm("a")
	ctrl.SetSearchTerm("ap")
	ctrl.SetSearchTerm("api")

	update := rec.next(t)
	assert.Equal(t, []string{"api"}, rowNames(update.Rows))

	require.Equal(t, 1, fetcher.callCount())
	assert.Equal(t, "api", fetcher.call(t, 0).State.SearchTerm)
	assert.Empty(t, fetcher.call(t, 0).State.Cursor)
}

func TestControllerToggleSortFlipsDirection(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)

	// Default sort is latest commit descending; selecting it again flips
	// to ascending.
	ctrl.ToggleSort(repo.SortByLatestCommit)
	rec.next(t)

	state := fetcher.call(t, 0).State
	assert.Equal(t, repo.SortByLatestCommit, state.SortColumn)
	assert.Equal(t, repo.DirectionASC, state.Direction)
}

func TestControllerToggleSortNewColumnUsesNaturalDirection(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)

	ctrl.ToggleSort(repo.SortByCoverage)
	rec.next(t)

	state := fetcher.call(t, 0).State
	assert.Equal(t, repo.SortByCoverage, state.SortColumn)
	assert.Equal(t, repo.DirectionDESC, state.Direction)
	assert.Empty(t, state.Cursor)
}

func TestControllerDiscardsStaleResponse(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)

	gate := make(chan struct{})
	fetcher.enqueue(
		scriptedCall{gate: gate, result: &app.RepoListResult{Rows: primaryRows(t, "stale")}},
		scriptedCall{result: &app.RepoListResult{Rows: primaryRows(t, "fresh")}},
	)

	done := make(chan struct{})
	go func() {
		ctrl.ToggleSort(repo.SortByName)
		close(done)
	}()
	fetcher.waitForCalls(t, 1)

	// A newer state change lands while the first fetch is in flight.
	ctrl.ToggleSort(repo.SortByCoverage)
	update := rec.next(t)
	assert.Equal(t, []string{"fresh"}, rowNames(update.Rows))

	// Releasing the slow response must not publish anything.
	close(gate)
	<-done
	rec.expectNone(t, 100*time.Millisecond)
}

func TestControllerLoadMoreAppendsNextPage(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)

	fetcher.enqueue(
		scriptedCall{result: &app.RepoListResult{
			Rows:     primaryRows(t, "alpha", "beta"),
			PageInfo: pagination.PageInfo{HasNextPage: true, EndCursor: "cursor-1"},
		}},
		scriptedCall{result: &app.RepoListResult{
			Rows:     primaryRows(t, "gamma"),
			PageInfo: pagination.PageInfo{HasNextPage: false},
		}},
	)

	ctrl.Refresh()
	first := rec.next(t)
	assert.Equal(t, []string{"alpha", "beta"}, rowNames(first.Rows))
	require.True(t, first.PageInfo.HasNextPage)

	ctrl.LoadMore()
	second := rec.next(t)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, rowNames(second.Rows))
	assert.False(t, second.PageInfo.HasNextPage)
	assert.Equal(t, "cursor-1", fetcher.call(t, 1).State.Cursor)

	// No further page means LoadMore is a no-op.
	ctrl.LoadMore()
	assert.Equal(t, 2, fetcher.callCount())
	rec.expectNone(t, 100*time.Millisecond)
}

func TestControllerConcurrentLoadMoreFetchesPageOnce(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)

	gate := make(chan struct{})
	fetcher.enqueue(
		scriptedCall{result: &app.RepoListResult{
			Rows:     primaryRows(t, "alpha"),
			PageInfo: pagination.PageInfo{HasNextPage: true, EndCursor: "cursor-1"},
		}},
		scriptedCall{gate: gate, result: &app.RepoListResult{
			Rows:     primaryRows(t, "beta"),
			PageInfo: pagination.PageInfo{HasNextPage: false},
		}},
	)

	ctrl.Refresh()
	rec.next(t)

	// The manual control and the scroll sentinel fire together; only one
	// of them may consume the cursor.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.LoadMore()
		}()
	}
	fetcher.waitForCalls(t, 2)
	close(gate)
	wg.Wait()

	update := rec.next(t)
	assert.Equal(t, []string{"alpha", "beta"}, rowNames(update.Rows))
	assert.Equal(t, 2, fetcher.callCount())
	rec.expectNone(t, 100*time.Millisecond)
}

func TestControllerStateChangeResetsAccumulatedRows(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)

	fetcher.enqueue(
		scriptedCall{result: &app.RepoListResult{
			Rows:     primaryRows(t, "alpha", "beta"),
			PageInfo: pagination.PageInfo{HasNextPage: true, EndCursor: "cursor-1"},
		}},
		scriptedCall{result: &app.RepoListResult{Rows: primaryRows(t, "filtered")}},
	)

	ctrl.Refresh()
	rec.next(t)

	ctrl.SetFilter(repo.FilterConfigured)
	update := rec.next(t)
	assert.Equal(t, []string{"filtered"}, rowNames(update.Rows))
	assert.Empty(t, fetcher.call(t, 1).State.Cursor)
}

func TestControllerPublishesFetchError(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)
	fetcher.enqueue(scriptedCall{err: errors.New("connection refused")})

	ctrl.Refresh()

	update := rec.next(t)
	require.Error(t, update.Err)
	assert.Empty(t, update.Rows)
}

func TestControllerEmptyStateOnlyForEmptyRows(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)

	fetcher.enqueue(
		scriptedCall{result: &app.RepoListResult{EmptyState: "No repos setup yet"}},
		scriptedCall{result: &app.RepoListResult{
			Rows:       primaryRows(t, "alpha"),
			EmptyState: "No repos setup yet",
		}},
	)

	ctrl.Refresh()
	update := rec.next(t)
	assert.Equal(t, "No repos setup yet", update.EmptyState)

	ctrl.Refresh()
	update = rec.next(t)
	assert.Empty(t, update.EmptyState)
}

func TestControllerCloseStopsPendingFetch(t *testing.T) {
	ctrl, fetcher, rec := newControllerFixture(t)

	ctrl.SetSearchTerm("abandoned")
	ctrl.Close()

	time.Sleep(app.SearchDebounceInterval + 200*time.Millisecond)
	assert.Zero(t, fetcher.callCount())
	rec.expectNone(t, 50*time.Millisecond)
}
