package app

import (
	"context"
	"sync"
	"time"

	"github.com/covermapio/api/pkg/debounce"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/repo"
	"github.com/covermapio/api/pkg/logger"
	"github.com/covermapio/api/pkg/pagination"
)

// SearchDebounceInterval is how long the controller waits after the last
// keystroke before issuing the search query.
const SearchDebounceInterval = 500 * time.Millisecond

// RepoListFetcher is the query side the controller drives.
type RepoListFetcher interface {
	ListRepos(ctx context.Context, input ListReposInput) (*RepoListResult, error)
}

// RepoListUpdate is one published list state.
type RepoListUpdate struct {
	Rows       []repo.Row
	PageInfo   pagination.PageInfo
	EmptyState string
	Err        error
}

// RepoListController owns the list state of one repository table: the
// search term, sort, filter and cursor. Every state change resets the
// cursor except LoadMore, which extends the current result set.
//
// Fetches triggered by superseded state are discarded, so a slow earlier
// response can never overwrite a newer one.
type RepoListController struct {
	fetcher      RepoListFetcher
	provider     string
	owner        string
	viewerTier   plan.Tier
	isOwnerPage  bool
	onUpdate     func(RepoListUpdate)
	debouncer    *debounce.Debouncer
	fetchTimeout time.Duration
	logger       *logger.Logger

	mu          sync.Mutex
	state       repo.QueryState
	rows        []repo.Row
	pageInfo    pagination.PageInfo
	generation  uint64
	loadingMore bool
	closed      bool
}

// NewRepoListController creates a controller in the default list state.
// onUpdate is invoked with every published result, including errors.
func NewRepoListController(
	fetcher RepoListFetcher,
	provider, owner string,
	viewerTier plan.Tier,
	isOwnerPage bool,
	onUpdate func(RepoListUpdate),
	log *logger.Logger,
) *RepoListController {
	return &RepoListController{
		fetcher:      fetcher,
		provider:     provider,
		owner:        owner,
		viewerTier:   viewerTier,
		isOwnerPage:  isOwnerPage,
		onUpdate:     onUpdate,
		debouncer:    debounce.New(SearchDebounceInterval),
		fetchTimeout: 30 * time.Second,
		logger:       log.With("component", "repolist_controller"),
		state:        repo.DefaultQueryState(),
	}
}

// State returns a copy of the current list state.
func (c *RepoListController) State() repo.QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetSearchTerm updates the search term and schedules a debounced
// refresh. Only the last term within the debounce window is queried.
func (c *RepoListController) SetSearchTerm(term string) {
	c.mu.Lock()
	c.state.SearchTerm = term
	c.state.Cursor = ""
	c.generation++
	c.mu.Unlock()

	c.debouncer.Do(func() {
		c.fetch(false)
	})
}

// ToggleSort selects a sort column. Selecting the current column flips
// the direction; selecting a new column applies its natural direction.
// Either way the cursor resets and a fetch runs immediately.
func (c *RepoListController) ToggleSort(column repo.SortColumn) {
	c.mu.Lock()
	if c.state.SortColumn == column {
		c.state.Direction = c.state.Direction.Toggle()
	} else {
		c.state.SortColumn = column
		c.state.Direction = repo.NaturalDirection(column)
	}
	c.state.Cursor = ""
	c.generation++
	c.mu.Unlock()

	c.fetch(false)
}

// SetFilter applies a configured-state filter, resetting the cursor.
func (c *RepoListController) SetFilter(filter repo.ConfiguredFilter) {
	c.mu.Lock()
	c.state.Filter = filter
	c.state.Cursor = ""
	c.generation++
	c.mu.Unlock()

	c.fetch(false)
}

// LoadMore fetches the next page and appends it to the current rows.
// It is a no-op when no further page exists or while a previous LoadMore
// is still in flight: the manual control and the scroll sentinel can
// fire together, and both must not consume the same cursor.
func (c *RepoListController) LoadMore() {
	c.mu.Lock()
	if !c.pageInfo.HasNextPage || c.loadingMore {
		c.mu.Unlock()
		return
	}
	c.loadingMore = true
	c.state.Cursor = c.pageInfo.EndCursor
	c.mu.Unlock()

	c.fetch(true)
}

// Refresh re-runs the current query from the first page.
func (c *RepoListController) Refresh() {
	c.mu.Lock()
	c.state.Cursor = ""
	c.generation++
	c.mu.Unlock()

	c.fetch(false)
}

// Close cancels any pending debounced fetch and discards late responses.
func (c *RepoListController) Close() {
	c.debouncer.Stop()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *RepoListController) fetch(appendRows bool) {
	c.mu.Lock()
	if c.closed {
		c.loadingMore = false
		c.mu.Unlock()
		return
	}
	gen := c.generation
	input := ListReposInput{
		Provider:    c.provider,
		Owner:       c.owner,
		ViewerTier:  c.viewerTier,
		IsOwnerPage: c.isOwnerPage,
		State:       c.state,
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	result, err := c.fetcher.ListRepos(ctx, input)

	c.mu.Lock()
	if appendRows {
		c.loadingMore = false
	}
	// A newer state change or Close supersedes this response.
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("repo list fetch failed", "error", err)
		c.onUpdate(RepoListUpdate{Err: err})
		return
	}

	if appendRows {
		c.rows = append(c.rows, result.Rows...)
	} else {
		c.rows = result.Rows
	}
	c.pageInfo = result.PageInfo
	update := RepoListUpdate{
		Rows:     c.rows,
		PageInfo: c.pageInfo,
	}
	if len(c.rows) == 0 {
		update.EmptyState = result.EmptyState
	}
	c.mu.Unlock()

	c.onUpdate(update)
}
