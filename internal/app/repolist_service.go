package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/internal/metrics"
	"github.com/covermapio/api/pkg/domain/plan"
	"github.com/covermapio/api/pkg/domain/repo"
	"github.com/covermapio/api/pkg/domain/shared"
	"github.com/covermapio/api/pkg/logger"
	"github.com/covermapio/api/pkg/pagination"
)

// Empty-state messages rendered when the list has no rows.
const (
	EmptyStateNoRepos   = "No repos setup yet"
	EmptyStateNoResults = "No results found"
)

// LoadMoreLabel is the label of the pagination control.
const LoadMoreLabel = "Load More"

// RecentRepoSource is the per-owner recently-visited repo store.
// Implemented by the redis recent-repo store.
type RecentRepoSource interface {
	Get(ctx context.Context, provider, owner string) (string, error)
	Record(ctx context.Context, provider, owner, name string) error
}

// RepoListService assembles the repository list: the primary page plus
// the demo and recently-visited rows merged on top.
type RepoListService struct {
	store      repo.Store
	recent     RecentRepoSource
	demo       config.DemoConfig
	selfHosted bool
	logger     *logger.Logger
}

// NewRepoListService creates a new RepoListService. recent is optional;
// without it no recently-visited row is surfaced.
func NewRepoListService(store repo.Store, recent RecentRepoSource, demo config.DemoConfig, selfHosted bool, log *logger.Logger) *RepoListService {
	return &RepoListService{
		store:      store,
		recent:     recent,
		demo:       demo,
		selfHosted: selfHosted,
		logger:     log.With("service", "repolist"),
	}
}

// ListReposInput identifies one paginated list fetch.
type ListReposInput struct {
	Provider    string
	Owner       string
	ViewerTier  plan.Tier
	IsOwnerPage bool
	State       repo.QueryState
}

// RepoListResult is one page of the merged repository list.
type RepoListResult struct {
	Rows     []repo.Row
	PageInfo pagination.PageInfo
	// EmptyState is the message to render when Rows is empty, "" otherwise.
	EmptyState string
}

// ListRepos runs the primary query and the special-row sub-queries
// concurrently and merges the results. The sub-queries resolve
// independently; a failure in one of them degrades to a list without
// that row rather than failing the whole fetch.
func (s *RepoListService) ListRepos(ctx context.Context, input ListReposInput) (*RepoListResult, error) {
	metrics.RepoListQueriesTotal.Inc()

	params := repo.BuildQueryParams(input.State, input.ViewerTier)

	var (
		page      pagination.Page[*repo.Repository]
		demoRepo  *repo.Repository
		recent    *repo.Repository
		confCount int
	)

	// Special rows are pinned to the top, so they only belong on the
	// first page.
	firstPage := params.After == ""

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		page, err = s.store.List(gctx, input.Provider, input.Owner, params)
		return err
	})

	if firstPage && !s.selfHosted && s.demo.RepoName != "" {
		g.Go(func() error {
			d, err := s.store.GetByName(gctx, s.demo.Provider, s.demo.Owner, s.demo.RepoName)
			if err != nil {
				if !shared.IsNotFound(err) {
					s.logger.Warn("demo repo lookup failed", "error", err)
				}
				return nil
			}
			demoRepo = d
			return nil
		})

		g.Go(func() error {
			var err error
			confCount, err = s.store.CountConfigured(gctx, input.Provider, input.Owner)
			if err != nil {
				s.logger.Warn("configured count failed", "error", err)
				confCount = 0
			}
			return nil
		})
	}

	if firstPage && s.recent != nil && input.State.SearchTerm == "" {
		g.Go(func() error {
			name, err := s.recent.Get(gctx, input.Provider, input.Owner)
			if err != nil || name == "" {
				return nil
			}
			r, err := s.store.GetByName(gctx, input.Provider, input.Owner, name)
			if err != nil {
				if !shared.IsNotFound(err) {
					s.logger.Warn("recent repo lookup failed", "error", err)
				}
				return nil
			}
			recent = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var demoRows, recentRows []*repo.Repository
	if demoRepo != nil && specialRowVisible(demoRepo, params) {
		demoRows = []*repo.Repository{demoRepo}
	}
	if recent != nil && specialRowVisible(recent, params) {
		recentRows = []*repo.Repository{recent}
	}

	rows := repo.MergeSpecialRows(page.Data, demoRows, recentRows, input.State.SearchTerm, repo.MergeOptions{
		IsOwnerPage:     input.IsOwnerPage,
		SelfHosted:      s.selfHosted,
		ConfiguredCount: confCount,
	})

	result := &RepoListResult{
		Rows:     rows,
		PageInfo: page.PageInfo,
	}
	if len(rows) == 0 {
		if repo.NormalizeTerm(input.State.SearchTerm) != "" {
			result.EmptyState = EmptyStateNoResults
		} else {
			result.EmptyState = EmptyStateNoRepos
		}
	}
	return result, nil
}

// specialRowVisible applies the list filters the pinned sub-queries
// bypass: team-tier viewers only ever see public repositories, and a
// configured filter also constrains the pinned rows.
func specialRowVisible(r *repo.Repository, params repo.QueryParams) bool {
	if params.IsPublic != nil && *params.IsPublic && r.IsPrivate() {
		return false
	}
	if params.IsConfigured != nil && r.IsConfigured() != *params.IsConfigured {
		return false
	}
	return true
}

// RecordVisit remembers the viewer's most recent repo visit.
func (s *RepoListService) RecordVisit(ctx context.Context, provider, owner, name string) error {
	if s.recent == nil {
		return nil
	}
	if _, err := s.store.GetByName(ctx, provider, owner, name); err != nil {
		return err
	}
	return s.recent.Record(ctx, provider, owner, name)
}
