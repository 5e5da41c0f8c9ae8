package repo

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/covermapio/api/pkg/domain/plan"
)

// SortColumn is a sortable column of the repository table.
type SortColumn string

const (
	SortByName         SortColumn = "name"
	SortByCoverage     SortColumn = "coverage"
	SortByLatestCommit SortColumn = "latestCommitAt"
)

// IsValid reports whether the column is sortable.
func (c SortColumn) IsValid() bool {
	switch c {
	case SortByName, SortByCoverage, SortByLatestCommit:
		return true
	}
	return false
}

// ParseSortColumn parses a sort column, falling back to name.
func ParseSortColumn(s string) SortColumn {
	c := SortColumn(s)
	if !c.IsValid() {
		return SortByName
	}
	return c
}

// Direction is a sort direction.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

// IsValid reports whether the direction is known.
func (d Direction) IsValid() bool {
	return d == DirectionASC || d == DirectionDESC
}

// Toggle returns the opposite direction.
func (d Direction) Toggle() Direction {
	if d == DirectionASC {
		return DirectionDESC
	}
	return DirectionASC
}

// ParseDirection parses a direction, falling back to ASC.
func ParseDirection(s string) Direction {
	d := Direction(strings.ToUpper(s))
	if !d.IsValid() {
		return DirectionASC
	}
	return d
}

// NaturalDirection is the default direction applied when a column is first
// selected: names read forward, coverage and recency read highest-first.
func NaturalDirection(c SortColumn) Direction {
	if c == SortByName {
		return DirectionASC
	}
	return DirectionDESC
}

// Ordering is the wire-level ordering enum of the list query.
type Ordering string

const (
	OrderingName       Ordering = "NAME"
	OrderingCoverage   Ordering = "COVERAGE"
	OrderingCommitDate Ordering = "COMMIT_DATE"
)

// OrderingFor maps a sort column to its wire ordering.
func OrderingFor(c SortColumn) Ordering {
	switch c {
	case SortByCoverage:
		return OrderingCoverage
	case SortByLatestCommit:
		return OrderingCommitDate
	default:
		return OrderingName
	}
}

// ConfiguredFilter restricts the list to configured or unconfigured repos.
type ConfiguredFilter string

const (
	FilterConfigured    ConfiguredFilter = "CONFIGURED"
	FilterNotConfigured ConfiguredFilter = "NOT_CONFIGURED"
	FilterAll           ConfiguredFilter = "ALL"
)

// IsValid reports whether the filter is known.
func (f ConfiguredFilter) IsValid() bool {
	switch f {
	case FilterConfigured, FilterNotConfigured, FilterAll:
		return true
	}
	return false
}

// ParseConfiguredFilter parses a filter, falling back to ALL.
func ParseConfiguredFilter(s string) ConfiguredFilter {
	f := ConfiguredFilter(strings.ToUpper(s))
	if !f.IsValid() {
		return FilterAll
	}
	return f
}

// QueryState is the repository table's list state. It lives in the URL so
// it survives reload; the cursor resets whenever any other field changes.
type QueryState struct {
	SearchTerm string
	SortColumn SortColumn
	Direction  Direction
	Filter     ConfiguredFilter
	Cursor     string
	PageSize   int
}

// DefaultQueryState is the table's initial state.
func DefaultQueryState() QueryState {
	return QueryState{
		SortColumn: SortByLatestCommit,
		Direction:  NaturalDirection(SortByLatestCommit),
		Filter:     FilterAll,
	}
}

// QueryParams are the parameters of one paginated list fetch.
type QueryParams struct {
	Term         string
	Ordering     Ordering
	Direction    Direction
	IsConfigured *bool
	IsPublic     *bool
	RepoNames    []string
	After        string
	First        int
}

var termFolder = cases.Fold()

// NormalizeTerm case-folds and trims a search term so that matching is
// case-insensitive across scripts.
func NormalizeTerm(term string) string {
	return termFolder.String(strings.TrimSpace(term))
}

// BuildQueryParams translates list state into query parameters. It is a
// pure function: identical state always yields identical parameters.
//
// Team-tier viewers may only browse public repositories, so their queries
// carry a forced isPublic filter regardless of the configured filter.
func BuildQueryParams(state QueryState, viewerTier plan.Tier) QueryParams {
	sortColumn := state.SortColumn
	if viewerTier == plan.TierTeam && sortColumn == SortByCoverage {
		// The coverage column is hidden from team-tier viewers.
		sortColumn = SortByName
	}

	params := QueryParams{
		Term:      NormalizeTerm(state.SearchTerm),
		Ordering:  OrderingFor(sortColumn),
		Direction: state.Direction,
		After:     state.Cursor,
		First:     state.PageSize,
	}

	switch state.Filter {
	case FilterConfigured:
		t := true
		params.IsConfigured = &t
	case FilterNotConfigured:
		f := false
		params.IsConfigured = &f
	}

	if viewerTier == plan.TierTeam {
		public := true
		params.IsPublic = &public
	}

	return params
}
