package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/covermapio/api/pkg/domain/repo"
	"github.com/covermapio/api/pkg/domain/shared"
	"github.com/covermapio/api/pkg/pagination"
)

// RepoRepository implements repo.Store using PostgreSQL with keyset
// pagination over (sort expression, id).
type RepoRepository struct {
	db *DB
}

// NewRepoRepository creates a new RepoRepository.
func NewRepoRepository(db *DB) *RepoRepository {
	return &RepoRepository{db: db}
}

const repoColumns = `
	id, provider, owner, name, private, active,
	coverage_enabled, bundle_analysis_enabled, coverage, tracked_lines,
	last_commit_at, created_at, updated_at
`

// Null sort keys sort as the lowest value so ASC shows them first and
// DESC last, keeping the keyset comparison total.
func sortExpr(ordering repo.Ordering) string {
	switch ordering {
	case repo.OrderingCoverage:
		return "COALESCE(coverage, -1)"
	case repo.OrderingCommitDate:
		return "COALESCE(last_commit_at, to_timestamp(0))"
	default:
		return "name"
	}
}

// sortValueFor renders a row's sort-key value for cursor encoding.
func sortValueFor(r *repo.Repository, ordering repo.Ordering) string {
	switch ordering {
	case repo.OrderingCoverage:
		if r.Coverage() == nil {
			return "-1"
		}
		return strconv.FormatFloat(*r.Coverage(), 'f', -1, 64)
	case repo.OrderingCommitDate:
		if r.LastCommitAt() == nil {
			return time.Unix(0, 0).UTC().Format(time.RFC3339Nano)
		}
		return r.LastCommitAt().UTC().Format(time.RFC3339Nano)
	default:
		return r.Name()
	}
}

// cursorArg parses an encoded sort-key value back into a query argument.
func cursorArg(ordering repo.Ordering, sortValue string) (any, error) {
	switch ordering {
	case repo.OrderingCoverage:
		v, err := strconv.ParseFloat(sortValue, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid cursor", shared.ErrValidation)
		}
		return v, nil
	case repo.OrderingCommitDate:
		t, err := time.Parse(time.RFC3339Nano, sortValue)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid cursor", shared.ErrValidation)
		}
		return t, nil
	default:
		return sortValue, nil
	}
}

// List returns one page of repositories for an owner.
func (r *RepoRepository) List(ctx context.Context, provider, owner string, params repo.QueryParams) (pagination.Page[*repo.Repository], error) {
	var empty pagination.Page[*repo.Repository]

	first := params.First
	if first < 1 {
		first = pagination.DefaultPageSize
	}
	if first > pagination.MaxPageSize {
		first = pagination.MaxPageSize
	}

	conditions := []string{"provider = $1", "owner = $2"}
	args := []any{provider, owner}
	argIndex := 3

	if params.Term != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, wrapLikePattern(params.Term))
		argIndex++
	}
	if params.IsConfigured != nil {
		conditions = append(conditions, fmt.Sprintf("(coverage_enabled OR bundle_analysis_enabled) = $%d", argIndex))
		args = append(args, *params.IsConfigured)
		argIndex++
	}
	if params.IsPublic != nil {
		conditions = append(conditions, fmt.Sprintf("private = $%d", argIndex))
		args = append(args, !*params.IsPublic)
		argIndex++
	}
	if len(params.RepoNames) > 0 {
		conditions = append(conditions, fmt.Sprintf("name = ANY($%d)", argIndex))
		args = append(args, pq.Array(params.RepoNames))
		argIndex++
	}

	expr := sortExpr(params.Ordering)
	cmp := ">"
	dir := "ASC"
	if params.Direction == repo.DirectionDESC {
		cmp = "<"
		dir = "DESC"
	}

	cursor, err := pagination.DecodeCursor(params.After)
	if err != nil {
		return empty, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if cursor != nil {
		sortArg, err := cursorArg(params.Ordering, cursor.SortValue)
		if err != nil {
			return empty, err
		}
		conditions = append(conditions, fmt.Sprintf("(%s, id::text) %s ($%d, $%d)", expr, cmp, argIndex, argIndex+1))
		args = append(args, sortArg, cursor.ID)
		argIndex += 2
	}

	query := fmt.Sprintf(
		"SELECT %s FROM repos WHERE %s ORDER BY %s %s, id::text %s LIMIT %d",
		repoColumns, strings.Join(conditions, " AND "), expr, dir, dir, first+1,
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return empty, fmt.Errorf("failed to query repos: %w", err)
	}
	defer rows.Close()

	var repos []*repo.Repository
	for rows.Next() {
		rr, err := r.doScan(rows.Scan)
		if err != nil {
			return empty, fmt.Errorf("failed to scan repo: %w", err)
		}
		repos = append(repos, rr)
	}
	if err := rows.Err(); err != nil {
		return empty, fmt.Errorf("failed to iterate repos: %w", err)
	}

	return pagination.NewPage(repos, first, func(rr *repo.Repository) pagination.Cursor {
		return pagination.Cursor{
			SortValue: sortValueFor(rr, params.Ordering),
			ID:        rr.ID().String(),
		}
	}), nil
}

// GetByName retrieves a single repository by name.
func (r *RepoRepository) GetByName(ctx context.Context, provider, owner, name string) (*repo.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repos WHERE provider = $1 AND owner = $2 AND name = $3`
	row := r.db.QueryRowContext(ctx, query, provider, owner, name)

	rr, err := r.doScan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.NotFoundError(name)
		}
		return nil, fmt.Errorf("failed to scan repo: %w", err)
	}
	return rr, nil
}

// CountConfigured returns the owner's count of configured repos.
func (r *RepoRepository) CountConfigured(ctx context.Context, provider, owner string) (int, error) {
	query := `
		SELECT COUNT(*) FROM repos
		WHERE provider = $1 AND owner = $2 AND (coverage_enabled OR bundle_analysis_enabled)
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, provider, owner).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count configured repos: %w", err)
	}
	return count, nil
}

// Create persists a repository row.
func (r *RepoRepository) Create(ctx context.Context, rr *repo.Repository) error {
	query := `
		INSERT INTO repos (` + repoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		rr.ID().String(),
		rr.Provider(),
		rr.Owner(),
		rr.Name(),
		rr.IsPrivate(),
		rr.IsActive(),
		rr.CoverageEnabled(),
		rr.BundleAnalysisEnabled(),
		nullFloat(rr.Coverage()),
		nullInt(rr.TrackedLines()),
		nullTime(rr.LastCommitAt()),
		rr.CreatedAt(),
		rr.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("repo %q: %w", rr.Name(), shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create repo: %w", err)
	}
	return nil
}

func (r *RepoRepository) doScan(scan func(dest ...any) error) (*repo.Repository, error) {
	var (
		idStr                 string
		provider              string
		owner                 string
		name                  string
		private               bool
		active                bool
		coverageEnabled       bool
		bundleAnalysisEnabled bool
		coverage              sql.NullFloat64
		trackedLines          sql.NullInt32
		lastCommitAt          sql.NullTime
		createdAt             time.Time
		updatedAt             time.Time
	)

	err := scan(
		&idStr, &provider, &owner, &name, &private, &active,
		&coverageEnabled, &bundleAnalysisEnabled, &coverage, &trackedLines,
		&lastCommitAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsedID, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}

	return repo.Reconstitute(
		parsedID,
		provider,
		owner,
		name,
		private,
		active,
		coverageEnabled,
		bundleAnalysisEnabled,
		nullFloatValue(coverage),
		nullIntValue(trackedLines),
		nullTimeValue(lastCommitAt),
		createdAt,
		updatedAt,
	), nil
}
