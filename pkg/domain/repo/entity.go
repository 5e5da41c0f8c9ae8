// Package repo holds the repository-list domain: the repository row, the
// list query planner and the special-row merge rules.
package repo

import (
	"fmt"
	"time"

	"github.com/covermapio/api/pkg/domain/shared"
)

// Repository is one row of the repository list. Rows are sourced
// page-by-page from the list store and never mutated locally.
type Repository struct {
	id                    shared.ID
	name                  string
	owner                 string
	provider              string
	private               bool
	active                bool
	coverageEnabled       bool
	bundleAnalysisEnabled bool
	coverage              *float64
	trackedLines          *int
	lastCommitAt          *time.Time
	createdAt             time.Time
	updatedAt             time.Time
}

// NewRepository creates a repository row.
func NewRepository(provider, owner, name string, private bool) (*Repository, error) {
	if provider == "" || owner == "" || name == "" {
		return nil, fmt.Errorf("%w: provider, owner and name are required", shared.ErrValidation)
	}
	now := time.Now().UTC()
	return &Repository{
		id:        shared.NewID(),
		provider:  provider,
		owner:     owner,
		name:      name,
		private:   private,
		active:    true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Reconstitute recreates a Repository from persistence.
func Reconstitute(
	id shared.ID,
	provider string,
	owner string,
	name string,
	private bool,
	active bool,
	coverageEnabled bool,
	bundleAnalysisEnabled bool,
	coverage *float64,
	trackedLines *int,
	lastCommitAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) *Repository {
	return &Repository{
		id:                    id,
		provider:              provider,
		owner:                 owner,
		name:                  name,
		private:               private,
		active:                active,
		coverageEnabled:       coverageEnabled,
		bundleAnalysisEnabled: bundleAnalysisEnabled,
		coverage:              coverage,
		trackedLines:          trackedLines,
		lastCommitAt:          lastCommitAt,
		createdAt:             createdAt,
		updatedAt:             updatedAt,
	}
}

// Getters

func (r *Repository) ID() shared.ID            { return r.id }
func (r *Repository) Provider() string         { return r.provider }
func (r *Repository) Owner() string            { return r.owner }
func (r *Repository) Name() string             { return r.name }
func (r *Repository) IsPrivate() bool          { return r.private }
func (r *Repository) IsActive() bool           { return r.active }
func (r *Repository) CoverageEnabled() bool    { return r.coverageEnabled }
func (r *Repository) BundleAnalysisEnabled() bool {
	return r.bundleAnalysisEnabled
}
func (r *Repository) Coverage() *float64       { return r.coverage }
func (r *Repository) TrackedLines() *int       { return r.trackedLines }
func (r *Repository) LastCommitAt() *time.Time { return r.lastCommitAt }
func (r *Repository) CreatedAt() time.Time     { return r.createdAt }
func (r *Repository) UpdatedAt() time.Time     { return r.updatedAt }

// IsConfigured reports whether coverage or bundle analysis is enabled.
func (r *Repository) IsConfigured() bool {
	return r.coverageEnabled || r.bundleAnalysisEnabled
}

// Mutators

// EnableCoverage marks coverage reporting configured.
func (r *Repository) EnableCoverage() {
	r.coverageEnabled = true
	r.updatedAt = time.Now().UTC()
}

// EnableBundleAnalysis marks bundle analysis configured.
func (r *Repository) EnableBundleAnalysis() {
	r.bundleAnalysisEnabled = true
	r.updatedAt = time.Now().UTC()
}

// RecordCommit updates the last-commit timestamp.
func (r *Repository) RecordCommit(at time.Time) {
	r.lastCommitAt = &at
	r.updatedAt = time.Now().UTC()
}

// SetCoverage updates the coverage value and tracked line count.
func (r *Repository) SetCoverage(value float64, trackedLines int) {
	r.coverage = &value
	r.trackedLines = &trackedLines
	r.updatedAt = time.Now().UTC()
}

// SetActive toggles the active flag.
func (r *Repository) SetActive(active bool) {
	r.active = active
	r.updatedAt = time.Now().UTC()
}
