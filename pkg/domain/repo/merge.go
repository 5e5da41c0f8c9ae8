package repo

import "strings"

// RowKind labels how a row entered the merged list.
type RowKind string

const (
	RowPrimary         RowKind = "primary"
	RowDemo            RowKind = "demo"
	RowRecentlyVisited RowKind = "recently_visited"
)

// Row is one entry of the merged repository list.
type Row struct {
	Repo *Repository
	Kind RowKind
}

// MergeOptions carries the context the demo-row heuristic needs.
type MergeOptions struct {
	// IsOwnerPage is true when the viewer is browsing their own page.
	IsOwnerPage bool
	// SelfHosted disables demo-row injection entirely.
	SelfHosted bool
	// ConfiguredCount is the owner's count of already-configured repos.
	ConfiguredCount int
}

// demoOnboardingThreshold is the configured-repo count at which the demo
// row stops being injected into the default view.
const demoOnboardingThreshold = 2

// MergeSpecialRows combines the primary page with the demo and
// recently-visited sub-query results: demo rows first, then the recently
// visited row, then the primary rows in their fetched order.
//
// The three inputs resolve independently and may arrive in any order; a
// nil slice means "not resolved" and is treated as empty. Rows already
// present as demo or recently-visited entries are deduplicated out of
// the primary page by (provider, owner, name), so a primary repo that
// merely shares the demo repo's name survives.
//
// The demo row appears only on the owner's own page, off self-hosted
// installs, and only before the owner has configured enough repos - unless
// the search term matches the demo repo's name, which overrides the
// onboarding heuristic.
func MergeSpecialRows(primary, demo, recent []*Repository, searchTerm string, opts MergeOptions) []Row {
	rows := make([]Row, 0, len(primary)+len(demo)+len(recent))
	seen := make(map[string]struct{})
	keyOf := func(r *Repository) string {
		return r.Provider() + "/" + r.Owner() + "/" + r.Name()
	}

	includeDemo := opts.IsOwnerPage && !opts.SelfHosted && opts.ConfiguredCount < demoOnboardingThreshold
	term := NormalizeTerm(searchTerm)

	for _, d := range demo {
		if d == nil {
			continue
		}
		if term != "" {
			// Search overrides the onboarding heuristic.
			if !strings.Contains(NormalizeTerm(d.Name()), term) {
				continue
			}
		} else if !includeDemo {
			continue
		}
		if _, dup := seen[keyOf(d)]; dup {
			continue
		}
		seen[keyOf(d)] = struct{}{}
		rows = append(rows, Row{Repo: d, Kind: RowDemo})
	}

	for _, r := range recent {
		if r == nil {
			continue
		}
		if _, dup := seen[keyOf(r)]; dup {
			continue
		}
		seen[keyOf(r)] = struct{}{}
		rows = append(rows, Row{Repo: r, Kind: RowRecentlyVisited})
	}

	for _, p := range primary {
		if p == nil {
			continue
		}
		if _, dup := seen[keyOf(p)]; dup {
			continue
		}
		seen[keyOf(p)] = struct{}{}
		rows = append(rows, Row{Repo: p, Kind: RowPrimary})
	}

	return rows
}
