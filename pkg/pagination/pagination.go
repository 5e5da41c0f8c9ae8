// Package pagination provides opaque-cursor (keyset) pagination utilities.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// DefaultPageSize is applied when the caller does not specify one.
const DefaultPageSize = 20

// MaxPageSize caps page sizes from untrusted input.
const MaxPageSize = 100

// Cursor marks a keyset position: the sort-key value and row id of the
// last row of the previous page. Clients treat the encoded form as opaque.
type Cursor struct {
	SortValue string `json:"s"`
	ID        string `json:"id"`
}

// Encode serializes the cursor to its opaque wire form.
func (c Cursor) Encode() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque cursor string. Empty input yields a nil
// cursor, meaning "first page".
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	return &c, nil
}

// Request holds the paging parameters of a list query.
type Request struct {
	First int
	After *Cursor
}

// NewRequest builds a Request with the size clamped to sane bounds.
func NewRequest(first int, after *Cursor) Request {
	if first < 1 {
		first = DefaultPageSize
	}
	if first > MaxPageSize {
		first = MaxPageSize
	}
	return Request{First: first, After: after}
}

// PageInfo describes whether and how to fetch the next page.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// Page is one cursor-paginated result set.
type Page[T any] struct {
	Data     []T
	PageInfo PageInfo
}

// NewPage builds a Page from one-more-than-requested rows: if len(rows)
// exceeds the requested size the extra row is dropped and HasNextPage set.
// cursorFor extracts the keyset cursor of the last kept row.
func NewPage[T any](rows []T, first int, cursorFor func(T) Cursor) Page[T] {
	page := Page[T]{Data: rows}
	if len(rows) > first {
		page.Data = rows[:first]
		page.PageInfo.HasNextPage = true
	}
	if n := len(page.Data); n > 0 {
		page.PageInfo.EndCursor = cursorFor(page.Data[n-1]).Encode()
	}
	return page
}
