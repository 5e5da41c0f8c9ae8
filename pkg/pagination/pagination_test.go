package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covermapio/api/pkg/pagination"
)

func TestCursorRoundTrip(t *testing.T) {
	c := pagination.Cursor{SortValue: "94.3", ID: "0d9b1f4a"}

	decoded, err := pagination.DecodeCursor(c.Encode())

	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, c, *decoded)
}

func TestDecodeCursorEmptyMeansFirstPage(t *testing.T) {
	decoded, err := pagination.DecodeCursor("")

	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := pagination.DecodeCursor("!!not-base64!!")
	assert.Error(t, err)

	// Valid base64 that is not a cursor payload.
	_, err = pagination.DecodeCursor("bm90LWpzb24")
	assert.Error(t, err)
}

func TestNewRequestClampsPageSize(t *testing.T) {
	assert.Equal(t, pagination.DefaultPageSize, pagination.NewRequest(0, nil).First)
	assert.Equal(t, pagination.DefaultPageSize, pagination.NewRequest(-3, nil).First)
	assert.Equal(t, pagination.MaxPageSize, pagination.NewRequest(5000, nil).First)
	assert.Equal(t, 25, pagination.NewRequest(25, nil).First)
}

func TestNewPageDropsSentinelRow(t *testing.T) {
	rows := []string{"a", "b", "c", "d"}

	page := pagination.NewPage(rows, 3, func(s string) pagination.Cursor {
		return pagination.Cursor{SortValue: s, ID: s}
	})

	assert.Equal(t, []string{"a", "b", "c"}, page.Data)
	assert.True(t, page.PageInfo.HasNextPage)

	decoded, err := pagination.DecodeCursor(page.PageInfo.EndCursor)
	require.NoError(t, err)
	assert.Equal(t, "c", decoded.ID)
}

func TestNewPageLastPage(t *testing.T) {
	rows := []string{"a", "b"}

	page := pagination.NewPage(rows, 3, func(s string) pagination.Cursor {
		return pagination.Cursor{SortValue: s, ID: s}
	})

	assert.Equal(t, rows, page.Data)
	assert.False(t, page.PageInfo.HasNextPage)
	assert.NotEmpty(t, page.PageInfo.EndCursor)
}

func TestNewPageEmpty(t *testing.T) {
	page := pagination.NewPage(nil, 3, func(s string) pagination.Cursor {
		return pagination.Cursor{}
	})

	assert.Empty(t, page.Data)
	assert.False(t, page.PageInfo.HasNextPage)
	assert.Empty(t, page.PageInfo.EndCursor)
}
