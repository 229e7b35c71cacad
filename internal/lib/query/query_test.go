package query

import (
	"math"
	"shop/internal/domain/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productSort = map[string]string{
	"name":      "name",
	"price":     "price",
	"createdAt": "created_at",
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		params    models.ListParams
		wantPage  int
		wantLimit int
	}{
		{name: "defaults", params: models.ListParams{}, wantPage: 1, wantLimit: DefaultLimit},
		{name: "negative page", params: models.ListParams{Page: -3, Limit: 5}, wantPage: 1, wantLimit: 5},
		{name: "limit capped", params: models.ListParams{Page: 2, Limit: 1000}, wantPage: 2, wantLimit: MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := Normalize(tt.params)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestParseSort(t *testing.T) {
	fields, err := ParseSort("-price, name,+createdAt,price", productSort)
	require.NoError(t, err)
	assert.Equal(t, []models.SortField{
		{Column: "price", Desc: true},
		{Column: "name"},
		{Column: "created_at"},
	}, fields)

	fields, err = ParseSort("  ", productSort)
	require.NoError(t, err)
	assert.Empty(t, fields)

	_, err = ParseSort("password", productSort)
	require.ErrorIs(t, err, ErrInvalidSort)
}

func TestPageRequest(t *testing.T) {
	req, err := PageRequest(models.ListParams{Page: 3, Limit: 10}, productSort, models.SortField{Column: "id"})
	require.NoError(t, err)
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, 20, req.Offset)
	assert.Equal(t, []models.SortField{{Column: "id"}}, req.Sort)

	_, err = PageRequest(models.ListParams{Sort: "-unknown"}, productSort)
	require.ErrorIs(t, err, ErrInvalidSort)
}

func TestPageRequest_PageBounds(t *testing.T) {
	req, err := PageRequest(models.ListParams{Page: MaxPage, Limit: MaxLimit}, productSort)
	require.NoError(t, err)
	assert.Equal(t, (MaxPage-1)*MaxLimit, req.Offset)

	for _, page := range []int{MaxPage + 1, math.MaxInt} {
		_, err = PageRequest(models.ListParams{Page: page, Limit: 1}, productSort)
		require.ErrorIs(t, err, ErrInvalidPage)
	}
}

func TestMeta(t *testing.T) {
	meta := Meta(models.ListParams{Page: 2, Limit: 10}, 25)
	assert.Equal(t, models.PageMeta{Page: 2, Limit: 10, Total: 25, TotalPages: 3}, meta)

	meta = Meta(models.ListParams{}, 0)
	assert.Equal(t, 0, meta.TotalPages)

	page := NewPage[models.Brand](nil, models.ListParams{}, 0)
	assert.NotNil(t, page.Items)
}
