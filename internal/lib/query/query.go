// Package query normalizes paging and sorting parameters of list endpoints.
package query

import (
	"errors"
	"fmt"
	"shop/internal/domain/models"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit far away from overflowing an int.
	MaxPage = 1_000_000
)

var (
	ErrInvalidSort = errors.New("invalid sort field")
	ErrInvalidPage = errors.New("page out of range")
)

// PageRequest normalizes params into limit/offset form and resolves the sort
// expression against allowed, a map of public field name to column name.
// Fields are comma separated; a leading "-" sorts descending.
func PageRequest(params models.ListParams, allowed map[string]string, fallback ...models.SortField) (models.PageRequest, error) {
	page, limit := Normalize(params)
	if page > MaxPage {
		return models.PageRequest{}, fmt.Errorf("%w: %d", ErrInvalidPage, params.Page)
	}

	sort, err := ParseSort(params.Sort, allowed)
	if err != nil {
		return models.PageRequest{}, err
	}
	if len(sort) == 0 {
		sort = fallback
	}

	return models.PageRequest{
		Limit:  limit,
		Offset: (page - 1) * limit,
		Sort:   sort,
	}, nil
}

func Normalize(params models.ListParams) (page, limit int) {
	page, limit = params.Page, params.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func ParseSort(raw string, allowed map[string]string) ([]models.SortField, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	fields := make([]models.SortField, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		desc := false
		switch {
		case strings.HasPrefix(part, "-"):
			desc = true
			part = part[1:]
		case strings.HasPrefix(part, "+"):
			part = part[1:]
		}

		column, ok := allowed[part]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSort, part)
		}
		if seen[column] {
			continue
		}
		seen[column] = true

		fields = append(fields, models.SortField{Column: column, Desc: desc})
	}

	return fields, nil
}

// Meta describes the page returned for params out of total rows.
func Meta(params models.ListParams, total int) models.PageMeta {
	page, limit := Normalize(params)

	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}

	return models.PageMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
	}
}

func NewPage[T any](items []T, params models.ListParams, total int) models.Page[T] {
	if items == nil {
		items = []T{}
	}
	return models.Page[T]{
		Items: items,
		Meta:  Meta(params, total),
	}
}
