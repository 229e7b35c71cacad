package models

// ListParams is the raw paging and sorting request of a list endpoint.
type ListParams struct {
	Page  int
	Limit int
	Sort  string
}

type SortField struct {
	Column string
	Desc   bool
}

// PageRequest is a normalized, storage-ready ListParams.
type PageRequest struct {
	Limit  int
	Offset int
	Sort   []SortField
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Page[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}
