package models

import "time"

type Brand struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}

type Category struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ParentID    *int64     `json:"parentId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}

type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
	// Price is in minor currency units.
	Price      int64      `json:"price"`
	Stock      int        `json:"stock"`
	Active     bool       `json:"active"`
	BrandID    int64      `json:"brandId"`
	CategoryID int64      `json:"categoryId"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	DeletedAt  *time.Time `json:"-"`
}

type BrandFilter struct {
	Search string
}

type CategoryFilter struct {
	Search   string
	ParentID *int64
}

type ProductFilter struct {
	Search     string
	BrandID    *int64
	CategoryID *int64
	MinPrice   *int64
	MaxPrice   *int64
	InStock    *bool
	Active     *bool
}
