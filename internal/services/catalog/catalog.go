package catalog

import (
	"context"
	"errors"
	"log/slog"
	"shop/internal/domain/models"
	"shop/internal/storage"
)

var (
	ErrBrandNotFound    = errors.New("brand not found")
	ErrBrandExists      = errors.New("brand already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrProductNotFound  = errors.New("product not found")
	ErrProductExists    = errors.New("product already exists")
	ErrInvalidParent    = errors.New("category cannot be nested under itself")
)

type BrandStore interface {
	SaveBrand(ctx context.Context, brand models.Brand) (int64, error)
	Brand(ctx context.Context, id int64) (*models.Brand, error)
	Brands(ctx context.Context, filter models.BrandFilter, page models.PageRequest) ([]models.Brand, int, error)
	UpdateBrand(ctx context.Context, brand models.Brand) error
	DeleteBrand(ctx context.Context, id int64) error
}

type CategoryStore interface {
	SaveCategory(ctx context.Context, category models.Category) (int64, error)
	Category(ctx context.Context, id int64) (*models.Category, error)
	Categories(ctx context.Context, filter models.CategoryFilter, page models.PageRequest) ([]models.Category, int, error)
	UpdateCategory(ctx context.Context, category models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

type ProductStore interface {
	SaveProduct(ctx context.Context, product models.Product) (int64, error)
	Product(ctx context.Context, id int64) (*models.Product, error)
	Products(ctx context.Context, filter models.ProductFilter, page models.PageRequest) ([]models.Product, int, error)
	UpdateProduct(ctx context.Context, product models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// Catalog manages brands, categories and products.
type Catalog struct {
	logger     *slog.Logger
	brands     BrandStore
	categories CategoryStore
	products   ProductStore
}

func New(
	logger *slog.Logger,
	brands BrandStore,
	categories CategoryStore,
	products ProductStore,
) *Catalog {
	return &Catalog{
		logger:     logger,
		brands:     brands,
		categories: categories,
		products:   products,
	}
}

func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrBrandNotFound):
		return ErrBrandNotFound
	case errors.Is(err, storage.ErrBrandExists):
		return ErrBrandExists
	case errors.Is(err, storage.ErrCategoryNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, storage.ErrCategoryExists):
		return ErrCategoryExists
	case errors.Is(err, storage.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, storage.ErrProductExists):
		return ErrProductExists
	default:
		return err
	}
}

// isExpected reports errors that are the caller's fault and need no error log.
func isExpected(err error) bool {
	for _, target := range []error{
		ErrBrandNotFound, ErrBrandExists,
		ErrCategoryNotFound, ErrCategoryExists,
		ErrProductNotFound, ErrProductExists,
		ErrInvalidParent,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
