package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"shop/internal/domain/models"
	"shop/internal/lib/query"
	"shop/internal/lib/sl"
)

var productSort = map[string]string{
	"id":        "id",
	"name":      "name",
	"sku":       "sku",
	"price":     "price",
	"stock":     "stock",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type ProductInput struct {
	Name        string
	SKU         string
	Description string
	Price       int64
	Stock       int
	// Active defaults to true.
	Active     *bool
	BrandID    int64
	CategoryID int64
}

type ProductPatch struct {
	Name        *string
	SKU         *string
	Description *string
	Price       *int64
	Stock       *int
	Active      *bool
	BrandID     *int64
	CategoryID  *int64
}

func (c *Catalog) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	const op = "catalog.CreateProduct"
	log := c.logger.With(slog.String("op", op))

	if err := c.checkRefs(ctx, in.BrandID, in.CategoryID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	id, err := c.products.SaveProduct(ctx, models.Product{
		Name:        in.Name,
		SKU:         in.SKU,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Active:      active,
		BrandID:     in.BrandID,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		err = mapStorageErr(err)
		if !isExpected(err) {
			log.Error("failed to save product", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("product created", slog.Int64("product_id", id))

	return c.Product(ctx, id)
}

func (c *Catalog) Product(ctx context.Context, id int64) (*models.Product, error) {
	const op = "catalog.Product"

	product, err := c.products.Product(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return product, nil
}

func (c *Catalog) Products(
	ctx context.Context,
	filter models.ProductFilter,
	params models.ListParams,
) (*models.Page[models.Product], error) {
	const op = "catalog.Products"

	page, err := query.PageRequest(params, productSort)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, total, err := c.products.Products(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := query.NewPage(items, params, total)
	return &res, nil
}

func (c *Catalog) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*models.Product, error) {
	const op = "catalog.UpdateProduct"
	log := c.logger.With(slog.String("op", op), slog.Int64("product_id", id))

	product, err := c.products.Product(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.SKU != nil {
		product.SKU = *patch.SKU
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.Active != nil {
		product.Active = *patch.Active
	}
	if patch.BrandID != nil {
		product.BrandID = *patch.BrandID
	}
	if patch.CategoryID != nil {
		product.CategoryID = *patch.CategoryID
	}

	if patch.BrandID != nil || patch.CategoryID != nil {
		if err := c.checkRefs(ctx, product.BrandID, product.CategoryID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := c.products.UpdateProduct(ctx, *product); err != nil {
		err = mapStorageErr(err)
		if !isExpected(err) {
			log.Error("failed to update product", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("product updated")

	return c.Product(ctx, id)
}

func (c *Catalog) DeleteProduct(ctx context.Context, id int64) error {
	const op = "catalog.DeleteProduct"

	if err := c.products.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	c.logger.Info("product deleted", slog.String("op", op), slog.Int64("product_id", id))

	return nil
}

// checkRefs makes sure a product points at a live brand and category.
func (c *Catalog) checkRefs(ctx context.Context, brandID, categoryID int64) error {
	if _, err := c.brands.Brand(ctx, brandID); err != nil {
		return mapStorageErr(err)
	}
	if _, err := c.categories.Category(ctx, categoryID); err != nil {
		return mapStorageErr(err)
	}
	return nil
}
