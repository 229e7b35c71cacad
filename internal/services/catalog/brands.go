package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"shop/internal/domain/models"
	"shop/internal/lib/query"
	"shop/internal/lib/sl"
)

var brandSort = map[string]string{
	"id":        "id",
	"name":      "name",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type BrandInput struct {
	Name        string
	Description string
}

type BrandPatch struct {
	Name        *string
	Description *string
}

func (c *Catalog) CreateBrand(ctx context.Context, in BrandInput) (*models.Brand, error) {
	const op = "catalog.CreateBrand"
	log := c.logger.With(slog.String("op", op))

	id, err := c.brands.SaveBrand(ctx, models.Brand{Name: in.Name, Description: in.Description})
	if err != nil {
		err = mapStorageErr(err)
		if !isExpected(err) {
			log.Error("failed to save brand", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("brand created", slog.Int64("brand_id", id))

	return c.Brand(ctx, id)
}

func (c *Catalog) Brand(ctx context.Context, id int64) (*models.Brand, error) {
	const op = "catalog.Brand"

	brand, err := c.brands.Brand(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return brand, nil
}

func (c *Catalog) Brands(
	ctx context.Context,
	filter models.BrandFilter,
	params models.ListParams,
) (*models.Page[models.Brand], error) {
	const op = "catalog.Brands"

	page, err := query.PageRequest(params, brandSort)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, total, err := c.brands.Brands(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := query.NewPage(items, params, total)
	return &res, nil
}

func (c *Catalog) UpdateBrand(ctx context.Context, id int64, patch BrandPatch) (*models.Brand, error) {
	const op = "catalog.UpdateBrand"
	log := c.logger.With(slog.String("op", op), slog.Int64("brand_id", id))

	brand, err := c.brands.Brand(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	if patch.Name != nil {
		brand.Name = *patch.Name
	}
	if patch.Description != nil {
		brand.Description = *patch.Description
	}

	if err := c.brands.UpdateBrand(ctx, *brand); err != nil {
		err = mapStorageErr(err)
		if !isExpected(err) {
			log.Error("failed to update brand", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("brand updated")

	return c.Brand(ctx, id)
}

func (c *Catalog) DeleteBrand(ctx context.Context, id int64) error {
	const op = "catalog.DeleteBrand"

	if err := c.brands.DeleteBrand(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	c.logger.Info("brand deleted", slog.String("op", op), slog.Int64("brand_id", id))

	return nil
}
