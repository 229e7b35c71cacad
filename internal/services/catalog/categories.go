package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"shop/internal/domain/models"
	"shop/internal/lib/query"
	"shop/internal/lib/sl"
)

// maxDepth bounds the ancestor walk of the parent check.
const maxDepth = 64

var categorySort = map[string]string{
	"id":        "id",
	"name":      "name",
	"slug":      "slug",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ParentID    *int64
}

type CategoryPatch struct {
	Name        *string
	Slug        *string
	Description *string
	ParentID    *int64
	// RemoveParent moves the category to the top level. It wins over ParentID.
	RemoveParent bool
}

func (c *Catalog) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	const op = "catalog.CreateCategory"
	log := c.logger.With(slog.String("op", op))

	if in.ParentID != nil {
		if _, err := c.categories.Category(ctx, *in.ParentID); err != nil {
			return nil, fmt.Errorf("%s: parent: %w", op, mapStorageErr(err))
		}
	}

	id, err := c.categories.SaveCategory(ctx, models.Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		ParentID:    in.ParentID,
	})
	if err != nil {
		err = mapStorageErr(err)
		if !isExpected(err) {
			log.Error("failed to save category", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("category created", slog.Int64("category_id", id))

	return c.Category(ctx, id)
}

func (c *Catalog) Category(ctx context.Context, id int64) (*models.Category, error) {
	const op = "catalog.Category"

	category, err := c.categories.Category(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return category, nil
}

func (c *Catalog) Categories(
	ctx context.Context,
	filter models.CategoryFilter,
	params models.ListParams,
) (*models.Page[models.Category], error) {
	const op = "catalog.Categories"

	page, err := query.PageRequest(params, categorySort)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, total, err := c.categories.Categories(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := query.NewPage(items, params, total)
	return &res, nil
}

func (c *Catalog) UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) (*models.Category, error) {
	const op = "catalog.UpdateCategory"
	log := c.logger.With(slog.String("op", op), slog.Int64("category_id", id))

	category, err := c.categories.Category(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	if patch.Name != nil {
		category.Name = *patch.Name
	}
	if patch.Slug != nil {
		category.Slug = *patch.Slug
	}
	if patch.Description != nil {
		category.Description = *patch.Description
	}
	switch {
	case patch.RemoveParent:
		category.ParentID = nil
	case patch.ParentID != nil:
		if err := c.checkParent(ctx, id, *patch.ParentID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		category.ParentID = patch.ParentID
	}

	if err := c.categories.UpdateCategory(ctx, *category); err != nil {
		err = mapStorageErr(err)
		if !isExpected(err) {
			log.Error("failed to update category", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("category updated")

	return c.Category(ctx, id)
}

func (c *Catalog) DeleteCategory(ctx context.Context, id int64) error {
	const op = "catalog.DeleteCategory"

	if err := c.categories.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	c.logger.Info("category deleted", slog.String("op", op), slog.Int64("category_id", id))

	return nil
}

// checkParent makes sure parentID is live and is not id or one of its descendants.
func (c *Catalog) checkParent(ctx context.Context, id, parentID int64) error {
	next := &parentID
	for depth := 0; next != nil && depth < maxDepth; depth++ {
		if *next == id {
			return ErrInvalidParent
		}

		ancestor, err := c.categories.Category(ctx, *next)
		if err != nil {
			return mapStorageErr(err)
		}
		next = ancestor.ParentID
	}

	return nil
}
