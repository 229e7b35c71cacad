package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"shop/internal/domain/models"
	"shop/internal/storage"
	"time"

	"github.com/uptrace/bun"
)

func (s *Storage) SaveBrand(ctx context.Context, brand models.Brand) (int64, error) {
	const op = "storage.sqlite.SaveBrand"

	now := time.Now().UTC()
	rec := &brandRecord{
		Name:        brand.Name,
		Description: brand.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.db.NewInsert().Model(rec).Returning("id").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrBrandExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rec.ID, nil
}

func (s *Storage) Brand(ctx context.Context, id int64) (*models.Brand, error) {
	const op = "storage.sqlite.Brand"

	rec := new(brandRecord)
	if err := s.selectLive(ctx, rec, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrBrandNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	brand := rec.toDomain()
	return &brand, nil
}

func (s *Storage) Brands(
	ctx context.Context,
	filter models.BrandFilter,
	page models.PageRequest,
) ([]models.Brand, int, error) {
	const op = "storage.sqlite.Brands"

	where := func(q *bun.SelectQuery) *bun.SelectQuery {
		q = live(q)
		if filter.Search != "" {
			q = q.Where("?TableAlias.name LIKE ? ESCAPE '!'", likePattern(filter.Search))
		}
		return q
	}

	var recs []brandRecord
	total, err := s.list(ctx, &recs, (*brandRecord)(nil), where, page)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	brands := make([]models.Brand, 0, len(recs))
	for i := range recs {
		brands = append(brands, recs[i].toDomain())
	}

	return brands, total, nil
}

func (s *Storage) UpdateBrand(ctx context.Context, brand models.Brand) error {
	const op = "storage.sqlite.UpdateBrand"

	q := s.db.NewUpdate().
		Model((*brandRecord)(nil)).
		Set("name = ?", brand.Name).
		Set("description = ?", brand.Description)

	if err := s.updateLive(ctx, q, brand.ID, storage.ErrBrandNotFound, storage.ErrBrandExists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) DeleteBrand(ctx context.Context, id int64) error {
	const op = "storage.sqlite.DeleteBrand"

	if err := s.softDelete(ctx, (*brandRecord)(nil), id, storage.ErrBrandNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) SaveCategory(ctx context.Context, category models.Category) (int64, error) {
	const op = "storage.sqlite.SaveCategory"

	now := time.Now().UTC()
	rec := &categoryRecord{
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		ParentID:    category.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.db.NewInsert().Model(rec).Returning("id").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrCategoryExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rec.ID, nil
}

func (s *Storage) Category(ctx context.Context, id int64) (*models.Category, error) {
	const op = "storage.sqlite.Category"

	rec := new(categoryRecord)
	if err := s.selectLive(ctx, rec, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrCategoryNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	category := rec.toDomain()
	return &category, nil
}

func (s *Storage) Categories(
	ctx context.Context,
	filter models.CategoryFilter,
	page models.PageRequest,
) ([]models.Category, int, error) {
	const op = "storage.sqlite.Categories"

	where := func(q *bun.SelectQuery) *bun.SelectQuery {
		q = live(q)
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			q = q.Where("(?TableAlias.name LIKE ? ESCAPE '!' OR ?TableAlias.slug LIKE ? ESCAPE '!')", pattern, pattern)
		}
		if filter.ParentID != nil {
			q = q.Where("?TableAlias.parent_id = ?", *filter.ParentID)
		}
		return q
	}

	var recs []categoryRecord
	total, err := s.list(ctx, &recs, (*categoryRecord)(nil), where, page)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	categories := make([]models.Category, 0, len(recs))
	for i := range recs {
		categories = append(categories, recs[i].toDomain())
	}

	return categories, total, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, category models.Category) error {
	const op = "storage.sqlite.UpdateCategory"

	q := s.db.NewUpdate().
		Model((*categoryRecord)(nil)).
		Set("name = ?", category.Name).
		Set("slug = ?", category.Slug).
		Set("description = ?", category.Description).
		Set("parent_id = ?", category.ParentID)

	if err := s.updateLive(ctx, q, category.ID, storage.ErrCategoryNotFound, storage.ErrCategoryExists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) DeleteCategory(ctx context.Context, id int64) error {
	const op = "storage.sqlite.DeleteCategory"

	if err := s.softDelete(ctx, (*categoryRecord)(nil), id, storage.ErrCategoryNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) SaveProduct(ctx context.Context, product models.Product) (int64, error) {
	const op = "storage.sqlite.SaveProduct"

	now := time.Now().UTC()
	rec := &productRecord{
		Name:        product.Name,
		SKU:         product.SKU,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		Active:      product.Active,
		BrandID:     product.BrandID,
		CategoryID:  product.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.db.NewInsert().Model(rec).Returning("id").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrProductExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rec.ID, nil
}

func (s *Storage) Product(ctx context.Context, id int64) (*models.Product, error) {
	const op = "storage.sqlite.Product"

	rec := new(productRecord)
	if err := s.selectLive(ctx, rec, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	product := rec.toDomain()
	return &product, nil
}

func (s *Storage) Products(
	ctx context.Context,
	filter models.ProductFilter,
	page models.PageRequest,
) ([]models.Product, int, error) {
	const op = "storage.sqlite.Products"

	where := func(q *bun.SelectQuery) *bun.SelectQuery {
		q = live(q)
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			q = q.Where("(?TableAlias.name LIKE ? ESCAPE '!' OR ?TableAlias.sku LIKE ? ESCAPE '!')", pattern, pattern)
		}
		if filter.BrandID != nil {
			q = q.Where("?TableAlias.brand_id = ?", *filter.BrandID)
		}
		if filter.CategoryID != nil {
			q = q.Where("?TableAlias.category_id = ?", *filter.CategoryID)
		}
		if filter.MinPrice != nil {
			q = q.Where("?TableAlias.price >= ?", *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			q = q.Where("?TableAlias.price <= ?", *filter.MaxPrice)
		}
		if filter.InStock != nil {
			if *filter.InStock {
				q = q.Where("?TableAlias.stock > 0")
			} else {
				q = q.Where("?TableAlias.stock <= 0")
			}
		}
		if filter.Active != nil {
			q = q.Where("?TableAlias.active = ?", *filter.Active)
		}
		return q
	}

	var recs []productRecord
	total, err := s.list(ctx, &recs, (*productRecord)(nil), where, page)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	products := make([]models.Product, 0, len(recs))
	for i := range recs {
		products = append(products, recs[i].toDomain())
	}

	return products, total, nil
}

func (s *Storage) UpdateProduct(ctx context.Context, product models.Product) error {
	const op = "storage.sqlite.UpdateProduct"

	q := s.db.NewUpdate().
		Model((*productRecord)(nil)).
		Set("name = ?", product.Name).
		Set("sku = ?", product.SKU).
		Set("description = ?", product.Description).
		Set("price = ?", product.Price).
		Set("stock = ?", product.Stock).
		Set("active = ?", product.Active).
		Set("brand_id = ?", product.BrandID).
		Set("category_id = ?", product.CategoryID)

	if err := s.updateLive(ctx, q, product.ID, storage.ErrProductNotFound, storage.ErrProductExists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	const op = "storage.sqlite.DeleteProduct"

	if err := s.softDelete(ctx, (*productRecord)(nil), id, storage.ErrProductNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) selectLive(ctx context.Context, model any, id int64) error {
	return s.db.NewSelect().
		Model(model).
		Where("?TableAlias.id = ?", id).
		Apply(live).
		Scan(ctx)
}

// list counts every match and scans one page of it into dest.
func (s *Storage) list(
	ctx context.Context,
	dest any,
	table any,
	where func(*bun.SelectQuery) *bun.SelectQuery,
	page models.PageRequest,
) (int, error) {
	total, err := s.db.NewSelect().Model(table).Apply(where).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	err = s.db.NewSelect().
		Model(dest).
		Apply(where).
		Apply(func(q *bun.SelectQuery) *bun.SelectQuery { return applyPage(q, page) }).
		Scan(ctx)
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (s *Storage) updateLive(
	ctx context.Context,
	q *bun.UpdateQuery,
	id int64,
	errNotFound error,
	errExists error,
) error {
	res, err := q.
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return errExists
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}

	return nil
}

func (s *Storage) softDelete(ctx context.Context, table any, id int64, errNotFound error) error {
	now := time.Now().UTC()
	res, err := s.db.NewUpdate().
		Model(table).
		Set("deleted_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNotFound
	}

	return nil
}
