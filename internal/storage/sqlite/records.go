package sqlite

import (
	"shop/internal/domain/models"
	"time"

	"github.com/uptrace/bun"
)

type userRecord struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64      `bun:"id,pk,autoincrement"`
	Name      string     `bun:"name"`
	Email     string     `bun:"email"`
	PassHash  []byte     `bun:"pass_hash"`
	CreatedAt time.Time  `bun:"created_at"`
	UpdatedAt time.Time  `bun:"updated_at"`
	DeletedAt *time.Time `bun:"deleted_at"`
}

func (r *userRecord) toDomain(roles []string) *models.User {
	if roles == nil {
		roles = []string{}
	}
	return &models.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Roles:     roles,
		PassHash:  r.PassHash,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		DeletedAt: r.DeletedAt,
	}
}

type roleRecord struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID          int64  `bun:"id,pk,autoincrement"`
	Name        string `bun:"name"`
	Description string `bun:"description"`
}

type userRoleRecord struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID int64 `bun:"user_id,pk"`
	RoleID int64 `bun:"role_id,pk"`
}

type refreshTokenRecord struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rt"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id"`
	Revoked   bool      `bun:"revoked"`
	ExpiresAt time.Time `bun:"expires_at"`
	CreatedAt time.Time `bun:"created_at"`
}

func (r *refreshTokenRecord) toDomain() *models.RefreshToken {
	return &models.RefreshToken{
		ID:        r.ID,
		UserID:    r.UserID,
		Revoked:   r.Revoked,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

type brandRecord struct {
	bun.BaseModel `bun:"table:brands,alias:b"`

	ID          int64      `bun:"id,pk,autoincrement"`
	Name        string     `bun:"name"`
	Description string     `bun:"description"`
	CreatedAt   time.Time  `bun:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at"`
	DeletedAt   *time.Time `bun:"deleted_at"`
}

func (r *brandRecord) toDomain() models.Brand {
	return models.Brand{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DeletedAt:   r.DeletedAt,
	}
}

type categoryRecord struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID          int64      `bun:"id,pk,autoincrement"`
	Name        string     `bun:"name"`
	Slug        string     `bun:"slug"`
	Description string     `bun:"description"`
	ParentID    *int64     `bun:"parent_id"`
	CreatedAt   time.Time  `bun:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at"`
	DeletedAt   *time.Time `bun:"deleted_at"`
}

func (r *categoryRecord) toDomain() models.Category {
	return models.Category{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		ParentID:    r.ParentID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DeletedAt:   r.DeletedAt,
	}
}

type productRecord struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          int64      `bun:"id,pk,autoincrement"`
	Name        string     `bun:"name"`
	SKU         string     `bun:"sku"`
	Description string     `bun:"description"`
	Price       int64      `bun:"price"`
	Stock       int        `bun:"stock"`
	Active      bool       `bun:"active"`
	BrandID     int64      `bun:"brand_id"`
	CategoryID  int64      `bun:"category_id"`
	CreatedAt   time.Time  `bun:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at"`
	DeletedAt   *time.Time `bun:"deleted_at"`
}

func (r *productRecord) toDomain() models.Product {
	return models.Product{
		ID:          r.ID,
		Name:        r.Name,
		SKU:         r.SKU,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Active:      r.Active,
		BrandID:     r.BrandID,
		CategoryID:  r.CategoryID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DeletedAt:   r.DeletedAt,
	}
}
