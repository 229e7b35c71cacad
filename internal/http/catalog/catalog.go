// Package catalog serves brands, categories and products. Reads are public,
// writes need the admin or manager role.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"shop/internal/domain/models"
	"shop/internal/http/middleware"
	"shop/internal/http/response"
	"shop/internal/lib/query"
	"shop/internal/lib/sl"
	"shop/internal/services/catalog"

	"github.com/gin-gonic/gin"
)

type Catalog interface {
	CreateBrand(ctx context.Context, in catalog.BrandInput) (*models.Brand, error)
	Brand(ctx context.Context, id int64) (*models.Brand, error)
	Brands(ctx context.Context, filter models.BrandFilter, params models.ListParams) (*models.Page[models.Brand], error)
	UpdateBrand(ctx context.Context, id int64, patch catalog.BrandPatch) (*models.Brand, error)
	DeleteBrand(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, in catalog.CategoryInput) (*models.Category, error)
	Category(ctx context.Context, id int64) (*models.Category, error)
	Categories(ctx context.Context, filter models.CategoryFilter, params models.ListParams) (*models.Page[models.Category], error)
	UpdateCategory(ctx context.Context, id int64, patch catalog.CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, in catalog.ProductInput) (*models.Product, error)
	Product(ctx context.Context, id int64) (*models.Product, error)
	Products(ctx context.Context, filter models.ProductFilter, params models.ListParams) (*models.Page[models.Product], error)
	UpdateProduct(ctx context.Context, id int64, patch catalog.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type handler struct {
	log     *slog.Logger
	catalog Catalog
}

func Register(r gin.IRouter, log *slog.Logger, svc Catalog, authenticate gin.HandlerFunc) {
	h := &handler{log: log, catalog: svc}
	write := []gin.HandlerFunc{authenticate, middleware.RequireRoles(models.RoleAdmin, models.RoleManager)}

	brands := r.Group("/brands")
	brands.GET("", h.listBrands)
	brands.GET("/:id", h.getBrand)
	brands.POST("", append(write, h.createBrand)...)
	brands.PATCH("/:id", append(write, h.updateBrand)...)
	brands.DELETE("/:id", append(write, h.deleteBrand)...)

	categories := r.Group("/categories")
	categories.GET("", h.listCategories)
	categories.GET("/:id", h.getCategory)
	categories.POST("", append(write, h.createCategory)...)
	categories.PATCH("/:id", append(write, h.updateCategory)...)
	categories.DELETE("/:id", append(write, h.deleteCategory)...)

	products := r.Group("/products")
	products.GET("", h.listProducts)
	products.GET("/:id", h.getProduct)
	products.POST("", append(write, h.createProduct)...)
	products.PATCH("/:id", append(write, h.updateProduct)...)
	products.DELETE("/:id", append(write, h.deleteProduct)...)
}

func (h *handler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, catalog.ErrBrandNotFound):
		response.Error(c, http.StatusNotFound, "brand not found")
	case errors.Is(err, catalog.ErrCategoryNotFound):
		response.Error(c, http.StatusNotFound, "category not found")
	case errors.Is(err, catalog.ErrProductNotFound):
		response.Error(c, http.StatusNotFound, "product not found")
	case errors.Is(err, catalog.ErrBrandExists):
		response.Error(c, http.StatusConflict, "brand already exists")
	case errors.Is(err, catalog.ErrCategoryExists):
		response.Error(c, http.StatusConflict, "category already exists")
	case errors.Is(err, catalog.ErrProductExists):
		response.Error(c, http.StatusConflict, "product already exists")
	case errors.Is(err, catalog.ErrInvalidParent):
		response.InvalidField(c, "parentId", "category cannot be nested under itself")
	case errors.Is(err, query.ErrInvalidSort):
		response.Error(c, http.StatusBadRequest, "invalid sort field")
	case errors.Is(err, query.ErrInvalidPage):
		response.InvalidField(c, "page", "page is out of range")
	default:
		h.log.Error(msg, sl.Err(err), slog.String("request_id", middleware.RequestIDFrom(c)))
		response.Internal(c)
	}
}
