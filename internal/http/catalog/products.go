package catalog

import (
	"net/http"
	"shop/internal/domain/models"
	"shop/internal/http/response"
	"shop/internal/lib/validate"
	"shop/internal/services/catalog"

	"github.com/gin-gonic/gin"
)

type productListRequest struct {
	response.ListQuery
	Search     string `form:"search" json:"search" validate:"omitempty,max=100"`
	BrandID    *int64 `form:"brandId" json:"brandId" validate:"omitempty,gt=0"`
	CategoryID *int64 `form:"categoryId" json:"categoryId" validate:"omitempty,gt=0"`
	MinPrice   *int64 `form:"minPrice" json:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice   *int64 `form:"maxPrice" json:"maxPrice" validate:"omitempty,gte=0"`
	InStock    *bool  `form:"inStock" json:"inStock"`
	Active     *bool  `form:"active" json:"active"`
}

type productRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	SKU         string `json:"sku" validate:"required,max=64"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	Active      *bool  `json:"active"`
	BrandID     int64  `json:"brandId" validate:"required,gt=0"`
	CategoryID  int64  `json:"categoryId" validate:"required,gt=0"`
}

type productPatchRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	SKU         *string `json:"sku" validate:"omitempty,min=1,max=64"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
	Stock       *int    `json:"stock" validate:"omitempty,gte=0"`
	Active      *bool   `json:"active"`
	BrandID     *int64  `json:"brandId" validate:"omitempty,gt=0"`
	CategoryID  *int64  `json:"categoryId" validate:"omitempty,gt=0"`
}

func (h *handler) listProducts(c *gin.Context) {
	var req productListRequest
	if err := response.BindQuery(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		response.InvalidField(c, "minPrice", "minPrice must not exceed maxPrice")
		return
	}

	page, err := h.catalog.Products(c.Request.Context(), models.ProductFilter{
		Search:     req.Search,
		BrandID:    req.BrandID,
		CategoryID: req.CategoryID,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
		InStock:    req.InStock,
		Active:     req.Active,
	}, req.Params())
	if err != nil {
		h.fail(c, "failed to list products", err)
		return
	}

	response.OK(c, http.StatusOK, page)
}

func (h *handler) getProduct(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	product, err := h.catalog.Product(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get product", err)
		return
	}

	response.OK(c, http.StatusOK, product)
}

func (h *handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), catalog.ProductInput{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Active:      req.Active,
		BrandID:     req.BrandID,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.fail(c, "failed to create product", err)
		return
	}

	response.OK(c, http.StatusCreated, product)
}

func (h *handler) updateProduct(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	var req productPatchRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), id, catalog.ProductPatch{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Active:      req.Active,
		BrandID:     req.BrandID,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.fail(c, "failed to update product", err)
		return
	}

	response.OK(c, http.StatusOK, product)
}

func (h *handler) deleteProduct(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete product", err)
		return
	}

	response.Done(c, http.StatusOK)
}
