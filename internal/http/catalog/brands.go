package catalog

import (
	"net/http"
	"shop/internal/domain/models"
	"shop/internal/http/response"
	"shop/internal/lib/validate"
	"shop/internal/services/catalog"

	"github.com/gin-gonic/gin"
)

type brandListRequest struct {
	response.ListQuery
	Search string `form:"search" json:"search" validate:"omitempty,max=100"`
}

type brandRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type brandPatchRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

func (h *handler) listBrands(c *gin.Context) {
	var req brandListRequest
	if err := response.BindQuery(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}

	page, err := h.catalog.Brands(c.Request.Context(), models.BrandFilter{Search: req.Search}, req.Params())
	if err != nil {
		h.fail(c, "failed to list brands", err)
		return
	}

	response.OK(c, http.StatusOK, page)
}

func (h *handler) getBrand(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	brand, err := h.catalog.Brand(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get brand", err)
		return
	}

	response.OK(c, http.StatusOK, brand)
}

func (h *handler) createBrand(c *gin.Context) {
	var req brandRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	brand, err := h.catalog.CreateBrand(c.Request.Context(), catalog.BrandInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, "failed to create brand", err)
		return
	}

	response.OK(c, http.StatusCreated, brand)
}

func (h *handler) updateBrand(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	var req brandPatchRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	brand, err := h.catalog.UpdateBrand(c.Request.Context(), id, catalog.BrandPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, "failed to update brand", err)
		return
	}

	response.OK(c, http.StatusOK, brand)
}

func (h *handler) deleteBrand(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	if err := h.catalog.DeleteBrand(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete brand", err)
		return
	}

	response.Done(c, http.StatusOK)
}
