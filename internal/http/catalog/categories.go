package catalog

import (
	"net/http"
	"shop/internal/domain/models"
	"shop/internal/http/response"
	"shop/internal/lib/validate"
	"shop/internal/services/catalog"

	"github.com/gin-gonic/gin"
)

type categoryListRequest struct {
	response.ListQuery
	Search   string `form:"search" json:"search" validate:"omitempty,max=100"`
	ParentID *int64 `form:"parentId" json:"parentId" validate:"omitempty,gt=0"`
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	ParentID    *int64 `json:"parentId" validate:"omitempty,gt=0"`
}

type categoryPatchRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Slug         *string `json:"slug" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	ParentID     *int64  `json:"parentId" validate:"omitempty,gt=0"`
	RemoveParent bool    `json:"removeParent"`
}

func (h *handler) listCategories(c *gin.Context) {
	var req categoryListRequest
	if err := response.BindQuery(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}

	page, err := h.catalog.Categories(c.Request.Context(), models.CategoryFilter{
		Search:   req.Search,
		ParentID: req.ParentID,
	}, req.Params())
	if err != nil {
		h.fail(c, "failed to list categories", err)
		return
	}

	response.OK(c, http.StatusOK, page)
}

func (h *handler) getCategory(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	category, err := h.catalog.Category(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get category", err)
		return
	}

	response.OK(c, http.StatusOK, category)
}

func (h *handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), catalog.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ParentID:    req.ParentID,
	})
	if err != nil {
		h.fail(c, "failed to create category", err)
		return
	}

	response.OK(c, http.StatusCreated, category)
}

func (h *handler) updateCategory(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	var req categoryPatchRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	category, err := h.catalog.UpdateCategory(c.Request.Context(), id, catalog.CategoryPatch{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		ParentID:     req.ParentID,
		RemoveParent: req.RemoveParent,
	})
	if err != nil {
		h.fail(c, "failed to update category", err)
		return
	}

	response.OK(c, http.StatusOK, category)
}

func (h *handler) deleteCategory(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete category", err)
		return
	}

	response.Done(c, http.StatusOK)
}
