package response

import (
	"errors"
	"fmt"
	"io"
	"shop/internal/domain/models"
	"shop/internal/lib/validate"
	"strconv"

	"github.com/gin-gonic/gin"
)

// BindJSON decodes the request body into req. An empty body leaves req zeroed.
func BindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}

// ID parses the :id path parameter.
func ID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

// ListQuery is the paging and sorting part of a list request.
type ListQuery struct {
	Page  int    `form:"page" json:"page" validate:"omitempty,gte=1,max=1000000"`
	Limit int    `form:"limit" json:"limit" validate:"omitempty,gte=1,max=100"`
	Sort  string `form:"sort" json:"sort" validate:"omitempty,max=200"`
}

func (q ListQuery) Params() models.ListParams {
	return models.ListParams{Page: q.Page, Limit: q.Limit, Sort: q.Sort}
}

// BindQuery decodes and validates the query string into req.
func BindQuery(c *gin.Context, req any) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return fmt.Errorf("malformed query: %w", err)
	}
	return validate.Struct(req)
}
