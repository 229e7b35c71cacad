// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"errors"
	"net/http"
	"shop/internal/lib/validate"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Response struct {
	Status  string                `json:"status"`
	Data    any                   `json:"data,omitempty"`
	Message string                `json:"message,omitempty"`
	Errors  []validate.FieldError `json:"errors,omitempty"`
}

func OK(c *gin.Context, code int, data any) {
	c.JSON(code, Response{Status: StatusSuccess, Data: data})
}

// Done reports success without a payload.
func Done(c *gin.Context, code int) {
	c.JSON(code, Response{Status: StatusSuccess})
}

func Error(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, Response{Status: StatusError, Message: msg})
}

// Invalid answers 400. Field errors are listed when err carries them.
func Invalid(c *gin.Context, err error) {
	var fields validate.FieldErrors
	if errors.As(err, &fields) {
		c.AbortWithStatusJSON(http.StatusBadRequest, Response{
			Status:  StatusError,
			Message: "validation failed",
			Errors:  fields,
		})
		return
	}

	Error(c, http.StatusBadRequest, err.Error())
}

func InvalidField(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Status:  StatusError,
		Message: msg,
		Errors:  []validate.FieldError{{Field: field, Message: msg}},
	})
}

func Internal(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "internal error")
}
