package users

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
	"shop/internal/lib/validate"
	"shop/internal/services/users"

	"github.com/gin-gonic/gin"
)

type Users interface {
	Create(ctx context.Context, in users.CreateInput) (*models.User, error)
	User(ctx context.Context, id int64) (*models.User, error)
	Users(ctx context.Context, filter models.UserFilter, params models.ListParams) (*models.Page[models.User], error)
	Update(ctx context.Context, id int64, in users.UpdateInput) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	SetRoles(ctx context.Context, id int64, roles []string) (*models.User, error)
	Roles(ctx context.Context) ([]models.Role, error)
}

type handler struct {
	log   *slog.Logger
	users Users
}

type listRequest struct {
	response.ListQuery
	Search string `form:"search" json:"search" validate:"omitempty,max=100"`
	Role   string `form:"role" json:"role" validate:"omitempty,oneof=admin manager customer"`
}

type createRequest struct {
	Name     string   `json:"name" validate:"required,min=2,max=100"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8,maxbytes=72"`
	Roles    []string `json:"roles" validate:"omitempty,dive,oneof=admin manager customer"`
}

type updateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,maxbytes=72"`
}

type rolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=admin manager customer"`
}

// Register mounts /users and /roles behind authenticate. Only admins manage
// users; everyone may read and update their own record.
func Register(r gin.IRouter, log *slog.Logger, svc Users, authenticate gin.HandlerFunc) {
	h := &handler{log: log, users: svc}
	admin := middleware.RequireRoles(models.RoleAdmin)

	g := r.Group("/users", authenticate)
	g.GET("", admin, h.list)
	g.POST("", admin, h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", admin, h.delete)
	g.PUT("/:id/roles", admin, h.setRoles)

	r.GET("/roles", authenticate, admin, h.roles)
}

func (h *handler) list(c *gin.Context) {
	var req listRequest
	if err := response.BindQuery(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}

	page, err := h.users.Users(c.Request.Context(), models.UserFilter{
		Search: req.Search,
		Role:   req.Role,
	}, req.Params())
	if err != nil {
		h.fail(c, "failed to list users", err)
		return
	}

	response.OK(c, http.StatusOK, page)
}

func (h *handler) create(c *gin.Context) {
	var req createRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), users.CreateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		h.fail(c, "failed to create user", err)
		return
	}

	response.OK(c, http.StatusCreated, user)
}

func (h *handler) get(c *gin.Context) {
	id, ok := h.target(c)
	if !ok {
		return
	}

	user, err := h.users.User(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "failed to get user", err)
		return
	}

	response.OK(c, http.StatusOK, user)
}

func (h *handler) update(c *gin.Context) {
	id, ok := h.target(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, users.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, "failed to update user", err)
		return
	}

	response.OK(c, http.StatusOK, user)
}

func (h *handler) delete(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "failed to delete user", err)
		return
	}

	response.Done(c, http.StatusOK)
}

func (h *handler) setRoles(c *gin.Context) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return
	}

	var req rolesRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	user, err := h.users.SetRoles(c.Request.Context(), id, req.Roles)
	if err != nil {
		h.fail(c, "failed to set user roles", err)
		return
	}

	response.OK(c, http.StatusOK, user)
}

func (h *handler) roles(c *gin.Context) {
	roles, err := h.users.Roles(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to list roles", err)
		return
	}

	response.OK(c, http.StatusOK, roles)
}

// target parses :id and checks the caller may act on that user.
func (h *handler) target(c *gin.Context) (int64, bool) {
	id, err := response.ID(c)
	if err != nil {
		response.Invalid(c, err)
		return 0, false
	}

	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	if identity.UserID != id && !identity.HasRole(models.RoleAdmin) {
		response.Error(c, http.StatusForbidden, "forbidden")
		return 0, false
	}

	return id, true
}

func (h *handler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "user not found")
	case errors.Is(err, users.ErrUserExists):
		response.Error(c, http.StatusConflict, "user already exists")
	case errors.Is(err, users.ErrRoleNotFound):
		response.Error(c, http.StatusBadRequest, "role not found")
	case errors.Is(err, users.ErrRolesRequired):
		response.Error(c, http.StatusBadRequest, "at least one role is required")
	case errors.Is(err, users.ErrPasswordTooLong):
		response.InvalidField(c, "password", "password must be at most 72 bytes")
	case errors.Is(err, query.ErrInvalidSort):
		response.Error(c, http.StatusBadRequest, "invalid sort field")
	case errors.Is(err, query.ErrInvalidPage):
		response.InvalidField(c, "page", "page is out of range")
	default:
		h.log.Error(msg, sl.Err(err), slog.String("request_id", middleware.RequestIDFrom(c)))
		response.Internal(c)
	}
}
