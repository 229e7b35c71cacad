package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"shop/internal/domain/models"
	"shop/internal/http/middleware"
	"shop/internal/http/response"
	"shop/internal/lib/sl"
	"shop/internal/lib/validate"
	authsvc "shop/internal/services/auth"
	"shop/internal/services/tokens"
	"shop/internal/services/users"

	"github.com/gin-gonic/gin"
)

type Auth interface {
	Register(ctx context.Context, name, email, password string) (*authsvc.Session, error)
	Login(ctx context.Context, email, password string) (*authsvc.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*authsvc.Session, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Profile interface {
	User(ctx context.Context, id int64) (*models.User, error)
}

type handler struct {
	log     *slog.Logger
	auth    Auth
	profile Profile
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// refreshRequest is validated by the token service so that a missing token
// gets the same answer however the body was shaped.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register mounts the /auth routes. authenticate guards /auth/me.
func Register(r gin.IRouter, log *slog.Logger, auth Auth, profile Profile, authenticate gin.HandlerFunc) {
	h := &handler{log: log, auth: auth, profile: profile}

	g := r.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)
	g.GET("/me", authenticate, h.me)
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	session, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrUserAlreadyExists) {
			response.Error(c, http.StatusConflict, "user already exists")
			return
		}
		if errors.Is(err, users.ErrPasswordTooLong) {
			response.InvalidField(c, "password", "password must be at most 72 bytes")
			return
		}
		h.internal(c, "failed to register user", err)
		return
	}

	response.OK(c, http.StatusCreated, session)
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		response.Invalid(c, err)
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.internal(c, "failed to login", err)
		return
	}

	response.OK(c, http.StatusCreated, session)
}

func (h *handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}

	session, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.tokenError(c, "failed to refresh token", err)
		return
	}

	response.OK(c, http.StatusCreated, session)
}

func (h *handler) logout(c *gin.Context) {
	var req refreshRequest
	if err := response.BindJSON(c, &req); err != nil {
		response.Invalid(c, err)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.tokenError(c, "failed to logout", err)
		return
	}

	response.Done(c, http.StatusCreated)
}

func (h *handler) me(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.profile.User(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			response.Error(c, http.StatusUnauthorized, "user not found")
			return
		}
		h.internal(c, "failed to get current user", err)
		return
	}

	response.OK(c, http.StatusOK, user)
}

func (h *handler) tokenError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, tokens.ErrRefreshTokenRequired):
		response.InvalidField(c, "refreshToken", "refreshToken is required")
	case errors.Is(err, authsvc.ErrTokenExpired),
		errors.Is(err, tokens.ErrRefreshTokenExpired):
		response.Error(c, http.StatusUnauthorized, "token expired")
	case errors.Is(err, tokens.ErrRefreshTokenRevoked):
		response.Error(c, http.StatusUnauthorized, "refresh token revoked")
	case errors.Is(err, tokens.ErrRefreshTokenNotFound),
		errors.Is(err, tokens.ErrRefreshTokenMalformed):
		response.Error(c, http.StatusUnauthorized, "refresh token malformed")
	case errors.Is(err, tokens.ErrUserNotFound):
		response.Error(c, http.StatusUnauthorized, "user not found")
	default:
		h.internal(c, msg, err)
	}
}

func (h *handler) internal(c *gin.Context, msg string, err error) {
	h.log.Error(msg, sl.Err(err), slog.String("request_id", middleware.RequestIDFrom(c)))
	response.Internal(c)
}
