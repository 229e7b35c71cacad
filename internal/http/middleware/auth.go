package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"shop/internal/http/response"
	"shop/internal/services/tokens"
	"strings"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

type TokenParser interface {
	ParseAccessToken(token string) (*tokens.Identity, error)
}

// Authenticate requires a valid bearer access token and stores its identity
// on the context.
func Authenticate(log *slog.Logger, parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Error(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		identity, err := parser.ParseAccessToken(strings.TrimSpace(token))
		if err != nil {
			switch {
			case errors.Is(err, tokens.ErrAccessTokenExpired):
				response.Error(c, http.StatusUnauthorized, "access token expired")
			case errors.Is(err, tokens.ErrAccessTokenInvalid):
				response.Error(c, http.StatusUnauthorized, "invalid access token")
			default:
				logErr(log, c, "failed to parse access token", err)
				response.Internal(c)
			}
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRoles lets the request through when the identity holds any of roles.
// It must run after Authenticate.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !identity.HasRole(roles...) {
			response.Error(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (*tokens.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*tokens.Identity)
	return identity, ok
}
