package jwt

import (
	"errors"
	"fmt"
	"shop/internal/domain/models"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Library errors re-exported so callers can match them without importing jwt.
var (
	ErrTokenMalformed        = jwt.ErrTokenMalformed
	ErrTokenExpired          = jwt.ErrTokenExpired
	ErrTokenSignatureInvalid = jwt.ErrTokenSignatureInvalid
	ErrTokenInvalidClaims    = jwt.ErrTokenInvalidClaims
	ErrTokenInvalidAudience  = jwt.ErrTokenInvalidAudience
)

// Audiences keep access and refresh tokens from standing in for each other,
// even when both are signed with the same secret.
const (
	AudienceAccess  = "access"
	AudienceRefresh = "refresh"
)

// AccessClaims are carried by short-lived access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// UserID returns the numeric subject of the token.
func (c *AccessClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// GenerateAccessToken creates an access JWT token for user. Every token gets
// a random jti, so two tokens issued within the same second still differ.
func GenerateAccessToken(
	user *models.User,
	secret string,
	issuedAt time.Time,
	duration time.Duration,
) (string, error) {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}

	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   strconv.FormatInt(user.ID, 10),
				ID:        uuid.NewString(),
				Audience:  jwt.ClaimStrings{AudienceAccess},
				IssuedAt:  jwt.NewNumericDate(issuedAt),
				ExpiresAt: jwt.NewNumericDate(issuedAt.Add(duration)),
			},
			Roles: roles,
		})
	return token.SignedString([]byte(secret))
}

// GenerateRefreshToken creates a refresh JWT whose jti is the id of the
// persisted refresh token record.
func GenerateRefreshToken(
	userID int64,
	tokenID int64,
	secret string,
	issuedAt time.Time,
	expiresAt time.Time,
) (string, error) {
	token := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        strconv.FormatInt(tokenID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		})
	return token.SignedString([]byte(secret))
}

// ParseAccessToken parses and validates an access token.
func ParseAccessToken(tokenString string, secret string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(tokenString, secret, claims, AudienceAccess); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefreshToken parses and validates a refresh token. Errors returned
// by the jwt library are passed through unchanged.
func ParseRefreshToken(tokenString string, secret string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if err := parse(tokenString, secret, claims, AudienceRefresh); err != nil {
		return nil, err
	}
	return claims, nil
}

func parse(tokenString string, secret string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithAudience(audience))
	if err != nil {
		return err
	}

	if !token.Valid {
		return errors.New("invalid token")
	}

	return nil
}
