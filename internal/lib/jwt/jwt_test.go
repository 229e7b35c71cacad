package jwt

import (
	"shop/internal/domain/models"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAccessToken(t *testing.T) {
	user := &models.User{ID: 42, Email: "a@b.c", Roles: []string{models.RoleAdmin}}
	now := time.Now()

	first, err := GenerateAccessToken(user, secret, now, time.Hour)
	require.NoError(t, err)
	second, err := GenerateAccessToken(user, secret, now, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	claims, err := ParseAccessToken(first, secret)
	require.NoError(t, err)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)
	assert.Equal(t, []string{models.RoleAdmin}, claims.Roles)
	assert.NotEmpty(t, claims.ID)

	const deltaSeconds = 1
	assert.InDelta(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix(), deltaSeconds)
}

func TestAccessToken_NilRolesEncodedAsEmpty(t *testing.T) {
	token, err := GenerateAccessToken(&models.User{ID: 1}, secret, time.Now(), time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	assert.NotNil(t, claims.Roles)
	assert.Empty(t, claims.Roles)
}

func TestRefreshToken(t *testing.T) {
	now := time.Now()
	token, err := GenerateRefreshToken(7, 99, secret, now, now.Add(24*time.Hour))
	require.NoError(t, err)

	claims, err := ParseRefreshToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "99", claims.ID)
	assert.Equal(t, jwt.ClaimStrings{AudienceRefresh}, claims.Audience)
}

func TestTokenKinds_NotInterchangeable(t *testing.T) {
	now := time.Now()

	access, err := GenerateAccessToken(&models.User{ID: 1}, secret, now, time.Hour)
	require.NoError(t, err)
	refresh, err := GenerateRefreshToken(1, 5, secret, now, now.Add(time.Hour))
	require.NoError(t, err)

	_, err = ParseAccessToken(refresh, secret)
	require.ErrorIs(t, err, ErrTokenInvalidAudience)
	assert.ErrorIs(t, err, ErrTokenInvalidClaims)

	_, err = ParseRefreshToken(access, secret)
	require.ErrorIs(t, err, ErrTokenInvalidAudience)

	legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ID:        "5",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	// no audience at all
	_, err = ParseAccessToken(legacy, secret)
	require.ErrorIs(t, err, ErrTokenInvalidClaims)
}

func TestParse_Errors(t *testing.T) {
	now := time.Now()

	expired, err := GenerateRefreshToken(1, 1, secret, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)

	valid, err := GenerateRefreshToken(1, 1, secret, now, now.Add(time.Hour))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1", ID: "1"}).
		SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "malformed", token: "invalid_refresh_token", secret: secret, wantErr: ErrTokenMalformed},
		{name: "expired", token: expired, secret: secret, wantErr: ErrTokenExpired},
		{name: "foreign secret", token: valid, secret: "other-secret", wantErr: ErrTokenSignatureInvalid},
		{name: "missing exp", token: noExp, secret: secret, wantErr: ErrTokenInvalidClaims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRefreshToken(tt.token, tt.secret)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
