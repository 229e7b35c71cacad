package tokens

import (
	"context"
	"shop/internal/domain/models"
	"shop/internal/lib/handlers/slogdiscard"
	"shop/internal/lib/jwt"
	"shop/internal/storage/sqlite"
	"strconv"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret"
	refreshSecret = "refresh-secret"
	accessTTL     = time.Hour
	refreshTTL    = 24 * time.Hour
)

type fixture struct {
	tokens  *Tokens
	storage *sqlite.Storage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })

	return &fixture{
		tokens:  New(slogdiscard.NewDiscardLogger(), s, s, accessSecret, refreshSecret, accessTTL, refreshTTL),
		storage: s,
	}
}

func (f *fixture) user(t *testing.T) *models.User {
	t.Helper()

	ctx := context.Background()
	id, err := f.storage.SaveUser(ctx, gofakeit.Name(), gofakeit.Email(), []byte("hash"))
	require.NoError(t, err)

	user, err := f.storage.UserByID(ctx, id)
	require.NoError(t, err)

	return user
}

func (f *fixture) refresh(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := f.tokens.GenerateRefreshToken(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	return token
}

func TestGenerateThenResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		user := f.user(t)
		token := f.refresh(t, user)

		resolved, err := f.tokens.ResolveRefreshToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, resolved.User.ID)
		assert.Equal(t, user.ID, resolved.Token.UserID)
		assert.False(t, resolved.Token.Revoked)
	}
}

func TestRevoke_ThenResolveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token := f.refresh(t, f.user(t))

	require.NoError(t, f.tokens.RevokeRefreshToken(ctx, token))

	_, err := f.tokens.ResolveRefreshToken(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenRevoked)

	_, err = f.tokens.CreateAccessTokenFromRefreshToken(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenRevoked)

	// the record still exists, so revoking again succeeds
	require.NoError(t, f.tokens.RevokeRefreshToken(ctx, token))
}

func TestCreateAccessToken_DoesNotConsumeRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.user(t)
	token := f.refresh(t, user)

	seen := make(map[string]struct{})
	for i := 0; i < 3; i++ {
		access, err := f.tokens.CreateAccessTokenFromRefreshToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, access.User.ID)

		identity, err := f.tokens.ParseAccessToken(access.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, identity.UserID)

		seen[access.Token] = struct{}{}
	}
	assert.Len(t, seen, 3)

	resolved, err := f.tokens.ResolveRefreshToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, resolved.Token.Revoked)
}

func TestTwoRefreshTokens_Independent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.user(t)
	first := f.refresh(t, user)
	second := f.refresh(t, user)
	require.NotEqual(t, first, second)

	r1, err := f.tokens.ResolveRefreshToken(ctx, first)
	require.NoError(t, err)
	r2, err := f.tokens.ResolveRefreshToken(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, r1.Token.ID+1, r2.Token.ID)

	require.NoError(t, f.tokens.RevokeRefreshToken(ctx, first))

	_, err = f.tokens.ResolveRefreshToken(ctx, second)
	require.NoError(t, err)
}

func TestScenario_TwoUsersThreeTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.user(t)
	b := f.user(t)
	require.Equal(t, int64(1), a.ID)
	require.Equal(t, int64(2), b.ID)

	r1 := f.refresh(t, a)
	r2 := f.refresh(t, b)
	r3 := f.refresh(t, b)

	for token, want := range map[string]int64{r1: 1, r2: 2, r3: 2} {
		resolved, err := f.tokens.ResolveRefreshToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, want, resolved.User.ID)
	}

	require.NoError(t, f.tokens.RevokeRefreshToken(ctx, r2))

	_, err := f.tokens.ResolveRefreshToken(ctx, r1)
	require.NoError(t, err)
	_, err = f.tokens.ResolveRefreshToken(ctx, r3)
	require.NoError(t, err)

	_, err = f.tokens.ResolveRefreshToken(ctx, r2)
	require.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestScenario_SoftDeletedOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.user(t)
	b := f.user(t)
	r2 := f.refresh(t, b)

	require.NoError(t, f.storage.DeleteUser(ctx, b.ID))

	_, err := f.tokens.ResolveRefreshToken(ctx, r2)
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.tokens.CreateAccessTokenFromRefreshToken(ctx, r2)
	require.ErrorIs(t, err, ErrUserNotFound)

	claims, err := jwt.ParseRefreshToken(r2, refreshSecret)
	require.NoError(t, err)

	record, err := f.storage.RefreshToken(ctx, mustInt(t, claims.ID))
	require.NoError(t, err)
	assert.False(t, record.Revoked)
	assert.Equal(t, b.ID, record.UserID)
}

func TestBlankToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, token := range []string{"", "   "} {
		_, err := f.tokens.ResolveRefreshToken(ctx, token)
		require.ErrorIs(t, err, ErrRefreshTokenRequired)
		assert.Contains(t, err.Error(), "refresh token is required")

		_, err = f.tokens.CreateAccessTokenFromRefreshToken(ctx, token)
		require.ErrorIs(t, err, ErrRefreshTokenRequired)

		err = f.tokens.RevokeRefreshToken(ctx, token)
		require.ErrorIs(t, err, ErrRefreshTokenRequired)
	}
}

func TestDecodeFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.user(t)
	b := f.user(t)

	valid := f.refresh(t, a)
	claims, err := jwt.ParseRefreshToken(valid, refreshSecret)
	require.NoError(t, err)

	now := time.Now()
	foreign, err := jwt.GenerateRefreshToken(a.ID, mustInt(t, claims.ID), "other-secret", now, now.Add(time.Hour))
	require.NoError(t, err)

	stolen, err := jwt.GenerateRefreshToken(b.ID, mustInt(t, claims.ID), refreshSecret, now, now.Add(time.Hour))
	require.NoError(t, err)

	badJTI, err := jwt.GenerateRefreshToken(a.ID, 0, refreshSecret, now, now.Add(time.Hour))
	require.NoError(t, err)

	missing, err := jwt.GenerateRefreshToken(a.ID, 999, refreshSecret, now, now.Add(time.Hour))
	require.NoError(t, err)

	access, err := f.tokens.GenerateAccessToken(a)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		wantErr   error
		wantCause error
	}{
		{name: "garbage", token: "invalid_refresh_token", wantErr: ErrRefreshTokenMalformed, wantCause: jwt.ErrTokenMalformed},
		{name: "foreign signature", token: foreign, wantErr: ErrRefreshTokenMalformed, wantCause: jwt.ErrTokenSignatureInvalid},
		{name: "access token", token: access, wantErr: ErrRefreshTokenMalformed, wantCause: jwt.ErrTokenSignatureInvalid},
		{name: "subject mismatch", token: stolen, wantErr: ErrRefreshTokenMalformed},
		{name: "invalid jti", token: badJTI, wantErr: ErrRefreshTokenMalformed},
		{name: "unknown record", token: missing, wantErr: ErrRefreshTokenNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tokens.ResolveRefreshToken(ctx, tt.token)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantCause != nil {
				assert.ErrorIs(t, err, tt.wantCause)
			}

			err = f.tokens.RevokeRefreshToken(ctx, tt.token)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.user(t)

	f.tokens.now = func() time.Time { return time.Now().Add(-2 * refreshTTL) }
	token := f.refresh(t, user)
	f.tokens.now = time.Now

	_, err := f.tokens.ResolveRefreshToken(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenExpired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = f.tokens.CreateAccessTokenFromRefreshToken(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenExpired)

	err = f.tokens.RevokeRefreshToken(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestDeletedRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token := f.refresh(t, f.user(t))
	claims, err := jwt.ParseRefreshToken(token, refreshSecret)
	require.NoError(t, err)

	require.NoError(t, f.storage.DeleteRefreshToken(ctx, mustInt(t, claims.ID)))

	_, err = f.tokens.ResolveRefreshToken(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenNotFound)

	err = f.tokens.RevokeRefreshToken(ctx, token)
	require.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestGenerate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tokens.GenerateAccessToken(nil)
	require.ErrorIs(t, err, ErrUserRequired)

	_, err = f.tokens.GenerateAccessToken(&models.User{})
	require.ErrorIs(t, err, ErrUserRequired)

	_, err = f.tokens.GenerateRefreshToken(ctx, nil)
	require.ErrorIs(t, err, ErrUserRequired)

	_, err = f.tokens.GenerateRefreshToken(ctx, &models.User{Name: "no id"})
	require.ErrorIs(t, err, ErrUserRequired)

	user := f.user(t)
	noTTL := New(slogdiscard.NewDiscardLogger(), f.storage, f.storage, accessSecret, refreshSecret, 0, 0)

	_, err = noTTL.GenerateAccessToken(user)
	require.ErrorIs(t, err, ErrInvalidTTL)

	_, err = noTTL.GenerateRefreshToken(ctx, user)
	require.ErrorIs(t, err, ErrInvalidTTL)
}

func TestParseAccessToken(t *testing.T) {
	f := newFixture(t)

	user := f.user(t)
	user.Roles = []string{models.RoleManager}

	token, err := f.tokens.GenerateAccessToken(user)
	require.NoError(t, err)

	identity, err := f.tokens.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, []string{models.RoleManager}, identity.Roles)

	_, err = f.tokens.ParseAccessToken("garbage")
	require.ErrorIs(t, err, ErrAccessTokenInvalid)

	refresh := f.refresh(t, user)
	_, err = f.tokens.ParseAccessToken(refresh)
	require.ErrorIs(t, err, ErrAccessTokenInvalid)

	f.tokens.now = func() time.Time { return time.Now().Add(-2 * accessTTL) }
	expired, err := f.tokens.GenerateAccessToken(user)
	require.NoError(t, err)
	f.tokens.now = time.Now

	_, err = f.tokens.ParseAccessToken(expired)
	require.ErrorIs(t, err, ErrAccessTokenExpired)
}

func TestSharedSecret_TokenKindsStaySeparate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const shared = "same-secret"
	svc := New(slogdiscard.NewDiscardLogger(), f.storage, f.storage, shared, shared, accessTTL, refreshTTL)

	user := f.user(t)

	refresh, err := svc.GenerateRefreshToken(ctx, user)
	require.NoError(t, err)
	require.NoError(t, svc.RevokeRefreshToken(ctx, refresh))

	_, err = svc.ParseAccessToken(refresh)
	require.ErrorIs(t, err, ErrAccessTokenInvalid)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)

	access, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = svc.ResolveRefreshToken(ctx, access)
	require.ErrorIs(t, err, ErrRefreshTokenMalformed)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
}

func mustInt(t *testing.T, s string) int64 {
	t.Helper()

	id, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)

	return id
}
