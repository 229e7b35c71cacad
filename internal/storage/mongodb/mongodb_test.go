package mongodb

import (
	"context"
	"fmt"
	"os"
	"shop/internal/domain/models"
	"shop/internal/storage"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStorage connects to MONGO_TEST_URI and uses a throwaway database.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := New(ctx, uri, fmt.Sprintf("shop_test_%d", time.Now().UnixNano()))
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.database.Drop(ctx)
		_ = s.Close(ctx)
	})

	return s
}

func TestUsers(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	email := gofakeit.Email()
	id, err := s.SaveUser(ctx, "Alice", email, []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = s.SaveUser(ctx, "Alice", email, []byte("hash"))
	require.ErrorIs(t, err, storage.ErrUserExists)

	require.NoError(t, s.SetUserRoles(ctx, id, []string{models.RoleAdmin}))
	require.ErrorIs(t, s.SetUserRoles(ctx, id, []string{"owner"}), storage.ErrRoleNotFound)

	user, err := s.UserByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, user.PassHash)
	assert.Equal(t, []string{models.RoleAdmin}, user.Roles)

	creds, err := s.UserCredentials(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), creds.PassHash)

	name := "Renamed"
	require.NoError(t, s.UpdateUser(ctx, id, models.UserPatch{Name: &name}))

	users, total, err := s.Users(ctx, models.UserFilter{Search: "renam"}, models.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, name, users[0].Name)

	require.NoError(t, s.DeleteUser(ctx, id))

	_, err = s.UserByID(ctx, id)
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestSaveUser_WithRoles(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	email := gofakeit.Email()
	_, err := s.SaveUser(ctx, "Bob", email, []byte("hash"), models.RoleCustomer, "ghost")
	require.ErrorIs(t, err, storage.ErrRoleNotFound)

	_, err = s.UserCredentials(ctx, email)
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	id, err := s.SaveUser(ctx, "Bob", email, []byte("hash"), models.RoleManager, models.RoleManager)
	require.NoError(t, err)

	user, err := s.UserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleManager}, user.Roles)
}

func TestRefreshTokens(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	userID, err := s.SaveUser(ctx, gofakeit.Name(), gofakeit.Email(), []byte("hash"))
	require.NoError(t, err)

	first, err := s.SaveRefreshToken(ctx, userID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	second, err := s.SaveRefreshToken(ctx, userID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first.ID+1, second.ID)

	n, err := s.RevokeRefreshToken(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.RefreshToken(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	require.NoError(t, s.DeleteRefreshToken(ctx, second.ID))

	_, err = s.RefreshToken(ctx, second.ID)
	require.ErrorIs(t, err, storage.ErrRefreshTokenNotFound)
}

func TestRoles_Seeded(t *testing.T) {
	s := newTestStorage(t)

	roles, err := s.Roles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, models.RoleAdmin, roles[0].Name)
}
