package sqlite

import (
	"context"
	"shop/internal/domain/models"
	"shop/internal/storage"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	email := gofakeit.Email()
	id, err := s.SaveUser(ctx, "Alice", email, []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = s.SaveUser(ctx, "Other", email, []byte("hash"))
	require.ErrorIs(t, err, storage.ErrUserExists)

	user, err := s.UserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, email, user.Email)
	assert.Empty(t, user.PassHash)
	assert.NotNil(t, user.Roles)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestSaveUser_WithRoles(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	email := gofakeit.Email()
	_, err := s.SaveUser(ctx, "Alice", email, []byte("hash"), models.RoleCustomer, "ghost")
	require.ErrorIs(t, err, storage.ErrRoleNotFound)

	// nothing was kept from the failed insert
	_, err = s.UserCredentials(ctx, email)
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	id, err := s.SaveUser(ctx, "Alice", email, []byte("hash"), models.RoleManager, models.RoleAdmin)
	require.NoError(t, err)

	user, err := s.UserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleAdmin, models.RoleManager}, user.Roles)
}

func TestUserCredentials(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	email := gofakeit.Email()
	id, err := s.SaveUser(ctx, gofakeit.Name(), email, []byte("secret-hash"))
	require.NoError(t, err)
	require.NoError(t, s.SetUserRoles(ctx, id, []string{models.RoleCustomer}))

	user, err := s.UserCredentials(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, []byte("secret-hash"), user.PassHash)
	assert.Equal(t, []string{models.RoleCustomer}, user.Roles)

	_, err = s.UserCredentials(ctx, gofakeit.Email())
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestDeleteUser_HidesUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	email := gofakeit.Email()
	id, err := s.SaveUser(ctx, gofakeit.Name(), email, []byte("hash"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, id))

	_, err = s.UserByID(ctx, id)
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.UserCredentials(ctx, email)
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	err = s.DeleteUser(ctx, id)
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	err = s.UpdateUser(ctx, id, models.UserPatch{Name: ptr("ghost")})
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first := saveTestUser(t, s)
	second := saveTestUser(t, s)

	newName := "Renamed"
	require.NoError(t, s.UpdateUser(ctx, first, models.UserPatch{Name: &newName}))

	user, err := s.UserByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, newName, user.Name)

	other, err := s.UserByID(ctx, second)
	require.NoError(t, err)

	err = s.UpdateUser(ctx, first, models.UserPatch{Email: &other.Email})
	require.ErrorIs(t, err, storage.ErrUserExists)

	err = s.UpdateUser(ctx, 404, models.UserPatch{Name: &newName})
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestSetUserRoles(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	id := saveTestUser(t, s)

	require.NoError(t, s.SetUserRoles(ctx, id, []string{models.RoleManager, models.RoleAdmin, models.RoleAdmin}))

	user, err := s.UserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleAdmin, models.RoleManager}, user.Roles)

	err = s.SetUserRoles(ctx, id, []string{"owner"})
	require.ErrorIs(t, err, storage.ErrRoleNotFound)

	user, err = s.UserByID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, user.Roles, 2, "failed replacement must not drop existing roles")

	err = s.SetUserRoles(ctx, 404, []string{models.RoleAdmin})
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUsers_FilterAndPage(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	alice, err := s.SaveUser(ctx, "Alice", "alice@example.com", []byte("hash"))
	require.NoError(t, err)
	bob, err := s.SaveUser(ctx, "Bob", "bob@example.com", []byte("hash"))
	require.NoError(t, err)
	carol, err := s.SaveUser(ctx, "Carol", "carol@example.org", []byte("hash"))
	require.NoError(t, err)

	require.NoError(t, s.SetUserRoles(ctx, alice, []string{models.RoleAdmin}))
	require.NoError(t, s.SetUserRoles(ctx, bob, []string{models.RoleCustomer}))
	require.NoError(t, s.SetUserRoles(ctx, carol, []string{models.RoleCustomer}))

	users, total, err := s.Users(ctx, models.UserFilter{}, models.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, users, 2)
	assert.Equal(t, alice, users[0].ID)
	assert.Equal(t, []string{models.RoleAdmin}, users[0].Roles)

	users, total, err = s.Users(ctx, models.UserFilter{Role: models.RoleCustomer}, models.PageRequest{
		Limit: 10,
		Sort:  []models.SortField{{Column: "name", Desc: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, carol, users[0].ID)
	assert.Equal(t, bob, users[1].ID)

	users, total, err = s.Users(ctx, models.UserFilter{Search: "example.org"}, models.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, carol, users[0].ID)

	require.NoError(t, s.DeleteUser(ctx, carol))

	_, total, err = s.Users(ctx, models.UserFilter{}, models.PageRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func ptr[T any](v T) *T {
	return &v
}
