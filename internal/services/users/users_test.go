package users

import (
	"context"
	"shop/internal/domain/models"
	"shop/internal/lib/handlers/slogdiscard"
	"shop/internal/lib/query"
	"shop/internal/storage/sqlite"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const passDefaultLen = 10

func newService(t *testing.T) *Users {
	t.Helper()

	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })

	return New(slogdiscard.NewDiscardLogger(), s, s, s).WithHashCost(bcrypt.MinCost)
}

func randomFakePassword() string {
	return gofakeit.Password(true, true, true, true, false, passDefaultLen)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	email := gofakeit.Email()
	password := randomFakePassword()

	user, err := svc.Register(ctx, gofakeit.Name(), email, password)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, []string{models.RoleCustomer}, user.Roles)
	assert.Empty(t, user.PassHash)

	_, err = svc.Register(ctx, gofakeit.Name(), email, password)
	require.ErrorIs(t, err, ErrUserExists)

	authed, err := svc.Authenticate(ctx, email, password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
	assert.Empty(t, authed.PassHash)

	_, err = svc.Authenticate(ctx, email, randomFakePassword())
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, gofakeit.Email(), password)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, CreateInput{
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		Password: randomFakePassword(),
		Roles:    []string{models.RoleAdmin, models.RoleManager},
	})
	require.NoError(t, err)
	assert.True(t, admin.HasRole(models.RoleAdmin))
	assert.True(t, admin.HasRole(models.RoleManager))

	plain, err := svc.Create(ctx, CreateInput{Name: "x", Email: gofakeit.Email(), Password: randomFakePassword()})
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleCustomer}, plain.Roles)

	email := gofakeit.Email()
	_, err = svc.Create(ctx, CreateInput{Name: "x", Email: email, Password: "password", Roles: []string{"owner"}})
	require.ErrorIs(t, err, ErrRoleNotFound)

	// an unknown role must not leave a half created user behind
	_, err = svc.Authenticate(ctx, email, "password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordTooLong(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// 40 characters but 80 bytes
	long := strings.Repeat("é", 40)

	email := gofakeit.Email()
	_, err := svc.Register(ctx, gofakeit.Name(), email, long)
	require.ErrorIs(t, err, ErrPasswordTooLong)

	user, err := svc.Register(ctx, gofakeit.Name(), email, randomFakePassword())
	require.NoError(t, err)

	_, err = svc.Update(ctx, user.ID, UpdateInput{Password: &long})
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestUpdate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	email := gofakeit.Email()
	user, err := svc.Register(ctx, "Before", email, "old-password")
	require.NoError(t, err)

	other, err := svc.Register(ctx, gofakeit.Name(), gofakeit.Email(), "password")
	require.NoError(t, err)

	name := "After"
	password := "new-password"
	updated, err := svc.Update(ctx, user.ID, UpdateInput{Name: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, email, updated.Email)

	_, err = svc.Authenticate(ctx, email, "old-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, email, password)
	require.NoError(t, err)

	_, err = svc.Update(ctx, user.ID, UpdateInput{Email: &other.Email})
	require.ErrorIs(t, err, ErrUserExists)

	_, err = svc.Update(ctx, 404, UpdateInput{Name: &name})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	email := gofakeit.Email()
	user, err := svc.Register(ctx, gofakeit.Name(), email, "password")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID))

	_, err = svc.User(ctx, user.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Authenticate(ctx, email, "password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.ErrorIs(t, svc.Delete(ctx, user.ID), ErrUserNotFound)
}

func TestSetRoles(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, gofakeit.Name(), gofakeit.Email(), "password")
	require.NoError(t, err)

	updated, err := svc.SetRoles(ctx, user.ID, []string{models.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleManager}, updated.Roles)

	_, err = svc.SetRoles(ctx, user.ID, nil)
	require.ErrorIs(t, err, ErrRolesRequired)

	_, err = svc.SetRoles(ctx, user.ID, []string{"owner"})
	require.ErrorIs(t, err, ErrRoleNotFound)

	_, err = svc.SetRoles(ctx, 404, []string{models.RoleAdmin})
	require.ErrorIs(t, err, ErrUserNotFound)

	roles, err := svc.Roles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)
}

func TestUsers_Page(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Register(ctx, gofakeit.Name(), gofakeit.Email(), "password")
		require.NoError(t, err)
	}

	page, err := svc.Users(ctx, models.UserFilter{}, models.ListParams{Page: 2, Limit: 2, Sort: "-id"})
	require.NoError(t, err)
	assert.Equal(t, models.PageMeta{Page: 2, Limit: 2, Total: 5, TotalPages: 3}, page.Meta)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Items[0].ID)
	assert.Equal(t, int64(2), page.Items[1].ID)

	_, err = svc.Users(ctx, models.UserFilter{}, models.ListParams{Sort: "pass_hash"})
	require.ErrorIs(t, err, query.ErrInvalidSort)

	page, err = svc.Users(ctx, models.UserFilter{Role: models.RoleAdmin}, models.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}
