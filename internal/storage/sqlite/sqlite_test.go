package sqlite

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate())

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func saveTestUser(t *testing.T, s *Storage) int64 {
	t.Helper()

	id, err := s.SaveUser(context.Background(), gofakeit.Name(), gofakeit.Email(), []byte("hash"))
	require.NoError(t, err)

	return id
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.Migrate())

	roles, err := s.Roles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)
}

func TestMigrateDown(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.MigrateDown())

	_, err := s.Roles(ctx)
	require.Error(t, err)

	require.NoError(t, s.Migrate())

	roles, err := s.Roles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
}

func TestPing(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.Ping(context.Background()))
}
