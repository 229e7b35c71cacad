package sqlite

import (
	"errors"
	"fmt"
	"shop/migrations"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies every pending migration.
func (s *Storage) Migrate() error {
	const op = "storage.sqlite.Migrate"

	m, err := s.migrator()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MigrateDown rolls back every applied migration.
func (s *Storage) MigrateDown() error {
	const op = "storage.sqlite.MigrateDown"

	m, err := s.migrator()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// migrator shares the storage connection with golang-migrate. The returned
// instance must not be closed: that would close the underlying *sql.DB.
func (s *Storage) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db.DB, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", src, "sqlite3", driver)
}
