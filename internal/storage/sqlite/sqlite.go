package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type Storage struct {
	db *bun.DB
}

// New opens the SQLite database at storagePath with foreign keys enabled.
// A single connection is kept so that ":memory:" databases survive between queries.
func New(storagePath string) (*Storage, error) {
	const op = "storage.sqlite.New"

	sqldb, err := sql.Open("sqlite3", dsn(storagePath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sqldb.SetMaxOpenConns(1)

	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

// live restricts a query to rows that are not soft-deleted.
func live(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Where("?TableAlias.deleted_at IS NULL")
}
