package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"shop/internal/domain/models"
	"shop/internal/storage"
	"time"
)

// SaveRefreshToken inserts a live refresh token record and returns it with its id.
func (s *Storage) SaveRefreshToken(
	ctx context.Context,
	userID int64,
	expiresAt time.Time,
) (*models.RefreshToken, error) {
	const op = "storage.sqlite.SaveRefreshToken"

	rec := &refreshTokenRecord{
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.db.NewInsert().Model(rec).Returning("id").Exec(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rec.toDomain(), nil
}

// RefreshToken returns the record by id, revoked or not.
func (s *Storage) RefreshToken(ctx context.Context, id int64) (*models.RefreshToken, error) {
	const op = "storage.sqlite.RefreshToken"

	rec := new(refreshTokenRecord)
	err := s.db.NewSelect().Model(rec).Where("?TableAlias.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrRefreshTokenNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rec.toDomain(), nil
}

// RevokeRefreshToken marks the record revoked and reports how many rows matched.
func (s *Storage) RevokeRefreshToken(ctx context.Context, id int64) (int64, error) {
	const op = "storage.sqlite.RevokeRefreshToken"

	res, err := s.db.NewUpdate().
		Model((*refreshTokenRecord)(nil)).
		Set("revoked = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// DeleteRefreshToken removes the record. Only used for maintenance.
func (s *Storage) DeleteRefreshToken(ctx context.Context, id int64) error {
	const op = "storage.sqlite.DeleteRefreshToken"

	if _, err := s.db.NewDelete().Model((*refreshTokenRecord)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
