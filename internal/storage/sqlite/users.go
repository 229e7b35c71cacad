package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"shop/internal/domain/models"
	"shop/internal/storage"
	"time"

	"github.com/uptrace/bun"
)

// SaveUser inserts a user with its roles in one transaction and returns its id.
func (s *Storage) SaveUser(ctx context.Context, name, email string, passHash []byte, roles ...string) (int64, error) {
	const op = "storage.sqlite.SaveUser"

	now := time.Now().UTC()
	rec := &userRecord{
		Name:      name,
		Email:     email,
		PassHash:  passHash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(rec).Returning("id").Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrUserExists
			}
			return err
		}
		return replaceRoles(ctx, tx, rec.ID, roles)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return rec.ID, nil
}

// UserByID returns a live user with its roles. The password hash is not loaded.
func (s *Storage) UserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.sqlite.UserByID"

	rec := new(userRecord)
	err := s.db.NewSelect().
		Model(rec).
		ExcludeColumn("pass_hash").
		Where("?TableAlias.id = ?", id).
		Apply(live).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	roles, err := s.userRoles(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rec.toDomain(roles), nil
}

// UserCredentials is the only query that loads the password hash.
func (s *Storage) UserCredentials(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.sqlite.UserCredentials"

	rec := new(userRecord)
	err := s.db.NewSelect().
		Model(rec).
		Where("?TableAlias.email = ?", email).
		Apply(live).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	roles, err := s.userRoles(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rec.toDomain(roles), nil
}

// Users returns one page of live users and the total number of matches.
func (s *Storage) Users(
	ctx context.Context,
	filter models.UserFilter,
	page models.PageRequest,
) ([]models.User, int, error) {
	const op = "storage.sqlite.Users"

	where := func(q *bun.SelectQuery) *bun.SelectQuery {
		q = live(q)
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			q = q.Where("(?TableAlias.name LIKE ? ESCAPE '!' OR ?TableAlias.email LIKE ? ESCAPE '!')", pattern, pattern)
		}
		if filter.Role != "" {
			q = q.Where(
				"?TableAlias.id IN (SELECT ur.user_id FROM user_roles AS ur JOIN roles AS r ON r.id = ur.role_id WHERE r.name = ?)",
				filter.Role,
			)
		}
		return q
	}

	total, err := s.db.NewSelect().Model((*userRecord)(nil)).Apply(where).Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	var recs []userRecord
	err = s.db.NewSelect().
		Model(&recs).
		ExcludeColumn("pass_hash").
		Apply(where).
		Apply(func(q *bun.SelectQuery) *bun.SelectQuery { return applyPage(q, page) }).
		Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}

	roles, err := s.rolesOf(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	users := make([]models.User, 0, len(recs))
	for i := range recs {
		users = append(users, *recs[i].toDomain(roles[recs[i].ID]))
	}

	return users, total, nil
}

// UpdateUser changes the non-nil fields of patch on a live user.
func (s *Storage) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) error {
	const op = "storage.sqlite.UpdateUser"

	q := s.db.NewUpdate().
		Model((*userRecord)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("deleted_at IS NULL")

	if patch.Name != nil {
		q = q.Set("name = ?", *patch.Name)
	}
	if patch.Email != nil {
		q = q.Set("email = ?", *patch.Email)
	}
	if patch.PassHash != nil {
		q = q.Set("pass_hash = ?", patch.PassHash)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}

// DeleteUser soft-deletes a user. Its refresh tokens are left untouched.
func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.sqlite.DeleteUser"

	now := time.Now().UTC()
	res, err := s.db.NewUpdate().
		Model((*userRecord)(nil)).
		Set("deleted_at = ?", now).
		Set("updated_at = ?", now).
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}
