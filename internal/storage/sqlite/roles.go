package sqlite

import (
	"context"
	"fmt"
	"shop/internal/domain/models"
	"shop/internal/storage"

	"github.com/uptrace/bun"
)

// Roles lists every known role ordered by name.
func (s *Storage) Roles(ctx context.Context) ([]models.Role, error) {
	const op = "storage.sqlite.Roles"

	var recs []roleRecord
	if err := s.db.NewSelect().Model(&recs).OrderExpr("name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	roles := make([]models.Role, 0, len(recs))
	for _, rec := range recs {
		roles = append(roles, models.Role{ID: rec.ID, Name: rec.Name, Description: rec.Description})
	}

	return roles, nil
}

// SetUserRoles replaces the roles of a live user.
func (s *Storage) SetUserRoles(ctx context.Context, userID int64, names []string) error {
	const op = "storage.sqlite.SetUserRoles"

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*userRecord)(nil)).
			Where("?TableAlias.id = ?", userID).
			Apply(live).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return storage.ErrUserNotFound
		}

		return replaceRoles(ctx, tx, userID, names)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// replaceRoles swaps the role links of userID for names inside tx. Unknown
// names fail before anything is deleted.
func replaceRoles(ctx context.Context, tx bun.Tx, userID int64, names []string) error {
	var roles []roleRecord
	if len(names) > 0 {
		err := tx.NewSelect().Model(&roles).Where("name IN (?)", bun.In(names)).Scan(ctx)
		if err != nil {
			return err
		}
	}
	if len(roles) != len(unique(names)) {
		return storage.ErrRoleNotFound
	}

	_, err := tx.NewDelete().Model((*userRoleRecord)(nil)).Where("user_id = ?", userID).Exec(ctx)
	if err != nil {
		return err
	}

	if len(roles) == 0 {
		return nil
	}

	links := make([]userRoleRecord, 0, len(roles))
	for _, role := range roles {
		links = append(links, userRoleRecord{UserID: userID, RoleID: role.ID})
	}

	_, err = tx.NewInsert().Model(&links).Exec(ctx)
	return err
}

func (s *Storage) userRoles(ctx context.Context, userID int64) ([]string, error) {
	names := make([]string, 0)
	err := s.db.NewSelect().
		TableExpr("user_roles AS ur").
		ColumnExpr("r.name").
		Join("JOIN roles AS r ON r.id = ur.role_id").
		Where("ur.user_id = ?", userID).
		OrderExpr("r.name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, fmt.Errorf("roles of user %d: %w", userID, err)
	}
	return names, nil
}

// rolesOf loads roles for several users in one query.
func (s *Storage) rolesOf(ctx context.Context, userIDs []int64) (map[int64][]string, error) {
	res := make(map[int64][]string, len(userIDs))
	if len(userIDs) == 0 {
		return res, nil
	}

	var rows []struct {
		UserID int64  `bun:"user_id"`
		Name   string `bun:"name"`
	}
	err := s.db.NewSelect().
		TableExpr("user_roles AS ur").
		ColumnExpr("ur.user_id, r.name").
		Join("JOIN roles AS r ON r.id = ur.role_id").
		Where("ur.user_id IN (?)", bun.In(userIDs)).
		OrderExpr("r.name ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("roles of users: %w", err)
	}

	for _, row := range rows {
		res[row.UserID] = append(res[row.UserID], row.Name)
	}

	return res, nil
}

func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
