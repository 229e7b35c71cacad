package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"shop/internal/domain/models"
	"shop/internal/storage"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userDoc struct {
	ID        int64      `bson:"_id"`
	Name      string     `bson:"name"`
	Email     string     `bson:"email"`
	PassHash  []byte     `bson:"pass_hash,omitempty"`
	Roles     []string   `bson:"roles"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty"`
}

func (d *userDoc) toDomain() *models.User {
	roles := d.Roles
	if roles == nil {
		roles = []string{}
	}
	return &models.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Roles:     roles,
		PassHash:  d.PassHash,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		DeletedAt: d.DeletedAt,
	}
}

type roleDoc struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description"`
}

// sortFields maps storage column names to document fields.
var sortFields = map[string]string{
	"id":         "_id",
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func liveUser(filter bson.D) bson.D {
	return append(filter, bson.E{Key: "deleted_at", Value: nil})
}

var withoutPassHash = bson.D{{Key: "pass_hash", Value: 0}}

// SaveUser saves a new user with its roles and returns the generated user ID.
// The roles live inside the user document, so the insert is atomic.
func (s *Storage) SaveUser(ctx context.Context, name, email string, passHash []byte, roles ...string) (int64, error) {
	const op = "storage.mongodb.SaveUser"

	roles = unique(roles)
	if err := s.checkRoles(ctx, roles); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.nextID(ctx, "users")
	if err != nil {
		return 0, fmt.Errorf("%s: nextID: %w", op, err)
	}

	ts := now()
	doc := userDoc{
		ID:        id,
		Name:      name,
		Email:     email,
		PassHash:  passHash,
		Roles:     roles,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	_, err = s.users.InsertOne(ctx, doc)
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UserByID retrieves a live user by ID without its password hash.
func (s *Storage) UserByID(ctx context.Context, userID int64) (*models.User, error) {
	const op = "storage.mongodb.UserByID"

	var doc userDoc
	err := s.users.FindOne(
		ctx,
		liveUser(bson.D{{Key: "_id", Value: userID}}),
		options.FindOne().SetProjection(withoutPassHash),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toDomain(), nil
}

// UserCredentials retrieves a live user by email together with its password hash.
func (s *Storage) UserCredentials(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.mongodb.UserCredentials"

	var doc userDoc
	err := s.users.FindOne(ctx, liveUser(bson.D{{Key: "email", Value: email}})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toDomain(), nil
}

func (s *Storage) Users(
	ctx context.Context,
	filter models.UserFilter,
	page models.PageRequest,
) ([]models.User, int, error) {
	const op = "storage.mongodb.Users"

	query := liveUser(bson.D{})
	if filter.Search != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query = append(query, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: pattern}},
			bson.D{{Key: "email", Value: pattern}},
		}})
	}
	if filter.Role != "" {
		query = append(query, bson.E{Key: "roles", Value: filter.Role})
	}

	total, err := s.users.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	sort := bson.D{}
	for _, f := range page.Sort {
		field, ok := sortFields[f.Column]
		if !ok {
			continue
		}
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})

	opts := options.Find().
		SetProjection(withoutPassHash).
		SetSort(sort).
		SetSkip(int64(page.Offset))
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}

	cursor, err := s.users.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	users := make([]models.User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].toDomain())
	}

	return users, int(total), nil
}

func (s *Storage) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) error {
	const op = "storage.mongodb.UpdateUser"

	set := bson.D{{Key: "updated_at", Value: now()}}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}
	if patch.PassHash != nil {
		set = append(set, bson.E{Key: "pass_hash", Value: patch.PassHash})
	}

	res, err := s.users.UpdateOne(
		ctx,
		liveUser(bson.D{{Key: "_id", Value: id}}),
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}

// DeleteUser soft-deletes a user. Its refresh tokens are left untouched.
func (s *Storage) DeleteUser(ctx context.Context, id int64) error {
	const op = "storage.mongodb.DeleteUser"

	ts := now()
	res, err := s.users.UpdateOne(
		ctx,
		liveUser(bson.D{{Key: "_id", Value: id}}),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "deleted_at", Value: ts},
			{Key: "updated_at", Value: ts},
		}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}

func (s *Storage) Roles(ctx context.Context) ([]models.Role, error) {
	const op = "storage.mongodb.Roles"

	cursor, err := s.roles.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var docs []roleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	roles := make([]models.Role, 0, len(docs))
	for _, d := range docs {
		roles = append(roles, models.Role{ID: d.ID, Name: d.Name, Description: d.Description})
	}

	return roles, nil
}

// SetUserRoles replaces the roles of a live user. Every role must exist.
func (s *Storage) SetUserRoles(ctx context.Context, userID int64, names []string) error {
	const op = "storage.mongodb.SetUserRoles"

	roles := unique(names)
	if err := s.checkRoles(ctx, roles); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.users.UpdateOne(
		ctx,
		liveUser(bson.D{{Key: "_id", Value: userID}}),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "roles", Value: roles},
			{Key: "updated_at", Value: now()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	return nil
}

// checkRoles fails with ErrRoleNotFound unless every name is a known role.
func (s *Storage) checkRoles(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	known, err := s.roles.CountDocuments(ctx, bson.D{{Key: "name", Value: bson.D{{Key: "$in", Value: names}}}})
	if err != nil {
		return err
	}
	if int(known) != len(names) {
		return storage.ErrRoleNotFound
	}

	return nil
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
