package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"shop/internal/domain/models"
	"shop/internal/lib/query"
	"shop/internal/lib/sl"
	"shop/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleNotFound       = errors.New("role not found")
	ErrRolesRequired      = errors.New("at least one role is required")
	ErrPasswordTooLong    = errors.New("password is longer than 72 bytes")
)

// sortable maps public sort fields to columns.
var sortable = map[string]string{
	"id":        "id",
	"name":      "name",
	"email":     "email",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type UserSaver interface {
	// SaveUser stores the user together with its roles, or nothing at all.
	SaveUser(ctx context.Context, name, email string, passHash []byte, roles ...string) (int64, error)
	SetUserRoles(ctx context.Context, userID int64, roles []string) error
}

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserCredentials(ctx context.Context, email string) (*models.User, error)
	Users(ctx context.Context, filter models.UserFilter, page models.PageRequest) ([]models.User, int, error)
	Roles(ctx context.Context) ([]models.Role, error)
}

type UserModifier interface {
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) error
	DeleteUser(ctx context.Context, id int64) error
}

type Users struct {
	logger       *slog.Logger
	userSaver    UserSaver
	userProvider UserProvider
	userModifier UserModifier
	hashCost     int
}

type CreateInput struct {
	Name     string
	Email    string
	Password string
	Roles    []string
}

// UpdateInput carries the fields to change; nil fields are left untouched.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
}

// New returns a new instance of the Users service.
func New(
	logger *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	userModifier UserModifier,
) *Users {
	return &Users{
		logger:       logger,
		userSaver:    userSaver,
		userProvider: userProvider,
		userModifier: userModifier,
		hashCost:     bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (u *Users) WithHashCost(cost int) *Users {
	u.hashCost = cost
	return u
}

// Register signs up a customer.
func (u *Users) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	const op = "users.Register"

	user, err := u.create(ctx, op, CreateInput{
		Name:     name,
		Email:    email,
		Password: password,
		Roles:    []string{models.RoleCustomer},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Create adds a user with the given roles, customer if none are given.
func (u *Users) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	const op = "users.Create"

	if len(in.Roles) == 0 {
		in.Roles = []string{models.RoleCustomer}
	}

	if err := u.checkRoles(ctx, in.Roles); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := u.create(ctx, op, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (u *Users) create(ctx context.Context, op string, in CreateInput) (*models.User, error) {
	log := u.logger.With(
		slog.String("op", op),
		slog.String("email", in.Email),
	)

	passHash, err := u.hash(in.Password)
	if err != nil {
		if !errors.Is(err, ErrPasswordTooLong) {
			log.Error("failed to generate password hash", sl.Err(err))
		}
		return nil, err
	}

	id, err := u.userSaver.SaveUser(ctx, in.Name, in.Email, passHash, in.Roles...)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrUserExists):
			log.Warn("user already exists", sl.Err(err))
		case errors.Is(err, storage.ErrRoleNotFound):
			log.Warn("unknown role", sl.Err(err))
		default:
			log.Error("failed to save user", sl.Err(err))
		}
		return nil, mapStorageErr(err)
	}

	log.Info("user created", slog.Int64("user_id", id))

	return u.userProvider.UserByID(ctx, id)
}

// Authenticate checks email and password. Unknown emails and wrong passwords
// fail the same way.
func (u *Users) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	const op = "users.Authenticate"
	log := u.logger.With(slog.String("op", op))

	user, err := u.userProvider.UserCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to get user", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user.PassHash = nil

	return user, nil
}

func (u *Users) User(ctx context.Context, id int64) (*models.User, error) {
	const op = "users.User"

	user, err := u.userProvider.UserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	return user, nil
}

func (u *Users) Users(
	ctx context.Context,
	filter models.UserFilter,
	params models.ListParams,
) (*models.Page[models.User], error) {
	const op = "users.Users"

	page, err := query.PageRequest(params, sortable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, total, err := u.userProvider.Users(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := query.NewPage(items, params, total)
	return &res, nil
}

func (u *Users) Update(ctx context.Context, id int64, in UpdateInput) (*models.User, error) {
	const op = "users.Update"
	log := u.logger.With(slog.String("op", op), slog.Int64("user_id", id))

	patch := models.UserPatch{Name: in.Name, Email: in.Email}
	if in.Password != nil {
		passHash, err := u.hash(*in.Password)
		if err != nil {
			if !errors.Is(err, ErrPasswordTooLong) {
				log.Error("failed to generate password hash", sl.Err(err))
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		patch.PassHash = passHash
	}

	if err := u.userModifier.UpdateUser(ctx, id, patch); err != nil {
		if !errors.Is(err, storage.ErrUserNotFound) && !errors.Is(err, storage.ErrUserExists) {
			log.Error("failed to update user", sl.Err(err))
		}
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	log.Info("user updated")

	return u.User(ctx, id)
}

// Delete soft-deletes the user. Refresh tokens it holds stop resolving.
func (u *Users) Delete(ctx context.Context, id int64) error {
	const op = "users.Delete"

	if err := u.userModifier.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	u.logger.Info("user deleted", slog.String("op", op), slog.Int64("user_id", id))

	return nil
}

// SetRoles replaces the roles of a user.
func (u *Users) SetRoles(ctx context.Context, id int64, roles []string) (*models.User, error) {
	const op = "users.SetRoles"

	if len(roles) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrRolesRequired)
	}

	if err := u.userSaver.SetUserRoles(ctx, id, roles); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageErr(err))
	}

	u.logger.Info("roles changed", slog.String("op", op), slog.Int64("user_id", id), slog.Any("roles", roles))

	return u.User(ctx, id)
}

func (u *Users) Roles(ctx context.Context) ([]models.Role, error) {
	const op = "users.Roles"

	roles, err := u.userProvider.Roles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return roles, nil
}

func (u *Users) hash(password string) ([]byte, error) {
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), u.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	return passHash, err
}

func (u *Users) checkRoles(ctx context.Context, names []string) error {
	roles, err := u.userProvider.Roles(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(roles))
	for _, r := range roles {
		known[r.Name] = true
	}

	for _, name := range names {
		if !known[name] {
			return fmt.Errorf("%w: %q", ErrRoleNotFound, name)
		}
	}

	return nil
}

func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, storage.ErrUserExists):
		return ErrUserExists
	case errors.Is(err, storage.ErrRoleNotFound):
		return ErrRoleNotFound
	default:
		return err
	}
}
