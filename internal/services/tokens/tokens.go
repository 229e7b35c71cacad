package tokens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"shop/internal/domain/models"
	"shop/internal/lib/jwt"
	"shop/internal/lib/sl"
	"shop/internal/storage"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUserRequired          = errors.New("user is required")
	ErrInvalidTTL            = errors.New("token ttl must be positive")
	ErrRefreshTokenRequired  = errors.New("refresh token is required")
	ErrRefreshTokenMalformed = errors.New("refresh token malformed")
	ErrRefreshTokenExpired   = errors.New("refresh token expired")
	ErrRefreshTokenNotFound  = errors.New("refresh token not found")
	ErrRefreshTokenRevoked   = errors.New("refresh token revoked")
	ErrUserNotFound          = errors.New("user not found")
	ErrAccessTokenInvalid    = errors.New("access token invalid")
	ErrAccessTokenExpired    = errors.New("access token expired")
)

type RefreshTokenStore interface {
	SaveRefreshToken(ctx context.Context, userID int64, expiresAt time.Time) (*models.RefreshToken, error)
	RefreshToken(ctx context.Context, id int64) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id int64) (int64, error)
}

type UserProvider interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
}

// Tokens issues access and refresh tokens and resolves refresh tokens back
// to their owner.
type Tokens struct {
	logger        *slog.Logger
	tokenStore    RefreshTokenStore
	userProvider  UserProvider
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// Resolved is a refresh token that passed every check, with its owner.
type Resolved struct {
	User  *models.User
	Token *models.RefreshToken
}

type AccessToken struct {
	User  *models.User
	Token string
}

// Identity is what a verified access token says about its bearer.
type Identity struct {
	UserID int64
	Roles  []string
}

func (i *Identity) HasRole(roles ...string) bool {
	for _, have := range i.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

func New(
	logger *slog.Logger,
	tokenStore RefreshTokenStore,
	userProvider UserProvider,
	accessSecret string,
	refreshSecret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) *Tokens {
	return &Tokens{
		logger:        logger,
		tokenStore:    tokenStore,
		userProvider:  userProvider,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// GenerateAccessToken signs a stateless access token for user.
func (t *Tokens) GenerateAccessToken(user *models.User) (string, error) {
	const op = "tokens.GenerateAccessToken"

	if user == nil || user.ID == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrUserRequired)
	}
	if t.accessTTL <= 0 {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidTTL)
	}

	token, err := jwt.GenerateAccessToken(user, t.accessSecret, t.now(), t.accessTTL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// GenerateRefreshToken persists a new refresh token record and signs a token
// pointing at it. Every call creates an independent record.
func (t *Tokens) GenerateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	const op = "tokens.GenerateRefreshToken"
	log := t.logger.With(slog.String("op", op))

	if user == nil || user.ID == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrUserRequired)
	}
	if t.refreshTTL <= 0 {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidTTL)
	}

	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.refreshTTL)

	record, err := t.tokenStore.SaveRefreshToken(ctx, user.ID, expiresAt)
	if err != nil {
		log.Error("failed to save refresh token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := jwt.GenerateRefreshToken(user.ID, record.ID, t.refreshSecret, issuedAt, expiresAt)
	if err != nil {
		// the record stays behind unused; it expires with its ttl
		log.Error("failed to sign refresh token", slog.Int64("token_id", record.ID), sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("refresh token issued", slog.Int64("user_id", user.ID), slog.Int64("token_id", record.ID))

	return token, nil
}

// ResolveRefreshToken verifies token and loads its live record and owner.
func (t *Tokens) ResolveRefreshToken(ctx context.Context, token string) (*Resolved, error) {
	const op = "tokens.ResolveRefreshToken"
	log := t.logger.With(slog.String("op", op))

	record, userID, err := t.lookup(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if record.Revoked {
		log.Info("revoked refresh token presented", slog.Int64("token_id", record.ID))
		return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenRevoked)
	}

	if !t.now().Before(record.ExpiresAt) {
		return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenExpired)
	}

	user, err := t.userProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("refresh token owner not found", slog.Int64("user_id", userID))
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		log.Error("failed to get user", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Resolved{User: user, Token: record}, nil
}

// CreateAccessTokenFromRefreshToken resolves token and signs a fresh access
// token for its owner. The refresh token stays valid.
func (t *Tokens) CreateAccessTokenFromRefreshToken(ctx context.Context, token string) (*AccessToken, error) {
	const op = "tokens.CreateAccessTokenFromRefreshToken"

	resolved, err := t.ResolveRefreshToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	access, err := t.GenerateAccessToken(resolved.User)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &AccessToken{User: resolved.User, Token: access}, nil
}

// RevokeRefreshToken marks the record behind token revoked. Revoking an
// already revoked token succeeds as long as its record still exists.
func (t *Tokens) RevokeRefreshToken(ctx context.Context, token string) error {
	const op = "tokens.RevokeRefreshToken"
	log := t.logger.With(slog.String("op", op))

	record, _, err := t.lookup(ctx, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := t.tokenStore.RevokeRefreshToken(ctx, record.ID)
	if err != nil {
		log.Error("failed to revoke refresh token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrRefreshTokenNotFound)
	}

	log.Info("refresh token revoked", slog.Int64("token_id", record.ID))

	return nil
}

// ParseAccessToken verifies an access token and returns its bearer.
func (t *Tokens) ParseAccessToken(token string) (*Identity, error) {
	const op = "tokens.ParseAccessToken"

	claims, err := jwt.ParseAccessToken(token, t.accessSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrAccessTokenExpired, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, ErrAccessTokenInvalid, err)
	}

	userID, err := claims.UserID()
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrAccessTokenInvalid)
	}

	return &Identity{UserID: userID, Roles: claims.Roles}, nil
}

// lookup decodes token and loads its record. It is the shared first half of
// resolving and revoking.
func (t *Tokens) lookup(ctx context.Context, token string) (*models.RefreshToken, int64, error) {
	if strings.TrimSpace(token) == "" {
		return nil, 0, ErrRefreshTokenRequired
	}

	claims, err := jwt.ParseRefreshToken(token, t.refreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, 0, fmt.Errorf("%w: %w", ErrRefreshTokenExpired, err)
		}
		return nil, 0, fmt.Errorf("%w: %w", ErrRefreshTokenMalformed, err)
	}

	tokenID, err := strconv.ParseInt(claims.ID, 10, 64)
	if err != nil || tokenID <= 0 {
		return nil, 0, fmt.Errorf("%w: invalid jti %q", ErrRefreshTokenMalformed, claims.ID)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, 0, fmt.Errorf("%w: invalid sub %q", ErrRefreshTokenMalformed, claims.Subject)
	}

	record, err := t.tokenStore.RefreshToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, storage.ErrRefreshTokenNotFound) {
			return nil, 0, ErrRefreshTokenNotFound
		}
		return nil, 0, err
	}

	if record.UserID != userID {
		return nil, 0, fmt.Errorf("%w: token %d does not belong to user %d", ErrRefreshTokenMalformed, tokenID, userID)
	}

	return record, userID, nil
}
