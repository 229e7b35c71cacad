package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"shop/internal/domain/models"
	"shop/internal/lib/sl"
	"shop/internal/services/tokens"
	"shop/internal/services/users"
)

const tokenType = "bearer"

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
)

type UserRegistrar interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
}

type UserAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(user *models.User) (string, error)
	GenerateRefreshToken(ctx context.Context, user *models.User) (string, error)
	CreateAccessTokenFromRefreshToken(ctx context.Context, token string) (*tokens.AccessToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

type Auth struct {
	logger        *slog.Logger
	registrar     UserRegistrar
	authenticator UserAuthenticator
	tokens        TokenIssuer
}

type Payload struct {
	Type         string `json:"type"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type Session struct {
	User    *models.User `json:"user"`
	Payload Payload      `json:"payload"`
}

// New returns a new instance of the Auth service.
func New(
	logger *slog.Logger,
	registrar UserRegistrar,
	authenticator UserAuthenticator,
	tokens TokenIssuer,
) *Auth {
	return &Auth{
		logger:        logger,
		registrar:     registrar,
		authenticator: authenticator,
		tokens:        tokens,
	}
}

// Register creates a customer account and opens a session for it.
func (a *Auth) Register(ctx context.Context, name, email, password string) (*Session, error) {
	const op = "auth.Register"
	log := a.logger.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	log.Info("register request")

	user, err := a.registrar.Register(ctx, name, email, password)
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			log.Warn("user already exists", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, ErrUserAlreadyExists)
		}
		if errors.Is(err, users.ErrPasswordTooLong) {
			log.Warn("password too long")
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to register user", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session, err := a.openSession(ctx, user)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("user_id", user.ID))

	return session, nil
}

// Login checks credentials and opens a session. It does not tell unknown
// emails apart from wrong passwords.
func (a *Auth) Login(ctx context.Context, email, password string) (*Session, error) {
	const op = "auth.Login"
	log := a.logger.With(slog.String("op", op))
	log.Info("login request", slog.String("email", email))

	user, err := a.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			log.Warn("invalid credentials", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		log.Error("failed to authenticate user", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session, err := a.openSession(ctx, user)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("user_id", user.ID))

	return session, nil
}

// Refresh issues a new access token. The refresh token is not rotated.
func (a *Auth) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	const op = "auth.Refresh"
	log := a.logger.With(slog.String("op", op))

	access, err := a.tokens.CreateAccessTokenFromRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, tokens.ErrRefreshTokenExpired) {
			log.Info("refresh token expired")
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}
		log.Warn("failed to refresh access token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Session{
		User: access.User,
		Payload: Payload{
			Type:  tokenType,
			Token: access.Token,
		},
	}, nil
}

// Logout revokes the refresh token.
func (a *Auth) Logout(ctx context.Context, refreshToken string) error {
	const op = "auth.Logout"
	log := a.logger.With(slog.String("op", op))

	if err := a.tokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
		log.Warn("failed to revoke refresh token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *Auth) openSession(ctx context.Context, user *models.User) (*Session, error) {
	access, err := a.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refresh, err := a.tokens.GenerateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &Session{
		User: user,
		Payload: Payload{
			Type:         tokenType,
			Token:        access,
			RefreshToken: refresh,
		},
	}, nil
}
