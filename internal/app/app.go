package app

import (
	"context"
	"fmt"
	"log/slog"
	grpcapp "shop/internal/app/grpc"
	httpapp "shop/internal/app/http"
	"shop/internal/config"
	"shop/internal/lib/sl"
	"shop/internal/services/auth"
	"shop/internal/services/catalog"
	"shop/internal/services/tokens"
	"shop/internal/services/users"
	"shop/internal/storage/mongodb"
	"shop/internal/storage/sqlite"
)

// IdentityStore keeps users, roles and refresh tokens.
type IdentityStore interface {
	users.UserSaver
	users.UserProvider
	users.UserModifier
	tokens.RefreshTokenStore
	Ping(ctx context.Context) error
}

type App struct {
	HTTPSrv *httpapp.App
	GRPCSrv *grpcapp.App
	Users   *users.Users

	logger  *slog.Logger
	closers []func(ctx context.Context) error
}

func New(ctx context.Context, logger *slog.Logger, cfg *config.Config) *App {
	a := &App{logger: logger}

	storage, err := sqlite.New(cfg.StoragePath)
	if err != nil {
		panic(err)
	}
	a.closers = append(a.closers, func(context.Context) error { return storage.Close() })

	if cfg.Migrations.Auto {
		if err := storage.Migrate(); err != nil {
			panic(err)
		}
	}

	identity, err := a.identityStore(ctx, cfg, storage)
	if err != nil {
		panic(err)
	}

	usersService := users.New(logger, identity, identity, identity)
	tokensService := tokens.New(
		logger,
		identity,
		identity,
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
	)
	authService := auth.New(logger, usersService, usersService, tokensService)
	catalogService := catalog.New(logger, storage, storage, storage)

	a.Users = usersService
	a.HTTPSrv = httpapp.New(logger, httpapp.Services{
		Auth:    authService,
		Users:   usersService,
		Catalog: catalogService,
		Tokens:  tokensService,
	}, cfg.HTTP)
	a.GRPCSrv = grpcapp.New(logger, cfg.Grpc.Port, cfg.Grpc.Reflection)

	if err := identity.Ping(ctx); err != nil {
		panic(err)
	}
	a.GRPCSrv.SetServing(true)

	return a
}

func (a *App) identityStore(ctx context.Context, cfg *config.Config, storage *sqlite.Storage) (IdentityStore, error) {
	const op = "app.identityStore"

	if cfg.Identity.Driver != config.IdentityMongo {
		return storage, nil
	}

	mongo, err := mongodb.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.closers = append(a.closers, mongo.Close)

	a.logger.Info("identity stored in mongodb", slog.String("database", cfg.Mongo.Database))

	return mongo, nil
}

// Stop shuts the servers down and releases storage.
func (a *App) Stop(ctx context.Context) {
	a.GRPCSrv.SetServing(false)

	if err := a.HTTPSrv.Stop(ctx); err != nil {
		a.logger.Error("failed to stop HTTP server", sl.Err(err))
	}
	a.GRPCSrv.Stop()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
