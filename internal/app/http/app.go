package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"shop/internal/config"
	httpauth "shop/internal/http/auth"
	httpcatalog "shop/internal/http/catalog"
	"shop/internal/http/middleware"
	httpusers "shop/internal/http/users"

	"github.com/gin-gonic/gin"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth    httpauth.Auth
	Users   httpusers.Users
	Catalog httpcatalog.Catalog
	Tokens  middleware.TokenParser
}

type App struct {
	logger *slog.Logger
	server *http.Server
	port   int
}

func New(logger *slog.Logger, services Services, cfg config.HTTPConfig) *App {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
	)

	authenticate := middleware.Authenticate(logger, services.Tokens)

	httpauth.Register(router, logger, services.Auth, services.Users, authenticate)
	httpusers.Register(router, logger, services.Users, authenticate)
	httpcatalog.Register(router, logger, services.Catalog, authenticate)

	return &App{
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		port: cfg.Port,
	}
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	const op = "httpapp.Run"

	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return a.Serve(listener)
}

// Serve accepts connections on lis until Stop is called.
func (a *App) Serve(lis net.Listener) error {
	const op = "httpapp.Serve"

	a.logger.Info("HTTP server is running",
		slog.String("op", op),
		slog.String("address", lis.Addr().String()),
	)

	if err := a.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Stop(ctx context.Context) error {
	const op = "httpapp.Stop"

	a.logger.With(slog.String("op", op)).
		Info("stopping HTTP server", slog.Int("port", a.port))

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
