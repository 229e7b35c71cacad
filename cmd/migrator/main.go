package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"shop/internal/config"
	"shop/internal/domain/models"
	"shop/internal/services/users"
	"shop/internal/storage/mongodb"
	"shop/internal/storage/sqlite"
)

func main() {
	var configPath, direction, adminEmail, adminPassword string
	flag.StringVar(&configPath, "config", "", "path to config file (or use CONFIG_PATH env)")
	flag.StringVar(&direction, "direction", "up", "migration direction: up or down")
	flag.StringVar(&adminEmail, "admin-email", "", "seed an admin user with this email")
	flag.StringVar(&adminPassword, "admin-password", "", "password of the seeded admin user")
	flag.Parse()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	cfg := config.LoadConfig(configPath)

	storage, err := sqlite.New(cfg.StoragePath)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer storage.Close()

	switch direction {
	case "up":
		err = storage.Migrate()
	case "down":
		err = storage.MigrateDown()
	default:
		log.Fatalf("unknown direction %q", direction)
	}
	if err != nil {
		log.Fatalf("failed to migrate %s: %v", direction, err)
	}

	log.Printf("migrations applied (%s)", direction)

	if adminEmail == "" || direction != "up" {
		return
	}
	if adminPassword == "" {
		log.Fatal("admin-password is required with admin-email")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seedAdmin(ctx, cfg, storage, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	fmt.Println("Database initialization completed successfully")
}

func seedAdmin(ctx context.Context, cfg *config.Config, storage *sqlite.Storage, email, password string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var svc *users.Users
	if cfg.Identity.Driver == config.IdentityMongo {
		mongo, err := mongodb.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		defer mongo.Close(ctx)

		svc = users.New(logger, mongo, mongo, mongo)
	} else {
		svc = users.New(logger, storage, storage, storage)
	}

	user, err := svc.Create(ctx, users.CreateInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Roles:    []string{models.RoleAdmin},
	})
	if errors.Is(err, users.ErrUserExists) {
		log.Printf("admin %s already exists", email)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("admin seeded (id=%d, email=%s)", user.ID, user.Email)

	return nil
}
