// Command seed creates the initial admin account.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/bissquit/employee-registry/internal/app"
	"github.com/bissquit/employee-registry/internal/config"
	"github.com/bissquit/employee-registry/internal/identity"
	"github.com/bissquit/employee-registry/internal/identity/jwt"
	identitypostgres "github.com/bissquit/employee-registry/internal/identity/postgres"
	"github.com/bissquit/employee-registry/internal/pkg/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("EMS_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    1,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	hasher, err := identity.NewPasswordHasher(cfg.Password.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := jwt.NewAuthenticator(jwt.Config{
		SecretKey:           cfg.JWT.SecretKey,
		Algorithm:           cfg.JWT.Algorithm,
		AccessTokenDuration: cfg.JWT.AccessTokenDuration,
	})
	if err != nil {
		return err
	}

	service := identity.NewService(identitypostgres.NewRepository(db), hasher, tokens)
	_, err = app.SeedAdmin(ctx, service, cfg.Seed, logger)
	return err
}
