package app

import (
	"context"
	"log/slog"

	"github.com/bissquit/employee-registry/internal/config"
	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/identity"
)

// AccountProvisioner creates an account unless its username is taken.
type AccountProvisioner interface {
	EnsureAccount(ctx context.Context, input identity.RegisterInput) (*domain.Account, bool, error)
}

// SeedAdmin makes sure the configured admin account exists.
// It reports whether a new account was created.
func SeedAdmin(ctx context.Context, accounts AccountProvisioner, cfg config.SeedConfig, logger *slog.Logger) (bool, error) {
	account, created, err := accounts.EnsureAccount(ctx, identity.RegisterInput{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return false, err
	}

	if created {
		logger.Info("admin account created", "username", account.Username)
	} else {
		logger.Info("admin account already exists", "username", account.Username)
	}
	return created, nil
}
