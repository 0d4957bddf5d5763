// Package postgres provides PostgreSQL implementation of the identity repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/identity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation = "23505"

	usernameConstraint = "accounts_username_uniq"
	emailConstraint    = "accounts_email_lower_uniq"
)

// Repository implements identity.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateAccount inserts a new account.
func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (username, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.IsActive,
	).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			switch pgErr.ConstraintName {
			case usernameConstraint:
				return identity.ErrUsernameExists
			case emailConstraint:
				return identity.ErrEmailExists
			}
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccountByUsername retrieves an account by its exact username.
func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	query := `
		SELECT id, username, email, password_hash, role, is_active, created_at
		FROM accounts
		WHERE username = $1
	`
	return r.getAccount(ctx, query, username)
}

// GetAccountByEmail retrieves an account by email, ignoring case.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT id, username, email, password_hash, role, is_active, created_at
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`
	return r.getAccount(ctx, query, email)
}

func (r *Repository) getAccount(ctx context.Context, query string, arg string) (*domain.Account, error) {
	var account domain.Account
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.IsActive,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &account, nil
}
