// Package identity provides account authentication, provisioning and the
// per-request access guard.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/pkg/metrics"
)

// TokenIssuer issues bearer tokens for an account username.
type TokenIssuer interface {
	IssueToken(subject string) (string, error)
}

// Service implements login and account provisioning.
type Service struct {
	repo   Repository
	hasher *PasswordHasher
	tokens TokenIssuer

	dummyOnce   sync.Once
	dummyDigest string
}

// NewService creates a new identity service.
func NewService(repo Repository, hasher *PasswordHasher, tokens TokenIssuer) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
	}
}

// LoginInput contains login credentials.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.Account, string, error) {
	account, err := s.repo.GetAccountByUsername(ctx, input.Username)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			return nil, "", fmt.Errorf("get account: %w", err)
		}
		// Burn the same bcrypt time as a real comparison.
		s.hasher.Verify(input.Password, s.dummy())
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, "", ErrInvalidCredentials
	}

	if !s.hasher.Verify(input.Password, account.PasswordHash) {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		return nil, "", ErrInvalidCredentials
	}

	if !account.IsActive {
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		return nil, "", domain.ErrAccountInactive
	}

	token, err := s.tokens.IssueToken(account.Username)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return account, token, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyDigest = digest
		}
	})
	return s.dummyDigest
}

// RegisterInput contains data for provisioning an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// Register provisions a new active account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Role == "" {
		input.Role = domain.RoleStandard
	}
	if !input.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.repo.GetAccountByUsername(ctx, input.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	if _, err := s.repo.GetAccountByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: digest,
		Role:         input.Role,
		IsActive:     true,
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// EnsureAccount provisions the account unless its username already exists.
// The boolean result reports whether a new account was created.
func (s *Service) EnsureAccount(ctx context.Context, input RegisterInput) (*domain.Account, bool, error) {
	existing, err := s.repo.GetAccountByUsername(ctx, input.Username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, fmt.Errorf("get account: %w", err)
	}

	account, err := s.Register(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}

// GetAccount returns the account with the given username.
func (s *Service) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	return s.repo.GetAccountByUsername(ctx, username)
}
