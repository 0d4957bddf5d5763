package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/pkg/metrics"
)

// TokenVerifier resolves a bearer token to its subject.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// AccountReader loads accounts by username.
type AccountReader interface {
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
}

// Guard resolves a bearer token to an account and enforces the active flag
// and the required capability.
type Guard struct {
	tokens   TokenVerifier
	accounts AccountReader
}

// NewGuard creates a new access guard.
func NewGuard(tokens TokenVerifier, accounts AccountReader) *Guard {
	return &Guard{tokens: tokens, accounts: accounts}
}

// Authorize returns the account behind token if it may use required.
//
// Missing, invalid and expired tokens, as well as tokens whose subject no
// longer exists, all fail with domain.ErrUnauthenticated. Inactive accounts
// fail with domain.ErrAccountInactive and accounts whose role lacks the
// capability with domain.ErrForbidden.
func (g *Guard) Authorize(ctx context.Context, token string, required domain.Capability) (*domain.Account, error) {
	if token == "" {
		metrics.AccessDecisions.WithLabelValues("unauthenticated").Inc()
		return nil, domain.ErrUnauthenticated
	}

	username, err := g.tokens.VerifyToken(token)
	if err != nil {
		metrics.AccessDecisions.WithLabelValues("unauthenticated").Inc()
		return nil, domain.ErrUnauthenticated
	}

	account, err := g.accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			metrics.AccessDecisions.WithLabelValues("unauthenticated").Inc()
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if !account.IsActive {
		metrics.AccessDecisions.WithLabelValues("inactive").Inc()
		return nil, domain.ErrAccountInactive
	}

	if !account.Role.Can(required) {
		metrics.AccessDecisions.WithLabelValues("forbidden").Inc()
		return nil, domain.ErrForbidden
	}

	metrics.AccessDecisions.WithLabelValues("allow").Inc()
	return account, nil
}
