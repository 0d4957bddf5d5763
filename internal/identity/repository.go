package identity

import (
	"context"

	"github.com/bissquit/employee-registry/internal/domain"
)

// Repository defines the interface for account storage.
type Repository interface {
	// CreateAccount stores the account and fills ID and CreatedAt.
	// Returns ErrUsernameExists or ErrEmailExists on a uniqueness violation.
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
}
