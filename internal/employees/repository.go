package employees

import (
	"context"

	"github.com/bissquit/employee-registry/internal/domain"
)

// ListFilter narrows and pages an employee listing.
type ListFilter struct {
	Search   string // case-insensitive substring of name, email or designation
	IsActive *bool
	Limit    int
	Offset   int
}

// Repository defines the interface for employee storage.
type Repository interface {
	// ListEmployees returns one page ordered by id and the total number of
	// matching rows, both read from the same snapshot.
	ListEmployees(ctx context.Context, filter ListFilter) ([]domain.Employee, int, error)
	GetEmployee(ctx context.Context, id int64) (*domain.Employee, error)
	// GetEmployeeByEmail matches email ignoring case.
	GetEmployeeByEmail(ctx context.Context, email string) (*domain.Employee, error)
	// CreateEmployee stores the employee and fills ID and timestamps.
	CreateEmployee(ctx context.Context, employee *domain.Employee) error
	// UpdateEmployee overwrites all mutable fields and advances UpdatedAt.
	UpdateEmployee(ctx context.Context, employee *domain.Employee) error
	DeactivateEmployee(ctx context.Context, id int64) error
	DeleteEmployee(ctx context.Context, id int64) error
}
