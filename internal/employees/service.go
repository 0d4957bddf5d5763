// Package employees provides the employee query engine and mutation service.
package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/pkg/metrics"
	"github.com/bissquit/employee-registry/internal/pkg/optional"
	"github.com/bissquit/employee-registry/internal/pkg/pagination"
)

// Service implements employee business logic.
type Service struct {
	repo Repository
}

// NewService creates a new employee service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListParams selects a page of employees.
type ListParams struct {
	Page     int
	PageSize int
	Search   *string
	IsActive *bool
}

// EmployeePage is one page of a listing plus its metadata.
type EmployeePage struct {
	Items      []domain.Employee `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ListEmployees returns a page of employees ordered by id.
func (s *Service) ListEmployees(ctx context.Context, params ListParams) (*EmployeePage, error) {
	p := pagination.Params{Page: params.Page, PageSize: params.PageSize}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPagination, err)
	}

	filter := ListFilter{
		IsActive: params.IsActive,
		Limit:    p.PageSize,
		Offset:   p.Offset(),
	}
	if params.Search != nil {
		filter.Search = strings.TrimSpace(*params.Search)
	}

	items, total, err := s.repo.ListEmployees(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if items == nil {
		items = make([]domain.Employee, 0)
	}

	return &EmployeePage{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: pagination.TotalPages(total, p.PageSize),
	}, nil
}

// GetEmployee returns the employee with the given id.
func (s *Service) GetEmployee(ctx context.Context, id int64) (*domain.Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// CreateEmployeeInput contains data for creating an employee.
type CreateEmployeeInput struct {
	Name        string
	Email       string
	Designation string
	Salary      float64
}

// CreateEmployee stores a new active employee.
func (s *Service) CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*domain.Employee, error) {
	employee := &domain.Employee{
		Name:        strings.TrimSpace(input.Name),
		Email:       strings.TrimSpace(input.Email),
		Designation: strings.TrimSpace(input.Designation),
		Salary:      input.Salary,
		IsActive:    true,
	}
	if field := blankField(employee.Name, employee.Email, employee.Designation); field != "" {
		return nil, fmt.Errorf("%w: %s", ErrBlankField, field)
	}

	if err := s.checkEmailFree(ctx, employee.Email, 0); err != nil {
		return nil, err
	}

	if err := s.repo.CreateEmployee(ctx, employee); err != nil {
		return nil, err
	}
	metrics.EmployeeMutations.WithLabelValues("create").Inc()
	return employee, nil
}

// UpdateEmployeeInput carries the fields of a partial update.
// Omitted fields keep their stored values.
type UpdateEmployeeInput struct {
	Name        optional.Value[string]
	Email       optional.Value[string]
	Designation optional.Value[string]
	Salary      optional.Value[float64]
	IsActive    optional.Value[bool]
}

func (in UpdateEmployeeInput) nullField() string {
	switch {
	case in.Name.Null:
		return "name"
	case in.Email.Null:
		return "email"
	case in.Designation.Null:
		return "designation"
	case in.Salary.Null:
		return "salary"
	case in.IsActive.Null:
		return "is_active"
	}
	return ""
}

func (in UpdateEmployeeInput) blankField() string {
	fields := []struct {
		name  string
		value optional.Value[string]
	}{
		{"name", in.Name},
		{"email", in.Email},
		{"designation", in.Designation},
	}
	for _, f := range fields {
		if v, ok := f.value.Get(); ok && strings.TrimSpace(v) == "" {
			return f.name
		}
	}
	return ""
}

// blankField names the first of name, email and designation that is empty.
func blankField(name, email, designation string) string {
	switch "" {
	case name:
		return "name"
	case email:
		return "email"
	case designation:
		return "designation"
	}
	return ""
}

// UpdateEmployee merges the supplied fields into the stored employee.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, input UpdateEmployeeInput) (*domain.Employee, error) {
	if field := input.nullField(); field != "" {
		return nil, fmt.Errorf("%w: %s", ErrNullField, field)
	}
	if field := input.blankField(); field != "" {
		return nil, fmt.Errorf("%w: %s", ErrBlankField, field)
	}

	employee, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	if email, ok := input.Email.Get(); ok {
		email = strings.TrimSpace(email)
		if !domain.SameEmail(email, employee.Email) {
			if err := s.checkEmailFree(ctx, email, id); err != nil {
				return nil, err
			}
		}
		employee.Email = email
	}
	if name, ok := input.Name.Get(); ok {
		employee.Name = strings.TrimSpace(name)
	}
	if designation, ok := input.Designation.Get(); ok {
		employee.Designation = strings.TrimSpace(designation)
	}
	if salary, ok := input.Salary.Get(); ok {
		employee.Salary = salary
	}
	if active, ok := input.IsActive.Get(); ok {
		employee.IsActive = active
	}

	if err := s.repo.UpdateEmployee(ctx, employee); err != nil {
		return nil, err
	}
	metrics.EmployeeMutations.WithLabelValues("update").Inc()
	return employee, nil
}

// checkEmailFree fails with ErrEmailExists when an employee other than
// exceptID owns email.
func (s *Service) checkEmailFree(ctx context.Context, email string, exceptID int64) error {
	existing, err := s.repo.GetEmployeeByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil
		}
		return fmt.Errorf("check email: %w", err)
	}
	if existing.ID != exceptID {
		return ErrEmailExists
	}
	return nil
}

// DeleteMode selects how an employee is deleted.
type DeleteMode int

// Delete modes.
const (
	DeleteSoft DeleteMode = iota
	DeleteHard
)

// DeleteOutcome reports what a delete did.
type DeleteOutcome int

// Delete outcomes.
const (
	OutcomeDeactivated DeleteOutcome = iota
	OutcomeRemoved
)

// Message returns the client-facing confirmation for the outcome.
func (o DeleteOutcome) Message() string {
	if o == OutcomeRemoved {
		return "Employee permanently deleted"
	}
	return "Employee deactivated successfully"
}

// DeleteEmployee deactivates or permanently removes an employee.
func (s *Service) DeleteEmployee(ctx context.Context, id int64, mode DeleteMode) (DeleteOutcome, error) {
	if _, err := s.repo.GetEmployee(ctx, id); err != nil {
		return 0, err
	}

	if mode == DeleteHard {
		if err := s.repo.DeleteEmployee(ctx, id); err != nil {
			return 0, err
		}
		metrics.EmployeeMutations.WithLabelValues("delete").Inc()
		return OutcomeRemoved, nil
	}

	if err := s.repo.DeactivateEmployee(ctx, id); err != nil {
		return 0, err
	}
	metrics.EmployeeMutations.WithLabelValues("deactivate").Inc()
	return OutcomeDeactivated, nil
}
