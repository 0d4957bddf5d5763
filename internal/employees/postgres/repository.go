// Package postgres provides PostgreSQL implementation of the employees repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/employees"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const employeeColumns = `id, name, email, designation, salary, is_active, created_at, updated_at`

// Repository implements employees.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListEmployees counts and fetches a page inside one repeatable-read
// transaction, so total and items describe the same snapshot.
func (r *Repository) ListEmployees(ctx context.Context, filter employees.ListFilter) ([]domain.Employee, int, error) {
	where, args := buildWhere(filter)

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int
	countQuery := `SELECT COUNT(*) FROM employees` + where
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM employees%s ORDER BY id ASC LIMIT $%d OFFSET $%d`,
		employeeColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := tx.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Employee, 0, filter.Limit)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan employee: %w", err)
		}
		items = append(items, *employee)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate employees: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit transaction: %w", err)
	}
	return items, total, nil
}

func buildWhere(filter employees.ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			`(name ILIKE $%d OR email ILIKE $%d OR designation ILIKE $%d)`, n, n, n))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conditions = append(conditions, fmt.Sprintf(`is_active = $%d`, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// GetEmployee retrieves an employee by id.
func (r *Repository) GetEmployee(ctx context.Context, id int64) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	employee, err := scanEmployee(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employees.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return employee, nil
}

// GetEmployeeByEmail retrieves an employee by email, ignoring case.
func (r *Repository) GetEmployeeByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE LOWER(email) = LOWER($1)`
	employee, err := scanEmployee(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employees.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee by email: %w", err)
	}
	return employee, nil
}

// CreateEmployee inserts a new employee.
func (r *Repository) CreateEmployee(ctx context.Context, employee *domain.Employee) error {
	query := `
		INSERT INTO employees (name, email, designation, salary, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		employee.Name,
		employee.Email,
		employee.Designation,
		employee.Salary,
		employee.IsActive,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return employees.ErrEmailExists
		}
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// UpdateEmployee overwrites the mutable fields of an employee.
func (r *Repository) UpdateEmployee(ctx context.Context, employee *domain.Employee) error {
	query := `
		UPDATE employees
		SET name = $2, email = $3, designation = $4, salary = $5, is_active = $6,
		    updated_at = ` + nextUpdatedAt + `
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		employee.ID,
		employee.Name,
		employee.Email,
		employee.Designation,
		employee.Salary,
		employee.IsActive,
	).Scan(&employee.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employees.ErrEmployeeNotFound
		}
		if isUniqueViolation(err) {
			return employees.ErrEmailExists
		}
		return fmt.Errorf("update employee: %w", err)
	}
	return nil
}

// DeactivateEmployee clears the active flag.
func (r *Repository) DeactivateEmployee(ctx context.Context, id int64) error {
	query := `UPDATE employees SET is_active = FALSE, updated_at = ` + nextUpdatedAt + ` WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
	}
	if result.RowsAffected() == 0 {
		return employees.ErrEmployeeNotFound
	}
	return nil
}

// DeleteEmployee permanently removes an employee.
func (r *Repository) DeleteEmployee(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if result.RowsAffected() == 0 {
		return employees.ErrEmployeeNotFound
	}
	return nil
}

// nextUpdatedAt never moves backwards, even for two writes in one microsecond.
const nextUpdatedAt = `GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')`

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Email,
		&e.Designation,
		&e.Salary,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
