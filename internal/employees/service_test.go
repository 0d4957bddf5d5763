package employees

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/pkg/metrics"
	"github.com/bissquit/employee-registry/internal/pkg/optional"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository implements Repository in memory.
type memoryRepository struct {
	mu        sync.Mutex
	employees map[int64]domain.Employee
	nextID    int64
	now       time.Time
	listErr   error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		employees: make(map[int64]domain.Employee),
		now:       time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so every write gets a later timestamp.
func (m *memoryRepository) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memoryRepository) ListEmployees(_ context.Context, filter ListFilter) ([]domain.Employee, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}

	var matched []domain.Employee
	search := strings.ToLower(filter.Search)
	for _, e := range m.employees {
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Name), search) &&
			!strings.Contains(strings.ToLower(e.Email), search) &&
			!strings.Contains(strings.ToLower(e.Designation), search) {
			continue
		}
		if filter.IsActive != nil && e.IsActive != *filter.IsActive {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if filter.Offset >= total {
		return []domain.Employee{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (m *memoryRepository) GetEmployee(_ context.Context, id int64) (*domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return &e, nil
}

func (m *memoryRepository) GetEmployeeByEmail(_ context.Context, email string) (*domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.employees {
		if domain.SameEmail(e.Email, email) {
			return &e, nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func (m *memoryRepository) CreateEmployee(_ context.Context, employee *domain.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.employees {
		if domain.SameEmail(e.Email, employee.Email) {
			return ErrEmailExists
		}
	}
	m.nextID++
	now := m.tick()
	employee.ID = m.nextID
	employee.CreatedAt = now
	employee.UpdatedAt = now
	m.employees[employee.ID] = *employee
	return nil
}

func (m *memoryRepository) UpdateEmployee(_ context.Context, employee *domain.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[employee.ID]; !ok {
		return ErrEmployeeNotFound
	}
	employee.UpdatedAt = m.tick()
	m.employees[employee.ID] = *employee
	return nil
}

func (m *memoryRepository) DeactivateEmployee(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return ErrEmployeeNotFound
	}
	e.IsActive = false
	e.UpdatedAt = m.tick()
	m.employees[id] = e
	return nil
}

func (m *memoryRepository) DeleteEmployee(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(m.employees, id)
	return nil
}

func newTestService() (*Service, *memoryRepository) {
	repo := newMemoryRepository()
	return NewService(repo), repo
}

func createEmployee(t *testing.T, s *Service, name, email string) *domain.Employee {
	t.Helper()
	employee, err := s.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:        name,
		Email:       email,
		Designation: "Engineer",
		Salary:      75000,
	})
	require.NoError(t, err)
	return employee
}

func ptr[T any](v T) *T { return &v }

func TestCreateEmployee(t *testing.T) {
	s, _ := newTestService()

	employee, err := s.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:        "Jane Doe",
		Email:       "jane@x.com",
		Designation: "Engineer",
		Salary:      75000,
	})

	require.NoError(t, err)
	assert.NotZero(t, employee.ID)
	assert.True(t, employee.IsActive)
	assert.False(t, employee.CreatedAt.IsZero())
	assert.Equal(t, employee.CreatedAt, employee.UpdatedAt)
}

func TestCreateEmployee_DuplicateEmail(t *testing.T) {
	s, _ := newTestService()
	createEmployee(t, s, "Jane Doe", "jane@x.com")

	_, err := s.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:        "Other Jane",
		Email:       "JANE@X.COM",
		Designation: "Manager",
		Salary:      1,
	})

	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestCreateEmployee_BlankField(t *testing.T) {
	s, repo := newTestService()

	_, err := s.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name:        "   ",
		Email:       "jane@x.com",
		Designation: "Engineer",
		Salary:      75000,
	})

	require.ErrorIs(t, err, ErrBlankField)
	assert.EqualError(t, err, "field cannot be blank: name")
	assert.Empty(t, repo.employees)
}

func TestGetEmployee_NotFound(t *testing.T) {
	s, _ := newTestService()

	_, err := s.GetEmployee(context.Background(), 42)

	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestListEmployees_PagesCoverAllRowsOnce(t *testing.T) {
	s, _ := newTestService()
	for i := 1; i <= 25; i++ {
		createEmployee(t, s, fmt.Sprintf("Employee %d", i), fmt.Sprintf("e%d@example.com", i))
	}

	seen := make(map[int64]bool)
	for page := 1; page <= 3; page++ {
		result, err := s.ListEmployees(context.Background(), ListParams{Page: page, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 25, result.Total)
		assert.Equal(t, 3, result.TotalPages)
		assert.Equal(t, page, result.Page)
		for _, e := range result.Items {
			assert.False(t, seen[e.ID], "employee %d returned twice", e.ID)
			seen[e.ID] = true
		}
	}
	assert.Len(t, seen, 25)

	last, err := s.ListEmployees(context.Background(), ListParams{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
}

func TestListEmployees_PastLastPageIsEmpty(t *testing.T) {
	s, _ := newTestService()
	createEmployee(t, s, "Jane Doe", "jane@x.com")

	result, err := s.ListEmployees(context.Background(), ListParams{Page: 5, PageSize: 10})

	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.NotNil(t, result.Items)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.TotalPages)
}

func TestListEmployees_EmptyStore(t *testing.T) {
	s, _ := newTestService()

	result, err := s.ListEmployees(context.Background(), ListParams{Page: 1, PageSize: 10})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.TotalPages)
	assert.NotNil(t, result.Items)
}

func TestListEmployees_InvalidPagination(t *testing.T) {
	s, _ := newTestService()

	tests := []struct {
		name   string
		params ListParams
	}{
		{"page zero", ListParams{Page: 0, PageSize: 10}},
		{"negative page", ListParams{Page: -1, PageSize: 10}},
		{"page size zero", ListParams{Page: 1, PageSize: 0}},
		{"page size too large", ListParams{Page: 1, PageSize: 101}},
		{"offset overflows", ListParams{Page: math.MaxInt / 10, PageSize: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ListEmployees(context.Background(), tt.params)
			assert.ErrorIs(t, err, ErrInvalidPagination)
		})
	}
}

func TestListEmployees_SearchAndFilter(t *testing.T) {
	s, _ := newTestService()
	jane := createEmployee(t, s, "Jane Doe", "jane@x.com")
	createEmployee(t, s, "John Smith", "john@x.com")
	_, err := s.CreateEmployee(context.Background(), CreateEmployeeInput{
		Name: "Ann Lee", Email: "ann@x.com", Designation: "Janitor", Salary: 30000,
	})
	require.NoError(t, err)

	_, err = s.DeleteEmployee(context.Background(), jane.ID, DeleteSoft)
	require.NoError(t, err)

	tests := []struct {
		name      string
		search    *string
		isActive  *bool
		wantTotal int
	}{
		{"no filter includes inactive", nil, nil, 3},
		{"search name case-insensitive", ptr("JANE"), nil, 1},
		{"search matches designation", ptr("jan"), nil, 2},
		{"search matches email", ptr("john@"), nil, 1},
		{"blank search ignored", ptr("  "), nil, 3},
		{"active only", nil, ptr(true), 2},
		{"inactive only", nil, ptr(false), 1},
		{"search and active", ptr("jan"), ptr(true), 1},
		{"no match", ptr("zzz"), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.ListEmployees(context.Background(), ListParams{
				Page: 1, PageSize: 10, Search: tt.search, IsActive: tt.isActive,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Len(t, result.Items, tt.wantTotal)
		})
	}
}

func TestListEmployees_StoreError(t *testing.T) {
	s, repo := newTestService()
	repo.listErr = errors.New("connection refused")

	_, err := s.ListEmployees(context.Background(), ListParams{Page: 1, PageSize: 10})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPagination)
}

func TestUpdateEmployee_OnlySuppliedFields(t *testing.T) {
	s, _ := newTestService()
	original := createEmployee(t, s, "Jane Doe", "jane@x.com")

	updated, err := s.UpdateEmployee(context.Background(), original.ID, UpdateEmployeeInput{
		Salary: optional.Of(80000.0),
	})

	require.NoError(t, err)
	assert.Equal(t, 80000.0, updated.Salary)
	assert.Equal(t, original.Name, updated.Name)
	assert.Equal(t, original.Email, updated.Email)
	assert.Equal(t, original.Designation, updated.Designation)
	assert.True(t, updated.IsActive)
	assert.True(t, updated.UpdatedAt.After(original.UpdatedAt))
}

func TestUpdateEmployee_EmptyUpdateStillAdvancesUpdatedAt(t *testing.T) {
	s, _ := newTestService()
	original := createEmployee(t, s, "Jane Doe", "jane@x.com")

	updated, err := s.UpdateEmployee(context.Background(), original.ID, UpdateEmployeeInput{})

	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(original.UpdatedAt))
}

func TestUpdateEmployee_OwnEmailIsNotAConflict(t *testing.T) {
	s, _ := newTestService()
	original := createEmployee(t, s, "Jane Doe", "jane@x.com")

	for _, email := range []string{"jane@x.com", "Jane@X.com"} {
		updated, err := s.UpdateEmployee(context.Background(), original.ID, UpdateEmployeeInput{
			Email: optional.Of(email),
		})
		require.NoError(t, err)
		assert.Equal(t, email, updated.Email)
	}
}

func TestUpdateEmployee_EmailTakenByAnother(t *testing.T) {
	s, _ := newTestService()
	jane := createEmployee(t, s, "Jane Doe", "jane@x.com")
	createEmployee(t, s, "John Smith", "john@x.com")

	_, err := s.UpdateEmployee(context.Background(), jane.ID, UpdateEmployeeInput{
		Email: optional.Of("JOHN@x.com"),
	})

	assert.ErrorIs(t, err, ErrEmailExists)
	stored, err := s.GetEmployee(context.Background(), jane.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", stored.Email)
}

func TestUpdateEmployee_NullField(t *testing.T) {
	s, _ := newTestService()
	jane := createEmployee(t, s, "Jane Doe", "jane@x.com")

	_, err := s.UpdateEmployee(context.Background(), jane.ID, UpdateEmployeeInput{
		Designation: optional.Null[string](),
	})

	require.ErrorIs(t, err, ErrNullField)
	assert.Contains(t, err.Error(), "designation")
}

func TestUpdateEmployee_BlankField(t *testing.T) {
	s, _ := newTestService()
	jane := createEmployee(t, s, "Jane Doe", "jane@x.com")

	_, err := s.UpdateEmployee(context.Background(), jane.ID, UpdateEmployeeInput{
		Designation: optional.Of("  "),
	})

	require.ErrorIs(t, err, ErrBlankField)
	stored, err := s.GetEmployee(context.Background(), jane.ID)
	require.NoError(t, err)
	assert.Equal(t, jane.Designation, stored.Designation)
	assert.Equal(t, jane.UpdatedAt, stored.UpdatedAt)
}

func TestUpdateEmployee_NotFound(t *testing.T) {
	s, _ := newTestService()

	_, err := s.UpdateEmployee(context.Background(), 99, UpdateEmployeeInput{Name: optional.Of("x")})

	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestUpdateEmployee_Reactivate(t *testing.T) {
	s, _ := newTestService()
	jane := createEmployee(t, s, "Jane Doe", "jane@x.com")
	_, err := s.DeleteEmployee(context.Background(), jane.ID, DeleteSoft)
	require.NoError(t, err)

	updated, err := s.UpdateEmployee(context.Background(), jane.ID, UpdateEmployeeInput{
		IsActive: optional.Of(true),
	})

	require.NoError(t, err)
	assert.True(t, updated.IsActive)
}

func TestDeleteEmployee_Soft(t *testing.T) {
	s, _ := newTestService()
	jane := createEmployee(t, s, "Jane Doe", "jane@x.com")

	outcome, err := s.DeleteEmployee(context.Background(), jane.ID, DeleteSoft)

	require.NoError(t, err)
	assert.Equal(t, OutcomeDeactivated, outcome)
	stored, err := s.GetEmployee(context.Background(), jane.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.UpdatedAt.After(jane.UpdatedAt))

	// Deactivating twice is still a success.
	outcome, err = s.DeleteEmployee(context.Background(), jane.ID, DeleteSoft)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeactivated, outcome)
}

func TestDeleteEmployee_Hard(t *testing.T) {
	s, _ := newTestService()
	jane := createEmployee(t, s, "Jane Doe", "jane@x.com")
	deletes := metrics.EmployeeMutations.WithLabelValues("delete")
	before := testutil.ToFloat64(deletes)

	outcome, err := s.DeleteEmployee(context.Background(), jane.ID, DeleteHard)

	require.NoError(t, err)
	assert.Equal(t, OutcomeRemoved, outcome)
	assert.Equal(t, before+1, testutil.ToFloat64(deletes))
	_, err = s.GetEmployee(context.Background(), jane.ID)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)

	_, err = s.DeleteEmployee(context.Background(), jane.ID, DeleteHard)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestDeleteEmployee_NotFound(t *testing.T) {
	s, _ := newTestService()

	for _, mode := range []DeleteMode{DeleteSoft, DeleteHard} {
		_, err := s.DeleteEmployee(context.Background(), 7, mode)
		assert.ErrorIs(t, err, ErrEmployeeNotFound)
	}
}

func TestDeleteOutcome_Message(t *testing.T) {
	assert.Equal(t, "Employee deactivated successfully", OutcomeDeactivated.Message())
	assert.Equal(t, "Employee permanently deleted", OutcomeRemoved.Message())
}
