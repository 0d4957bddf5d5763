package employees

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bissquit/employee-registry/internal/pkg/httputil"
	"github.com/bissquit/employee-registry/internal/pkg/optional"
	"github.com/bissquit/employee-registry/internal/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrEmployeeNotFound, Status: http.StatusNotFound},
	{Error: ErrEmailExists, Status: http.StatusConflict},
	{Error: ErrInvalidPagination, Status: http.StatusBadRequest, Detailed: true},
	{Error: ErrNullField, Status: http.StatusBadRequest, Detailed: true},
	{Error: ErrBlankField, Status: http.StatusBadRequest, Detailed: true},
	{Error: ErrInvalidID, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for the employees module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new employees handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterReadRoutes registers routes that only read employees.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/employees", h.ListEmployees)
	r.Get("/employees/{id}", h.GetEmployee)
}

// RegisterWriteRoutes registers routes that modify employees.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/employees", h.CreateEmployee)
	r.Put("/employees/{id}", h.UpdateEmployee)
	r.Delete("/employees/{id}", h.DeleteEmployee)
}

// CreateEmployeeRequest represents the request body for creating an employee.
type CreateEmployeeRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Email       string  `json:"email" validate:"required,email,max=255"`
	Designation string  `json:"designation" validate:"required,min=1,max=100"`
	Salary      float64 `json:"salary" validate:"gt=0"`
}

// UpdateEmployeeRequest represents the request body for a partial update.
type UpdateEmployeeRequest struct {
	Name        optional.Value[string]  `json:"name"`
	Email       optional.Value[string]  `json:"email"`
	Designation optional.Value[string]  `json:"designation"`
	Salary      optional.Value[float64] `json:"salary"`
	IsActive    optional.Value[bool]    `json:"is_active"`
}

// updateConstraints holds the supplied non-null values of an update so they
// can be checked with the same rules as a create.
type updateConstraints struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=100"`
	Email       *string  `json:"email" validate:"omitnil,email,max=255"`
	Designation *string  `json:"designation" validate:"omitnil,min=1,max=100"`
	Salary      *float64 `json:"salary" validate:"omitnil,gt=0"`
}

// normalize trims the text fields so length rules apply to the stored values.
func (r *CreateEmployeeRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Designation = strings.TrimSpace(r.Designation)
}

func (r *UpdateEmployeeRequest) normalize() {
	r.Name = trimmed(r.Name)
	r.Email = trimmed(r.Email)
	r.Designation = trimmed(r.Designation)
}

func trimmed(v optional.Value[string]) optional.Value[string] {
	if s, ok := v.Get(); ok {
		return optional.Of(strings.TrimSpace(s))
	}
	return v
}

func present[T any](v optional.Value[T]) *T {
	if val, ok := v.Get(); ok {
		return &val
	}
	return nil
}

func (r *UpdateEmployeeRequest) constraints() updateConstraints {
	return updateConstraints{
		Name:        present(r.Name),
		Email:       present(r.Email),
		Designation: present(r.Designation),
		Salary:      present(r.Salary),
	}
}

// ListEmployees handles GET /employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.service.ListEmployees(r.Context(), params)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, page)
}

func parseListParams(r *http.Request) (ListParams, error) {
	q := r.URL.Query()
	params := ListParams{
		Page:     pagination.DefaultPage,
		PageSize: pagination.DefaultPageSize,
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid page: %s", v)
		}
		params.Page = page
	}

	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid page_size: %s", v)
		}
		params.PageSize = size
	}

	if q.Has("search") {
		search := q.Get("search")
		params.Search = &search
	}

	if v := q.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return params, fmt.Errorf("invalid is_active: %s", v)
		}
		params.IsActive = &active
	}

	return params, nil
}

// GetEmployee handles GET /employees/{id}.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	employee, err := h.service.GetEmployee(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, employee)
}

// CreateEmployee handles POST /employees.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	req.normalize()
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	employee, err := h.service.CreateEmployee(r.Context(), CreateEmployeeInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, employee)
}

// UpdateEmployee handles PUT /employees/{id}.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	var req UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	req.normalize()
	if err := h.validator.Struct(req.constraints()); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	employee, err := h.service.UpdateEmployee(r.Context(), id, UpdateEmployeeInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, employee)
}

// DeleteEmployee handles DELETE /employees/{id}.
// ?hard_delete=true removes the row; otherwise the employee is deactivated.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := employeeID(r)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	mode := DeleteSoft
	if v := r.URL.Query().Get("hard_delete"); v != "" {
		hard, err := strconv.ParseBool(v)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "invalid hard_delete: "+v)
			return
		}
		if hard {
			mode = DeleteHard
		}
	}

	outcome, err := h.service.DeleteEmployee(r.Context(), id, mode)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Message(w, http.StatusOK, outcome.Message())
}

func employeeID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, ErrInvalidID
	}
	return id, nil
}
