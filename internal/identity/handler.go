package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrInvalidCredentials, Status: http.StatusUnauthorized},
	{Error: domain.ErrAccountInactive, Status: http.StatusForbidden},
	{Error: ErrUsernameExists, Status: http.StatusConflict},
	{Error: ErrEmailExists, Status: http.StatusConflict},
	{Error: ErrInvalidRole, Status: http.StatusBadRequest},
	{Error: ErrAccountNotFound, Status: http.StatusNotFound},
}

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: httputil.NewValidator(),
	}
}

// RegisterRoutes registers public identity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// RegisterProtectedRoutes registers routes available to any active account.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
}

// RegisterAdminRoutes registers account management routes.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned after a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	_, token, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	account := httputil.GetAccount(r.Context())
	if account == nil {
		httputil.Error(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
		return
	}

	httputil.JSON(w, http.StatusOK, account)
}

// RegisterRequest represents account registration request body.
// bcrypt ignores input past 72 bytes, so longer passwords are rejected.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin standard"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	account, err := h.service.Register(r.Context(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusCreated, account)
}
