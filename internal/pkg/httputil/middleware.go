package httputil

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bissquit/employee-registry/internal/domain"
	"github.com/bissquit/employee-registry/internal/pkg/ctxlog"
	"github.com/rs/cors"
)

// CORSMiddleware creates CORS middleware for the configured origins.
// A "*" entry allows any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler
}

type contextKey string

// AccountKey is the context key for the authenticated account.
const AccountKey contextKey = "account"

// Authorizer resolves a bearer token to an account allowed to use a capability.
type Authorizer interface {
	Authorize(ctx context.Context, token string, required domain.Capability) (*domain.Account, error)
}

var accessErrors = []ErrorMapping{
	{Error: domain.ErrUnauthenticated, Status: http.StatusUnauthorized},
	{Error: domain.ErrAccountInactive, Status: http.StatusForbidden},
	{Error: domain.ErrForbidden, Status: http.StatusForbidden},
}

// AuthMiddleware rejects requests whose bearer token does not resolve to an
// active account holding the required capability.
func AuthMiddleware(authorizer Authorizer, required domain.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				Error(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
				return
			}

			account, err := authorizer.Authorize(r.Context(), token, required)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					w.Header().Set("WWW-Authenticate", "Bearer")
				}
				HandleError(r.Context(), w, err, accessErrors)
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, account)
			ctx = ctxlog.With(ctx, "username", account.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetAccount extracts the authenticated account from context.
func GetAccount(ctx context.Context) *domain.Account {
	if account, ok := ctx.Value(AccountKey).(*domain.Account); ok {
		return account
	}
	return nil
}
