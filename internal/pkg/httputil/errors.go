package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/bissquit/employee-registry/internal/pkg/ctxlog"
	"github.com/go-playground/validator/v10"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses Error.Error()
	// Detailed responds with the full wrapped error text instead.
	// Only for errors built entirely from client input.
	Detailed bool
}

// HandleError maps a domain error to an HTTP response using provided mappings.
// Validator errors always produce a 400 with field details. If no mapping
// matches, logs the error and returns 500 Internal Server Error.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		ValidationError(w, validationErrors)
		return
	}

	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if m.Detailed {
				msg = err.Error()
			} else if msg == "" {
				msg = m.Error.Error()
			}
			Error(w, m.Status, msg)
			return
		}
	}
	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
