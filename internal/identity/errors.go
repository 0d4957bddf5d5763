package identity

import "errors"

// Repository errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameExists  = errors.New("username already registered")
	ErrEmailExists     = errors.New("email already registered")
)

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidRole        = errors.New("invalid role")
)
