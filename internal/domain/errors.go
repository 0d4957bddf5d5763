package domain

import "errors"

// Access control errors shared by the guard and the HTTP layer.
var (
	ErrUnauthenticated = errors.New("could not validate credentials")
	ErrAccountInactive = errors.New("inactive account")
	ErrForbidden       = errors.New("not enough permissions")
)
