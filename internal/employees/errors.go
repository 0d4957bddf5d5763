package employees

import "errors"

// Repository errors.
var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEmailExists      = errors.New("employee with this email already exists")
)

// Input errors.
var (
	ErrInvalidPagination = errors.New("invalid pagination")
	ErrNullField         = errors.New("field cannot be null")
	ErrBlankField        = errors.New("field cannot be blank")
	ErrInvalidID         = errors.New("invalid employee id")
)
