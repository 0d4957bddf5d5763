// Package pagination provides page/page_size arithmetic for list endpoints.
package pagination

import (
	"errors"
	"math"
)

// Page size limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Validation errors.
var (
	ErrInvalidPage     = errors.New("page must be greater than or equal to 1")
	ErrInvalidPageSize = errors.New("page_size must be between 1 and 100")
	ErrPageTooLarge    = errors.New("page is too large")
)

// Params represents a requested page.
type Params struct {
	Page     int
	PageSize int
}

// Validate rejects out-of-range values instead of clamping them.
func (p Params) Validate() error {
	if p.Page < 1 {
		return ErrInvalidPage
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return ErrInvalidPageSize
	}
	// Offset must fit in an int.
	if p.Page-1 > math.MaxInt/p.PageSize {
		return ErrPageTooLarge
	}
	return nil
}

// Offset returns the number of rows to skip.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns ceil(total/pageSize), and 0 when there are no rows.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
