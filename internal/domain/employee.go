package domain

import "time"

// Employee is a business record managed through the employees API.
type Employee struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Designation string    `json:"designation"`
	Salary      float64   `json:"salary"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
