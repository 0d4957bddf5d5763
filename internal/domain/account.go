package domain

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the closed set of account roles.
type Role string

// Account roles.
const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStandard:
		return true
	}
	return false
}

// Capability names an action a route requires of the calling account.
type Capability string

// Capabilities checked by the access guard. CapabilityAuthenticated is
// satisfied by any active account.
const (
	CapabilityAuthenticated  Capability = ""
	CapabilityReadEmployees  Capability = "employees:read"
	CapabilityWriteEmployees Capability = "employees:write"
	CapabilityManageAccounts Capability = "accounts:manage"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapabilityReadEmployees,
		CapabilityWriteEmployees,
		CapabilityManageAccounts,
	},
	RoleStandard: {
		CapabilityReadEmployees,
		CapabilityWriteEmployees,
	},
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	if c == CapabilityAuthenticated {
		return r.IsValid()
	}
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// Account is an identity that can log in.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// SameEmail compares two addresses after lower-casing both, matching the
// LOWER(email) unique indexes.
func SameEmail(a, b string) bool {
	lower := cases.Lower(language.Und)
	return lower.String(a) == lower.String(b)
}
