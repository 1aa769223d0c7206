package domain

import "time"

// UserRole determines what a directory account may do.
type UserRole string

const (
	RoleAgent UserRole = "agent"
	RoleAdmin UserRole = "admin"
)

// User is an agent or admin account. Email is unique across the whole
// directory (case-sensitive exact match).
type User struct {
	ID           string
	Email        string
	Name         string
	Role         UserRole
	PasswordHash string
	CreatedAt    time.Time
}

// ValidRole reports whether r is a known role.
func ValidRole(r UserRole) bool {
	return r == RoleAgent || r == RoleAdmin
}
