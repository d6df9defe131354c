package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is the access level assigned to a user.
type Role string

const (
	// RolePortal is the default role for customer accounts.
	RolePortal Role = "portal"
	// RoleBackoffice is the elevated administrative role.
	RoleBackoffice Role = "backoffice"
)

// DefaultRole is assigned to users created through sign-up.
const DefaultRole = RolePortal

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePortal || r == RoleBackoffice
}

// Elevated reports whether r is an administrative role.
func (r Role) Elevated() bool {
	return r == RoleBackoffice
}

// ParseRole returns the Role for s, or an error if s is not a known role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", errors.New("unknown role " + s)
	}
	return r, nil
}

// User is the core user entity.
type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified bool
	Image         string
	Role          Role
	Banned        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("email is invalid")
	}
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	if u.Role == "" {
		u.Role = DefaultRole
	}
	if !u.Role.Valid() {
		return errors.New("role is invalid")
	}
	return nil
}
