package domain

import (
	"strings"
	"time"
)

// Seeded role identifiers.
const (
	RoleAdmin      int64 = 1
	RoleUser       int64 = 2
	RoleSuperAdmin int64 = 3
	RoleApprover   int64 = 4
)

// MaxEmailLength mirrors the width of the users.email column.
const MaxEmailLength = 100

// Role is read-only reference data.
type Role struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// DefaultRoles is the bootstrap seed applied by every store adapter.
var DefaultRoles = []Role{
	{ID: RoleAdmin, Description: "Admin"},
	{ID: RoleUser, Description: "User"},
	{ID: RoleSuperAdmin, Description: "SuperAdmin"},
	{ID: RoleApprover, Description: "Approver"},
}

// User models a registered identity. PasswordHash never holds the raw password.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	RoleID       int64  `json:"role_id"`
	// Role is populated by lookups that resolve the role description.
	Role *Role `json:"role,omitempty"`
}

// RoleDescription returns the resolved role description, or "" when the role
// was not loaded.
func (u *User) RoleDescription() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Description
}

// AuditLogEntry records a successful login. Append-only.
type AuditLogEntry struct {
	ID     int64     `json:"id"`
	UserID int64     `json:"user_id"`
	Date   time.Time `json:"date"`
}

// NormalizeEmail lower-cases and trims an address so that uniqueness checks
// are case-insensitive regardless of the backing store.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
