package domain

import "time"

// User is a web UI account. Users are deliberately not linked to any
// workflow table.
type User struct {
	ID             int64
	Email          string
	Username       string
	PasswordHash   string
	LastLoginAt    *time.Time
	CurrentLoginAt *time.Time
	LastLoginIP    *string
	CurrentLoginIP *string
	LoginCount     int
	Active         bool
	ConfirmedAt    *time.Time
	Roles          []Role
}

// Role is static reference data attached to users.
type Role struct {
	ID          int64
	Name        string
	Description string
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the names of the user's roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}
