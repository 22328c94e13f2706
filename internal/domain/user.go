package domain

import "time"

// Role enumerates who may act on issues.
type Role string

const (
	RoleOperator Role = "operator"
	RoleFaculty  Role = "faculty"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOperator, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// User is an operator, faculty member or administrator.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	School       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary returns the display fields joined onto issues.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		School: u.School,
	}
}

// UserSummary is the reduced user record resolved onto issue reads.
type UserSummary struct {
	ID     string
	Name   string
	Email  string
	Role   Role
	School *string
}
