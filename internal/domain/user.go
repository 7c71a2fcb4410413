package domain

import (
	"strings"
	"time"
)

// UserRole controls access to administrative endpoints.
type UserRole string

const (
	UserRoleAdmin UserRole = "Admin"
	UserRoleAgent UserRole = "Agent"
)

// ParseUserRole accepts a role name in any case.
func ParseUserRole(s string) (UserRole, bool) {
	switch {
	case strings.EqualFold(s, string(UserRoleAdmin)):
		return UserRoleAdmin, true
	case strings.EqualFold(s, string(UserRoleAgent)):
		return UserRoleAgent, true
	}
	return "", false
}

// User is an operator account able to log in and act on tickets.
type User struct {
	ID           string
	Username     string
	Email        *string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActorName returns the label recorded in audit logs for this user.
func (u *User) ActorName() string {
	if u == nil {
		return SystemActor
	}
	email := ""
	if u.Email != nil {
		email = *u.Email
	}
	return ResolveActor(u.DisplayName, u.Username, email)
}
