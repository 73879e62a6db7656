package models

import "time"

// User roles. The admin account is seeded at startup and cannot be deleted.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a registered account
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not serialized
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLogin    time.Time `json:"lastLogin"`
	IP           string    `json:"ip,omitempty"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Username == RoleAdmin
}
