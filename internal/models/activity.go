package models

import "time"

// Activity types
const (
	ActivityCreate   = "create"
	ActivityUpdate   = "update"
	ActivityDelete   = "delete"
	ActivityLogin    = "login"
	ActivityLogout   = "logout"
	ActivityRegister = "register"
	ActivitySystem   = "system"
)

// Activity is an append-only audit record shown on the admin dashboard.
type Activity struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
