package models

import "time"

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User approval states
const (
	UserStatusPending  = "PENDING"
	UserStatusApproved = "APPROVED"
	UserStatusRejected = "REJECTED"
)

// User represents an application account. New accounts start PENDING and only
// participate after an admin approves them; the very first registered account
// is promoted to ADMIN/APPROVED so the system can be bootstrapped.
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	HashedPassword string     `json:"-"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	ApprovedBy     string     `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsAdmin reports whether the user holds the elevated role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserSummary is the admin-facing listing projection of a user.
type UserSummary struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}
