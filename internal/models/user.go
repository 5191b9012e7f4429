package models

import "time"

// UserRole distinguishes administrators from regular dashboard operators.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// User represents a dashboard operator account.
type User struct {
	Base
	Username            string     `gorm:"uniqueIndex;size:64;not null" json:"username"`
	PasswordHash        string     `gorm:"not null" json:"-"`
	Role                UserRole   `gorm:"size:16;default:user" json:"role"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}
