package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the available roles.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleAnalyst  UserRole = "ANALYST"
	RoleAuditor  UserRole = "AUDITOR"
	RoleExternal UserRole = "EXTERNAL"
)

// User represents an application user stored in the users table. Identifiers
// are numeric: routing always references recipients by id, never by label.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Login        string     `db:"login" json:"login"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Sector       *string    `db:"sector" json:"sector,omitempty"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// JWTClaims carries the authenticated identity through request handling.
type JWTClaims struct {
	UserID int64    `json:"uid"`
	Login  string   `json:"login"`
	Role   UserRole `json:"role"`
	Sector string   `json:"sector,omitempty"`
	jwt.RegisteredClaims
}

// RecipientFilter constrains directory searches when forwarding.
type RecipientFilter struct {
	Search string
	Sector string
	Limit  int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
