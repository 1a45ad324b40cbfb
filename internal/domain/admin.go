package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserType distinguishes portal administrators from regular users
type UserType string

const (
	UserTypeAdmin UserType = "admin"
	UserTypeUser  UserType = "user"
)

// Admin represents an administrator as returned by the backend admin directory
type Admin struct {
	ID          string     `json:"_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
}

// AdminProfile is the locally cached copy of the signed-in admin's own profile
type AdminProfile struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	AdminID   string     `json:"admin_id" db:"admin_id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Phone     string     `json:"phone,omitempty" db:"phone"`
	Role      string     `json:"role,omitempty" db:"role"`
	Dirty     bool       `json:"dirty" db:"dirty"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	SyncedAt  *time.Time `json:"synced_at,omitempty" db:"synced_at"`
}

// ProfileUpdate represents the editable part of an admin profile
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// SessionClaims represents the claims carried by a portal session token
type SessionClaims struct {
	SessionID string   `json:"sid"`
	UserID    string   `json:"sub"`
	UserType  UserType `json:"user_type"`
	ExpiresAt int64    `json:"exp"`
	IssuedAt  int64    `json:"iat"`
}

// TokenResponse represents the token handed to portal clients after login
type TokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	UserType    UserType `json:"user_type"`
}
