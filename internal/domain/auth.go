package domain

import "encoding/json"

// LoginRequest represents an admin or user password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// FirstLoginRequest starts the first-login flow for a user without a password
type FirstLoginRequest struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// VerifyLoginOTPRequest confirms the code sent during first login
type VerifyLoginOTPRequest struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	OTP   string `json:"otp"`
}

// SetPasswordRequest sets the password at the end of the first-login flow
type SetPasswordRequest struct {
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// LoginResult represents a successful backend login
type LoginResult struct {
	Token   string          `json:"token"`
	Message string          `json:"message,omitempty"`
	User    json.RawMessage `json:"user,omitempty"`
	Admin   json.RawMessage `json:"admin,omitempty"`
}

// Profile returns whichever identity payload the backend sent.
func (r *LoginResult) Profile() json.RawMessage {
	if len(r.Admin) > 0 {
		return r.Admin
	}
	return r.User
}

// MessageResponse is the plain acknowledgement most backend mutations return
type MessageResponse struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}
