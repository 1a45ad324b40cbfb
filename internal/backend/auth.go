package backend

import (
	"context"
	"net/http"

	"github.com/certportal/certportal/internal/domain"
)

// AdminLogin handles POST /api/auth/login
func (c *Client) AdminLogin(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	var out domain.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserLogin handles POST /api/auth/user/user-login
func (c *Client) UserLogin(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	var out domain.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/user/user-login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FirstLogin starts the first-login flow; the backend sends a code to the user.
func (c *Client) FirstLogin(ctx context.Context, req domain.FirstLoginRequest) (*domain.MessageResponse, error) {
	var out domain.MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/user/first-login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyLoginOTP confirms the first-login code.
func (c *Client) VerifyLoginOTP(ctx context.Context, req domain.VerifyLoginOTPRequest) (*domain.LoginResult, error) {
	var out domain.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/user/verify-otp", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetPassword completes the first-login flow.
func (c *Client) SetPassword(ctx context.Context, req domain.SetPasswordRequest) (*domain.LoginResult, error) {
	var out domain.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/user/set-password", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
