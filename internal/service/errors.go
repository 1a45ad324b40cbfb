package service

import "errors"

var (
	// ErrInvalidCredentials is returned when authentication fails
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionExpired is returned when a token names a session that no longer exists
	ErrSessionExpired = errors.New("session expired")

	// ErrRateLimitExceeded is returned when OTP sends to a phone are throttled
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidProfile is returned when a profile update lacks required fields
	ErrInvalidProfile = errors.New("name and email are required")

	// ErrNoToken is returned when the backend accepted a login but issued no token
	ErrNoToken = errors.New("backend returned no token")
)
