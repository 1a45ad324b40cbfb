package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/domain"
	"github.com/certportal/certportal/internal/service"
	"github.com/certportal/certportal/internal/session"
)

type claimsKey struct{}

// Authenticator validates portal tokens
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.SessionClaims, error)
}

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	auth   Authenticator
	logger *zap.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth Authenticator, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		auth:   auth,
		logger: logger,
	}
}

// Authenticate validates the Bearer token and binds its session to the
// request context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := m.auth.Authenticate(r.Context(), token)
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			http.Error(w, `{"error": "Session expired"}`, http.StatusUnauthorized)
			return
		case errors.Is(err, service.ErrInvalidCredentials):
			http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
			return
		case err != nil:
			m.logger.Error("authenticate", zap.Error(err))
			http.Error(w, `{"error": "Session store unavailable"}`, http.StatusServiceUnavailable)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		ctx = session.WithID(ctx, claims.SessionID)
		ctx = session.WithUser(ctx, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects sessions that are not administrator sessions
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil || claims.UserType != domain.UserTypeAdmin {
			http.Error(w, `{"error": "Administrator access required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClaims extracts the session claims from context
func GetClaims(ctx context.Context) *domain.SessionClaims {
	if claims, ok := ctx.Value(claimsKey{}).(*domain.SessionClaims); ok {
		return claims
	}
	return nil
}
