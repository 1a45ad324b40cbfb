package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/domain"
	"github.com/certportal/certportal/internal/service"
	"github.com/certportal/certportal/internal/session"
)

type stubAuth map[string]error

func (s stubAuth) Authenticate(ctx context.Context, token string) (*domain.SessionClaims, error) {
	if err, ok := s[token]; ok {
		return nil, err
	}
	userType := domain.UserTypeAdmin
	if token == "user" {
		userType = domain.UserTypeUser
	}
	return &domain.SessionClaims{SessionID: "sid-" + token, UserID: "uid-" + token, UserType: userType}, nil
}

func TestAuthenticateStatusCodes(t *testing.T) {
	m := NewAuthMiddleware(stubAuth{
		"expired": service.ErrSessionExpired,
		"forged":  service.ErrInvalidCredentials,
		"down":    errors.New("redis: connection refused"),
	}, nil)

	var gotSID, gotUser string
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSID, _ = session.IDFromContext(r.Context())
		gotUser = session.UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer expired", http.StatusUnauthorized},
		{"Bearer forged", http.StatusUnauthorized},
		{"Bearer down", http.StatusServiceUnavailable},
		{"Bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, tt.header)
	}
	assert.Equal(t, "sid-good", gotSID)
	assert.Equal(t, "uid-good", gotUser)
}

func TestRequireAdmin(t *testing.T) {
	m := NewAuthMiddleware(stubAuth{}, nil)
	h := m.Authenticate(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	for token, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, token)
	}
}

func TestRequestIDAndRecoverer(t *testing.T) {
	var id string
	h := RequestID(Recoverer(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetRequestID(r.Context())
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight reached the handler")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/workflows", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Letter-ID")
}
