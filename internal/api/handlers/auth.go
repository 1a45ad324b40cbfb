package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/domain"
	"github.com/certportal/certportal/internal/service"
	"github.com/certportal/certportal/internal/session"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
	logger         *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
		logger:         logger,
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	out, err := h.authService.LoginAdmin(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	h.syncProfile(r.Context(), out)
	respondJSON(w, http.StatusOK, out)
}

// UserLogin handles POST /api/auth/user-login
func (h *AuthHandler) UserLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	out, err := h.authService.LoginUser(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// FirstLogin handles POST /api/auth/first-login
func (h *AuthHandler) FirstLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.FirstLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" && req.Phone == "" {
		respondError(w, http.StatusBadRequest, "Email or phone is required")
		return
	}

	out, err := h.authService.FirstLogin(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// VerifyOTP handles POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyLoginOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OTP == "" {
		respondError(w, http.StatusBadRequest, "OTP is required")
		return
	}

	out, err := h.authService.VerifyLoginOTP(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// SetPassword handles POST /api/auth/set-password
func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.SetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "Password is required")
		return
	}

	out, err := h.authService.SetPassword(r.Context(), req)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sid, _ := session.IDFromContext(r.Context())
	if err := h.authService.Logout(r.Context(), sid); err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, domain.MessageResponse{Success: true, Message: "Logged out"})
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sid, _ := session.IDFromContext(r.Context())
	sess, err := h.authService.Session(r.Context(), sid)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// syncProfile pushes profile edits made while the backend was unreachable.
func (h *AuthHandler) syncProfile(ctx context.Context, out *service.LoginOutcome) {
	if h.profileService == nil || out.Token == nil {
		return
	}
	claims, err := h.authService.ValidateToken(out.Token.AccessToken)
	if err != nil || claims.UserID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(session.WithID(ctx, claims.SessionID), 3*time.Second)
	defer cancel()
	if _, err := h.profileService.SyncPending(ctx, claims.UserID); err != nil {
		h.logger.Warn("sync pending profile", zap.String("admin_id", claims.UserID), zap.Error(err))
	}
}
