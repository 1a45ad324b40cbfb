package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/domain"
	"github.com/certportal/certportal/internal/session"
)

// AuthBackend is the part of the backend API that signs users in.
type AuthBackend interface {
	AdminLogin(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error)
	UserLogin(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error)
	FirstLogin(ctx context.Context, req domain.FirstLoginRequest) (*domain.MessageResponse, error)
	VerifyLoginOTP(ctx context.Context, req domain.VerifyLoginOTPRequest) (*domain.LoginResult, error)
	SetPassword(ctx context.Context, req domain.SetPasswordRequest) (*domain.LoginResult, error)
}

// LoginOutcome is what a login step hands back to the portal. Token is nil
// when the backend acknowledged the step without signing the user in.
type LoginOutcome struct {
	Token   *domain.TokenResponse `json:"token,omitempty"`
	Message string                `json:"message,omitempty"`
	Profile json.RawMessage       `json:"profile,omitempty"`
}

// LogoutHook is called with the session ID after a logout.
type LogoutHook func(sessionID string)

// AuthService handles authentication logic
type AuthService struct {
	backend   AuthBackend
	sessions  *session.RedisStore
	jwtSecret []byte
	logger    *zap.Logger
	onLogout  LogoutHook
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(backend AuthBackend, sessions *session.RedisStore, jwtSecret string, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		backend:   backend,
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
		now:       time.Now,
	}
}

// OnLogout registers fn to run after every logout.
func (s *AuthService) OnLogout(fn LogoutHook) {
	s.onLogout = fn
}

// LoginAdmin signs an administrator in with email and password.
func (s *AuthService) LoginAdmin(ctx context.Context, req domain.LoginRequest) (*LoginOutcome, error) {
	res, err := s.backend.AdminLogin(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, domain.UserTypeAdmin, res)
}

// LoginUser signs a regular user in with email and password.
func (s *AuthService) LoginUser(ctx context.Context, req domain.LoginRequest) (*LoginOutcome, error) {
	res, err := s.backend.UserLogin(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, domain.UserTypeUser, res)
}

// FirstLogin asks the backend to send a first-login code.
func (s *AuthService) FirstLogin(ctx context.Context, req domain.FirstLoginRequest) (*LoginOutcome, error) {
	res, err := s.backend.FirstLogin(ctx, req)
	if err != nil {
		return nil, err
	}
	return &LoginOutcome{Message: res.Message}, nil
}

// VerifyLoginOTP confirms a first-login code. The backend may sign the user
// in straight away or expect a password to be set first.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, req domain.VerifyLoginOTPRequest) (*LoginOutcome, error) {
	res, err := s.backend.VerifyLoginOTP(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return &LoginOutcome{Message: res.Message, Profile: res.Profile()}, nil
	}
	return s.establish(ctx, domain.UserTypeUser, res)
}

// SetPassword finishes the first-login flow.
func (s *AuthService) SetPassword(ctx context.Context, req domain.SetPasswordRequest) (*LoginOutcome, error) {
	res, err := s.backend.SetPassword(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Token == "" {
		return &LoginOutcome{Message: res.Message}, nil
	}
	return s.establish(ctx, domain.UserTypeUser, res)
}

// establish stores the backend token in a new session and issues the portal
// token that names it.
func (s *AuthService) establish(ctx context.Context, userType domain.UserType, res *domain.LoginResult) (*LoginOutcome, error) {
	if res.Token == "" {
		return nil, ErrNoToken
	}

	now := s.now()
	sess := &session.Session{
		ID:              uuid.NewString(),
		UserID:          profileID(res.Profile()),
		IsAuthenticated: true,
		AuthToken:       res.Token,
		UserType:        userType,
		UserData:        res.Profile(),
		CreatedAt:       now,
		ExpiresAt:       backendExpiry(res.Token, now),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(sess)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("user_id", sess.UserID),
		zap.String("user_type", string(userType)),
	)
	return &LoginOutcome{Token: token, Message: res.Message, Profile: sess.UserData}, nil
}

// GenerateToken generates a JWT token for the given session
func (s *AuthService) GenerateToken(sess *session.Session) (*domain.TokenResponse, error) {
	now := s.now()
	expiresIn := int(sess.ExpiresAt.Sub(now).Seconds())

	claims := jwt.MapClaims{
		"sid":       sess.ID,
		"sub":       sess.UserID,
		"user_type": string(sess.UserType),
		"exp":       sess.ExpiresAt.Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &domain.TokenResponse{
		AccessToken: signedToken,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		UserType:    sess.UserType,
	}, nil
}

// ValidateToken validates a portal token and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*domain.SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredentials
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return nil, ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	userType, _ := claims["user_type"].(string)

	out := &domain.SessionClaims{
		SessionID: sid,
		UserID:    sub,
		UserType:  domain.UserType(userType),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Unix()
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Unix()
	}
	return out, nil
}

// Authenticate validates a portal token and checks that its session is
// still alive.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.SessionClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !sess.IsAuthenticated || sess.AuthToken == "" {
		return nil, ErrSessionExpired
	}
	return claims, nil
}

// Session returns the stored session without its backend token.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	sess.AuthToken = ""
	return sess, nil
}

// Logout removes the session entirely and runs the logout hook.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return err
	}
	if s.onLogout != nil {
		s.onLogout(sessionID)
	}
	s.logger.Info("session ended", zap.String("session_id", sessionID))
	return nil
}

// backendExpiry reads the exp claim of the backend token without verifying
// it. Opaque tokens fall back to session.DefaultTTL.
func backendExpiry(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && exp.After(now) {
			return exp.Time
		}
	}
	return now.Add(session.DefaultTTL)
}

func profileID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var p struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Email   string `json:"email"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return ""
	}
	switch {
	case p.MongoID != "":
		return p.MongoID
	case p.ID != "":
		return p.ID
	default:
		return p.Email
	}
}
