// Package otp implements the one-time-code gate that guards document
// issuance. A Gate never holds its lock across a network call; results that
// arrive after Cancel or Invalidate are dropped.
package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// State is the position of a Gate in its lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateOTPRequested State = "otp_requested"
	StateOTPEntered   State = "otp_entered"
	StateVerified     State = "verified"
	StateConsumed     State = "consumed"
)

// DefaultCooldown is the minimum delay between two sends to the same session.
const DefaultCooldown = 60 * time.Second

// CodeLength is the number of digits in a one-time code.
const CodeLength = 6

var (
	ErrMissingPhone     = errors.New("recipient phone number is required")
	ErrAlreadyRequested = errors.New("an OTP has already been requested; use resend")
	ErrNotRequested     = errors.New("no OTP has been requested")
	ErrNotVerified      = errors.New("OTP has not been verified")
	ErrMalformedCode    = errors.New("OTP must be exactly 6 digits")
	ErrInvalidCode      = errors.New("invalid OTP")
	ErrExpired          = errors.New("OTP expired")
	ErrCooldown         = errors.New("resend is not available yet")
	ErrCancelled        = errors.New("OTP session was cancelled")
	ErrBusy             = errors.New("an OTP request is already in flight")
	ErrNoSender         = errors.New("no OTP sender configured")
)

// Sender delivers and checks one-time codes. The backend client implements
// it; VerifyOTP reports ErrInvalidCode or ErrExpired for rejected codes.
type Sender interface {
	SendOTP(ctx context.Context, phone, name string) error
	VerifyOTP(ctx context.Context, phone, code string) error
}

// Session is a snapshot of the gate.
type Session struct {
	Phone         string    `json:"phone,omitempty"`
	Name          string    `json:"name,omitempty"`
	Code          string    `json:"-"`
	SentAt        time.Time `json:"sentAt,omitempty"`
	Verified      bool      `json:"verified"`
	DevModeBypass bool      `json:"devModeBypass"`
	State         State     `json:"state"`
}

// Option configures a Gate.
type Option func(*Gate)

// WithDevBypass skips every network call and accepts any well-formed code.
// Callers must only pass true outside production.
func WithDevBypass(enabled bool) Option {
	return func(g *Gate) {
		g.dev = enabled
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(g *Gate) {
		g.cooldown = d
	}
}

// Gate is the OTP state machine for a single issuance workflow.
type Gate struct {
	sender   Sender
	dev      bool
	now      func() time.Time
	cooldown time.Duration

	mu    sync.Mutex
	s     Session
	busy  bool
	epoch uint64
}

// NewGate creates a new Gate in the idle state.
func NewGate(sender Sender, opts ...Option) *Gate {
	g := &Gate{
		sender:   sender,
		now:      time.Now,
		cooldown: DefaultCooldown,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.s = Session{State: StateIdle, DevModeBypass: g.dev}
	return g
}

// Request sends a code to phone. It is valid from idle or after a previous
// code was consumed. On failure the gate stays idle.
func (g *Gate) Request(ctx context.Context, phone, name string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrMissingPhone
	}

	g.mu.Lock()
	if g.s.State != StateIdle && g.s.State != StateConsumed {
		g.mu.Unlock()
		return ErrAlreadyRequested
	}
	epoch, err := g.begin()
	g.mu.Unlock()
	if err != nil {
		return err
	}

	err = g.send(ctx, phone, name)

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.end(epoch) {
		return ErrCancelled
	}
	if err != nil {
		return err
	}
	g.s = Session{
		Phone:         phone,
		Name:          name,
		SentAt:        g.now(),
		DevModeBypass: g.dev,
		State:         StateOTPRequested,
	}
	return nil
}

// Resend issues a fresh code once the cooldown has elapsed and clears any
// entered code.
func (g *Gate) Resend(ctx context.Context) error {
	g.mu.Lock()
	switch g.s.State {
	case StateOTPRequested, StateOTPEntered, StateVerified:
	default:
		g.mu.Unlock()
		return ErrNotRequested
	}
	if g.remaining() > 0 {
		g.mu.Unlock()
		return ErrCooldown
	}
	epoch, err := g.begin()
	phone, name := g.s.Phone, g.s.Name
	g.mu.Unlock()
	if err != nil {
		return err
	}

	err = g.send(ctx, phone, name)

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.end(epoch) {
		return ErrCancelled
	}
	if err != nil {
		return err
	}
	g.s.Code = ""
	g.s.Verified = false
	g.s.SentAt = g.now()
	g.s.State = StateOTPRequested
	return nil
}

// Submit checks code. A rejected code is cleared and the gate returns to
// otp_requested; an expired code resets the gate to idle.
func (g *Gate) Submit(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if !wellFormed(code) {
		return ErrMalformedCode
	}

	g.mu.Lock()
	switch g.s.State {
	case StateOTPRequested, StateOTPEntered:
	case StateVerified:
		g.mu.Unlock()
		return nil
	default:
		g.mu.Unlock()
		return ErrNotRequested
	}
	epoch, err := g.begin()
	if err != nil {
		g.mu.Unlock()
		return err
	}
	g.s.Code = code
	g.s.State = StateOTPEntered
	if g.dev {
		g.end(epoch)
		g.s.Verified = true
		g.s.State = StateVerified
		g.mu.Unlock()
		return nil
	}
	phone := g.s.Phone
	g.mu.Unlock()

	err = g.sender.VerifyOTP(ctx, phone, code)

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.end(epoch) {
		return ErrCancelled
	}
	switch {
	case err == nil:
		g.s.Verified = true
		g.s.State = StateVerified
		return nil
	case errors.Is(err, ErrExpired):
		g.reset()
		return err
	default:
		g.s.Code = ""
		g.s.State = StateOTPRequested
		return err
	}
}

// Cancel discards the session and returns to idle. In-flight calls finish
// but their results are ignored.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
}

// Invalidate revokes a verification after the form changed. An entered or
// verified code goes back to otp_requested; an in-flight verification is
// dropped.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.s.State {
	case StateOTPEntered, StateVerified:
		g.epoch++
		g.busy = false
		g.s.Code = ""
		g.s.Verified = false
		g.s.State = StateOTPRequested
	case StateConsumed:
		g.s.State = StateIdle
	}
}

// Consume marks a verified session as used by a submit.
func (g *Gate) Consume() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.s.State != StateVerified {
		return ErrNotVerified
	}
	g.s.Verified = false
	g.s.Code = ""
	g.s.State = StateConsumed
	return nil
}

// Verified reports whether submission is currently allowed.
func (g *Gate) Verified() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.s.State == StateVerified
}

// CooldownRemaining returns the time left before Resend is allowed.
func (g *Gate) CooldownRemaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining()
}

// Snapshot returns a copy of the current session.
func (g *Gate) Snapshot() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.s
}

// DevBypass reports whether the gate skips the network.
func (g *Gate) DevBypass() bool {
	return g.dev
}

func (g *Gate) begin() (uint64, error) {
	if g.busy {
		return 0, ErrBusy
	}
	if !g.dev && g.sender == nil {
		return 0, ErrNoSender
	}
	g.busy = true
	return g.epoch, nil
}

// end clears the busy flag and reports whether epoch is still current.
func (g *Gate) end(epoch uint64) bool {
	if epoch != g.epoch {
		return false
	}
	g.busy = false
	return true
}

func (g *Gate) send(ctx context.Context, phone, name string) error {
	if g.dev {
		return nil
	}
	if err := g.sender.SendOTP(ctx, phone, name); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

func (g *Gate) reset() {
	g.epoch++
	g.busy = false
	g.s = Session{State: StateIdle, DevModeBypass: g.dev}
}

func (g *Gate) remaining() time.Duration {
	if g.s.SentAt.IsZero() {
		return 0
	}
	left := g.cooldown - g.now().Sub(g.s.SentAt)
	if left < 0 {
		return 0
	}
	return left
}

func wellFormed(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
