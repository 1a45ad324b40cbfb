package otp

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeSender struct {
	mu        sync.Mutex
	sends     int
	verifies  int
	sendErr   error
	verifyErr error

	started chan struct{}
	release chan struct{}
}

func (f *fakeSender) SendOTP(ctx context.Context, phone, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	return f.sendErr
}

func (f *fakeSender) VerifyOTP(ctx context.Context, phone, code string) error {
	f.mu.Lock()
	f.verifies++
	err := f.verifyErr
	started, release := f.started, f.release
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-release
	}
	return err
}

func (f *fakeSender) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends, f.verifies
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
}

func TestDevBypassNeverCallsNetwork(t *testing.T) {
	sender := &fakeSender{}
	g := NewGate(sender, WithDevBypass(true))

	require.NoError(t, g.Request(context.Background(), "919876543210", "Aarav Sharma"))
	assert.Equal(t, StateOTPRequested, g.Snapshot().State)

	require.NoError(t, g.Submit(context.Background(), "000000"))
	assert.True(t, g.Verified())
	assert.True(t, g.Snapshot().DevModeBypass)

	sends, verifies := sender.counts()
	assert.Zero(t, sends)
	assert.Zero(t, verifies)
}

func TestDevBypassStillRequiresSixDigits(t *testing.T) {
	g := NewGate(nil, WithDevBypass(true))
	require.NoError(t, g.Request(context.Background(), "919876543210", ""))
	for _, code := range []string{"", "12345", "1234567", "12a456", "١٢٣٤٥٦"} {
		assert.ErrorIs(t, g.Submit(context.Background(), code), ErrMalformedCode, code)
	}
	assert.False(t, g.Verified())
}

func TestRequestRequiresPhone(t *testing.T) {
	g := NewGate(&fakeSender{})
	assert.ErrorIs(t, g.Request(context.Background(), "  ", "x"), ErrMissingPhone)
	assert.Equal(t, StateIdle, g.Snapshot().State)
}

func TestRequestFailureStaysIdle(t *testing.T) {
	boom := errors.New("whatsapp unavailable")
	g := NewGate(&fakeSender{sendErr: boom})
	err := g.Request(context.Background(), "919876543210", "A")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateIdle, g.Snapshot().State)
}

func TestRequestTwiceNeedsResend(t *testing.T) {
	g := NewGate(&fakeSender{})
	require.NoError(t, g.Request(context.Background(), "919876543210", "A"))
	assert.ErrorIs(t, g.Request(context.Background(), "919876543210", "A"), ErrAlreadyRequested)
}

func TestInvalidCodeClearsEntryAndAllowsRetry(t *testing.T) {
	sender := &fakeSender{verifyErr: ErrInvalidCode}
	g := NewGate(sender)
	require.NoError(t, g.Request(context.Background(), "919876543210", "A"))

	err := g.Submit(context.Background(), "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
	snap := g.Snapshot()
	assert.Equal(t, StateOTPRequested, snap.State)
	assert.Empty(t, snap.Code)
	assert.False(t, snap.Verified)

	sender.mu.Lock()
	sender.verifyErr = nil
	sender.mu.Unlock()
	require.NoError(t, g.Submit(context.Background(), "654321"))
	assert.True(t, g.Verified())
}

func TestExpiredCodeResetsToIdle(t *testing.T) {
	g := NewGate(&fakeSender{verifyErr: ErrExpired})
	require.NoError(t, g.Request(context.Background(), "919876543210", "A"))
	assert.ErrorIs(t, g.Submit(context.Background(), "123456"), ErrExpired)
	snap := g.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Phone)
}

func TestSubmitBeforeRequest(t *testing.T) {
	g := NewGate(&fakeSender{})
	assert.ErrorIs(t, g.Submit(context.Background(), "123456"), ErrNotRequested)
}

func TestResendCooldown(t *testing.T) {
	clock := newClock()
	sender := &fakeSender{}
	g := NewGate(sender, WithClock(clock.Now))

	assert.ErrorIs(t, g.Resend(context.Background()), ErrNotRequested)
	require.NoError(t, g.Request(context.Background(), "919876543210", "A"))
	assert.Equal(t, DefaultCooldown, g.CooldownRemaining())

	clock.Advance(59 * time.Second)
	assert.ErrorIs(t, g.Resend(context.Background()), ErrCooldown)
	assert.Equal(t, 1, Seconds(g.CooldownRemaining()))

	clock.Advance(time.Second)
	require.NoError(t, g.Resend(context.Background()))
	sends, _ := sender.counts()
	assert.Equal(t, 2, sends)
	assert.Equal(t, DefaultCooldown, g.CooldownRemaining())
}

func TestResendClearsVerification(t *testing.T) {
	clock := newClock()
	g := NewGate(&fakeSender{}, WithClock(clock.Now))
	require.NoError(t, g.Request(context.Background(), "919876543210", "A"))
	require.NoError(t, g.Submit(context.Background(), "123456"))
	clock.Advance(DefaultCooldown)
	require.NoError(t, g.Resend(context.Background()))
	snap := g.Snapshot()
	assert.Equal(t, StateOTPRequested, snap.State)
	assert.Empty(t, snap.Code)
	assert.False(t, snap.Verified)
}

func TestInvalidateRequiresFreshVerification(t *testing.T) {
	g := NewGate(&fakeSender{})
	require.NoError(t, g.Request(context.Background(), "919876543210", "A"))
	require.NoError(t, g.Submit(context.Background(), "123456"))
	require.True(t, g.Verified())

	g.Invalidate()
	assert.False(t, g.Verified())
	assert.Equal(t, StateOTPRequested, g.Snapshot().State)
	assert.ErrorIs(t, g.Consume(), ErrNotVerified)

	require.NoError(t, g.Submit(context.Background(), "123456"))
	require.NoError(t, g.Consume())
	assert.Equal(t, StateConsumed, g.Snapshot().State)
	assert.False(t, g.Verified())
}

func TestCancelDropsInFlightVerification(t *testing.T) {
	sender := &fakeSender{started: make(chan struct{}), release: make(chan struct{})}
	g := NewGate(sender)
	require.NoError(t, g.Request(context.Background(), "919876543210", "A"))

	result := make(chan error, 1)
	go func() { result <- g.Submit(context.Background(), "123456") }()
	<-sender.started

	assert.Equal(t, StateOTPEntered, g.Snapshot().State)
	assert.ErrorIs(t, g.Submit(context.Background(), "123456"), ErrBusy)

	g.Cancel()
	close(sender.release)

	assert.ErrorIs(t, <-result, ErrCancelled)
	assert.Equal(t, StateIdle, g.Snapshot().State)
	assert.False(t, g.Verified())
}

func TestInvalidateDropsInFlightVerification(t *testing.T) {
	sender := &fakeSender{started: make(chan struct{}), release: make(chan struct{})}
	g := NewGate(sender)
	require.NoError(t, g.Request(context.Background(), "919876543210", "A"))

	result := make(chan error, 1)
	go func() { result <- g.Submit(context.Background(), "123456") }()
	<-sender.started
	g.Invalidate()
	close(sender.release)

	assert.ErrorIs(t, <-result, ErrCancelled)
	assert.False(t, g.Verified())
	assert.Equal(t, StateOTPRequested, g.Snapshot().State)
}

func TestNoSenderOutsideDevMode(t *testing.T) {
	g := NewGate(nil)
	assert.ErrorIs(t, g.Request(context.Background(), "919876543210", "A"), ErrNoSender)
}

func TestCountdownStopsAtZero(t *testing.T) {
	defer goleak.VerifyNone(t)

	var left atomic.Int64
	left.Store(3)
	remaining := func() time.Duration {
		return time.Duration(left.Load()) * time.Second
	}

	var mu sync.Mutex
	var ticks []int
	c := StartCountdown(context.Background(), time.Millisecond, remaining, func(s int) {
		mu.Lock()
		ticks = append(ticks, s)
		mu.Unlock()
		if n := left.Load(); n > 0 {
			left.Store(n - 1)
		}
	})

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not finish")
	}
	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3, 2, 1, 0}, ticks)
}

func TestCountdownStopIsClean(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := StartCountdown(context.Background(), time.Hour, func() time.Duration { return time.Minute }, func(int) {})
	c.Stop()
	c.Stop()
}

func TestCountdownContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	c := StartCountdown(ctx, time.Hour, func() time.Duration { return time.Minute }, func(int) {})
	cancel()
	<-c.Done()
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 0, Seconds(-time.Second))
	assert.Equal(t, 0, Seconds(0))
	assert.Equal(t, 1, Seconds(time.Millisecond))
	assert.Equal(t, 60, Seconds(DefaultCooldown))
}
