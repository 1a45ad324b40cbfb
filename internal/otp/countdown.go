package otp

import (
	"context"
	"sync"
	"time"
)

// Countdown ticks down a resend cooldown for interactive surfaces. It stops
// by itself once the cooldown reaches zero.
type Countdown struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartCountdown calls onTick with the whole seconds left every interval
// until remaining reports zero, ctx is done or Stop is called. The final
// tick always reports 0 when the cooldown runs out.
func StartCountdown(ctx context.Context, interval time.Duration, remaining func() time.Duration, onTick func(seconds int)) *Countdown {
	ctx, cancel := context.WithCancel(ctx)
	c := &Countdown{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		left := Seconds(remaining())
		onTick(left)
		if left == 0 {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				left = Seconds(remaining())
				onTick(left)
				if left == 0 {
					return
				}
			}
		}
	}()
	return c
}

// Stop cancels the countdown and waits for its goroutine to exit. It is safe
// to call more than once.
func (c *Countdown) Stop() {
	c.once.Do(c.cancel)
	<-c.done
}

// Done is closed once the countdown goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// Seconds rounds d up to whole seconds.
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
