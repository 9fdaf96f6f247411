package verification

import (
	"sync"
	"time"
)

// DefaultResendCooldown is how long an OTP resend stays disabled after an
// OTP is sent.
const DefaultResendCooldown = 30 * time.Second

// Cooldown tracks the OTP resend window for one session. It belongs to the
// session, not to the verification status: resetting the session cancels it,
// and a verified status carries no trace of it.
//
// Now is injectable so tests can drive the clock deterministically.
type Cooldown struct {
	mu       sync.Mutex
	duration time.Duration
	readyAt  time.Time
	stopTick chan struct{}

	Now func() time.Time
}

func NewCooldown(duration time.Duration) *Cooldown {
	return &Cooldown{
		duration: duration,
		Now:      time.Now,
	}
}

// Start opens a new cooldown window, replacing any previous one. When onTick
// is provided, a single periodic tick reports the remaining time once per
// second until the window closes or Cancel is called.
func (c *Cooldown) Start(onTick func(remaining time.Duration)) {
	c.mu.Lock()
	c.cancelLocked()
	c.readyAt = c.Now().Add(c.duration)

	var stop chan struct{}
	if onTick != nil {
		stop = make(chan struct{})
		c.stopTick = stop
	}
	c.mu.Unlock()

	if onTick == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				remaining := c.Remaining()
				onTick(remaining)
				if remaining <= 0 {
					return
				}
			}
		}
	}()
}

func (c *Cooldown) Ready() bool {
	return c.Remaining() <= 0
}

func (c *Cooldown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := c.readyAt.Sub(c.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Cancel stops the periodic tick and closes the window. Must be called on
// session reset or teardown so a discarded session is never ticked.
func (c *Cooldown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.readyAt = time.Time{}
}

func (c *Cooldown) cancelLocked() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
}
