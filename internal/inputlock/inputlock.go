// Package inputlock implements the controller-to-human handoff: disabling
// and re-enabling the local keyboard/pointer so a remote controller can
// drive the desktop without fighting the seated user, with a watchdog that
// guarantees control is always returned.
package inputlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kestrelremote/bridge/internal/bridgeerr"
	"github.com/kestrelremote/bridge/internal/logging"
)

var log = logging.L("inputlock")

const (
	maxRetries     = 3
	retryBackoff   = 100 * time.Millisecond
	watchdogPeriod = 2 * time.Second
)

// DefaultTimeout is the maximum duration an input lock may be held before
// the watchdog forces it open.
const DefaultTimeout = 5 * time.Minute

// Device is a platform input device discoverable as keyboard or pointer,
// detachable from (and reattachable to) its master device.
type Device interface {
	// Discover enumerates devices, returning a keyboard id, a pointer id,
	// and each device's master-device parent id.
	Discover(ctx context.Context) (keyboardID, pointerID, masterKeyboardID, masterPointerID string, err error)
	Detach(ctx context.Context, deviceID string) error
	Reattach(ctx context.Context, deviceID, masterID string) error
}

// NotifyFunc is invoked on lifecycle events so the bridge can surface a
// desktop notification without inputlock importing the notify package.
type NotifyFunc func(event string)

// Controller drives the lock/unlock state machine described in the bridge
// specification: Unlocked <-> Locked(since, timeout), with a watchdog that
// unconditionally returns to Unlocked once the timeout elapses and an
// emergency path that bypasses retries entirely.
type Controller struct {
	mu      sync.Mutex
	device  Device
	notify  NotifyFunc
	timeout time.Duration

	keyboardID, pointerID             string
	masterKeyboardID, masterPointerID string

	locked   bool
	lockedAt time.Time
	inFlight bool // I5: at most one lock attempt in flight

	watchdogCancel context.CancelFunc
	watchdogDone   chan struct{}
}

// New creates a Controller. Call Init before the first Lock.
func New(device Device, timeout time.Duration, notify NotifyFunc) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if notify == nil {
		notify = func(string) {}
	}
	return &Controller{device: device, timeout: timeout, notify: notify}
}

// Init discovers the keyboard and pointer devices and their master parents.
// Must succeed before Lock can do anything useful.
func (c *Controller) Init(ctx context.Context) error {
	kb, ptr, mkb, mptr, err := c.device.Discover(ctx)
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.KindNoBackend, "failed to discover input devices", err)
	}
	c.mu.Lock()
	c.keyboardID, c.pointerID = kb, ptr
	c.masterKeyboardID, c.masterPointerID = mkb, mptr
	c.mu.Unlock()
	return nil
}

// IsLocked reports the current lock state.
func (c *Controller) IsLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// SetTimeout adjusts the watchdog timeout for subsequent lock episodes.
func (c *Controller) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// TimeLocked returns how long the lock has been held, or zero if unlocked.
func (c *Controller) TimeLocked() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.locked {
		return 0
	}
	return time.Since(c.lockedAt)
}

// Lock detaches the input devices from their masters. It is a no-op if
// already locked (I1). Starts a per-episode watchdog that forces Unlock once
// the timeout elapses (I3).
func (c *Controller) Lock(ctx context.Context) error {
	c.mu.Lock()
	if c.locked {
		c.mu.Unlock()
		return nil
	}
	if c.inFlight {
		c.mu.Unlock()
		return bridgeerr.New(bridgeerr.KindTransient, "a lock transition is already in flight")
	}
	c.inFlight = true
	kb, ptr := c.keyboardID, c.pointerID
	c.mu.Unlock()

	err := c.attemptWithRetry(ctx, func(ctx context.Context) error {
		if err := c.device.Detach(ctx, kb); err != nil {
			return err
		}
		return c.device.Detach(ctx, ptr)
	})

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.mu.Unlock()
		// roll back: best-effort reattach so we never leave a half-locked state
		c.rollbackToUnlocked(ctx, kb, ptr)
		return bridgeerr.Wrap(bridgeerr.KindFatal, "lock ran out of retries", err)
	}
	c.locked = true
	c.lockedAt = time.Now()
	c.mu.Unlock()

	c.notify("lock")
	c.startWatchdog()
	return nil
}

// Unlock reattaches the input devices. No-op if already unlocked (I1).
func (c *Controller) Unlock(ctx context.Context) error {
	c.mu.Lock()
	if !c.locked {
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	kb, ptr := c.keyboardID, c.pointerID
	mkb, mptr := c.masterKeyboardID, c.masterPointerID
	c.mu.Unlock()

	c.stopWatchdog()

	err := c.attemptWithRetry(ctx, func(ctx context.Context) error {
		if err := c.device.Reattach(ctx, kb, mkb); err != nil {
			return err
		}
		return c.device.Reattach(ctx, ptr, mptr)
	})

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.mu.Unlock()
		return bridgeerr.Wrap(bridgeerr.KindFatal, "unlock ran out of retries", err)
	}
	c.locked = false
	c.mu.Unlock()

	c.notify("unlock")
	return nil
}

// EmergencyUnlock bypasses retries entirely and clears state synchronously.
// It MUST succeed or raise Fatal (I4); reachable from any state.
func (c *Controller) EmergencyUnlock(ctx context.Context) error {
	c.mu.Lock()
	kb, ptr := c.keyboardID, c.pointerID
	mkb, mptr := c.masterKeyboardID, c.masterPointerID
	wasLocked := c.locked
	c.locked = false
	c.mu.Unlock()

	c.stopWatchdog()

	if !wasLocked {
		return nil
	}

	if err := c.device.Reattach(ctx, kb, mkb); err != nil {
		c.notify("error")
		return bridgeerr.Wrap(bridgeerr.KindFatal, "emergency unlock failed", err)
	}
	if err := c.device.Reattach(ctx, ptr, mptr); err != nil {
		c.notify("error")
		return bridgeerr.Wrap(bridgeerr.KindFatal, "emergency unlock failed", err)
	}
	c.notify("emergency_unlock")
	return nil
}

func (c *Controller) rollbackToUnlocked(ctx context.Context, kb, ptr string) {
	c.mu.Lock()
	mkb, mptr := c.masterKeyboardID, c.masterPointerID
	c.mu.Unlock()
	if err := c.device.Reattach(ctx, kb, mkb); err != nil {
		log.Warn("rollback reattach of keyboard failed", "error", err)
	}
	if err := c.device.Reattach(ctx, ptr, mptr); err != nil {
		log.Warn("rollback reattach of pointer failed", "error", err)
	}
}

func (c *Controller) attemptWithRetry(ctx context.Context, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := op(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries: %w", maxRetries, lastErr)
}

// startWatchdog runs a background timer that forces Unlock once the lock
// episode exceeds its timeout. Fires exactly once per lock episode.
func (c *Controller) startWatchdog() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.watchdogCancel = cancel
	c.watchdogDone = done
	timeout := c.timeout
	c.mu.Unlock()

	// Tick a few times per timeout so short timeouts are still enforced
	// promptly, capped at the default period for the usual minutes-long
	// episodes.
	period := watchdogPeriod
	if timeout/4 < period {
		period = timeout / 4
		if period < 10*time.Millisecond {
			period = 10 * time.Millisecond
		}
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.TimeLocked() > timeout {
					log.Warn("input lock watchdog forcing unlock", "held", c.TimeLocked())
					if err := c.Unlock(context.Background()); err != nil {
						log.Error("watchdog unlock failed", "error", err)
					}
					c.notify("lock_timeout")
					return
				}
			}
		}
	}()
}

func (c *Controller) stopWatchdog() {
	c.mu.Lock()
	cancel := c.watchdogCancel
	c.watchdogCancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
