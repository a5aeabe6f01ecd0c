// internal/browser/wait.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	rerrors "github.com/valpere/scormrunner/internal/errors"
)

// DefaultWaitTimeout is used when a wait is called with a zero timeout.
const DefaultWaitTimeout = 10 * time.Second

// DefaultPollInterval is the gap between lookup attempts.
const DefaultPollInterval = 500 * time.Millisecond

// Clock abstracts time for the wait helper and the advance loop.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Waiter polls a BrowserClient until a condition holds or a timeout passes.
// It is the only way the runner acquires elements.
type Waiter struct {
	client       BrowserClient
	clock        Clock
	pollInterval time.Duration
}

// NewWaiter creates a waiter. A nil clock means the system clock.
func NewWaiter(client BrowserClient, clock Clock, pollInterval time.Duration) *Waiter {
	if clock == nil {
		clock = SystemClock{}
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Waiter{client: client, clock: clock, pollInterval: pollInterval}
}

// WaitForElement waits until loc matches an element in the current context.
func (w *Waiter) WaitForElement(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return w.waitFor(ctx, loc, timeout, false)
}

// WaitForClickable waits until loc matches an element that is displayed and enabled.
func (w *Waiter) WaitForClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return w.waitFor(ctx, loc, timeout, true)
}

func (w *Waiter) waitFor(ctx context.Context, loc Locator, timeout time.Duration, clickable bool) (Element, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	deadline := w.clock.Now().Add(timeout)

	var lastErr error
	for {
		el, err := w.client.FindElement(ctx, loc)
		switch {
		case err == nil && !clickable:
			return el, nil
		case err == nil:
			ok, cerr := el.Clickable(ctx)
			if cerr != nil && !errors.Is(cerr, ErrNoSuchElement) {
				return nil, fmt.Errorf("checking %s: %w", loc, cerr)
			}
			if ok {
				return el, nil
			}
			lastErr = fmt.Errorf("element present but not clickable")
		case errors.Is(err, ErrNoSuchElement):
			lastErr = err
		default:
			return nil, fmt.Errorf("finding %s: %w", loc, err)
		}

		if err := w.pause(ctx, deadline); err != nil {
			if errors.Is(err, errDeadline) {
				return nil, rerrors.NewElementNotFound(loc.String(), timeout, lastErr)
			}
			return nil, err
		}
	}
}

// WaitForWindows waits until exactly n windows are open.
func (w *Waiter) WaitForWindows(ctx context.Context, n int, timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	deadline := w.clock.Now().Add(timeout)

	var handles []string
	for {
		var err error
		handles, err = w.client.Windows(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing windows: %w", err)
		}
		if len(handles) == n {
			return handles, nil
		}

		if err := w.pause(ctx, deadline); err != nil {
			if errors.Is(err, errDeadline) {
				return nil, rerrors.NewElementNotFound(fmt.Sprintf("windows=%d", n), timeout,
					fmt.Errorf("%d window(s) open", len(handles)))
			}
			return nil, err
		}
	}
}

var errDeadline = errors.New("deadline reached")

// pause sleeps until the next attempt, never past the deadline. It returns
// errDeadline once the deadline has been reached.
func (w *Waiter) pause(ctx context.Context, deadline time.Time) error {
	remaining := deadline.Sub(w.clock.Now())
	if remaining <= 0 {
		return errDeadline
	}
	d := w.pollInterval
	if remaining < d {
		d = remaining
	}
	return w.clock.Sleep(ctx, d)
}
