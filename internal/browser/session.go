// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	rerrors "github.com/valpere/scormrunner/internal/errors"
	"github.com/valpere/scormrunner/internal/monitoring"
	"github.com/valpere/scormrunner/internal/utils"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	Backend      string
	Clock        Clock
	PollInterval time.Duration
	Logger       utils.Logger
	Metrics      *monitoring.MetricsManager
}

// Session owns one BrowserClient for the lifetime of a run. It tracks the
// frame and window context so entering and leaving them stays paired, and
// it quits the browser exactly once.
type Session struct {
	client  BrowserClient
	waiter  *Waiter
	logger  utils.Logger
	metrics *monitoring.MetricsManager
	backend string

	mu             sync.Mutex
	stats          BrowserStats
	frameDepth     int
	originalWindow string
	popupWindow    string

	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps client. The session takes ownership of client.
func NewSession(client BrowserClient, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Session{
		client:  client,
		waiter:  NewWaiter(client, opts.Clock, opts.PollInterval),
		logger:  logger,
		metrics: opts.Metrics,
		backend: opts.Backend,
	}
}

// Navigate loads url in the current window.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.client.Navigate(ctx, url); err != nil {
		s.recordError()
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// WaitForElement waits for loc to be present. A zero timeout means DefaultWaitTimeout.
func (s *Session) WaitForElement(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return s.wait(ctx, loc, timeout, false)
}

// WaitForClickable waits for loc to be present, displayed and enabled.
func (s *Session) WaitForClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return s.wait(ctx, loc, timeout, true)
}

func (s *Session) wait(ctx context.Context, loc Locator, timeout time.Duration, clickable bool) (Element, error) {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	s.logger.Debugf("Waiting for element by %s with value '%s' for up to %s.", loc.By, loc.Value, timeout)

	start := time.Now()
	var (
		el  Element
		err error
	)
	if clickable {
		el, err = s.waiter.WaitForClickable(ctx, loc, timeout)
	} else {
		el, err = s.waiter.WaitForElement(ctx, loc, timeout)
	}

	s.mu.Lock()
	s.stats.Waits++
	if rerrors.Is(err, rerrors.KindElementNotFound) {
		s.stats.TimeoutsOccurred++
	}
	s.mu.Unlock()

	if err != nil {
		outcome := "error"
		if rerrors.Is(err, rerrors.KindElementNotFound) {
			outcome = "timeout"
			s.logger.Errorf("Timeout: Element with %s='%s' not found after %s.", loc.By, loc.Value, timeout)
		} else {
			s.logger.Errorf("Waiting for %s failed: %v", loc, err)
		}
		s.metrics.ObserveWait(string(loc.By), outcome, time.Since(start))
		return nil, err
	}

	s.metrics.ObserveWait(string(loc.By), "found", time.Since(start))
	s.logger.Debugf("Element found: %s", el)
	return el, nil
}

// Click clicks el. phase labels the click in metrics.
func (s *Session) Click(ctx context.Context, el Element, phase string) error {
	if err := el.Click(ctx); err != nil {
		s.recordError()
		return fmt.Errorf("click on %s failed: %w", el, err)
	}
	s.mu.Lock()
	s.stats.Clicks++
	s.mu.Unlock()
	s.metrics.IncClick(phase)
	return nil
}

// Type sends text to el.
func (s *Session) Type(ctx context.Context, el Element, text string) error {
	if err := el.SendKeys(ctx, text); err != nil {
		s.recordError()
		return fmt.Errorf("typing into %s failed: %w", el, err)
	}
	return nil
}

// SwitchToFrame enters the frame element's document.
func (s *Session) SwitchToFrame(ctx context.Context, frame Element) error {
	s.logger.Debugf("Switching to frame: %s", frame)
	if err := s.client.EnterFrame(ctx, frame); err != nil {
		s.recordError()
		return fmt.Errorf("switching to frame %s: %w", frame, err)
	}
	s.mu.Lock()
	s.frameDepth++
	s.stats.FrameSwitches++
	s.mu.Unlock()
	s.metrics.IncFrameSwitch("enter")
	return nil
}

// SwitchToDefaultContent returns to the top-level document. It does nothing
// when no frame was entered.
func (s *Session) SwitchToDefaultContent(ctx context.Context) error {
	s.mu.Lock()
	depth := s.frameDepth
	s.mu.Unlock()
	if depth == 0 {
		return nil
	}

	s.logger.Debug("Switching back to default content.")
	if err := s.client.ExitFrame(ctx); err != nil {
		s.recordError()
		return fmt.Errorf("switching to default content: %w", err)
	}
	s.mu.Lock()
	s.frameDepth = 0
	s.stats.FrameSwitches++
	s.mu.Unlock()
	s.metrics.IncFrameSwitch("exit")
	return nil
}

// InFrame reports whether lookups currently run inside a frame.
func (s *Session) InFrame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameDepth > 0
}

// SwitchToPopup records the focused window as the original, waits until
// exactly two windows are open and focuses the one that is not the original.
func (s *Session) SwitchToPopup(ctx context.Context, timeout time.Duration) error {
	original, err := s.client.CurrentWindow(ctx)
	if err != nil {
		s.recordError()
		return fmt.Errorf("reading current window: %w", err)
	}

	handles, err := s.waiter.WaitForWindows(ctx, 2, timeout)
	if err != nil {
		s.logger.Errorf("Popup window did not open within %s: %v", timeout, err)
		return err
	}

	for _, handle := range handles {
		if handle == original {
			continue
		}
		if err := s.switchWindow(ctx, handle); err != nil {
			return err
		}
		s.mu.Lock()
		s.originalWindow = original
		s.popupWindow = handle
		s.mu.Unlock()
		s.logger.Infof("Switched from window %s to popup %s.", original, handle)
		return nil
	}

	return fmt.Errorf("no window other than %s among %v", original, handles)
}

// Windows returns the original and popup handles, empty until SwitchToPopup succeeded.
func (s *Session) Windows() (original, popup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.originalWindow, s.popupWindow
}

// RestoreWindows leaves any frame, closes the popup and focuses the original
// window again. Each step runs at most once per popup.
func (s *Session) RestoreWindows(ctx context.Context) error {
	if err := s.SwitchToDefaultContent(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	original, popup := s.originalWindow, s.popupWindow
	s.mu.Unlock()
	if popup == "" {
		return nil
	}

	s.logger.Debugf("Closing popup window %s.", popup)
	if err := s.client.CloseWindow(ctx); err != nil {
		s.recordError()
		return fmt.Errorf("closing popup window: %w", err)
	}
	s.mu.Lock()
	s.popupWindow = ""
	s.mu.Unlock()

	return s.switchWindow(ctx, original)
}

func (s *Session) switchWindow(ctx context.Context, handle string) error {
	if err := s.client.SwitchWindow(ctx, handle); err != nil {
		s.recordError()
		return fmt.Errorf("switching to window %s: %w", handle, err)
	}
	s.mu.Lock()
	s.stats.WindowSwitches++
	s.mu.Unlock()
	s.metrics.IncWindowSwitch()
	return nil
}

// CurrentURL returns the URL of the focused window.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	return s.client.CurrentURL(ctx)
}

// PageSource returns the HTML of the current document or frame.
func (s *Session) PageSource(ctx context.Context) (string, error) {
	return s.client.PageSource(ctx)
}

// Stats returns a copy of the session counters.
func (s *Session) Stats() BrowserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close quits the browser. Only the first call reaches the client; later
// calls return the same result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing the browser.")
		s.closeErr = s.client.Quit()
		if s.closeErr != nil {
			s.logger.Warnf("Browser did not close cleanly: %v", s.closeErr)
		}
	})
	return s.closeErr
}

func (s *Session) recordError() {
	s.mu.Lock()
	s.stats.Errors++
	s.mu.Unlock()
}
