// internal/browser/session_test.go
package browser_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valpere/scormrunner/internal/browser"
	"github.com/valpere/scormrunner/internal/browser/browsertest"
	rerrors "github.com/valpere/scormrunner/internal/errors"
)

var nextLoc = browser.Locator{By: browser.ByXPath, Value: "//button[contains(@class, 'uikit-primary-button_next')]"}

func newSession(client *browsertest.Client, clock *browsertest.Clock) *browser.Session {
	return browser.NewSession(client, browser.SessionOptions{
		Clock:        clock,
		PollInterval: 500 * time.Millisecond,
	})
}

func TestWaitForElement_TimesOutWithinOnePoll(t *testing.T) {
	client := browsertest.NewClient()
	clock := browsertest.NewClock()
	sess := newSession(client, clock)

	start := clock.Now()
	_, err := sess.WaitForElement(context.Background(), nextLoc, 10*time.Second)
	elapsed := clock.Now().Sub(start)

	if !rerrors.Is(err, rerrors.KindElementNotFound) {
		t.Fatalf("expected element not found, got %v", err)
	}
	if elapsed < 10*time.Second || elapsed > 10*time.Second+500*time.Millisecond {
		t.Errorf("expected timeout between 10s and 10.5s, took %s", elapsed)
	}
	if !strings.Contains(err.Error(), "uikit-primary-button_next") {
		t.Errorf("expected locator in error, got %q", err.Error())
	}

	stats := sess.Stats()
	if stats.Waits != 1 || stats.TimeoutsOccurred != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestWaitForElement_ZeroTimeoutUsesDefault(t *testing.T) {
	client := browsertest.NewClient()
	clock := browsertest.NewClock()
	sess := newSession(client, clock)

	start := clock.Now()
	_, err := sess.WaitForElement(context.Background(), nextLoc, 0)
	if err == nil {
		t.Fatal("expected timeout")
	}
	if got := clock.Now().Sub(start); got != browser.DefaultWaitTimeout {
		t.Errorf("expected %s, took %s", browser.DefaultWaitTimeout, got)
	}
}

func TestWaitForElement_FoundAfterPolls(t *testing.T) {
	client := browsertest.NewClient()
	el := &browsertest.Element{Name: "next", Locator: nextLoc, AppearAfter: 3}
	client.Add(el)
	clock := browsertest.NewClock()
	sess := newSession(client, clock)

	start := clock.Now()
	got, err := sess.WaitForElement(context.Background(), nextLoc, 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != el {
		t.Errorf("expected the scripted element, got %v", got)
	}
	if elapsed := clock.Now().Sub(start); elapsed != 1500*time.Millisecond {
		t.Errorf("expected 1.5s of polling, got %s", elapsed)
	}
}

func TestWaitForClickable(t *testing.T) {
	client := browsertest.NewClient()
	client.Add(&browsertest.Element{Name: "next", Locator: nextLoc, ClickableAfter: 2})
	clock := browsertest.NewClock()
	sess := newSession(client, clock)

	if _, err := sess.WaitForClickable(context.Background(), nextLoc, 10*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(clock.Sleeps()); n != 2 {
		t.Errorf("expected 2 polls before clickable, got %d", n)
	}
}

func TestWaitForClickable_NeverClickable(t *testing.T) {
	client := browsertest.NewClient()
	client.Add(&browsertest.Element{Name: "next", Locator: nextLoc, ClickableAfter: 1 << 30})
	sess := newSession(client, browsertest.NewClock())

	_, err := sess.WaitForClickable(context.Background(), nextLoc, 2*time.Second)
	if !rerrors.Is(err, rerrors.KindElementNotFound) {
		t.Fatalf("expected element not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "not clickable") {
		t.Errorf("expected cause to mention clickability, got %q", err.Error())
	}
}

func TestWaitForElement_DriverErrorAborts(t *testing.T) {
	client := browsertest.NewClient()
	client.FindErr = errors.New("session deleted")
	clock := browsertest.NewClock()
	sess := newSession(client, clock)

	_, err := sess.WaitForElement(context.Background(), nextLoc, 10*time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if rerrors.Is(err, rerrors.KindElementNotFound) {
		t.Errorf("driver failure must not be reported as a timeout: %v", err)
	}
	if len(clock.Sleeps()) != 0 {
		t.Errorf("expected no polling after a driver failure")
	}
}

func TestWaitForElement_Cancelled(t *testing.T) {
	client := browsertest.NewClient()
	sess := newSession(client, browsertest.NewClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sess.WaitForElement(ctx, nextLoc, 10*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSession_CloseOnce(t *testing.T) {
	client := browsertest.NewClient()
	sess := newSession(client, browsertest.NewClock())

	for i := 0; i < 3; i++ {
		if err := sess.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
	if client.Quits() != 1 {
		t.Errorf("expected exactly one quit, got %d", client.Quits())
	}
}

func TestSession_FramePairing(t *testing.T) {
	frameLoc := browser.Locator{By: browser.ByXPath, Value: "//iframe[@id='scorm_object']"}
	client := browsertest.NewClient()
	client.Add(
		&browsertest.Element{Name: "scorm_object", Locator: frameLoc, IsFrame: true},
		&browsertest.Element{Name: "next", Locator: nextLoc, Frame: "scorm_object"},
	)
	sess := newSession(client, browsertest.NewClock())
	ctx := context.Background()

	if err := sess.SwitchToDefaultContent(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.Calls()) != 0 {
		t.Errorf("leaving a frame that was never entered should not reach the client: %v", client.Calls())
	}

	frame, err := sess.WaitForElement(ctx, frameLoc, time.Second)
	if err != nil {
		t.Fatalf("frame lookup: %v", err)
	}
	if _, err := sess.WaitForElement(ctx, nextLoc, time.Second); err == nil {
		t.Fatal("next button must not be visible outside its frame")
	}

	if err := sess.SwitchToFrame(ctx, frame); err != nil {
		t.Fatalf("enter frame: %v", err)
	}
	if !sess.InFrame() {
		t.Error("expected session to be inside the frame")
	}
	if _, err := sess.WaitForElement(ctx, nextLoc, time.Second); err != nil {
		t.Fatalf("next button lookup inside frame: %v", err)
	}

	if err := sess.SwitchToDefaultContent(ctx); err != nil {
		t.Fatalf("exit frame: %v", err)
	}
	if sess.InFrame() || client.Frame() != "" {
		t.Error("expected top-level context after exit")
	}
	if got := sess.Stats().FrameSwitches; got != 2 {
		t.Errorf("expected 2 frame switches, got %d", got)
	}
}

func TestSession_PopupAndRestore(t *testing.T) {
	launchLoc := browser.Locator{By: browser.ByID, Value: "n"}
	frameLoc := browser.Locator{By: browser.ByXPath, Value: "//iframe[@id='scorm_object']"}
	client := browsertest.NewClient()
	launch := &browsertest.Element{Name: "launch", Locator: launchLoc, OpensPopup: true}
	client.Add(launch, &browsertest.Element{Name: "scorm_object", Locator: frameLoc, IsFrame: true})
	sess := newSession(client, browsertest.NewClock())
	ctx := context.Background()

	if err := sess.Click(ctx, launch, "navigation"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := sess.SwitchToPopup(ctx, 10*time.Second); err != nil {
		t.Fatalf("switch to popup: %v", err)
	}
	if client.Focused() != browsertest.PopupWindow {
		t.Errorf("expected popup focused, got %q", client.Focused())
	}
	original, popup := sess.Windows()
	if original != browsertest.MainWindow || popup != browsertest.PopupWindow {
		t.Errorf("unexpected windows %q %q", original, popup)
	}

	frame, err := sess.WaitForElement(ctx, frameLoc, time.Second)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if err := sess.SwitchToFrame(ctx, frame); err != nil {
		t.Fatalf("enter frame: %v", err)
	}

	if err := sess.RestoreWindows(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	calls := client.Calls()
	want := []string{"exit frame", "close window popup", "switch window main"}
	tail := calls[len(calls)-len(want):]
	for i := range want {
		if tail[i] != want[i] {
			t.Fatalf("expected teardown %v, got %v", want, tail)
		}
	}
	if client.Focused() != browsertest.MainWindow {
		t.Errorf("expected main window focused, got %q", client.Focused())
	}

	// a second restore has nothing left to do
	before := len(client.Calls())
	if err := sess.RestoreWindows(ctx); err != nil {
		t.Fatalf("second restore: %v", err)
	}
	if len(client.Calls()) != before {
		t.Errorf("second restore reached the client: %v", client.Calls()[before:])
	}
}

func TestSession_PopupNeverOpens(t *testing.T) {
	client := browsertest.NewClient()
	clock := browsertest.NewClock()
	sess := newSession(client, clock)

	start := clock.Now()
	err := sess.SwitchToPopup(context.Background(), 10*time.Second)
	if !rerrors.Is(err, rerrors.KindElementNotFound) {
		t.Fatalf("expected element not found, got %v", err)
	}
	if elapsed := clock.Now().Sub(start); elapsed != 10*time.Second {
		t.Errorf("expected 10s wait, got %s", elapsed)
	}
	if client.Focused() != browsertest.MainWindow {
		t.Errorf("focus must stay on the main window")
	}
}

func TestSession_ClickFailure(t *testing.T) {
	client := browsertest.NewClient()
	el := &browsertest.Element{Name: "next", Locator: nextLoc, ClickErr: errors.New("element click intercepted")}
	client.Add(el)
	sess := newSession(client, browsertest.NewClock())

	err := sess.Click(context.Background(), el, "advance")
	if err == nil || !strings.Contains(err.Error(), "intercepted") {
		t.Fatalf("expected click error, got %v", err)
	}
	if s := sess.Stats(); s.Clicks != 0 || s.Errors != 1 {
		t.Errorf("unexpected stats %+v", s)
	}
}
