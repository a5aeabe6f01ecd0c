// internal/browser/types.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoSuchElement is returned by FindElement when nothing matches yet.
var ErrNoSuchElement = errors.New("no such element")

// Strategy is how a Locator identifies an element.
type Strategy string

const (
	ByID       Strategy = "id"
	ByCSS      Strategy = "css"
	ByLinkText Strategy = "link_text"
	ByXPath    Strategy = "xpath"
)

// ParseStrategy validates a strategy name from configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case ByID:
		return ByID, nil
	case ByCSS:
		return ByCSS, nil
	case ByLinkText:
		return ByLinkText, nil
	case ByXPath:
		return ByXPath, nil
	}
	return "", fmt.Errorf("unknown locator strategy %q", s)
}

// Locator identifies an element within the current document or frame.
type Locator struct {
	By    Strategy
	Value string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.By, l.Value)
}

// BrowserConfig defines browser automation configuration
type BrowserConfig struct {
	Backend        string
	Headless       bool
	StartMaximized bool
	ExecPath       string
	DriverPath     string
	DriverPort     int
	UserDataDir    string
	LaunchTimeout  time.Duration
}

// DefaultBrowserConfig returns default browser configuration
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Backend:        "chromedp",
		Headless:       false,
		StartMaximized: true,
		LaunchTimeout:  60 * time.Second,
	}
}

// Element is a located element in the page.
type Element interface {
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error

	// Clickable reports whether the element is displayed and enabled
	Clickable(ctx context.Context) (bool, error)

	String() string
}

// BrowserClient interface defines browser automation operations.
// Element lookups and page reads run against the current window and, when
// one was entered, the current frame.
type BrowserClient interface {
	// Navigate to a URL in the current window
	Navigate(ctx context.Context, url string) error

	// FindElement makes a single lookup attempt and returns ErrNoSuchElement
	// when nothing matches
	FindElement(ctx context.Context, loc Locator) (Element, error)

	// CurrentURL returns the URL of the current window
	CurrentURL(ctx context.Context) (string, error)

	// PageSource returns the HTML of the current document or frame
	PageSource(ctx context.Context) (string, error)

	// CurrentWindow returns the handle of the focused window
	CurrentWindow(ctx context.Context) (string, error)

	// Windows lists the handles of all open windows
	Windows(ctx context.Context) ([]string, error)

	// SwitchWindow focuses the window with the given handle
	SwitchWindow(ctx context.Context, handle string) error

	// CloseWindow closes the focused window
	CloseWindow(ctx context.Context) error

	// EnterFrame switches lookups into the frame element's document
	EnterFrame(ctx context.Context, frame Element) error

	// ExitFrame switches lookups back to the top-level document
	ExitFrame(ctx context.Context) error

	// Quit closes the browser and releases the driver
	Quit() error
}

// BrowserStats contains browser automation statistics
type BrowserStats struct {
	Waits            int `json:"waits"`
	TimeoutsOccurred int `json:"timeouts_occurred"`
	Clicks           int `json:"clicks"`
	FrameSwitches    int `json:"frame_switches"`
	WindowSwitches   int `json:"window_switches"`
	Errors           int `json:"errors"`
}
