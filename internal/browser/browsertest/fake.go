// Package browsertest provides a scripted BrowserClient and a manual clock
// for exercising navigation and timing without a real browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valpere/scormrunner/internal/browser"
)

// MainWindow and PopupWindow are the handles the fake hands out.
const (
	MainWindow  = "main"
	PopupWindow = "popup"
)

// Element is a scripted element. Zero values mean "present, clickable,
// clicks succeed".
type Element struct {
	Name    string
	Locator browser.Locator

	// Frame names the frame element whose document holds this element;
	// empty means the top-level document.
	Frame string
	// IsFrame marks the element as an iframe that can be entered.
	IsFrame bool

	// AppearAfter is the number of lookups that miss before it is found.
	AppearAfter int
	// ClickableAfter is the number of clickability checks that report false.
	ClickableAfter int
	// ClickErr is returned by every click after the first SucceedClicks.
	ClickErr      error
	SucceedClicks int
	// OpensPopup adds the popup window when clicked.
	OpensPopup bool

	client  *Client
	lookups int
	checks  int
	clicks  int
	typed   []string
}

// Clicks returns how many times the element was clicked.
func (e *Element) Clicks() int {
	e.client.mu.Lock()
	defer e.client.mu.Unlock()
	return e.clicks
}

// Typed returns the text sent to the element.
func (e *Element) Typed() []string {
	e.client.mu.Lock()
	defer e.client.mu.Unlock()
	return append([]string(nil), e.typed...)
}

func (e *Element) Click(ctx context.Context) error {
	c := e.client
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, "click "+e.Name)
	e.clicks++
	if e.ClickErr != nil && e.clicks > e.SucceedClicks {
		return e.ClickErr
	}
	if e.OpensPopup && !c.hasWindow(PopupWindow) {
		c.windows = append(c.windows, PopupWindow)
	}
	return nil
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	c := e.client
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, "type "+e.Name)
	e.typed = append(e.typed, text)
	return nil
}

func (e *Element) Clickable(ctx context.Context) (bool, error) {
	c := e.client
	c.mu.Lock()
	defer c.mu.Unlock()

	e.checks++
	return e.checks > e.ClickableAfter, nil
}

func (e *Element) String() string {
	return "<" + e.Name + ">"
}

var _ browser.BrowserClient = (*Client)(nil)

// Client is a scripted browser.BrowserClient. It is safe for concurrent use.
type Client struct {
	mu sync.Mutex

	elements map[browser.Locator]*Element
	windows  []string
	current  string
	frame    string
	url      string
	source   string
	calls    []string
	quits    int

	// FindErr, when set, is returned by every lookup.
	FindErr error
	// URLs maps a window handle to the URL CurrentURL reports for it.
	URLs map[string]string
}

// NewClient returns a client with one window and no elements.
func NewClient() *Client {
	return &Client{
		elements: make(map[browser.Locator]*Element),
		windows:  []string{MainWindow},
		current:  MainWindow,
		URLs:     make(map[string]string),
	}
}

// Add registers elements by their locators.
func (c *Client) Add(elements ...*Element) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, el := range elements {
		el.client = c
		c.elements[el.Locator] = el
	}
	return c
}

// SetPageSource sets what PageSource returns.
func (c *Client) SetPageSource(html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = html
}

// Calls returns the recorded operations in order.
func (c *Client) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// Quits returns how many times Quit was called.
func (c *Client) Quits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quits
}

// Frame returns the entered frame's name, empty at top level.
func (c *Client) Frame() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// OpenWindows returns the current window handles.
func (c *Client) OpenWindows() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.windows...)
}

// Focused returns the focused window handle.
func (c *Client) Focused() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Client) hasWindow(handle string) bool {
	for _, w := range c.windows {
		if w == handle {
			return true
		}
	}
	return false
}

func (c *Client) Navigate(ctx context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "navigate "+url)
	c.url = url
	c.frame = ""
	return nil
}

func (c *Client) FindElement(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FindErr != nil {
		return nil, c.FindErr
	}
	el, ok := c.elements[loc]
	if !ok || el.Frame != c.frame {
		return nil, browser.ErrNoSuchElement
	}
	if el.lookups < el.AppearAfter {
		el.lookups++
		return nil, browser.ErrNoSuchElement
	}
	return el, nil
}

func (c *Client) CurrentURL(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u, ok := c.URLs[c.current]; ok {
		return u, nil
	}
	return c.url, nil
}

func (c *Client) PageSource(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source, nil
}

func (c *Client) CurrentWindow(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == "" {
		return "", fmt.Errorf("no focused window")
	}
	return c.current, nil
}

func (c *Client) Windows(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.windows...), nil
}

func (c *Client) SwitchWindow(ctx context.Context, handle string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasWindow(handle) {
		return fmt.Errorf("no such window %q", handle)
	}
	c.calls = append(c.calls, "switch window "+handle)
	c.current = handle
	c.frame = ""
	return nil
}

func (c *Client) CloseWindow(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "close window "+c.current)
	for i, w := range c.windows {
		if w == c.current {
			c.windows = append(c.windows[:i], c.windows[i+1:]...)
			break
		}
	}
	c.current = ""
	c.frame = ""
	return nil
}

func (c *Client) EnterFrame(ctx context.Context, frame browser.Element) error {
	el, ok := frame.(*Element)
	if !ok || !el.IsFrame {
		return fmt.Errorf("%s is not a frame", frame)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "enter frame "+el.Name)
	c.frame = el.Name
	return nil
}

func (c *Client) ExitFrame(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "exit frame")
	c.frame = ""
	return nil
}

func (c *Client) Quit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "quit")
	c.quits++
	return nil
}

// Clock is a manual clock: Sleep advances Now instantly.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewClock returns a clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// Advance moves the clock forward without recording a sleep.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleeps returns every duration passed to Sleep.
func (c *Clock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
