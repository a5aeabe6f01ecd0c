// internal/browser/chromedp.go
package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

type chromeTab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// ChromeClient implements BrowserClient using chromedp. Window handles are
// page target IDs.
type ChromeClient struct {
	config *BrowserConfig

	allocCancel context.CancelFunc
	rootCtx     context.Context
	rootCancel  context.CancelFunc
	rootID      target.ID

	mu      sync.Mutex
	tabs    map[target.ID]*chromeTab
	current target.ID
	frame   *cdp.Node
}

// NewChromeClient launches Chrome and attaches to its first tab. The browser
// is bound to a background context so that cancelling ctx interrupts the
// launch but never skips Quit.
func NewChromeClient(ctx context.Context, config *BrowserConfig) (*ChromeClient, error) {
	if config == nil {
		config = DefaultBrowserConfig()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		// the player popup is opened from a scripted click
		chromedp.Flag("disable-popup-blocking", true),
	}

	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.StartMaximized {
		opts = append(opts, chromedp.Flag("start-maximized", true))
	}
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}
	if config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	rootCtx, rootCancel := chromedp.NewContext(allocCtx)

	timeout := config.LaunchTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	errc := make(chan error, 1)
	go func() {
		errc <- chromedp.Run(rootCtx)
	}()

	var launchErr error
	select {
	case launchErr = <-errc:
	case <-time.After(timeout):
		launchErr = fmt.Errorf("browser did not start within %s", timeout)
	case <-ctx.Done():
		launchErr = ctx.Err()
	}
	if launchErr != nil {
		rootCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch chrome: %w", launchErr)
	}

	rootID := chromedp.FromContext(rootCtx).Target.TargetID

	return &ChromeClient{
		config:      config,
		allocCancel: allocCancel,
		rootCtx:     rootCtx,
		rootCancel:  rootCancel,
		rootID:      rootID,
		tabs: map[target.ID]*chromeTab{
			rootID: {ctx: rootCtx, cancel: rootCancel},
		},
		current: rootID,
	}, nil
}

// run executes actions on the focused tab, aborting when ctx is done.
func (c *ChromeClient) run(ctx context.Context, actions ...chromedp.Action) error {
	c.mu.Lock()
	tab, ok := c.tabs[c.current]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("no focused window")
	}

	runCtx, cancel := context.WithCancel(tab.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (c *ChromeClient) currentFrame() *cdp.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Navigate navigates the focused tab and leaves any entered frame.
func (c *ChromeClient) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	c.mu.Lock()
	c.frame = nil
	c.mu.Unlock()
	return nil
}

// FindElement runs one lookup in the current document or frame.
func (c *ChromeClient) FindElement(ctx context.Context, loc Locator) (Element, error) {
	frame := c.currentFrame()
	sel, opts, scoped := chromeQuery(loc, frame)
	opts = append(opts, chromedp.AtLeast(0))

	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(sel, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}

	for _, n := range nodes {
		if scoped || inScope(n, frame) {
			return &chromeElement{client: c, node: n}, nil
		}
	}
	return nil, ErrNoSuchElement
}

// chromeQuery maps a Locator to a chromedp selector. CSS-based lookups can be
// rooted at a frame with FromNode; search-based lookups (xpath, link text)
// span every same-origin document, so the caller filters them with inScope.
func chromeQuery(loc Locator, frame *cdp.Node) (string, []chromedp.QueryOption, bool) {
	var opts []chromedp.QueryOption
	switch loc.By {
	case ByID, ByCSS:
		sel := loc.Value
		if loc.By == ByID {
			sel = "[id=" + strconv.Quote(loc.Value) + "]"
		}
		opts = append(opts, chromedp.ByQueryAll)
		if frame != nil {
			opts = append(opts, chromedp.FromNode(frame))
		}
		return sel, opts, true
	case ByLinkText:
		return "//a[normalize-space(.)=" + xpathLiteral(strings.TrimSpace(loc.Value)) + "]",
			append(opts, chromedp.BySearch), false
	default:
		return loc.Value, append(opts, chromedp.BySearch), false
	}
}

// inScope reports whether n belongs to the frame's document, or to the
// top-level document when frame is nil. Nodes whose document cannot be
// determined are accepted.
func inScope(n, frame *cdp.Node) bool {
	var doc *cdp.Node
	for p := n; p != nil; p = p.Parent {
		if p.NodeType == cdp.NodeTypeDocument {
			doc = p
			break
		}
	}
	if doc == nil {
		return true
	}
	if frame == nil {
		return doc.Parent == nil
	}
	if frame.ContentDocument == nil {
		return true
	}
	return doc.NodeID == frame.ContentDocument.NodeID
}

// xpathLiteral quotes s for use in an XPath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

// CurrentURL returns the focused tab's URL
func (c *ChromeClient) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := c.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// PageSource returns the HTML of the current document or frame
func (c *ChromeClient) PageSource(ctx context.Context) (string, error) {
	opts := []chromedp.QueryOption{chromedp.ByQuery}
	if frame := c.currentFrame(); frame != nil {
		opts = append(opts, chromedp.FromNode(frame))
	}

	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, opts...)); err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// CurrentWindow returns the focused target ID
func (c *ChromeClient) CurrentWindow(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == "" {
		return "", fmt.Errorf("no focused window")
	}
	return string(c.current), nil
}

// Windows lists the page targets of the browser
func (c *ChromeClient) Windows(ctx context.Context) ([]string, error) {
	infos, err := chromedp.Targets(c.rootCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	var handles []string
	for _, info := range infos {
		if info.Type == "page" {
			handles = append(handles, string(info.TargetID))
		}
	}
	return handles, nil
}

// SwitchWindow attaches to the target if needed and brings it to front
func (c *ChromeClient) SwitchWindow(ctx context.Context, handle string) error {
	id := target.ID(handle)

	c.mu.Lock()
	tab, ok := c.tabs[id]
	c.mu.Unlock()

	if !ok {
		tabCtx, cancel := chromedp.NewContext(c.rootCtx, chromedp.WithTargetID(id))
		if err := chromedp.Run(tabCtx); err != nil {
			cancel()
			return fmt.Errorf("failed to attach to window %s: %w", handle, err)
		}
		tab = &chromeTab{ctx: tabCtx, cancel: cancel}
		c.mu.Lock()
		c.tabs[id] = tab
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.current = id
	c.frame = nil
	c.mu.Unlock()

	return c.run(ctx, page.BringToFront())
}

// CloseWindow closes the focused tab. No window is focused afterwards.
func (c *ChromeClient) CloseWindow(ctx context.Context) error {
	if err := c.run(ctx, page.Close()); err != nil {
		return fmt.Errorf("failed to close window: %w", err)
	}

	c.mu.Lock()
	id := c.current
	tab := c.tabs[id]
	if id != c.rootID {
		delete(c.tabs, id)
	}
	c.current = ""
	c.frame = nil
	c.mu.Unlock()

	if id != c.rootID && tab != nil {
		tab.cancel()
	}
	return nil
}

// EnterFrame scopes lookups to the iframe's content document
func (c *ChromeClient) EnterFrame(ctx context.Context, frame Element) error {
	el, ok := frame.(*chromeElement)
	if !ok {
		return fmt.Errorf("element %s does not belong to this browser", frame)
	}

	name := strings.ToUpper(el.node.NodeName)
	if name != "IFRAME" && name != "FRAME" {
		return fmt.Errorf("element %s is not a frame", frame)
	}

	node := el.node
	if node.ContentDocument == nil {
		err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			described, err := dom.DescribeNode().WithNodeID(node.NodeID).WithDepth(1).WithPierce(true).Do(ctx)
			if err != nil {
				return err
			}
			if described.ContentDocument == nil {
				return fmt.Errorf("frame has no content document (cross-origin?)")
			}
			node.ContentDocument = described.ContentDocument
			return nil
		}))
		if err != nil {
			return fmt.Errorf("failed to describe frame: %w", err)
		}
	}

	c.mu.Lock()
	c.frame = node
	c.mu.Unlock()
	return nil
}

// ExitFrame returns lookups to the top-level document
func (c *ChromeClient) ExitFrame(ctx context.Context) error {
	c.mu.Lock()
	c.frame = nil
	c.mu.Unlock()
	return nil
}

// Quit closes every attached tab and the browser process
func (c *ChromeClient) Quit() error {
	c.mu.Lock()
	tabs := c.tabs
	c.tabs = map[target.ID]*chromeTab{}
	c.current = ""
	c.mu.Unlock()

	for id, tab := range tabs {
		if id != c.rootID {
			tab.cancel()
		}
	}

	err := chromedp.Cancel(c.rootCtx)
	c.rootCancel()
	c.allocCancel()
	if err != nil && err != context.Canceled {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// chromeElement is a DOM node of the attached browser
type chromeElement struct {
	client *ChromeClient
	node   *cdp.Node
}

const clickScript = `function() {
	this.scrollIntoView({block: "center", inline: "center"});
	this.click();
}`

const clickableScript = `function() {
	if (!this.isConnected) { return false; }
	const rect = this.getBoundingClientRect();
	const style = this.ownerDocument.defaultView.getComputedStyle(this);
	return rect.width > 0 && rect.height > 0 &&
		style.visibility !== "hidden" && style.display !== "none" &&
		!this.disabled;
}`

func (e *chromeElement) Click(ctx context.Context) error {
	return e.client.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.CallFunctionOnNode(ctx, e.node, clickScript, nil)
	}))
}

func (e *chromeElement) SendKeys(ctx context.Context, text string) error {
	return e.client.run(ctx, chromedp.KeyEventNode(e.node, text))
}

func (e *chromeElement) Clickable(ctx context.Context) (bool, error) {
	var ok bool
	err := e.client.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return chromedp.CallFunctionOnNode(ctx, e.node, clickableScript, &ok)
	}))
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (e *chromeElement) String() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(strings.ToLower(e.node.NodeName))
	if id := e.node.AttributeValue("id"); id != "" {
		fmt.Fprintf(&b, " id=%q", id)
	}
	if class := e.node.AttributeValue("class"); class != "" {
		fmt.Fprintf(&b, " class=%q", class)
	}
	b.WriteString(">")
	return b.String()
}
