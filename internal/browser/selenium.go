// internal/browser/selenium.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// DefaultDriverPort is the chromedriver port used when none is configured.
const DefaultDriverPort = 9515

// SeleniumClient implements BrowserClient over a local chromedriver.
type SeleniumClient struct {
	service *selenium.Service
	driver  selenium.WebDriver
}

// NewSeleniumClient starts chromedriver and opens a browser session
func NewSeleniumClient(ctx context.Context, config *BrowserConfig) (*SeleniumClient, error) {
	if config == nil {
		config = DefaultBrowserConfig()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port := config.DriverPort
	if port <= 0 {
		port = DefaultDriverPort
	}

	service, err := selenium.NewChromeDriverService(config.DriverPath, port, selenium.Output(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	chromeCaps := chrome.Capabilities{
		Path: config.ExecPath,
		W3C:  true,
	}
	if config.StartMaximized {
		chromeCaps.Args = append(chromeCaps.Args, "--start-maximized")
	}
	if config.Headless {
		chromeCaps.Args = append(chromeCaps.Args, "--headless=new")
	}
	if config.UserDataDir != "" {
		chromeCaps.Args = append(chromeCaps.Args, "--user-data-dir="+config.UserDataDir)
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chromeCaps)

	driver, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", port))
	if err != nil {
		service.Stop()
		return nil, fmt.Errorf("failed to create webdriver session: %w", err)
	}

	return &SeleniumClient{service: service, driver: driver}, nil
}

func seleniumBy(s Strategy) string {
	switch s {
	case ByID:
		return selenium.ByID
	case ByCSS:
		return selenium.ByCSSSelector
	case ByLinkText:
		return selenium.ByLinkText
	default:
		return selenium.ByXPATH
	}
}

// isNoSuchElement reports whether the driver rejected a lookup because
// nothing matched.
func isNoSuchElement(err error) bool {
	var serr *selenium.Error
	if errors.As(err, &serr) {
		return serr.Err == "no such element"
	}
	return strings.Contains(err.Error(), "no such element")
}

func (c *SeleniumClient) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.driver.Get(url)
}

func (c *SeleniumClient) FindElement(ctx context.Context, loc Locator) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := c.driver.FindElement(seleniumBy(loc.By), loc.Value)
	if err != nil {
		if isNoSuchElement(err) {
			return nil, ErrNoSuchElement
		}
		return nil, err
	}
	return &seleniumElement{el: el, loc: loc}, nil
}

func (c *SeleniumClient) CurrentURL(ctx context.Context) (string, error) {
	return c.driver.CurrentURL()
}

func (c *SeleniumClient) PageSource(ctx context.Context) (string, error) {
	return c.driver.PageSource()
}

func (c *SeleniumClient) CurrentWindow(ctx context.Context) (string, error) {
	return c.driver.CurrentWindowHandle()
}

func (c *SeleniumClient) Windows(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.driver.WindowHandles()
}

func (c *SeleniumClient) SwitchWindow(ctx context.Context, handle string) error {
	return c.driver.SwitchWindow(handle)
}

func (c *SeleniumClient) CloseWindow(ctx context.Context) error {
	return c.driver.Close()
}

func (c *SeleniumClient) EnterFrame(ctx context.Context, frame Element) error {
	el, ok := frame.(*seleniumElement)
	if !ok {
		return fmt.Errorf("element %s does not belong to this driver", frame)
	}
	return c.driver.SwitchFrame(el.el)
}

func (c *SeleniumClient) ExitFrame(ctx context.Context) error {
	return c.driver.SwitchFrame(nil)
}

// Quit ends the webdriver session and stops chromedriver
func (c *SeleniumClient) Quit() error {
	var errs []error
	if err := c.driver.Quit(); err != nil {
		errs = append(errs, fmt.Errorf("webdriver quit: %w", err))
	}
	if err := c.service.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("chromedriver stop: %w", err))
	}
	return errors.Join(errs...)
}

type seleniumElement struct {
	el  selenium.WebElement
	loc Locator
}

func (e *seleniumElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.el.Click()
}

func (e *seleniumElement) SendKeys(ctx context.Context, text string) error {
	return e.el.SendKeys(text)
}

func (e *seleniumElement) Clickable(ctx context.Context) (bool, error) {
	displayed, err := e.el.IsDisplayed()
	if err != nil {
		if isNoSuchElement(err) || strings.Contains(err.Error(), "stale element") {
			return false, ErrNoSuchElement
		}
		return false, err
	}
	if !displayed {
		return false, nil
	}
	return e.el.IsEnabled()
}

func (e *seleniumElement) String() string {
	tag, err := e.el.TagName()
	if err != nil {
		return "<" + e.loc.String() + ">"
	}
	return fmt.Sprintf("<%s %s>", tag, e.loc)
}
