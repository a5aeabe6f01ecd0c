// internal/browser/factory.go
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	rerrors "github.com/valpere/scormrunner/internal/errors"
)

// Backend names accepted by NewClient.
const (
	BackendChromedp = "chromedp"
	BackendSelenium = "selenium"
)

// ClientFactory launches a browser. The runner takes one so tests can
// substitute a scripted client.
type ClientFactory func(ctx context.Context, config *BrowserConfig) (BrowserClient, error)

var chromeBinaries = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// ResolveBinaries fills in the driver or browser executable for the chosen
// backend. An explicitly configured path must exist; otherwise the PATH is
// searched. The returned config is a copy.
func ResolveBinaries(config *BrowserConfig) (*BrowserConfig, error) {
	if config == nil {
		config = DefaultBrowserConfig()
	}
	resolved := *config

	switch strings.ToLower(resolved.Backend) {
	case "", BackendChromedp:
		resolved.Backend = BackendChromedp
		if resolved.ExecPath != "" {
			if _, err := os.Stat(resolved.ExecPath); err != nil {
				return nil, rerrors.Wrap(rerrors.KindSessionLaunch, "resolve browser", err)
			}
			return &resolved, nil
		}
		for _, name := range chromeBinaries {
			if path, err := lookPath(name); err == nil {
				resolved.ExecPath = path
				return &resolved, nil
			}
		}
		// chromedp also probes platform install locations on its own
		return &resolved, nil

	case BackendSelenium:
		resolved.Backend = BackendSelenium
		if resolved.DriverPath != "" {
			if _, err := os.Stat(resolved.DriverPath); err != nil {
				return nil, rerrors.Wrap(rerrors.KindSessionLaunch, "resolve driver", err)
			}
			return &resolved, nil
		}
		path, err := lookPath("chromedriver")
		if err != nil {
			return nil, rerrors.Errorf(rerrors.KindSessionLaunch, "resolve driver",
				"chromedriver not found in PATH; set browser.driver_path or SCORMRUNNER_DRIVER_PATH")
		}
		resolved.DriverPath = path
		return &resolved, nil
	}

	return nil, rerrors.Errorf(rerrors.KindSessionLaunch, "resolve browser", "unknown backend %q", config.Backend)
}

// NewClient launches the configured backend. Failures are KindSessionLaunch.
func NewClient(ctx context.Context, config *BrowserConfig) (BrowserClient, error) {
	resolved, err := ResolveBinaries(config)
	if err != nil {
		return nil, err
	}

	var client BrowserClient
	switch resolved.Backend {
	case BackendSelenium:
		client, err = NewSeleniumClient(ctx, resolved)
	default:
		client, err = NewChromeClient(ctx, resolved)
	}
	if err != nil {
		return nil, rerrors.Wrap(rerrors.KindSessionLaunch, fmt.Sprintf("launch %s", resolved.Backend), err)
	}
	return client, nil
}
