// internal/browser/browser_test.go
package browser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chromedp/cdproto/cdp"

	rerrors "github.com/valpere/scormrunner/internal/errors"
)

func TestDefaultBrowserConfig(t *testing.T) {
	config := DefaultBrowserConfig()

	if config.Backend != BackendChromedp {
		t.Errorf("expected chromedp backend, got %q", config.Backend)
	}
	if config.Headless {
		t.Error("expected a visible browser by default")
	}
	if !config.StartMaximized {
		t.Error("expected the window to start maximized")
	}
}

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"id", "css", "link_text", "xpath", " XPath "} {
		if _, err := ParseStrategy(name); err != nil {
			t.Errorf("ParseStrategy(%q): %v", name, err)
		}
	}
	if _, err := ParseStrategy("name"); err == nil {
		t.Error("expected error for unsupported strategy")
	}
}

func TestLocatorString(t *testing.T) {
	loc := Locator{By: ByID, Value: "mainCPHolder_login1_username"}
	if got := loc.String(); got != `id="mainCPHolder_login1_username"` {
		t.Errorf("unexpected locator string %s", got)
	}
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Τα μαθήματά μου", "'Τα μαθήματά μου'"},
		{"it's", `"it's"`},
		{`a'b"c`, `concat('a', "'", 'b"c')`},
	}
	for _, tt := range tests {
		if got := xpathLiteral(tt.in); got != tt.want {
			t.Errorf("xpathLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestChromeQuery(t *testing.T) {
	sel, _, scoped := chromeQuery(Locator{By: ByID, Value: "n"}, nil)
	if sel != `[id="n"]` || !scoped {
		t.Errorf("id locator mapped to %s (scoped=%v)", sel, scoped)
	}

	sel, _, scoped = chromeQuery(Locator{By: ByLinkText, Value: "Τα μαθήματά μου"}, nil)
	if sel != "//a[normalize-space(.)='Τα μαθήματά μου']" || scoped {
		t.Errorf("link text locator mapped to %s (scoped=%v)", sel, scoped)
	}

	xpath := "//button[contains(@class, 'uikit-primary-button_next')]"
	sel, _, _ = chromeQuery(Locator{By: ByXPath, Value: xpath}, nil)
	if sel != xpath {
		t.Errorf("xpath must pass through unchanged, got %s", sel)
	}
}

func TestInScope(t *testing.T) {
	top := &cdp.Node{NodeID: 1, NodeType: cdp.NodeTypeDocument}
	iframe := &cdp.Node{NodeID: 2, NodeType: cdp.NodeTypeElement, NodeName: "IFRAME", Parent: top}
	inner := &cdp.Node{NodeID: 3, NodeType: cdp.NodeTypeDocument, Parent: iframe}
	iframe.ContentDocument = inner

	topButton := &cdp.Node{NodeID: 4, NodeType: cdp.NodeTypeElement, Parent: top}
	frameButton := &cdp.Node{NodeID: 5, NodeType: cdp.NodeTypeElement, Parent: inner}

	if !inScope(topButton, nil) || inScope(frameButton, nil) {
		t.Error("top-level lookups must only match the top document")
	}
	if inScope(topButton, iframe) || !inScope(frameButton, iframe) {
		t.Error("frame lookups must only match the frame document")
	}
	if !inScope(&cdp.Node{NodeID: 9}, iframe) {
		t.Error("detached nodes are accepted")
	}
}

func TestResolveBinaries(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	lookPath = func(name string) (string, error) {
		if name == "chromedriver" || name == "chromium" {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}

	resolved, err := ResolveBinaries(&BrowserConfig{Backend: "selenium"})
	if err != nil {
		t.Fatalf("selenium: %v", err)
	}
	if resolved.DriverPath != "/usr/bin/chromedriver" {
		t.Errorf("expected driver from PATH, got %q", resolved.DriverPath)
	}

	resolved, err = ResolveBinaries(&BrowserConfig{})
	if err != nil {
		t.Fatalf("chromedp: %v", err)
	}
	if resolved.Backend != BackendChromedp || resolved.ExecPath != "/usr/bin/chromium" {
		t.Errorf("unexpected resolution %+v", resolved)
	}
}

func TestResolveBinaries_Failures(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(string) (string, error) { return "", errors.New("not found") }

	tests := []struct {
		name   string
		config *BrowserConfig
	}{
		{"no chromedriver", &BrowserConfig{Backend: BackendSelenium}},
		{"missing driver path", &BrowserConfig{Backend: BackendSelenium, DriverPath: filepath.Join(t.TempDir(), "chromedriver")}},
		{"missing chrome path", &BrowserConfig{Backend: BackendChromedp, ExecPath: filepath.Join(t.TempDir(), "chrome")}},
		{"unknown backend", &BrowserConfig{Backend: "firefox"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveBinaries(tt.config)
			if !rerrors.Is(err, rerrors.KindSessionLaunch) {
				t.Errorf("expected session launch error, got %v", err)
			}
		})
	}
}

func TestResolveBinaries_ExplicitPath(t *testing.T) {
	driver := filepath.Join(t.TempDir(), "chromedriver")
	if err := os.WriteFile(driver, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	resolved, err := ResolveBinaries(&BrowserConfig{Backend: BackendSelenium, DriverPath: driver})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.DriverPath != driver {
		t.Errorf("explicit path must win, got %q", resolved.DriverPath)
	}
}
