// internal/browser/chromedp_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const portalPage = `<!DOCTYPE html>
<html><head><title>Login</title></head><body>
<input id="mainCPHolder_login1_username" type="text">
<a href="#courses"> Τα μαθήματά μου </a>
<button id="n" onclick="window.open('/player', 'player')">Launch</button>
</body></html>`

const playerPage = `<!DOCTYPE html>
<html><head><title>Player</title></head><body>
<iframe id="scorm_object" src="/content"></iframe>
</body></html>`

const contentPage = `<!DOCTYPE html>
<html><head><title>Content</title></head><body>
<button class="uikit-primary-button_next" onclick="this.textContent='advanced'">ΕΠΟΜΕΝΗ</button>
</body></html>`

func newPortalServer() *httptest.Server {
	pages := map[string]string{"/": portalPage, "/player": playerPage, "/content": contentPage}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
}

// TestChromeClient_PopupAndFrame drives a real browser through the popup and
// iframe handling. It is skipped when Chrome cannot be started.
func TestChromeClient_PopupAndFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	srv := newPortalServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := NewChromeClient(ctx, &BrowserConfig{Headless: true, LaunchTimeout: 20 * time.Second})
	if err != nil {
		t.Skipf("Skipping browser test - Chrome may not be available: %v", err)
	}
	defer client.Quit()

	if err := client.Navigate(ctx, srv.URL+"/"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	username, err := client.FindElement(ctx, Locator{By: ByID, Value: "mainCPHolder_login1_username"})
	if err != nil {
		t.Fatalf("username field: %v", err)
	}
	if err := username.SendKeys(ctx, "trainee"); err != nil {
		t.Fatalf("typing: %v", err)
	}

	if _, err := client.FindElement(ctx, Locator{By: ByLinkText, Value: "Τα μαθήματά μου"}); err != nil {
		t.Errorf("link text lookup: %v", err)
	}
	if _, err := client.FindElement(ctx, Locator{By: ByCSS, Value: "#missing"}); err != ErrNoSuchElement {
		t.Errorf("expected ErrNoSuchElement, got %v", err)
	}

	original, err := client.CurrentWindow(ctx)
	if err != nil {
		t.Fatal(err)
	}

	launch, err := client.FindElement(ctx, Locator{By: ByID, Value: "n"})
	if err != nil {
		t.Fatalf("launch control: %v", err)
	}
	if err := launch.Click(ctx); err != nil {
		t.Fatalf("launch click: %v", err)
	}

	waiter := NewWaiter(client, SystemClock{}, 100*time.Millisecond)
	handles, err := waiter.WaitForWindows(ctx, 2, 10*time.Second)
	if err != nil {
		t.Fatalf("popup: %v", err)
	}

	var popup string
	for _, h := range handles {
		if h != original {
			popup = h
		}
	}
	if err := client.SwitchWindow(ctx, popup); err != nil {
		t.Fatalf("switch to popup: %v", err)
	}

	frame, err := waiter.WaitForElement(ctx, Locator{By: ByXPath, Value: "//iframe[@id='scorm_object']"}, 10*time.Second)
	if err != nil {
		t.Fatalf("player frame: %v", err)
	}
	if err := client.EnterFrame(ctx, frame); err != nil {
		t.Fatalf("enter frame: %v", err)
	}

	next := Locator{By: ByXPath, Value: "//button[contains(@class, 'uikit-primary-button_next')]"}
	button, err := waiter.WaitForClickable(ctx, next, 10*time.Second)
	if err != nil {
		t.Fatalf("next control: %v", err)
	}
	if err := button.Click(ctx); err != nil {
		t.Fatalf("next click: %v", err)
	}

	source, err := client.PageSource(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(source, "advanced") {
		t.Errorf("expected the frame document to reflect the click, got %s", source)
	}

	if err := client.ExitFrame(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := client.FindElement(ctx, next); err != ErrNoSuchElement {
		t.Errorf("frame content must not be visible from the top-level document, got %v", err)
	}

	if err := client.CloseWindow(ctx); err != nil {
		t.Fatalf("close popup: %v", err)
	}
	if err := client.SwitchWindow(ctx, original); err != nil {
		t.Fatalf("switch back: %v", err)
	}
	if url, err := client.CurrentURL(ctx); err != nil || !strings.HasPrefix(url, srv.URL) {
		t.Errorf("unexpected URL after restore: %q %v", url, err)
	}
}
