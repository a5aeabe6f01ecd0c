// cmd/scormrunner/main_test.go
package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valpere/scormrunner/internal/config"
)

func TestCLIVersion(t *testing.T) {
	version = "test-version"
	buildTime = "2025-06-23"
	gitCommit = "abc123"

	output := captureOutput(func() {
		printVersion()
	})

	for _, want := range []string{"test-version", "2025-06-23", "abc123"} {
		if !strings.Contains(output, want) {
			t.Errorf("version output should contain %q, got: %s", want, output)
		}
	}
}

func TestCLIHelp(t *testing.T) {
	output := captureOutput(func() {
		printUsage()
	})

	for _, want := range []string{"validate", "template", "version", "help", config.EnvPassword, config.EnvConfigFile} {
		if !strings.Contains(output, want) {
			t.Errorf("help output should contain %q, got: %s", want, output)
		}
	}
}

func TestGenerateTemplate_RoundTrips(t *testing.T) {
	t.Setenv(config.EnvPortalURL, "https://portal.example.com/login.aspx")
	t.Setenv(config.EnvUsername, "trainee")
	t.Setenv(config.EnvPassword, "secret")

	template, err := generateTemplate()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(template, "secret") {
		t.Error("template must not contain credentials")
	}
	if !strings.Contains(template, "${SCORMRUNNER_PASSWORD}") {
		t.Errorf("expected credential placeholders, got:\n%s", template)
	}

	cfg, err := config.LoadFromBytes([]byte(template))
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expanded template should validate: %v", err)
	}
	if cfg.Selectors.MyCoursesLink.Value != "Τα μαθήματά μου" {
		t.Errorf("selector text changed in template: %q", cfg.Selectors.MyCoursesLink.Value)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	valid := filepath.Join(dir, "valid.yaml")
	writeFile(t, valid, `
portal:
  url: "https://portal.example.com/login.aspx"
  username: "trainee"
  password: "secret"
`)
	invalid := filepath.Join(dir, "invalid.yaml")
	writeFile(t, invalid, `
portal:
  url: "not a url"
browser:
  backend: firefox
`)
	broken := filepath.Join(dir, "broken.yaml")
	writeFile(t, broken, "portal: [unclosed")

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"valid file", valid, 0},
		{"invalid values", invalid, 2},
		{"unparseable file", broken, 2},
		{"missing file", filepath.Join(dir, "missing.yaml"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.EnvConfigFile, "")
			t.Setenv(config.EnvPortalURL, "")
			t.Setenv(config.EnvUsername, "")
			t.Setenv(config.EnvPassword, "")

			var code int
			captureOutput(func() {
				code = validateConfig(tt.path)
			})
			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
		})
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvPortalURL, "https://portal.example.com/login.aspx")
	t.Setenv(config.EnvUsername, "trainee")
	t.Setenv(config.EnvPassword, "secret")
	t.Setenv(config.EnvBackend, "selenium")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Browser.Backend != "selenium" || cfg.Portal.Username != "trainee" {
		t.Errorf("environment not applied: %+v", cfg.Portal)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// captureOutput captures stdout during function execution
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	f()
	w.Close()
	os.Stdout = old
	out := <-outC

	return out
}
