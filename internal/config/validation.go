// internal/config/validation.go - Validation with detailed error messages
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	rerrors "github.com/valpere/scormrunner/internal/errors"
)

// ValidationError represents a detailed validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

func (r *ValidationResult) add(field, value, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
}

var knownStrategies = map[string]bool{
	"id":        true,
	"css":       true,
	"link_text": true,
	"xpath":     true,
}

var knownLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the whole configuration and reports every problem at once.
// The returned error is classified as KindConfig.
func (c *Config) Validate() error {
	result := c.Check()
	if len(result.Errors) > 0 {
		return rerrors.Wrap(rerrors.KindConfig, "validate configuration", formatValidationError(result))
	}
	return nil
}

// Check runs every validation rule and returns the collected result.
func (c *Config) Check() *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]ValidationError, 0),
		Warnings: make([]string, 0),
	}

	c.validatePortal(result)
	c.validateBrowser(result)
	c.validateSelectors(result)
	c.validateTiming(result)
	c.validateAmbient(result)

	return result
}

func (c *Config) validatePortal(result *ValidationResult) {
	if c.Portal.URL == "" {
		result.add("portal.url", "", "Portal URL is required (set "+EnvPortalURL+")")
	} else {
		u, err := url.Parse(c.Portal.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			result.add("portal.url", c.Portal.URL, "Portal URL must be an absolute http(s) URL")
		}
	}

	if c.Portal.Username == "" {
		result.add("portal.username", "", "Username is required (set "+EnvUsername+")")
	}
	if c.Portal.Password == "" {
		result.add("portal.password", "", "Password is required (set "+EnvPassword+")")
	}
}

func (c *Config) validateBrowser(result *ValidationResult) {
	switch c.Browser.Backend {
	case BackendChromedp, BackendSelenium:
	default:
		result.add("browser.backend", c.Browser.Backend, "Backend must be 'chromedp' or 'selenium'")
	}

	if c.Browser.DriverPort < 0 || c.Browser.DriverPort > 65535 {
		result.add("browser.driver_port", fmt.Sprint(c.Browser.DriverPort), "Driver port must be between 0 and 65535")
	}
	if c.Browser.Headless && c.Browser.StartMaximized {
		result.Warnings = append(result.Warnings, "browser.start_maximized has no visible effect in headless mode")
	}
}

func (c *Config) validateSelectors(result *ValidationResult) {
	for _, named := range c.Selectors.Named() {
		field := "selectors." + named.Name
		if !knownStrategies[named.Locator.By] {
			result.add(field+".by", named.Locator.By, "Locator strategy must be one of id, css, link_text, xpath")
		}
		if strings.TrimSpace(named.Locator.Value) == "" {
			result.add(field+".value", "", "Locator value cannot be empty")
		}
	}
}

func (c *Config) validateTiming(result *ValidationResult) {
	checks := []struct {
		field string
		value time.Duration
	}{
		{"wait.timeout", c.Wait.Timeout},
		{"wait.poll_interval", c.Wait.PollInterval},
		{"wait.window_timeout", c.Wait.WindowTimeout},
		{"advance.duration", c.Advance.Duration},
		{"advance.click_timeout", c.Advance.ClickTimeout},
		{"advance.interval", c.Advance.Interval},
		{"browser.launch_timeout", c.Browser.LaunchTimeout},
	}

	for _, check := range checks {
		if check.value <= 0 {
			result.add(check.field, check.value.String(), "Duration must be positive")
		}
	}

	if c.Wait.PollInterval > c.Wait.Timeout && c.Wait.Timeout > 0 {
		result.Warnings = append(result.Warnings, "wait.poll_interval is longer than wait.timeout; each wait makes a single attempt")
	}
}

func (c *Config) validateAmbient(result *ValidationResult) {
	if !knownLogLevels[strings.ToLower(c.Logging.Level)] {
		result.add("logging.level", c.Logging.Level, "Log level must be one of debug, info, warn, error")
	}
	if c.Logging.File == "" && !c.Logging.Console {
		result.Warnings = append(result.Warnings, "logging has no file and no console output; the run will be silent")
	}

	if c.Metrics.Enabled {
		if c.Metrics.ListenAddress == "" {
			result.add("metrics.listen_address", "", "Listen address is required when metrics are enabled")
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			result.add("metrics.path", c.Metrics.Path, "Metrics path must start with '/'")
		}
	}

	if c.Report.Enabled {
		switch c.Report.Format {
		case "json", "yaml", "xlsx":
		default:
			result.add("report.format", c.Report.Format, "Report format must be 'json', 'yaml' or 'xlsx'")
		}
		if c.Report.File == "" {
			result.add("report.file", "", "Report file is required when the report is enabled")
		} else if c.Report.Format == "xlsx" && !strings.HasSuffix(strings.ToLower(c.Report.File), ".xlsx") {
			result.add("report.file", c.Report.File, "An xlsx report file must end with .xlsx")
		}
	}
}

// NamedLocator pairs a locator with its configuration key.
type NamedLocator struct {
	Name    string
	Locator LocatorConfig
}

// Named returns the selectors in navigation order.
func (s SelectorConfig) Named() []NamedLocator {
	return []NamedLocator{
		{"username", s.Username},
		{"password", s.Password},
		{"login_button", s.LoginButton},
		{"training_button", s.TrainingButton},
		{"elearning_link", s.ELearningLink},
		{"my_courses_link", s.MyCoursesLink},
		{"course_card", s.CourseCard},
		{"scorm_link", s.ScormLink},
		{"player_launch", s.PlayerLaunch},
		{"player_frame", s.PlayerFrame},
		{"next_button", s.NextButton},
	}
}

// formatValidationError creates a comprehensive error message
func formatValidationError(result *ValidationResult) error {
	var errorMsg strings.Builder

	errorMsg.WriteString("configuration validation failed:\n")

	for i, err := range result.Errors {
		errorMsg.WriteString(fmt.Sprintf("  %d. %s", i+1, err.Message))
		if err.Field != "" {
			errorMsg.WriteString(fmt.Sprintf(" (field: %s)", err.Field))
		}
		if err.Value != "" {
			errorMsg.WriteString(fmt.Sprintf(" (value: %s)", err.Value))
		}
		errorMsg.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		errorMsg.WriteString("\nWarnings:\n")
		for i, warning := range result.Warnings {
			errorMsg.WriteString(fmt.Sprintf("  %d. %s\n", i+1, warning))
		}
	}

	return fmt.Errorf("%s", errorMsg.String())
}
