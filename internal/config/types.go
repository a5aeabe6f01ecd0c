// internal/config/types.go

// Package config provides configuration types for scormrunner.
// It defines the portal target, the fixed selector chain, timing of the
// wait helper and the advance loop, and the ambient logging, metrics and
// report settings.
package config

import (
	"time"
)

// Config represents the complete configuration of a run.
type Config struct {
	// Portal identifies the learning portal and the account to log in with
	Portal PortalConfig `yaml:"portal" json:"portal"`

	// Browser selects and configures the automation backend
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Selectors locate every element the navigation sequence touches
	Selectors SelectorConfig `yaml:"selectors" json:"selectors"`

	// Wait configures the element-wait helper
	Wait WaitConfig `yaml:"wait" json:"wait"`

	// Advance configures the timed "next" loop inside the player
	Advance AdvanceConfig `yaml:"advance" json:"advance"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Report  ReportConfig  `yaml:"report" json:"report"`
}

// PortalConfig defines the target portal and credentials.
type PortalConfig struct {
	URL      string `yaml:"url" json:"url"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// BrowserConfig defines how the browser session is launched.
type BrowserConfig struct {
	// Backend is "chromedp" (default) or "selenium"
	Backend        string        `yaml:"backend" json:"backend"`
	Headless       bool          `yaml:"headless" json:"headless"`
	StartMaximized bool          `yaml:"start_maximized" json:"start_maximized"`
	ExecPath       string        `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
	DriverPath     string        `yaml:"driver_path,omitempty" json:"driver_path,omitempty"`
	DriverPort     int           `yaml:"driver_port,omitempty" json:"driver_port,omitempty"`
	UserDataDir    string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	LaunchTimeout  time.Duration `yaml:"launch_timeout" json:"launch_timeout"`
}

// LocatorConfig is one element locator: a strategy plus its value.
type LocatorConfig struct {
	// By is one of: id, css, link_text, xpath
	By    string `yaml:"by" json:"by"`
	Value string `yaml:"value" json:"value"`
}

// SelectorConfig lists the locators of the navigation chain, in order.
type SelectorConfig struct {
	Username       LocatorConfig `yaml:"username" json:"username"`
	Password       LocatorConfig `yaml:"password" json:"password"`
	LoginButton    LocatorConfig `yaml:"login_button" json:"login_button"`
	TrainingButton LocatorConfig `yaml:"training_button" json:"training_button"`
	ELearningLink  LocatorConfig `yaml:"elearning_link" json:"elearning_link"`
	MyCoursesLink  LocatorConfig `yaml:"my_courses_link" json:"my_courses_link"`
	CourseCard     LocatorConfig `yaml:"course_card" json:"course_card"`
	ScormLink      LocatorConfig `yaml:"scorm_link" json:"scorm_link"`
	PlayerLaunch   LocatorConfig `yaml:"player_launch" json:"player_launch"`
	PlayerFrame    LocatorConfig `yaml:"player_frame" json:"player_frame"`
	NextButton     LocatorConfig `yaml:"next_button" json:"next_button"`
}

// WaitConfig configures the element-wait helper.
type WaitConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	PollInterval  time.Duration `yaml:"poll_interval" json:"poll_interval"`
	WindowTimeout time.Duration `yaml:"window_timeout" json:"window_timeout"`
}

// AdvanceConfig configures the advance loop.
type AdvanceConfig struct {
	Duration     time.Duration `yaml:"duration" json:"duration"`
	ClickTimeout time.Duration `yaml:"click_timeout" json:"click_timeout"`
	Interval     time.Duration `yaml:"interval" json:"interval"`
}

// LoggingConfig configures the log stream.
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	Console bool   `yaml:"console" json:"console"`
}

// MetricsConfig configures the optional prometheus endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	ListenAddress string `yaml:"listen_address" json:"listen_address"`
	Path          string `yaml:"path" json:"path"`
}

// ReportConfig configures the run report written at exit.
type ReportConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Format  string `yaml:"format" json:"format"`
	File    string `yaml:"file" json:"file"`
}

// Backend names.
const (
	BackendChromedp = "chromedp"
	BackendSelenium = "selenium"
)
