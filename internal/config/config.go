// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is read when SCORMRUNNER_CONFIG is not set and the file exists.
	DefaultConfigFile = "scormrunner.yaml"

	// DefaultLogFile is the append-only log written next to the working directory.
	DefaultLogFile = "scormrunner.log"
)

// Environment variables consulted by ApplyEnv and Load.
const (
	EnvConfigFile = "SCORMRUNNER_CONFIG"
	EnvPortalURL  = "SCORMRUNNER_PORTAL_URL"
	EnvUsername   = "SCORMRUNNER_USERNAME"
	EnvPassword   = "SCORMRUNNER_PASSWORD"
	EnvBackend    = "SCORMRUNNER_BACKEND"
	EnvLogLevel   = "SCORMRUNNER_LOG_LEVEL"
	EnvHeadless   = "SCORMRUNNER_HEADLESS"
	EnvDriverPath = "SCORMRUNNER_DRIVER_PATH"
)

// Default returns the configuration of the fixed portal path. Credentials
// and the portal URL are left empty and must come from a file or the
// environment.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Backend:        BackendChromedp,
			Headless:       false,
			StartMaximized: true,
			LaunchTimeout:  60 * time.Second,
		},
		Selectors: SelectorConfig{
			Username:       LocatorConfig{By: "id", Value: "mainCPHolder_login1_username"},
			Password:       LocatorConfig{By: "id", Value: "mainCPHolder_login1_password"},
			LoginButton:    LocatorConfig{By: "id", Value: "mainCPHolder_login1_btnLogin"},
			TrainingButton: LocatorConfig{By: "id", Value: "mainCPHolder_relPersonHome_btnTraineeTraining"},
			ELearningLink:  LocatorConfig{By: "css", Value: "a[title='Μετάβαση σε τηλεκατάρτιση']"},
			MyCoursesLink:  LocatorConfig{By: "link_text", Value: "Τα μαθήματά μου"},
			CourseCard:     LocatorConfig{By: "css", Value: "div.card-img.dashboard-card-img"},
			ScormLink:      LocatorConfig{By: "css", Value: "a[href*='mod/scorm/view.php?id=328']"},
			PlayerLaunch:   LocatorConfig{By: "id", Value: "n"},
			PlayerFrame:    LocatorConfig{By: "xpath", Value: "//iframe[@id='scorm_object']"},
			NextButton:     LocatorConfig{By: "xpath", Value: "//button[contains(@class, 'uikit-primary-button_next')]"},
		},
		Wait: WaitConfig{
			Timeout:       10 * time.Second,
			PollInterval:  500 * time.Millisecond,
			WindowTimeout: 10 * time.Second,
		},
		Advance: AdvanceConfig{
			Duration:     4 * time.Hour,
			ClickTimeout: 10 * time.Second,
			Interval:     35 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "debug",
			File:    DefaultLogFile,
			Console: true,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9090",
			Path:          "/metrics",
		},
		Report: ReportConfig{
			Enabled: false,
			Format:  "json",
		},
	}
}

// Load resolves the configuration for a run: .env, then the YAML file, then
// environment overrides, then validation.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg *Config
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = Default()
		applyDefaults(cfg)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML over Default(). ${VAR} references are expanded
// first. The result is not validated; environment overrides may still fill
// required fields.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// SaveToWriter writes configuration as YAML
func SaveToWriter(cfg *Config, writer io.Writer) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if writer == nil {
		return fmt.Errorf("writer cannot be nil")
	}

	enc := yaml.NewEncoder(writer)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}
	return enc.Close()
}

// ApplyEnv overrides cfg with any SCORMRUNNER_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvPortalURL); v != "" {
		cfg.Portal.URL = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		cfg.Portal.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Portal.Password = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Browser.Backend = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvDriverPath); v != "" {
		cfg.Browser.DriverPath = v
	}
	if v := os.Getenv(EnvHeadless); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvHeadless, v, err)
		}
		cfg.Browser.Headless = headless
	}
	return nil
}

// GenerateTemplate returns a configuration suitable for `scormrunner template`.
// Credentials are left as environment references.
func GenerateTemplate() Config {
	cfg := *Default()
	cfg.Portal = PortalConfig{
		URL:      "${SCORMRUNNER_PORTAL_URL}",
		Username: "${SCORMRUNNER_USERNAME}",
		Password: "${SCORMRUNNER_PASSWORD}",
	}
	return cfg
}

// expandEnvironmentVariables substitutes ${VAR} references
func expandEnvironmentVariables(content string) string {
	return os.ExpandEnv(content)
}

// applyDefaults fills zero values that an explicit YAML null or 0 may have cleared
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Browser.Backend == "" {
		cfg.Browser.Backend = def.Browser.Backend
	}
	if cfg.Browser.LaunchTimeout == 0 {
		cfg.Browser.LaunchTimeout = def.Browser.LaunchTimeout
	}

	if cfg.Wait.Timeout == 0 {
		cfg.Wait.Timeout = def.Wait.Timeout
	}
	if cfg.Wait.PollInterval == 0 {
		cfg.Wait.PollInterval = def.Wait.PollInterval
	}
	if cfg.Wait.WindowTimeout == 0 {
		cfg.Wait.WindowTimeout = def.Wait.WindowTimeout
	}

	if cfg.Advance.Duration == 0 {
		cfg.Advance.Duration = def.Advance.Duration
	}
	if cfg.Advance.ClickTimeout == 0 {
		cfg.Advance.ClickTimeout = def.Advance.ClickTimeout
	}
	if cfg.Advance.Interval == 0 {
		cfg.Advance.Interval = def.Advance.Interval
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}

	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = def.Metrics.ListenAddress
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = def.Metrics.Path
	}

	if cfg.Report.Format == "" {
		cfg.Report.Format = def.Report.Format
	}
	if cfg.Report.File == "" {
		cfg.Report.File = "scormrunner-report." + cfg.Report.Format
	}
}
