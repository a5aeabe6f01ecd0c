// internal/output/manager.go
package output

import (
	"fmt"

	"github.com/valpere/scormrunner/internal/config"
)

// Config selects the report format and destination
type Config struct {
	Format OutputFormat
	File   string
}

// Manager writes run reports in the configured format
type Manager struct {
	config *Config
}

// NewManager creates a new output manager
func NewManager(cfg *config.ReportConfig) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("report configuration is required")
	}

	config := &Config{
		Format: OutputFormat(cfg.Format),
		File:   cfg.File,
	}
	if config.Format == "" {
		config.Format = FormatJSON
	}
	if config.File == "" {
		return nil, fmt.Errorf("report file is required")
	}

	return &Manager{
		config: config,
	}, nil
}

// GetWriter returns the appropriate writer for the configured format
func (m *Manager) GetWriter() (Writer, error) {
	switch m.config.Format {
	case FormatJSON:
		return NewJSONWriter(m.config.File)
	case FormatYAML:
		return NewYAMLWriter(YAMLConfig{FilePath: m.config.File, IncludeMetadata: true})
	case FormatXLSX:
		return NewExcelWriter(ExcelConfig{FilePath: m.config.File})
	default:
		return nil, fmt.Errorf("unsupported output format: %s", m.config.Format)
	}
}

// Write writes the report using the configured format
func (m *Manager) Write(report *RunReport) (err error) {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	writer, err := m.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get writer: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close writer: %w", cerr)
		}
	}()

	return writer.Write(report)
}

// File returns the report destination
func (m *Manager) File() string {
	return m.config.File
}
