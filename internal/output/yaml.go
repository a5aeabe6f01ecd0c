// internal/output/yaml.go
package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultGeneratorName is the default generator name for metadata
	DefaultGeneratorName = "scormrunner"
)

// YAMLWriter implements the Writer interface for YAML output
type YAMLWriter struct {
	file    *os.File
	encoder *yaml.Encoder
	config  YAMLConfig
}

// YAMLConfig configuration for YAML output
type YAMLConfig struct {
	FilePath         string `json:"file"`
	Indent           int    `json:"indent"`
	GeneratorName    string `json:"generator_name"`
	GeneratorVersion string `json:"generator_version"`
	IncludeMetadata  bool   `json:"include_metadata"`
}

type yamlMetadata struct {
	Generator   string    `yaml:"generator"`
	Version     string    `yaml:"version"`
	GeneratedAt time.Time `yaml:"generated_at"`
}

type yamlDocument struct {
	Metadata *yamlMetadata `yaml:"metadata,omitempty"`
	Report   *RunReport    `yaml:"report"`
}

// NewYAMLWriter creates a new YAML writer
func NewYAMLWriter(config YAMLConfig) (*YAMLWriter, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("YAML file path is required")
	}

	file, err := os.Create(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create YAML file: %w", err)
	}

	w := newYAMLWriter(file, config)
	w.file = file
	return w, nil
}

// NewYAMLStreamWriter writes to out, which the caller closes
func NewYAMLStreamWriter(out io.Writer, config YAMLConfig) *YAMLWriter {
	return newYAMLWriter(out, config)
}

func newYAMLWriter(out io.Writer, config YAMLConfig) *YAMLWriter {
	if config.Indent == 0 {
		config.Indent = 2
	}
	if config.GeneratorName == "" {
		config.GeneratorName = DefaultGeneratorName
	}
	if config.GeneratorVersion == "" {
		config.GeneratorVersion = "dev"
	}

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(config.Indent)

	return &YAMLWriter{encoder: encoder, config: config}
}

// Write writes the report as a single YAML document
func (w *YAMLWriter) Write(report *RunReport) error {
	doc := yamlDocument{Report: report}
	if w.config.IncludeMetadata {
		doc.Metadata = &yamlMetadata{
			Generator:   w.config.GeneratorName,
			Version:     w.config.GeneratorVersion,
			GeneratedAt: time.Now().UTC(),
		}
	}

	if err := w.encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}

// Close closes the YAML writer and finalizes the file
func (w *YAMLWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		return err
	}
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
