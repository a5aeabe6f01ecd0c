// internal/output/json.go
package output

import (
	"encoding/json"
	"io"
	"os"
)

// JSONWriter writes the report in JSON format
type JSONWriter struct {
	out  io.Writer
	file *os.File
}

// NewJSONWriter creates a new JSON writer
func NewJSONWriter(filename string) (*JSONWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	return &JSONWriter{out: file, file: file}, nil
}

// NewJSONStreamWriter writes to w, which the caller closes
func NewJSONStreamWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{out: w}
}

// Write writes the report as one indented JSON document
func (w *JSONWriter) Write(report *RunReport) error {
	encoder := json.NewEncoder(w.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// Close closes the JSON writer
func (w *JSONWriter) Close() error {
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}
