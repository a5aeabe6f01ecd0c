// internal/output/output_test.go
package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/valpere/scormrunner/internal/config"
)

func sampleReport() *RunReport {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	r := NewRunReport("chromedp", start)
	r.Cycles = 2
	r.StopReason = StopClickFailed
	r.AdvanceError = "wait: element not found"
	r.Clicks = []CycleRecord{
		{Cycle: 1, ClickedAt: start.Add(time.Minute), URL: "https://portal.example/mod/scorm/player.php"},
		{Cycle: 2, ClickedAt: start.Add(time.Minute + 35*time.Second), URL: "https://portal.example/mod/scorm/player.php"},
	}
	r.Finish(start.Add(2 * time.Minute))
	return r
}

func TestNewRunReport(t *testing.T) {
	r := NewRunReport("selenium", time.Now())
	if _, err := uuid.Parse(r.RunID); err != nil {
		t.Errorf("run ID %q is not a UUID: %v", r.RunID, err)
	}
	if r.StopReason != StopNotStarted || r.Failed() {
		t.Errorf("unexpected fresh report %+v", r)
	}

	other := NewRunReport("selenium", time.Now())
	if other.RunID == r.RunID {
		t.Error("expected distinct run IDs")
	}
}

func TestRunReport_Finish(t *testing.T) {
	r := sampleReport()
	if r.Duration != 2*time.Minute {
		t.Errorf("expected 2m duration, got %s", r.Duration)
	}
	if r.Failed() {
		t.Error("an advance failure must not fail the run")
	}
	r.Error = "navigation: boom"
	if !r.Failed() {
		t.Error("expected report with error to be failed")
	}
}

func TestJSONStreamWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONStreamWriter(&buf)
	if err := w.Write(sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["stop_reason"] != StopClickFailed {
		t.Errorf("unexpected stop_reason %v", decoded["stop_reason"])
	}
	if clicks, ok := decoded["clicks"].([]interface{}); !ok || len(clicks) != 2 {
		t.Errorf("expected 2 click records, got %v", decoded["clicks"])
	}
}

func TestYAMLStreamWriter_Metadata(t *testing.T) {
	var buf bytes.Buffer
	w := NewYAMLStreamWriter(&buf, YAMLConfig{IncludeMetadata: true, GeneratorVersion: "1.2.3"})
	if err := w.Write(sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var doc struct {
		Metadata map[string]interface{} `yaml:"metadata"`
		Report   map[string]interface{} `yaml:"report"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if doc.Metadata["generator"] != DefaultGeneratorName || doc.Metadata["version"] != "1.2.3" {
		t.Errorf("unexpected metadata %v", doc.Metadata)
	}
	if doc.Report["duration"] != "2m0s" {
		t.Errorf("expected readable duration, got %v", doc.Report["duration"])
	}
}

func TestExcelWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	w, err := NewExcelWriter(ExcelConfig{FilePath: path})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.Write(sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("Run", "B7"); v != StopClickFailed {
		t.Errorf("expected stop reason in B7, got %q", v)
	}
	rows, err := f.GetRows("Cycles")
	if err != nil {
		t.Fatalf("read cycles: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Cycle" || rows[2][0] != "2" {
		t.Errorf("unexpected cycle rows %v", rows)
	}
}

func TestValidateExcelConfig(t *testing.T) {
	if err := ValidateExcelConfig(ExcelConfig{}); err == nil {
		t.Error("expected error for missing path")
	}
	if err := ValidateExcelConfig(ExcelConfig{FilePath: "report.json"}); err == nil {
		t.Error("expected error for non-xlsx path")
	}
}

func TestManager_Write(t *testing.T) {
	dir := t.TempDir()

	for _, format := range ValidOutputFormats() {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(dir, "report."+string(format))
			m, err := NewManager(&config.ReportConfig{Enabled: true, Format: string(format), File: path})
			if err != nil {
				t.Fatalf("new manager: %v", err)
			}
			if err := m.Write(sampleReport()); err != nil {
				t.Fatalf("write: %v", err)
			}
			info, err := os.Stat(path)
			if err != nil || info.Size() == 0 {
				t.Errorf("expected non-empty report at %s: %v", path, err)
			}
		})
	}
}

func TestManager_Errors(t *testing.T) {
	if _, err := NewManager(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewManager(&config.ReportConfig{Format: "json"}); err == nil {
		t.Error("expected error for missing file")
	}

	m, err := NewManager(&config.ReportConfig{Format: "csv", File: filepath.Join(t.TempDir(), "r.csv")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	err = m.Write(sampleReport())
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}
