// internal/output/types.go
package output

import (
	"time"

	"github.com/google/uuid"
)

// OutputFormat represents supported report formats
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatXLSX OutputFormat = "xlsx"
)

// ValidOutputFormats returns all valid output format values
func ValidOutputFormats() []OutputFormat {
	return []OutputFormat{FormatJSON, FormatYAML, FormatXLSX}
}

// Stop reasons recorded in a report.
const (
	StopDurationElapsed = "duration_elapsed"
	StopClickFailed     = "click_failed"
	StopCancelled       = "cancelled"
	StopNotStarted      = "not_started"
)

// CycleRecord is one click of the advance loop.
type CycleRecord struct {
	Cycle     int       `json:"cycle" yaml:"cycle"`
	ClickedAt time.Time `json:"clicked_at" yaml:"clicked_at"`
	URL       string    `json:"url,omitempty" yaml:"url,omitempty"`
}

// RunReport summarises one run from launch to teardown.
type RunReport struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Backend    string        `json:"backend" yaml:"backend"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Cycles     int           `json:"cycles" yaml:"cycles"`
	StopReason string        `json:"stop_reason" yaml:"stop_reason"`

	// AdvanceError is the click failure that ended the advance loop early.
	// It does not fail the run.
	AdvanceError string `json:"advance_error,omitempty" yaml:"advance_error,omitempty"`

	// ErrorKind and Error describe a run failure
	ErrorKind string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`

	Clicks []CycleRecord `json:"clicks,omitempty" yaml:"clicks,omitempty"`
}

// NewRunReport starts a report with a fresh run ID.
func NewRunReport(backend string, startedAt time.Time) *RunReport {
	return &RunReport{
		RunID:      uuid.NewString(),
		Backend:    backend,
		StartedAt:  startedAt,
		StopReason: StopNotStarted,
	}
}

// Finish stamps the end time and duration.
func (r *RunReport) Finish(at time.Time) {
	r.FinishedAt = at
	r.Duration = at.Sub(r.StartedAt)
}

// Failed reports whether the run ended with an error.
func (r *RunReport) Failed() bool {
	return r.Error != ""
}

// Writer writes a run report
type Writer interface {
	Write(report *RunReport) error
	Close() error
}
