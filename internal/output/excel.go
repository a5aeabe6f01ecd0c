// internal/output/excel.go
package output

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelWriter writes the report as a workbook with a summary sheet and one
// row per advance cycle.
type ExcelWriter struct {
	file   *excelize.File
	config ExcelConfig
}

// ExcelConfig configuration for Excel output
type ExcelConfig struct {
	FilePath     string `json:"file"`
	SummarySheet string `json:"summary_sheet"`
	CyclesSheet  string `json:"cycles_sheet"`
	DateFormat   string `json:"date_format"`
}

// NewExcelWriter creates a new Excel writer
func NewExcelWriter(config ExcelConfig) (*ExcelWriter, error) {
	if err := ValidateExcelConfig(config); err != nil {
		return nil, err
	}

	if config.SummarySheet == "" {
		config.SummarySheet = "Run"
	}
	if config.CyclesSheet == "" {
		config.CyclesSheet = "Cycles"
	}
	if config.DateFormat == "" {
		config.DateFormat = "yyyy-mm-dd hh:mm:ss"
	}

	file := excelize.NewFile()

	// Rename the default sheet
	if defaultSheet := file.GetSheetName(0); defaultSheet != config.SummarySheet {
		if err := file.SetSheetName(defaultSheet, config.SummarySheet); err != nil {
			return nil, fmt.Errorf("failed to rename sheet: %w", err)
		}
	}

	return &ExcelWriter{file: file, config: config}, nil
}

// Write fills both sheets. The workbook is saved on Close.
func (w *ExcelWriter) Write(report *RunReport) error {
	headerStyle, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
	})
	if err != nil {
		return err
	}

	dateFormat := w.config.DateFormat
	dateStyle, err := w.file.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return err
	}

	if err := w.writeSummary(report, headerStyle, dateStyle); err != nil {
		return fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := w.writeCycles(report, headerStyle, dateStyle); err != nil {
		return fmt.Errorf("failed to write cycles sheet: %w", err)
	}
	return nil
}

func (w *ExcelWriter) writeSummary(report *RunReport, headerStyle, dateStyle int) error {
	sheet := w.config.SummarySheet

	rows := [][2]interface{}{
		{"Run ID", report.RunID},
		{"Backend", report.Backend},
		{"Started", report.StartedAt},
		{"Finished", report.FinishedAt},
		{"Duration", report.Duration.String()},
		{"Cycles", report.Cycles},
		{"Stop reason", report.StopReason},
		{"Advance error", report.AdvanceError},
		{"Error kind", report.ErrorKind},
		{"Error", report.Error},
	}

	for i, row := range rows {
		r := i + 1
		label := columnName(1) + fmt.Sprint(r)
		value := columnName(2) + fmt.Sprint(r)

		if err := w.file.SetCellValue(sheet, label, row[0]); err != nil {
			return err
		}
		if err := w.file.SetCellStyle(sheet, label, label, headerStyle); err != nil {
			return err
		}
		if err := w.file.SetCellValue(sheet, value, row[1]); err != nil {
			return err
		}
		if r == 3 || r == 4 {
			if err := w.file.SetCellStyle(sheet, value, value, dateStyle); err != nil {
				return err
			}
		}
	}

	if err := w.file.SetColWidth(sheet, "A", "A", 14); err != nil {
		return err
	}
	return w.file.SetColWidth(sheet, "B", "B", 40)
}

func (w *ExcelWriter) writeCycles(report *RunReport, headerStyle, dateStyle int) error {
	sheet := w.config.CyclesSheet
	if _, err := w.file.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Cycle", "Clicked at", "URL"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if err := w.file.SetCellStyle(sheet, "A1", columnName(len(headers))+"1", headerStyle); err != nil {
		return err
	}

	for i, rec := range report.Clicks {
		row := i + 2
		values := []interface{}{rec.Cycle, rec.ClickedAt, rec.URL}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		cell := fmt.Sprintf("B%d", row)
		if err := w.file.SetCellStyle(sheet, cell, cell, dateStyle); err != nil {
			return err
		}
	}

	if err := w.file.SetColWidth(sheet, "B", "B", 20); err != nil {
		return err
	}
	if err := w.file.SetColWidth(sheet, "C", "C", 60); err != nil {
		return err
	}

	// Freeze the header row
	return w.file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// Close saves the workbook
func (w *ExcelWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.SaveAs(w.config.FilePath)
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}

// columnName converts a column number to Excel column name (A, B, C, ..., AA, AB, etc.)
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}

// ValidateExcelConfig validates Excel configuration
func ValidateExcelConfig(config ExcelConfig) error {
	if config.FilePath == "" {
		return fmt.Errorf("file path is required")
	}

	if !strings.HasSuffix(strings.ToLower(config.FilePath), ".xlsx") {
		return fmt.Errorf("file path must end with .xlsx")
	}

	return nil
}
