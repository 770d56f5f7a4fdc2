package present

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/guttosm/aumreport/internal/dates"
	"github.com/guttosm/aumreport/internal/service"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "summary"

// WorkbookName is the file name of the report for date.
func WorkbookName(date time.Time) string {
	return "report_" + dates.Format(date) + ".xlsx"
}

// WriteWorkbook writes r to dir as report_<date>.xlsx and returns the
// file path. The first sheet summarizes the run; every computed section
// gets its own sheet with the rendered table followed by its warnings and
// notes.
func WriteWorkbook(dir string, r *service.Report, currency string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("header style: %w", err)
	}

	if err := wb.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", err
	}
	if err := writeSummary(wb, r, bold); err != nil {
		return "", err
	}

	for _, sec := range r.Sections {
		if _, err := wb.NewSheet(sec.Name); err != nil {
			return "", fmt.Errorf("sheet %s: %w", sec.Name, err)
		}
		t := Render(sec.Table, currency)
		rows := make([][]string, 0, len(t.Rows)+len(sec.Warnings)+len(sec.Notes)+3)
		rows = append(rows, t.Header)
		rows = append(rows, t.Rows...)
		if len(sec.Warnings)+len(sec.Notes) > 0 {
			rows = append(rows, nil)
		}
		for _, w := range sec.Warnings {
			rows = append(rows, []string{"warning", w})
		}
		for _, n := range sec.Notes {
			rows = append(rows, []string{"note", n})
		}
		if err := writeRows(wb, sec.Name, rows); err != nil {
			return "", err
		}
		if err := styleHeader(wb, sec.Name, len(t.Header), bold); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, WorkbookName(r.Date))
	if err := wb.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func writeSummary(wb *excelize.File, r *service.Report, style int) error {
	rows := [][]string{
		{"report_date", dates.Format(r.Date)},
		nil,
		{"section", "title", "status", "error"},
	}
	for _, sec := range r.Sections {
		rows = append(rows, []string{sec.Name, sec.Title, "ok", ""})
	}
	for _, f := range r.Failures {
		rows = append(rows, []string{f.Section, "", "failed", f.Cause.Error()})
	}
	if len(r.Warnings) > 0 {
		rows = append(rows, nil)
	}
	for _, w := range r.Warnings {
		rows = append(rows, []string{"warning", w})
	}
	if err := writeRows(wb, summarySheet, rows); err != nil {
		return err
	}
	return wb.SetCellStyle(summarySheet, "A3", "D3", style)
}

func writeRows(wb *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func styleHeader(wb *excelize.File, sheet string, width, style int) error {
	if width == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(width, 1)
	if err != nil {
		return err
	}
	return wb.SetCellStyle(sheet, "A1", last, style)
}
