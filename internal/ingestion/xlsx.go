package ingestion

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/xuri/excelize/v2"
)

// ReadWorkbookFile reads the worksheet holding kind from an xlsx file.
func ReadWorkbookFile(path string, kind models.Kind) (*frame.Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readSheet(f, kind)
}

// ReadWorkbook is ReadWorkbookFile over an already opened stream.
func ReadWorkbook(r io.Reader, kind models.Kind) (*frame.Frame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readSheet(f, kind)
}

func readSheet(f *excelize.File, kind models.Kind) (*frame.Frame, error) {
	sheet, err := findSheet(f, kind)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s: %w", sheet, errEmptySheet)
	}
	out, err := buildFrame(rows[0], rows[1:])
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	return out, nil
}

var errEmptySheet = errors.New("no header row")

// findSheet picks the worksheet for kind by name, ignoring case. Kinds with
// no known sheet names use the first worksheet. A workbook without a
// matching sheet is a missing snapshot.
func findSheet(f *excelize.File, kind models.Kind) (string, error) {
	aliases, ok := sheetAliases[kind]
	if !ok {
		name := f.GetSheetName(0)
		if name == "" {
			return "", fmt.Errorf("workbook has no sheets: %w", models.ErrMissingSnapshot)
		}
		return name, nil
	}
	for _, name := range f.GetSheetList() {
		for _, a := range aliases {
			if strings.EqualFold(strings.TrimSpace(name), a) {
				return name, nil
			}
		}
	}
	return "", fmt.Errorf("no %s sheet (%s): %w", kind, strings.Join(aliases, ", "), models.ErrMissingSnapshot)
}
