package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/guttosm/aumreport/internal/dates"
	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/guttosm/aumreport/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are the date renderings accepted in date cells.
var dateLayouts = []string{
	dates.Layout,
	"2006/01/02",
	"2006/1/2",
	"2006.01.02",
	"20060102",
	"01-02-06",
	"1-2-06",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ReadCSVFile reads one snapshot table from a delimited file.
func ReadCSVFile(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

// ReadCSV parses a ';'-separated table whose first line is the header.
// It fails on:
//   - an empty header
//   - a malformed number or date cell
//
// It tolerates:
//   - empty cells and short rows (they become nulls)
//   - headers it does not know (kept as text columns)
func ReadCSV(r io.Reader) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line after %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return buildFrame(header, rows)
}

// buildFrame turns a header and raw rows into a typed frame. Headers are
// mapped to canonical names; a repeated column keeps its first occurrence.
func buildFrame(header []string, rows [][]string) (*frame.Frame, error) {
	var cols []frame.Column
	var src []int
	seen := map[string]bool{}
	for i, h := range header {
		name, _ := Canonical(h)
		if name == "" {
			continue
		}
		if seen[name] {
			logger.L().Warn().Str("column", name).Int("position", i+1).Msg("duplicate column ignored")
			continue
		}
		seen[name] = true
		cols = append(cols, frame.Column{Name: name, Kind: kindOf(name)})
		src = append(src, i)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("empty header")
	}

	out := frame.New(cols...)
	for n, rec := range rows {
		if blank(rec) {
			continue
		}
		cells := make([]frame.Cell, len(cols))
		for j, c := range cols {
			raw := ""
			if src[j] < len(rec) {
				raw = rec[src[j]]
			}
			cell, err := parseCell(c, raw)
			if err != nil {
				// header is line 1
				return nil, fmt.Errorf("line %d: %w", n+2, err)
			}
			cells[j] = cell
		}
		if err := out.Append(cells...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func blank(rec []string) bool {
	for _, s := range rec {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// parseCell is strict about format but tolerates empty cells.
func parseCell(c frame.Column, raw string) (frame.Cell, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return frame.Null, nil
	}
	if c.Name == models.ColDate {
		d, err := ParseDate(s)
		if err != nil {
			return frame.Null, fmt.Errorf("invalid %s: %v", c.Name, err)
		}
		return frame.Str(dates.Format(d)), nil
	}
	if !c.Kind.Numeric() {
		return frame.Str(s), nil
	}
	d, err := ParseDecimal(s)
	if err != nil {
		return frame.Null, fmt.Errorf("invalid %s: %v", c.Name, err)
	}
	return frame.Num(d), nil
}

// ParseDecimal parses a spreadsheet number. Thousands separators, a comma
// decimal separator and a trailing percent sign are accepted; "12.5%"
// reads as 0.125.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "¥", "", "￥", "").Replace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-comma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if percent {
		d = d.Div(decimal.NewFromInt(100))
	}
	return d, nil
}

// ParseDate accepts the common spreadsheet renderings of a date, and Excel
// serial day numbers.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			y, m, day := d.Date()
			return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		d, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		y, m, day := d.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
