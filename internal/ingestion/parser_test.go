package ingestion

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return p
}

type sheet struct {
	name string
	rows [][]any
}

// writeWorkbook stores the sheets in order, header row first.
func writeWorkbook(t *testing.T, path string, sheets ...sheet) {
	t.Helper()
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()
	for i, sh := range sheets {
		if i == 0 {
			if sh.name != "Sheet1" {
				if err := wb.SetSheetName("Sheet1", sh.name); err != nil {
					t.Fatalf("rename sheet: %v", err)
				}
			}
		} else if _, err := wb.NewSheet(sh.name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for j, row := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, j+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			r := row
			if err := wb.SetSheetRow(sh.name, cell, &r); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func TestReadCSV_TableDriven(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		wantErr  bool
		wantRows int
		wantCols []string
	}{
		{
			name:     "canonical english headers",
			content:  "date;code;name;category;scale;nav\n2025-03-14;P1;Alpha;Fixed income;1000;1.02\n",
			wantRows: 1,
			wantCols: []string{"date", "code", "name", "category", "scale", "nav"},
		},
		{
			name:     "chinese headers with bom",
			content:  "\ufeff日期;产品代码;产品名称;产品类型;规模;净值\n2025/03/14;P1;甲;固收;\"1,000.50\";1.02\n",
			wantRows: 1,
			wantCols: []string{"date", "code", "name", "category", "scale", "nav"},
		},
		{
			name:     "empty cells and short rows tolerated",
			content:  "code;scale;nav\nP1;;\nP2\n",
			wantRows: 2,
			wantCols: []string{"code", "scale", "nav"},
		},
		{
			name:     "blank lines skipped",
			content:  "code;scale\nP1;1\n;\nP2;2\n",
			wantRows: 2,
			wantCols: []string{"code", "scale"},
		},
		{
			name:     "duplicate column keeps first",
			content:  "code;产品代码;scale\nP1;X;1\n",
			wantRows: 1,
			wantCols: []string{"code", "scale"},
		},
		{
			name:     "unknown header kept as text",
			content:  "code;manager\nP1;Zhang\n",
			wantRows: 1,
			wantCols: []string{"code", "manager"},
		},
		{name: "invalid scale", content: "code;scale\nP1;abc\n", wantErr: true},
		{name: "invalid date", content: "date;code\nyesterday;P1\n", wantErr: true},
		{name: "empty input", content: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ReadCSV(strings.NewReader(tc.content))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if f.Len() != tc.wantRows {
				t.Fatalf("rows: want %d got %d", tc.wantRows, f.Len())
			}
			if got := strings.Join(f.Names(), ","); got != strings.Join(tc.wantCols, ",") {
				t.Fatalf("columns: want %v got %s", tc.wantCols, got)
			}
		})
	}
}

func TestReadCSV_TypedCells(t *testing.T) {
	content := "日期;产品代码;规模;净值\n2025/3/14;P1;\"1,000.50\";\n"
	f, err := ReadCSV(strings.NewReader(content))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := f.Cell(0, models.ColDate).Str; got != "2025-03-14" {
		t.Fatalf("date not normalized: %q", got)
	}
	if c, _ := f.Column(models.ColScale); c.Kind != frame.Currency {
		t.Fatalf("scale kind: %v", c.Kind)
	}
	if got := f.Cell(0, models.ColScale).Num; !got.Equal(decimal.RequireFromString("1000.5")) {
		t.Fatalf("scale: %s", got)
	}
	if f.Cell(0, models.ColNAV).Valid {
		t.Fatalf("empty nav should be null")
	}
}

func TestReadCSV_ErrorNamesLine(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("code;scale\nP1;1\nP2;x\n"))
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected error naming line 3, got %v", err)
	}
}

func TestParseDecimal_TableDriven(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1234.56", want: "1234.56"},
		{in: "1,234.56", want: "1234.56"},
		{in: "1.234,56", want: "1234.56"},
		{in: "10,5", want: "10.5"},
		{in: "1,234", want: "1234"},
		{in: "1,234,567", want: "1234567"},
		{in: "12.5%", want: "0.125"},
		{in: "-3%", want: "-0.03"},
		{in: "¥ 2,000", want: "2000"},
		{in: " 7 ", want: "7"},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDecimal(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("want %s got %s", tc.want, got)
			}
		})
	}
}

func TestParseDate_TableDriven(t *testing.T) {
	want := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in      string
		wantErr bool
	}{
		{in: "2025-03-14"},
		{in: "2025/03/14"},
		{in: "2025/3/14"},
		{in: "2025.03.14"},
		{in: "20250314"},
		{in: "2025-03-14 15:00:00"},
		{in: "2025-03-14T09:30:00+08:00"},
		{in: "45730"}, // Excel serial
		{in: "next friday", wantErr: true},
		{in: "-5", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDate(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !got.Equal(want) {
				t.Fatalf("want %v got %v", want, got)
			}
		})
	}
}

func TestReadWorkbookFile_PicksSheetByKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.xlsx")
	writeWorkbook(t, path,
		sheet{name: "运作概览", rows: [][]any{
			{"日期", "产品代码", "产品名称", "产品类型", "规模", "净值"},
			{"2025-03-14", "P1", "Alpha", "固收", 1000.5, 1.0312},
			{"2025-03-14", "P2", "Beta", "权益", 250, ""},
		}},
		sheet{name: "持仓明细", rows: [][]any{
			{"日期", "产品代码", "资产类型", "持仓比例", "市值"},
			{"2025-03-14", "P1", "股票", 0.4, 400},
		}},
	)

	positions, err := ReadWorkbookFile(path, models.Positions)
	if err != nil {
		t.Fatalf("positions: %v", err)
	}
	if positions.Len() != 2 || !positions.Has(models.ColNAV) {
		t.Fatalf("unexpected positions: rows=%d cols=%v", positions.Len(), positions.Names())
	}
	if !positions.Sum(models.ColScale).Equal(decimal.RequireFromString("1250.5")) {
		t.Fatalf("scale sum: %s", positions.Sum(models.ColScale))
	}

	holdings, err := ReadWorkbookFile(path, models.Holdings)
	if err != nil {
		t.Fatalf("holdings: %v", err)
	}
	if holdings.Len() != 1 || holdings.Cell(0, models.ColAssetType).Str != "股票" {
		t.Fatalf("unexpected holdings")
	}

	// channel workbooks use their first sheet
	channels, err := ReadWorkbookFile(path, models.Channels)
	if err != nil {
		t.Fatalf("channels: %v", err)
	}
	if channels.Len() != 2 {
		t.Fatalf("channels should read the first sheet, got %d rows", channels.Len())
	}
}

func TestReadWorkbook_MissingSheetIsMissingSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.xlsx")
	writeWorkbook(t, path, sheet{name: "Sheet1", rows: [][]any{
		{"code", "channel_name", "scale"},
		{"P1", "Bank A", 10},
	}})
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := ReadWorkbook(bytes.NewReader(raw), models.Holdings); err == nil || !strings.Contains(err.Error(), models.ErrMissingSnapshot.Error()) {
		t.Fatalf("expected missing snapshot error, got %v", err)
	}
	f, err := ReadWorkbook(bytes.NewReader(raw), models.Channels)
	if err != nil {
		t.Fatalf("channels: %v", err)
	}
	if f.Cell(0, models.ColChannelName).Str != "Bank A" {
		t.Fatalf("channel name not mapped")
	}
}

func TestReadWorkbookFile_NotAWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "broken.xlsx", "not a zip")
	if _, err := ReadWorkbookFile(path, models.Positions); err == nil {
		t.Fatalf("expected error")
	}
}
