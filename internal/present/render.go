package present

import (
	"github.com/guttosm/aumreport/internal/frame"
)

// Table is a rendered frame: display strings only.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Render formats every cell of f by the kind of its column. Currency and
// percent columns go through FormatCurrency and FormatPercent, so their
// nulls render as zero; null text and number cells render empty.
func Render(f *frame.Frame, currency string) Table {
	cols := f.Columns()
	t := Table{Header: f.Names(), Rows: make([][]string, 0, f.Len())}
	for i := 0; i < f.Len(); i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = renderCell(f.Cell(i, c.Name), c.Kind, currency)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func renderCell(c frame.Cell, kind frame.Kind, currency string) string {
	switch kind {
	case frame.Currency:
		return FormatCurrency(c.Decimal(), currency)
	case frame.Percent:
		return FormatPercent(c.Decimal())
	case frame.Number:
		if !c.Valid {
			return ""
		}
		return c.Num.String()
	default:
		return c.Str
	}
}
