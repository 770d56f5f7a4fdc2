package storage

import (
	"encoding/json"
	"fmt"

	"github.com/guttosm/aumreport/internal/frame"
	"github.com/shopspring/decimal"
)

// encodeRow renders row i as a JSON array with one string per column;
// nulls stay null and numbers keep their exact decimal text.
func encodeRow(f *frame.Frame, i int) ([]byte, error) {
	cols := f.Columns()
	cells := make([]*string, len(cols))
	for j, c := range cols {
		cell := f.Cell(i, c.Name)
		if !cell.Valid {
			continue
		}
		s := cell.Key(c.Kind)
		cells[j] = &s
	}
	return json.Marshal(cells)
}

func decodeRow(cols []frame.Column, raw []byte) ([]frame.Cell, error) {
	var values []*string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	if len(values) != len(cols) {
		return nil, fmt.Errorf("decode row: expected %d cells, got %d", len(cols), len(values))
	}
	out := make([]frame.Cell, len(cols))
	for j, c := range cols {
		v := values[j]
		switch {
		case v == nil:
			out[j] = frame.Null
		case c.Kind.Numeric():
			d, err := decimal.NewFromString(*v)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", c.Name, err)
			}
			out[j] = frame.Num(d)
		default:
			out[j] = frame.Str(*v)
		}
	}
	return out, nil
}
