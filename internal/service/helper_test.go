package service

import (
	"testing"

	"github.com/guttosm/aumreport/internal/frame"
	"github.com/shopspring/decimal"
)

var positionCols = []frame.Column{
	{Name: "code", Kind: frame.Text},
	{Name: "name", Kind: frame.Text},
	{Name: "category", Kind: frame.Text},
	{Name: "scale", Kind: frame.Currency},
	{Name: "nav", Kind: frame.Number},
}

var channelCols = []frame.Column{
	{Name: "code", Kind: frame.Text},
	{Name: "name", Kind: frame.Text},
	{Name: "channel_name", Kind: frame.Text},
	{Name: "scale", Kind: frame.Currency},
}

var holdingCols = []frame.Column{
	{Name: "code", Kind: frame.Text},
	{Name: "asset_type", Kind: frame.Text},
	{Name: "holding_ratio", Kind: frame.Number},
	{Name: "market_value", Kind: frame.Currency},
}

// table builds a frame from string rows; "" is null, numeric columns parse
// as decimals.
func table(t *testing.T, cols []frame.Column, rows ...[]string) *frame.Frame {
	t.Helper()
	f := frame.New(cols...)
	for _, r := range rows {
		cells := make([]frame.Cell, len(cols))
		for j, c := range cols {
			switch {
			case r[j] == "":
				cells[j] = frame.Null
			case c.Kind == frame.Text:
				cells[j] = frame.Str(r[j])
			default:
				cells[j] = frame.Dec(r[j])
			}
		}
		if err := f.Append(cells...); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: want %s got %s", what, want, got)
	}
}

// sampleCurrent is the three-product scenario: cat1 150, cat2 150.
func sampleCurrent(t *testing.T) *frame.Frame {
	return table(t, positionCols,
		[]string{"A", "Alpha", "cat1", "100", "1.00"},
		[]string{"B", "Beta", "cat1", "50", "1.10"},
		[]string{"C", "Gamma", "cat2", "150", "0.95"},
	)
}
