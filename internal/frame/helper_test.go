package frame

import "testing"

var testCols = []Column{
	{Name: "code", Kind: Text},
	{Name: "category", Kind: Text},
	{Name: "scale", Kind: Currency},
}

func mustFrame(t *testing.T, cols []Column, rows ...[]Cell) *Frame {
	t.Helper()
	f := New(cols...)
	for _, r := range rows {
		if err := f.Append(r...); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return f
}

func row(code, category, scale string) []Cell {
	s := Null
	if scale != "" {
		s = Dec(scale)
	}
	c := Null
	if category != "" {
		c = Str(category)
	}
	return []Cell{Str(code), c, s}
}
