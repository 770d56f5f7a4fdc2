// Package frame provides the in-memory table every report section reads and
// produces: ordered, typed columns over rows of nullable cells.
//
// A Frame is never mutated by the operations in this package; each one
// returns a new Frame so that snapshots handed in by callers stay intact.
package frame

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Kind tells consumers how a column is typed and how it should be rendered.
type Kind int

const (
	Text Kind = iota
	Number
	Currency
	Percent
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	case Currency:
		return "currency"
	case Percent:
		return "percent"
	default:
		return "unknown"
	}
}

// Numeric reports whether cells of this kind carry a decimal.
func (k Kind) Numeric() bool { return k != Text }

// Column is a named, typed column.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Cell is a nullable value. Text columns use Str, numeric columns use Num.
type Cell struct {
	Str   string
	Num   decimal.Decimal
	Valid bool
}

// Null is the missing cell.
var Null = Cell{}

func Str(s string) Cell { return Cell{Str: s, Valid: true} }

func Num(d decimal.Decimal) Cell { return Cell{Num: d, Valid: true} }

func Int(i int64) Cell { return Num(decimal.NewFromInt(i)) }

func Float(f float64) Cell { return Num(decimal.NewFromFloat(f)) }

func Bool(b bool) Cell { return Str(strconv.FormatBool(b)) }

// Dec parses s as a decimal and panics on malformed input; meant for literals.
func Dec(s string) Cell { return Num(decimal.RequireFromString(s)) }

func FromNull(d decimal.NullDecimal) Cell {
	if !d.Valid {
		return Null
	}
	return Num(d.Decimal)
}

// Decimal returns the numeric content of the cell.
func (c Cell) Decimal() decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: c.Num, Valid: c.Valid}
}

// Key renders the cell as it reads in a column of kind k; null cells
// render empty.
func (c Cell) Key(k Kind) string {
	if !c.Valid {
		return ""
	}
	if k == Text {
		return c.Str
	}
	return c.Num.String()
}

// Frame is an ordered set of typed columns over rows of cells.
type Frame struct {
	cols  []Column
	index map[string]int
	rows  [][]Cell
}

// New returns an empty frame with the given columns. Duplicate names panic.
func New(cols ...Column) *Frame {
	f := &Frame{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if _, dup := f.index[c.Name]; dup {
			panic("frame: duplicate column " + c.Name)
		}
		f.index[c.Name] = len(f.cols)
		f.cols = append(f.cols, c)
	}
	return f
}

// Columns returns a copy of the column list.
func (f *Frame) Columns() []Column {
	return append([]Column(nil), f.cols...)
}

// Names returns column names in order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name
	}
	return out
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) Column(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return Column{}, false
	}
	return f.cols[i], true
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rows)
}

// Append adds one row; the number of cells must match the column count.
func (f *Frame) Append(cells ...Cell) error {
	if len(cells) != len(f.cols) {
		return fmt.Errorf("append: expected %d cells, got %d", len(f.cols), len(cells))
	}
	f.rows = append(f.rows, append([]Cell(nil), cells...))
	return nil
}

// Cell returns the cell at row i of the named column, Null if the column
// does not exist.
func (f *Frame) Cell(i int, name string) Cell {
	j, ok := f.index[name]
	if !ok {
		return Null
	}
	return f.rows[i][j]
}

// Row returns a read-only view over row i.
func (f *Frame) Row(i int) Row { return Row{f: f, i: i} }

// Row is a read-only view of one frame row.
type Row struct {
	f *Frame
	i int
}

func (r Row) Index() int { return r.i }

func (r Row) Get(name string) Cell { return r.f.Cell(r.i, name) }

func (r Row) Text(name string) string { return r.Get(name).Str }

func (r Row) Decimal(name string) decimal.NullDecimal { return r.Get(name).Decimal() }

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.cols...)
	out.rows = make([][]Cell, len(f.rows))
	for i, r := range f.rows {
		out.rows[i] = append([]Cell(nil), r...)
	}
	return out
}

// Require returns a *SchemaError naming every requested column the frame
// lacks, in request order.
func (f *Frame) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if f == nil || !f.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Columns: missing}
	}
	return nil
}

// EnsureColumns returns a copy of f in which every listed column exists;
// absent ones are appended filled with Null. The names of the synthesized
// columns are returned so callers can report them.
func (f *Frame) EnsureColumns(cols ...Column) (*Frame, []string) {
	out := f.Clone()
	var missing []string
	for _, c := range cols {
		if out.Has(c.Name) {
			continue
		}
		missing = append(missing, c.Name)
		out.setColumn(c, func(Row) Cell { return Null })
	}
	return out, missing
}

// WithColumn returns a copy of f with the column computed by fn for every
// row. An existing column of the same name is replaced in place.
func (f *Frame) WithColumn(col Column, fn func(Row) Cell) *Frame {
	out := f.Clone()
	out.setColumn(col, fn)
	return out
}

func (f *Frame) setColumn(col Column, fn func(Row) Cell) {
	j, ok := f.index[col.Name]
	values := make([]Cell, len(f.rows))
	for i := range f.rows {
		values[i] = fn(Row{f: f, i: i})
	}
	if ok {
		f.cols[j] = col
		for i := range f.rows {
			f.rows[i][j] = values[i]
		}
		return
	}
	f.index[col.Name] = len(f.cols)
	f.cols = append(f.cols, col)
	for i := range f.rows {
		f.rows[i] = append(f.rows[i], values[i])
	}
}

// Select projects the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	if err := f.Require(names...); err != nil {
		return nil, err
	}
	cols := make([]Column, len(names))
	idx := make([]int, len(names))
	for k, n := range names {
		idx[k] = f.index[n]
		cols[k] = f.cols[idx[k]]
	}
	out := New(cols...)
	out.rows = make([][]Cell, len(f.rows))
	for i, r := range f.rows {
		row := make([]Cell, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		out.rows[i] = row
	}
	return out, nil
}

// Filter returns the rows for which keep is true.
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	out := New(f.cols...)
	for i, r := range f.rows {
		if keep(Row{f: f, i: i}) {
			out.rows = append(out.rows, append([]Cell(nil), r...))
		}
	}
	return out
}

// SortStable returns a copy ordered by less; equal rows keep input order.
func (f *Frame) SortStable(less func(a, b Row) bool) *Frame {
	order := make([]int, len(f.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return less(Row{f: f, i: order[a]}, Row{f: f, i: order[b]})
	})
	out := New(f.cols...)
	out.rows = make([][]Cell, len(order))
	for k, i := range order {
		out.rows[k] = append([]Cell(nil), f.rows[i]...)
	}
	return out
}

// Sum adds every non-null cell of a numeric column.
func (f *Frame) Sum(name string) decimal.Decimal {
	total := decimal.Zero
	j, ok := f.index[name]
	if !ok {
		return total
	}
	for _, r := range f.rows {
		if r[j].Valid {
			total = total.Add(r[j].Num)
		}
	}
	return total
}

// Values returns a copy of one column's cells.
func (f *Frame) Values(name string) []Cell {
	j, ok := f.index[name]
	if !ok {
		return nil
	}
	out := make([]Cell, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[j]
	}
	return out
}

// Concat appends the rows of other, matching columns by name. Columns other
// lacks are filled with Null; columns only other has are dropped.
func (f *Frame) Concat(other *Frame) *Frame {
	out := f.Clone()
	if other == nil {
		return out
	}
	for i := range other.rows {
		row := make([]Cell, len(out.cols))
		for j, c := range out.cols {
			row[j] = other.Cell(i, c.Name)
		}
		out.rows = append(out.rows, row)
	}
	return out
}

// ColumnsOfKind lists the names of the columns of kind k, in order.
func (f *Frame) ColumnsOfKind(k Kind) []string {
	var out []string
	for _, c := range f.cols {
		if c.Kind == k {
			out = append(out, c.Name)
		}
	}
	return out
}
