package frame

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// keySep joins multi-column keys; it cannot appear in spreadsheet labels.
const keySep = "\x1f"

// GroupAndSum groups f by the tuple of groupKeys and sums every sumKeys
// column per group. The result has one row per distinct key tuple observed,
// ordered by key ascending, with the group columns followed by the summed
// columns (kinds preserved).
//
// Every requested column must exist, otherwise a *SchemaError is returned;
// callers backfill optional columns with EnsureColumns first. Rows with a
// null group key belong to no group. Null summands are skipped.
func GroupAndSum(f *Frame, groupKeys, sumKeys []string) (*Frame, error) {
	all := append(append([]string(nil), groupKeys...), sumKeys...)
	if err := f.Require(all...); err != nil {
		return nil, err
	}

	cols := make([]Column, 0, len(all))
	for _, name := range all {
		c, _ := f.Column(name)
		cols = append(cols, c)
	}

	type group struct {
		keys []Cell
		sums []decimal.Decimal
	}
	groups := make(map[string]*group)
	var order []*group

	for i := 0; i < f.Len(); i++ {
		keys, id, ok := rowKey(f, i, groupKeys)
		if !ok {
			continue
		}
		g, seen := groups[id]
		if !seen {
			g = &group{keys: keys, sums: make([]decimal.Decimal, len(sumKeys))}
			groups[id] = g
			order = append(order, g)
		}
		for j, name := range sumKeys {
			if c := f.Cell(i, name); c.Valid {
				g.sums[j] = g.sums[j].Add(c.Num)
			}
		}
	}

	kinds := cols[:len(groupKeys)]
	sort.SliceStable(order, func(a, b int) bool {
		return compareKeys(order[a].keys, order[b].keys, kinds) < 0
	})

	out := New(cols...)
	for _, g := range order {
		row := make([]Cell, 0, len(cols))
		row = append(row, g.keys...)
		for _, s := range g.sums {
			row = append(row, Num(s))
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// rowKey returns the key cells of row i, their joined identity, and false
// when any key cell is null.
func rowKey(f *Frame, i int, keys []string) ([]Cell, string, bool) {
	cells := make([]Cell, len(keys))
	parts := make([]string, len(keys))
	for j, name := range keys {
		c := f.Cell(i, name)
		if !c.Valid {
			return nil, "", false
		}
		col, _ := f.Column(name)
		cells[j] = c
		parts[j] = c.Key(col.Kind)
	}
	return cells, strings.Join(parts, keySep), true
}

func compareKeys(a, b []Cell, cols []Column) int {
	for j := range a {
		if cols[j].Kind.Numeric() {
			if c := a[j].Num.Cmp(b[j].Num); c != 0 {
				return c
			}
			continue
		}
		if c := strings.Compare(a[j].Str, b[j].Str); c != 0 {
			return c
		}
	}
	return 0
}
