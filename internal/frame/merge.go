package frame

import (
	"fmt"
	"strings"

	"github.com/guttosm/aumreport/internal/calc"
)

// DefaultSuffix names historical columns when a Join carries no suffix.
const DefaultSuffix = "hist"

// Join describes a history merge: the key columns matched by exact equality
// and the value columns carried over from the historical side.
type Join struct {
	Keys   []string
	Values []string
	// Suffix distinguishes the columns of one historical period
	// ("last_week", ...).
	Suffix string
}

func (j Join) suffix() string {
	if j.Suffix == "" {
		return DefaultSuffix
	}
	return j.Suffix
}

// HistColumn names the historical copy of a value column.
func HistColumn(value, suffix string) string { return value + "_" + suffix }

// ChangeColumn names the percentage-change column of a value column.
func ChangeColumn(value, suffix string) string { return value + "_change_" + suffix }

// MergeWithHistory left-joins current onto historical. Every current row
// appears exactly once in the result; for each value column the result
// carries the historical value (Null when unmatched) and the percentage
// change from it.
//
// A nil historical frame yields current with null history and change
// columns. A historical key matching more than one row is an
// *AmbiguousJoinError; rows with a null key never match.
func MergeWithHistory(current, historical *Frame, on Join) (*Frame, error) {
	required := append(append([]string(nil), on.Keys...), on.Values...)
	if err := current.Require(required...); err != nil {
		return nil, err
	}

	var index map[string]int
	if historical != nil {
		if err := historical.Require(required...); err != nil {
			return nil, fmt.Errorf("historical: %w", err)
		}
		var err error
		if index, err = UniqueIndex(historical, on.Keys); err != nil {
			return nil, err
		}
	}

	suffix := on.suffix()
	out := current.Clone()
	for _, value := range on.Values {
		src, _ := current.Column(value)
		hist := HistColumn(value, suffix)
		v := value

		out.setColumn(Column{Name: hist, Kind: src.Kind}, func(r Row) Cell {
			if index == nil {
				return Null
			}
			_, id, ok := rowKey(r.f, r.i, on.Keys)
			if !ok {
				return Null
			}
			j, found := index[id]
			if !found {
				return Null
			}
			return historical.Cell(j, v)
		})
		out.setColumn(Column{Name: ChangeColumn(value, suffix), Kind: Percent}, func(r Row) Cell {
			return FromNull(calc.PercentageChange(r.Decimal(v), r.Decimal(hist)))
		})
	}
	return out, nil
}

// UniqueIndex maps each key tuple of f to its row. A tuple seen on more
// than one row is an *AmbiguousJoinError; rows with a null key are skipped.
func UniqueIndex(f *Frame, keys []string) (map[string]int, error) {
	if err := f.Require(keys...); err != nil {
		return nil, err
	}
	index := make(map[string]int, f.Len())
	counts := make(map[string]int)
	var dup []string
	for i := 0; i < f.Len(); i++ {
		_, id, ok := rowKey(f, i, keys)
		if !ok {
			continue
		}
		counts[id]++
		if counts[id] == 2 {
			dup = append(dup, id)
		}
		index[id] = i
	}
	if len(dup) > 0 {
		return nil, &AmbiguousJoinError{
			Keys:  append([]string(nil), keys...),
			Key:   strings.ReplaceAll(dup[0], keySep, "/"),
			Count: counts[dup[0]],
		}
	}
	return index, nil
}
