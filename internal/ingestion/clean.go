package ingestion

import (
	"time"

	"github.com/guttosm/aumreport/internal/dates"
	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/shopspring/decimal"
)

// UnknownChannel labels channel rows that carry no channel name.
const UnknownChannel = "Unknown channel"

// fillDefaults lists, per kind, the value a null cell of a column is
// replaced with when the current dataset is cleaned.
var fillDefaults = map[models.Kind]map[string]frame.Cell{
	models.Positions: {
		models.ColNAV:   frame.Num(decimal.NewFromInt(1)),
		models.ColScale: frame.Num(decimal.Zero),
	},
	models.Holdings: {
		models.ColHoldingRatio: frame.Num(decimal.Zero),
		models.ColMarketValue:  frame.Num(decimal.Zero),
	},
	models.Channels: {
		models.ColChannelName: frame.Str(UnknownChannel),
		models.ColScale:       frame.Num(decimal.Zero),
	},
}

// Clean fills the null cells of the known columns of kind with their
// defaults. Columns the frame lacks are left absent so that the report
// sections can flag them.
func Clean(kind models.Kind, f *frame.Frame) *frame.Frame {
	out := f
	for col, def := range fillDefaults[kind] {
		if !out.Has(col) {
			continue
		}
		c, _ := out.Column(col)
		d := def
		name := col
		out = out.WithColumn(c, func(r frame.Row) frame.Cell {
			if v := r.Get(name); v.Valid {
				return v
			}
			return d
		})
	}
	return out
}

// FilterDate keeps the rows dated date. Frames without a date column are
// returned unchanged; rows with an empty date are dropped.
func FilterDate(f *frame.Frame, date time.Time) *frame.Frame {
	if !f.Has(models.ColDate) {
		return f
	}
	want := dates.Format(date)
	return f.Filter(func(r frame.Row) bool {
		c := r.Get(models.ColDate)
		return c.Valid && c.Str == want
	})
}
