package service

import (
	"fmt"

	"github.com/guttosm/aumreport/internal/calc"
	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// DefaultVolatilityThreshold is the absolute week nav change above which a
// product is listed.
var DefaultVolatilityThreshold = decimal.RequireFromString("0.03")

// VolatilityReport lists the products whose nav moved more than the
// threshold over the week, along with summary statistics over every
// product with a comparable nav.
type VolatilityReport struct {
	Table     *frame.Frame
	Threshold decimal.Decimal
	// Compared counts products with a nav change.
	Compared int
	Mean     decimal.NullDecimal
	StdDev   decimal.NullDecimal
	Warnings []string
}

// Notes summarizes the statistics in words.
func (r *VolatilityReport) Notes() []string {
	if r.Compared == 0 {
		return []string{"no product has a comparable last-week nav"}
	}
	notes := []string{fmt.Sprintf("%d of %d compared products moved more than %s",
		r.Table.Len(), r.Compared, r.Threshold.String())}
	if r.Mean.Valid {
		notes = append(notes, "mean week nav change "+r.Mean.Decimal.StringFixed(4))
	}
	if r.StdDev.Valid {
		notes = append(notes, "standard deviation "+r.StdDev.Decimal.StringFixed(4))
	}
	return notes
}

// BuildVolatilityReport joins each product's nav with its last-week nav by
// code and keeps the rows whose absolute change exceeds threshold, largest
// first. A nil lastWeek yields an empty table.
func BuildVolatilityReport(current, lastWeek *frame.Frame, threshold decimal.Decimal) (*VolatilityReport, error) {
	if current == nil {
		return nil, fmt.Errorf("%s: no current snapshot", SectionVolatility)
	}
	report := &VolatilityReport{Threshold: threshold}
	cols := []frame.Column{
		{Name: models.ColCode, Kind: frame.Text},
		{Name: models.ColName, Kind: frame.Text},
		{Name: models.ColCategory, Kind: frame.Text},
		{Name: models.ColNAV, Kind: frame.Number},
	}
	cur := ensureColumns(SectionVolatility, models.Current, current, cols, &report.Warnings)

	var hist *frame.Frame
	if lastWeek != nil {
		hist = ensureColumns(SectionVolatility, models.LastWeek, lastWeek, cols, &report.Warnings)
	} else {
		report.Warnings = append(report.Warnings, "no last_week snapshot")
	}

	suffix := string(models.LastWeek)
	change := frame.ChangeColumn(models.ColNAV, suffix)
	merged, err := frame.MergeWithHistory(cur, hist, frame.Join{
		Keys:   []string{models.ColCode},
		Values: []string{models.ColNAV},
		Suffix: suffix,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SectionVolatility, err)
	}
	merged = merged.WithColumn(frame.Column{Name: models.ColAbsChange, Kind: frame.Percent}, func(r frame.Row) frame.Cell {
		c := r.Get(change)
		if !c.Valid {
			return frame.Null
		}
		return frame.Num(c.Num.Abs())
	})

	var changes []float64
	for _, c := range merged.Values(change) {
		if c.Valid {
			changes = append(changes, c.Num.InexactFloat64())
		}
	}
	report.Compared = len(changes)
	if len(changes) > 0 {
		report.Mean = calc.Valid(decimal.NewFromFloat(stat.Mean(changes, nil)))
	}
	if len(changes) > 1 {
		report.StdDev = calc.Valid(decimal.NewFromFloat(stat.StdDev(changes, nil)))
	}

	flagged := merged.Filter(func(r frame.Row) bool {
		a := r.Get(models.ColAbsChange)
		return a.Valid && a.Num.GreaterThan(threshold)
	}).SortStable(func(a, b frame.Row) bool {
		return a.Get(models.ColAbsChange).Num.GreaterThan(b.Get(models.ColAbsChange).Num)
	})
	report.Table, err = flagged.Select(
		models.ColCode, models.ColName, models.ColCategory, models.ColNAV,
		frame.HistColumn(models.ColNAV, suffix), change)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SectionVolatility, err)
	}
	return report, nil
}
