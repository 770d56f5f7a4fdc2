package service

import (
	"fmt"

	"github.com/guttosm/aumreport/internal/calc"
	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/guttosm/aumreport/internal/logger"
	"github.com/shopspring/decimal"
)

var detailRequired = []frame.Column{
	{Name: models.ColCode, Kind: frame.Text},
	{Name: models.ColName, Kind: frame.Text},
	{Name: models.ColCategory, Kind: frame.Text},
	{Name: models.ColScale, Kind: frame.Currency},
	{Name: models.ColNAV, Kind: frame.Number},
}

// DetailReport is the per-product table.
type DetailReport struct {
	Table      *frame.Frame
	HasHistory bool
	Warnings   []string
}

// BuildInstrumentDetail computes, for every current product, its share of
// the grand total and of its category. When lastWeek is not nil the
// product's last-week scale and nav are joined by code with their changes.
// Rows are ordered by category ascending then scale descending; ties keep
// input order.
func BuildInstrumentDetail(current, lastWeek *frame.Frame) (*DetailReport, error) {
	if current == nil {
		return nil, fmt.Errorf("%s: no current snapshot", SectionDetail)
	}
	report := &DetailReport{}
	cur := ensureColumns(SectionDetail, models.Current, current, detailRequired, &report.Warnings)

	total := calc.Valid(cur.Sum(models.ColScale))
	byCategory, err := frame.GroupAndSum(cur, []string{models.ColCategory}, []string{models.ColScale})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SectionDetail, err)
	}
	categoryTotals := make(map[string]decimal.Decimal, byCategory.Len())
	for i := 0; i < byCategory.Len(); i++ {
		categoryTotals[byCategory.Cell(i, models.ColCategory).Str] = byCategory.Cell(i, models.ColScale).Num
	}

	table := cur.WithColumn(frame.Column{Name: models.ColShareOfTotal, Kind: frame.Percent}, func(r frame.Row) frame.Cell {
		return frame.Num(calc.SafeDivide(r.Decimal(models.ColScale), total, decimal.Zero))
	})
	table = table.WithColumn(frame.Column{Name: models.ColShareOfCategory, Kind: frame.Percent}, func(r frame.Row) frame.Cell {
		den := calc.Null
		if c := r.Get(models.ColCategory); c.Valid {
			if t, ok := categoryTotals[c.Str]; ok {
				den = calc.Valid(t)
			}
		}
		return frame.Num(calc.SafeDivide(r.Decimal(models.ColScale), den, decimal.Zero))
	})

	out := []string{
		models.ColCode, models.ColName, models.ColCategory, models.ColScale,
		models.ColShareOfTotal, models.ColShareOfCategory, models.ColNAV,
	}
	if lastWeek != nil {
		hist := ensureColumns(SectionDetail, models.LastWeek, lastWeek, []frame.Column{
			{Name: models.ColCode, Kind: frame.Text},
			{Name: models.ColScale, Kind: frame.Currency},
			{Name: models.ColNAV, Kind: frame.Number},
		}, &report.Warnings)
		table, err = frame.MergeWithHistory(table, hist, frame.Join{
			Keys:   []string{models.ColCode},
			Values: []string{models.ColScale, models.ColNAV},
			Suffix: string(models.LastWeek),
		})
		if err != nil {
			return nil, fmt.Errorf("%s: merge last week: %w", SectionDetail, err)
		}
		suffix := string(models.LastWeek)
		out = append(out,
			frame.HistColumn(models.ColScale, suffix), frame.ChangeColumn(models.ColScale, suffix),
			frame.HistColumn(models.ColNAV, suffix), frame.ChangeColumn(models.ColNAV, suffix))
		report.HasHistory = true
	}

	table, err = table.Select(out...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SectionDetail, err)
	}
	report.Table = table.SortStable(byCategoryThenScale)
	return report, nil
}

// byCategoryThenScale orders category ascending, then scale descending.
// Null categories and null scales sort last.
func byCategoryThenScale(a, b frame.Row) bool {
	ca, cb := a.Get(models.ColCategory), b.Get(models.ColCategory)
	if ca.Valid != cb.Valid {
		return ca.Valid
	}
	if ca.Str != cb.Str {
		return ca.Str < cb.Str
	}
	sa, sb := a.Get(models.ColScale), b.Get(models.ColScale)
	if sa.Valid != sb.Valid {
		return sa.Valid
	}
	return sa.Num.GreaterThan(sb.Num)
}

// ensureColumns backfills missing columns with nulls, logging and recording
// each one.
func ensureColumns(section string, p models.Period, f *frame.Frame, cols []frame.Column, warnings *[]string) *frame.Frame {
	out, missing := f.EnsureColumns(cols...)
	for _, m := range missing {
		logger.L().Warn().Str("section", section).Str("period", string(p)).Str("column", m).
			Msg("missing column synthesized as null")
		*warnings = append(*warnings, fmt.Sprintf("%s snapshot: missing column %s", p, m))
	}
	return out
}
