package service

import (
	"fmt"

	"github.com/guttosm/aumreport/internal/calc"
	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/guttosm/aumreport/internal/logger"
	"github.com/shopspring/decimal"
)

// GroupSpec describes a group report: which column is grouped on, which
// one is summed, and which historical periods are compared.
type GroupSpec struct {
	Section string
	Group   string
	Value   string
	// Extra columns are summed per group and shown without comparisons.
	Extra []string
	// Required columns are synthesized as null when the input lacks them.
	Required []frame.Column
	Periods  []models.Period
}

// ScaleSpec is the product-scale report: scale by product category against
// the week, month and year snapshots.
var ScaleSpec = GroupSpec{
	Section: SectionScale,
	Group:   models.ColCategory,
	Value:   models.ColScale,
	Required: []frame.Column{
		{Name: models.ColCode, Kind: frame.Text},
		{Name: models.ColName, Kind: frame.Text},
		{Name: models.ColCategory, Kind: frame.Text},
		{Name: models.ColScale, Kind: frame.Currency},
	},
	Periods: models.HistoricalPeriods,
}

// GroupReport is a group table plus its synthetic total row.
type GroupReport struct {
	Spec GroupSpec
	// Rows holds one row per group, ascending, followed by the total.
	Rows []models.AggregateRow
	// Periods lists the compared periods that had data, ordered as Spec.Periods.
	Periods  []models.Period
	Extras   map[string][]decimal.Decimal
	Warnings []string
}

// Total returns the synthetic total row.
func (r *GroupReport) Total() models.AggregateRow {
	return r.Rows[len(r.Rows)-1]
}

// Groups returns the group rows without the total.
func (r *GroupReport) Groups() []models.AggregateRow {
	return r.Rows[:len(r.Rows)-1]
}

// BuildScaleReport builds the category scale table from the current
// positions and up to three historical positions snapshots (nil = absent).
func BuildScaleReport(current *frame.Frame, history map[models.Period]*frame.Frame) (*GroupReport, error) {
	return BuildGroupReport(current, history, ScaleSpec)
}

// BuildGroupReport sums spec.Value per spec.Group, adds each group's share
// of the grand total, and for every period with data the period's group sum
// and the percentage change from it. The total row compares grand totals
// directly; it is never derived from the group rows.
func BuildGroupReport(current *frame.Frame, history map[models.Period]*frame.Frame, spec GroupSpec) (*GroupReport, error) {
	if current == nil {
		return nil, fmt.Errorf("%s: no current snapshot", spec.Section)
	}
	report := &GroupReport{Spec: spec, Extras: map[string][]decimal.Decimal{}}

	required := append([]frame.Column(nil), spec.Required...)
	required = append(required,
		frame.Column{Name: spec.Group, Kind: frame.Text},
		frame.Column{Name: spec.Value, Kind: frame.Currency})
	for _, e := range spec.Extra {
		required = append(required, frame.Column{Name: e, Kind: frame.Currency})
	}
	cur := report.ensure(current, models.Current, required)

	total := cur.Sum(spec.Value)
	if n := countNull(cur, spec.Group); n > 0 {
		report.warn(fmt.Sprintf("%d rows without %s excluded from groups", n, spec.Group))
	}

	sums := append([]string{spec.Value}, spec.Extra...)
	table, err := frame.GroupAndSum(cur, []string{spec.Group}, sums)
	if err != nil {
		return nil, fmt.Errorf("%s: group current: %w", spec.Section, err)
	}
	table = table.WithColumn(frame.Column{Name: models.ColShare, Kind: frame.Percent}, func(r frame.Row) frame.Cell {
		return frame.Num(calc.SafeDivide(r.Decimal(spec.Value), calc.Valid(total), decimal.Zero))
	})

	totals := map[models.Period]decimal.Decimal{}
	for _, p := range spec.Periods {
		hf := history[p]
		if hf == nil {
			continue
		}
		hist := report.ensure(hf, p, []frame.Column{
			{Name: spec.Group, Kind: frame.Text},
			{Name: spec.Value, Kind: frame.Currency},
		})
		grouped, err := frame.GroupAndSum(hist, []string{spec.Group}, []string{spec.Value})
		if err != nil {
			return nil, fmt.Errorf("%s: group %s: %w", spec.Section, p, err)
		}
		table, err = frame.MergeWithHistory(table, grouped, frame.Join{
			Keys:   []string{spec.Group},
			Values: []string{spec.Value},
			Suffix: string(p),
		})
		if err != nil {
			return nil, fmt.Errorf("%s: merge %s: %w", spec.Section, p, err)
		}
		totals[p] = hist.Sum(spec.Value)
		report.Periods = append(report.Periods, p)
	}

	for i := 0; i < table.Len(); i++ {
		r := table.Row(i)
		row := models.AggregateRow{
			Group:   r.Text(spec.Group),
			Scale:   r.Get(spec.Value).Num,
			Share:   r.Get(models.ColShare).Num,
			History: map[models.Period]models.PeriodDelta{},
		}
		for _, p := range report.Periods {
			row.History[p] = models.PeriodDelta{
				Scale:  r.Decimal(frame.HistColumn(spec.Value, string(p))),
				Change: r.Decimal(frame.ChangeColumn(spec.Value, string(p))),
			}
		}
		for _, e := range spec.Extra {
			report.Extras[e] = append(report.Extras[e], r.Get(e).Num)
		}
		report.Rows = append(report.Rows, row)
	}

	totalRow := models.AggregateRow{
		Group:   models.TotalLabel,
		Scale:   total,
		Share:   decimal.NewFromInt(1),
		History: map[models.Period]models.PeriodDelta{},
		Total:   true,
	}
	for _, p := range report.Periods {
		prev := calc.Valid(totals[p])
		totalRow.History[p] = models.PeriodDelta{
			Scale:  prev,
			Change: calc.PercentageChange(calc.Valid(total), prev),
		}
	}
	for _, e := range spec.Extra {
		report.Extras[e] = append(report.Extras[e], cur.Sum(e))
	}
	report.Rows = append(report.Rows, totalRow)

	return report, nil
}

// Frame renders the report as a table: group, value, extras, share, then
// for each compared period its historical value and change.
func (r *GroupReport) Frame() *frame.Frame {
	cols := []frame.Column{
		{Name: r.Spec.Group, Kind: frame.Text},
		{Name: r.Spec.Value, Kind: frame.Currency},
	}
	for _, e := range r.Spec.Extra {
		cols = append(cols, frame.Column{Name: e, Kind: frame.Currency})
	}
	cols = append(cols, frame.Column{Name: models.ColShare, Kind: frame.Percent})
	for _, p := range r.Periods {
		cols = append(cols,
			frame.Column{Name: frame.HistColumn(r.Spec.Value, string(p)), Kind: frame.Currency},
			frame.Column{Name: frame.ChangeColumn(r.Spec.Value, string(p)), Kind: frame.Percent})
	}

	out := frame.New(cols...)
	for i, row := range r.Rows {
		cells := []frame.Cell{frame.Str(row.Group), frame.Num(row.Scale)}
		for _, e := range r.Spec.Extra {
			cells = append(cells, frame.Num(r.Extras[e][i]))
		}
		cells = append(cells, frame.Num(row.Share))
		for _, p := range r.Periods {
			d := row.History[p]
			cells = append(cells, frame.FromNull(d.Scale), frame.FromNull(d.Change))
		}
		_ = out.Append(cells...)
	}
	return out
}

// CurrencyColumns lists the columns Presentation renders as amounts.
func (r *GroupReport) CurrencyColumns() []string {
	return r.Frame().ColumnsOfKind(frame.Currency)
}

// PercentColumns lists the columns Presentation renders as percentages.
func (r *GroupReport) PercentColumns() []string {
	return r.Frame().ColumnsOfKind(frame.Percent)
}

func (r *GroupReport) ensure(f *frame.Frame, p models.Period, cols []frame.Column) *frame.Frame {
	return ensureColumns(r.Spec.Section, p, f, cols, &r.Warnings)
}

func (r *GroupReport) warn(msg string) {
	logger.L().Warn().Str("section", r.Spec.Section).Msg(msg)
	r.Warnings = append(r.Warnings, msg)
}

func countNull(f *frame.Frame, col string) int {
	n := 0
	for _, c := range f.Values(col) {
		if !c.Valid {
			n++
		}
	}
	return n
}
