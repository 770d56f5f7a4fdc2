package service

import (
	"fmt"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the relative difference above which the book of
// record replaces a channel-reported figure.
var DefaultTolerance = decimal.RequireFromString("0.10")

// ChannelReconciler resolves channel-reported scales against book-of-record
// scales. A channel figure is replaced only when it strays from the
// reference by more than Tolerance, so rounding and timing noise never
// triggers an override.
type ChannelReconciler struct {
	Tolerance decimal.Decimal
}

// NewChannelReconciler returns a reconciler; a negative tolerance falls
// back to DefaultTolerance.
func NewChannelReconciler(tolerance decimal.Decimal) *ChannelReconciler {
	if tolerance.IsNegative() {
		tolerance = DefaultTolerance
	}
	return &ChannelReconciler{Tolerance: tolerance}
}

// Resolve reconciles one figure. Without a reference, or with a zero
// reference, the reported value is kept.
func (c *ChannelReconciler) Resolve(code string, reported decimal.Decimal, reference decimal.NullDecimal) models.ReconciledValue {
	v := models.ReconciledValue{
		Code:      code,
		Reported:  reported,
		Reference: reference,
		Resolved:  reported,
	}
	if !reference.Valid || reference.Decimal.IsZero() {
		return v
	}
	diff := reported.Sub(reference.Decimal).Abs().Div(reference.Decimal)
	if diff.GreaterThan(c.Tolerance) {
		v.Resolved = reference.Decimal
		v.Overridden = true
	}
	return v
}

// Reconcile resolves every record against reference (code to
// book-of-record scale). Records without a reference pass through.
func (c *ChannelReconciler) Reconcile(records []models.ChannelRecord, reference map[string]decimal.Decimal) []models.ReconciledValue {
	out := make([]models.ReconciledValue, 0, len(records))
	for _, r := range records {
		ref := decimal.NullDecimal{}
		if v, ok := reference[r.Code]; ok {
			ref = decimal.NullDecimal{Decimal: v, Valid: true}
		}
		out = append(out, c.Resolve(r.Code, r.Reported, ref))
	}
	return out
}

// ReferenceScales indexes the book-of-record scale by product code. A code
// listed twice is an *frame.AmbiguousJoinError; null codes and null scales
// are skipped.
func ReferenceScales(positions *frame.Frame) (map[string]decimal.Decimal, error) {
	index, err := frame.UniqueIndex(positions, []string{models.ColCode})
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(index))
	for code, i := range index {
		if s := positions.Cell(i, models.ColScale); s.Valid {
			out[code] = s.Num
		}
	}
	return out, nil
}

// ReconcileFrame reconciles a channel table against a positions table and
// returns a copy of channels with reference_scale, adjusted_scale and
// overridden columns, along with the per-row outcomes. A null reported
// scale counts as zero; a nil positions table leaves every row unmatched.
func (c *ChannelReconciler) ReconcileFrame(channels, positions *frame.Frame, p models.Period, warnings *[]string) (*frame.Frame, []models.ReconciledValue, error) {
	if channels == nil {
		return nil, nil, fmt.Errorf("reconcile: no %s channel snapshot", p)
	}
	ch := ensureColumns(SectionChannel, p, channels, []frame.Column{
		{Name: models.ColCode, Kind: frame.Text},
		{Name: models.ColScale, Kind: frame.Currency},
	}, warnings)

	reference := map[string]decimal.Decimal{}
	if positions != nil {
		pos := ensureColumns(SectionChannel, p, positions, []frame.Column{
			{Name: models.ColCode, Kind: frame.Text},
			{Name: models.ColScale, Kind: frame.Currency},
		}, warnings)
		var err error
		if reference, err = ReferenceScales(pos); err != nil {
			return nil, nil, fmt.Errorf("reconcile: %w", err)
		}
	}

	values := make([]models.ReconciledValue, ch.Len())
	for i := 0; i < ch.Len(); i++ {
		code := ch.Cell(i, models.ColCode)
		reported := ch.Cell(i, models.ColScale).Num
		ref := decimal.NullDecimal{}
		if code.Valid {
			if v, ok := reference[code.Str]; ok {
				ref = decimal.NullDecimal{Decimal: v, Valid: true}
			}
		}
		values[i] = c.Resolve(code.Str, reported, ref)
	}

	out := ch.WithColumn(frame.Column{Name: models.ColReferenceScale, Kind: frame.Currency}, func(r frame.Row) frame.Cell {
		return frame.FromNull(values[r.Index()].Reference)
	})
	out = out.WithColumn(frame.Column{Name: models.ColAdjustedScale, Kind: frame.Currency}, func(r frame.Row) frame.Cell {
		return frame.Num(values[r.Index()].Resolved)
	})
	out = out.WithColumn(frame.Column{Name: models.ColOverridden, Kind: frame.Text}, func(r frame.Row) frame.Cell {
		return frame.Bool(values[r.Index()].Overridden)
	})
	return out, values, nil
}
