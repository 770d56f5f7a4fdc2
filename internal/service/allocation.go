package service

import (
	"fmt"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/guttosm/aumreport/internal/normalize"
)

// AllocationSpec groups holdings market value and holding amount by asset
// class.
var AllocationSpec = GroupSpec{
	Section: SectionAllocation,
	Group:   models.ColAssetClass,
	Value:   models.ColMarketValue,
	Extra:   []string{models.ColHoldingAmount},
	Periods: models.HistoricalPeriods,
}

var holdingsRequired = []frame.Column{
	{Name: models.ColCode, Kind: frame.Text},
	{Name: models.ColAssetType, Kind: frame.Text},
	{Name: models.ColHoldingRatio, Kind: frame.Number},
	{Name: models.ColMarketValue, Kind: frame.Currency},
}

// BuildAllocationReport folds holdings into asset classes and reports each
// class's market value and holding amount, where a holding amount is the
// holding ratio times the scale of the product holding it. Historical
// holdings are compared on market value.
func BuildAllocationReport(holdings, positions *frame.Frame, history map[models.Period]*frame.Frame) (*GroupReport, error) {
	if holdings == nil {
		return nil, fmt.Errorf("%s: no current holdings snapshot", SectionAllocation)
	}
	var warnings []string
	cur, err := HoldingAmounts(holdings, positions, &warnings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SectionAllocation, err)
	}

	hist := make(map[models.Period]*frame.Frame, len(history))
	for p, f := range history {
		if f == nil {
			continue
		}
		h := ensureColumns(SectionAllocation, p, f, holdingsRequired, &warnings)
		hist[p] = normalize.AssetClasses.Column(h, models.ColAssetType, models.ColAssetClass)
	}

	report, err := BuildGroupReport(cur, hist, AllocationSpec)
	if err != nil {
		return nil, err
	}
	report.Warnings = append(warnings, report.Warnings...)
	return report, nil
}

// HoldingAmounts returns a copy of holdings with asset_class, product_scale
// and holding_amount columns. Without positions, or for a product the
// positions do not list, product_scale and holding_amount are null.
func HoldingAmounts(holdings, positions *frame.Frame, warnings *[]string) (*frame.Frame, error) {
	h := ensureColumns(SectionAllocation, models.Current, holdings, holdingsRequired, warnings)
	h = normalize.AssetClasses.Column(h, models.ColAssetType, models.ColAssetClass)

	scales := map[string]frame.Cell{}
	if positions != nil {
		pos := ensureColumns(SectionAllocation, models.Current, positions, []frame.Column{
			{Name: models.ColCode, Kind: frame.Text},
			{Name: models.ColScale, Kind: frame.Currency},
		}, warnings)
		ref, err := ReferenceScales(pos)
		if err != nil {
			return nil, err
		}
		for code, s := range ref {
			scales[code] = frame.Num(s)
		}
	} else {
		*warnings = append(*warnings, "no positions snapshot: holding amounts unavailable")
	}

	h = h.WithColumn(frame.Column{Name: models.ColProductScale, Kind: frame.Currency}, func(r frame.Row) frame.Cell {
		code := r.Get(models.ColCode)
		if !code.Valid {
			return frame.Null
		}
		return scales[code.Str]
	})
	return h.WithColumn(frame.Column{Name: models.ColHoldingAmount, Kind: frame.Currency}, func(r frame.Row) frame.Cell {
		ratio, scale := r.Get(models.ColHoldingRatio), r.Get(models.ColProductScale)
		if !ratio.Valid || !scale.Valid {
			return frame.Null
		}
		return frame.Num(ratio.Num.Mul(scale.Num))
	}), nil
}
