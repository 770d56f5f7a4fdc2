package dto

import (
	"strings"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/guttosm/aumreport/internal/present"
	"github.com/shopspring/decimal"
)

// PositionRecord is one product row of an operation overview snapshot.
// Numbers may be sent as JSON numbers or strings; null or absent values
// stay null.
type PositionRecord struct {
	Code     string              `json:"code" example:"P0001"`
	Name     string              `json:"name,omitempty" example:"Steady Income No.1"`
	Category string              `json:"category,omitempty" example:"Fixed income"`
	Scale    decimal.NullDecimal `json:"scale" swaggertype:"string" example:"1250000.50"`
	NAV      decimal.NullDecimal `json:"nav" swaggertype:"string" example:"1.0312"`
}

// ChannelFigure is one channel-reported product scale.
type ChannelFigure struct {
	Code  string          `json:"code" binding:"required" example:"P0001"`
	Scale decimal.Decimal `json:"scale" swaggertype:"string" example:"1300000"`
}

// ScaleRequest is the body of POST /api/v1/reports/scale. Absent
// historical periods are left out of the comparison.
type ScaleRequest struct {
	ReportDate string           `json:"report_date,omitempty" example:"2025-03-14"`
	Current    []PositionRecord `json:"current" binding:"required"`
	LastWeek   []PositionRecord `json:"last_week,omitempty"`
	LastMonth  []PositionRecord `json:"last_month,omitempty"`
	LastYear   []PositionRecord `json:"last_year,omitempty"`
}

// History returns the historical record sets by period, absent ones
// omitted.
func (r ScaleRequest) History() map[models.Period][]PositionRecord {
	out := map[models.Period][]PositionRecord{}
	for p, recs := range map[models.Period][]PositionRecord{
		models.LastWeek:  r.LastWeek,
		models.LastMonth: r.LastMonth,
		models.LastYear:  r.LastYear,
	} {
		if recs != nil {
			out[p] = recs
		}
	}
	return out
}

// DetailRequest is the body of POST /api/v1/reports/detail.
type DetailRequest struct {
	ReportDate string           `json:"report_date,omitempty" example:"2025-03-14"`
	Current    []PositionRecord `json:"current" binding:"required"`
	LastWeek   []PositionRecord `json:"last_week,omitempty"`
}

// History returns the last week record set, if any.
func (r DetailRequest) History() map[models.Period][]PositionRecord {
	if r.LastWeek == nil {
		return map[models.Period][]PositionRecord{}
	}
	return map[models.Period][]PositionRecord{models.LastWeek: r.LastWeek}
}

// ReconcileRequest is the body of POST /api/v1/reconcile. A null
// tolerance selects the configured one.
type ReconcileRequest struct {
	Tolerance decimal.NullDecimal `json:"tolerance" swaggertype:"string" example:"0.10"`
	Channels  []ChannelFigure     `json:"channels" binding:"required,dive"`
	Positions []PositionRecord    `json:"positions" binding:"required"`
}

// Records converts the channel figures for the reconciler.
func (r ReconcileRequest) Records() []models.ChannelRecord {
	out := make([]models.ChannelRecord, 0, len(r.Channels))
	for _, c := range r.Channels {
		out = append(out, models.ChannelRecord{Code: strings.TrimSpace(c.Code), Reported: c.Scale})
	}
	return out
}

// SectionResponse is one computed report section, rendered for display.
type SectionResponse struct {
	Name     string        `json:"name" example:"scale"`
	Title    string        `json:"title" example:"Product scale by category"`
	Date     string        `json:"report_date" example:"2025-03-14"`
	Table    present.Table `json:"table"`
	Warnings []string      `json:"warnings,omitempty"`
	Notes    []string      `json:"notes,omitempty"`
}

// ReconcileResponse lists every reconciled channel figure in request order.
type ReconcileResponse struct {
	Tolerance  decimal.Decimal          `json:"tolerance" swaggertype:"string" example:"0.10"`
	Values     []models.ReconciledValue `json:"values"`
	Overridden int                      `json:"overridden" example:"1"`
}

var positionColumns = []frame.Column{
	{Name: models.ColCode, Kind: frame.Text},
	{Name: models.ColName, Kind: frame.Text},
	{Name: models.ColCategory, Kind: frame.Text},
	{Name: models.ColScale, Kind: frame.Currency},
	{Name: models.ColNAV, Kind: frame.Number},
}

// PositionsFrame builds a positions table from records. Empty text fields
// become null cells.
func PositionsFrame(records []PositionRecord) (*frame.Frame, error) {
	f := frame.New(positionColumns...)
	for _, r := range records {
		err := f.Append(
			text(r.Code),
			text(r.Name),
			text(r.Category),
			frame.FromNull(r.Scale),
			frame.FromNull(r.NAV),
		)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func text(s string) frame.Cell {
	if s = strings.TrimSpace(s); s == "" {
		return frame.Null
	}
	return frame.Str(s)
}
