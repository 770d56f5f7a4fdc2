package models

import (
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/shopspring/decimal"
)

// PeriodDelta is the comparison of a current figure with one historical
// period. Both fields are null when the period had no matching data.
type PeriodDelta struct {
	Scale  decimal.NullDecimal `json:"scale"`
	Change decimal.NullDecimal `json:"change"`
}

// AggregateRow is one group of a group report, or its synthetic total.
type AggregateRow struct {
	Group   string                 `json:"group"`
	Scale   decimal.Decimal        `json:"scale"`
	Share   decimal.Decimal        `json:"share"`
	History map[Period]PeriodDelta `json:"history,omitempty"`
	Total   bool                   `json:"total,omitempty"`
}

// ReconciledValue is the outcome of checking one channel figure against the
// book-of-record scale of the same product.
type ReconciledValue struct {
	Code       string              `json:"code"`
	Reported   decimal.Decimal     `json:"reported"`
	Reference  decimal.NullDecimal `json:"reference"`
	Resolved   decimal.Decimal     `json:"resolved"`
	Overridden bool                `json:"overridden"`
}

// Section is the output of one report section.
type Section struct {
	Name     string       `json:"name"`
	Title    string       `json:"title"`
	Table    *frame.Frame `json:"-"`
	Warnings []string     `json:"warnings,omitempty"`
	Notes    []string     `json:"notes,omitempty"`
}
