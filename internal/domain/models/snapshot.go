package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/aumreport/internal/frame"
)

// ErrMissingSnapshot is returned by snapshot sources when no snapshot of
// the requested kind exists for a date. For historical periods it is a soft
// error: the period is left out of the comparisons.
var ErrMissingSnapshot = errors.New("snapshot not available")

// Period labels which snapshot a figure comes from.
type Period string

const (
	Current   Period = "current"
	LastWeek  Period = "last_week"
	LastMonth Period = "last_month"
	LastYear  Period = "last_year"
)

// HistoricalPeriods lists the comparison periods in report order.
var HistoricalPeriods = []Period{LastWeek, LastMonth, LastYear}

// ParsePeriod accepts the three historical labels and "current".
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Current, LastWeek, LastMonth, LastYear:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Kind identifies one of the source tables of a dated data drop.
type Kind string

const (
	Positions Kind = "positions" // operation overview: one row per product
	Holdings  Kind = "holdings"  // product holdings by asset
	Channels  Kind = "channels"  // distribution-channel figures
)

// Snapshot is one dated table of records. Callers never mutate Data; the
// report sections work on copies.
type Snapshot struct {
	Kind   Kind
	Period Period
	Date   time.Time
	Data   *frame.Frame
}

// Frame returns the snapshot table or nil for an absent snapshot.
func (s *Snapshot) Frame() *frame.Frame {
	if s == nil {
		return nil
	}
	return s.Data
}

// Dataset groups the snapshots loaded for one date. Any of them may be nil.
type Dataset struct {
	Date      time.Time
	Positions *Snapshot
	Holdings  *Snapshot
	Channels  *Snapshot
}

// Get returns the snapshot of the given kind.
func (d Dataset) Get(k Kind) *Snapshot {
	switch k {
	case Positions:
		return d.Positions
	case Holdings:
		return d.Holdings
	case Channels:
		return d.Channels
	}
	return nil
}

// ReportContext carries everything a report run depends on: the resolved
// report date and the current and historical datasets. It replaces any
// process-wide date state; build one per run.
type ReportContext struct {
	ReportDate time.Time
	Current    Dataset
	History    map[Period]Dataset
}

// Historical returns the frame of kind k for period p, nil when absent.
func (rc ReportContext) Historical(p Period, k Kind) *frame.Frame {
	ds, ok := rc.History[p]
	if !ok {
		return nil
	}
	return ds.Get(k).Frame()
}

// HistoryOf collects the frames of kind k for the given periods; absent
// periods map to nil.
func (rc ReportContext) HistoryOf(k Kind, periods ...Period) map[Period]*frame.Frame {
	out := make(map[Period]*frame.Frame, len(periods))
	for _, p := range periods {
		out[p] = rc.Historical(p, k)
	}
	return out
}
