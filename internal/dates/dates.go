// Package dates resolves the report date and the dates of the historical
// snapshots it is compared against.
package dates

import (
	"fmt"
	"time"

	"github.com/guttosm/aumreport/internal/domain/models"
)

// Layout is the date format used in file names, config and the API.
const Layout = "2006-01-02"

// Offsets are the calendar distances from the report date to each
// historical snapshot.
type Offsets struct {
	WeekDays  int
	MonthDays int
	YearDays  int
}

// DefaultOffsets are 7, 30 and 365 days.
var DefaultOffsets = Offsets{WeekDays: 7, MonthDays: 30, YearDays: 365}

// ReportDate returns the Friday the weekly report covers: the most recent
// Friday before now. On a Friday it is the previous week's Friday.
func ReportDate(now time.Time) time.Time {
	d := truncateToDate(now)
	back := (int(d.Weekday()) - int(time.Friday) + 7) % 7
	if back == 0 {
		back = 7
	}
	return d.AddDate(0, 0, -back)
}

// Resolve parses an explicit report date, or falls back to ReportDate(now)
// when s is empty.
func Resolve(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return ReportDate(now), nil
	}
	d, err := time.ParseInLocation(Layout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid report date %q: %w", s, err)
	}
	return d, nil
}

// PeriodDates returns the snapshot date of every historical period.
func PeriodDates(report time.Time, o Offsets) map[models.Period]time.Time {
	d := truncateToDate(report)
	return map[models.Period]time.Time{
		models.LastWeek:  d.AddDate(0, 0, -o.WeekDays),
		models.LastMonth: d.AddDate(0, 0, -o.MonthDays),
		models.LastYear:  d.AddDate(0, 0, -o.YearDays),
	}
}

// Format renders d with Layout.
func Format(d time.Time) string { return d.Format(Layout) }

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
