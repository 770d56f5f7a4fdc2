package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/shopspring/decimal"
)

func sampleContext(t *testing.T) models.ReportContext {
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	return models.ReportContext{
		ReportDate: date,
		Current: models.Dataset{
			Date:      date,
			Positions: &models.Snapshot{Kind: models.Positions, Period: models.Current, Date: date, Data: sampleCurrent(t)},
			Holdings:  &models.Snapshot{Kind: models.Holdings, Period: models.Current, Date: date, Data: sampleHoldings(t)},
			Channels:  &models.Snapshot{Kind: models.Channels, Period: models.Current, Date: date, Data: currentChannelInput(t).Channels},
		},
		History: map[models.Period]models.Dataset{
			models.LastWeek: {
				Positions: &models.Snapshot{Kind: models.Positions, Period: models.LastWeek, Data: table(t, positionCols,
					[]string{"A", "Alpha", "cat1", "70", "1"},
					[]string{"B", "Beta", "cat1", "50", "1"},
					[]string{"C", "Gamma", "cat2", "150", "1"},
				)},
			},
		},
	}
}

func TestReportService_RunAllSections(t *testing.T) {
	svc := NewReportService(DefaultOptions())
	report := svc.Run(context.Background(), sampleContext(t), nil)
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
	if len(report.Sections) != len(SectionNames) {
		t.Fatalf("want %d sections, got %d", len(SectionNames), len(report.Sections))
	}
	for i, s := range report.Sections {
		if s.Name != SectionNames[i] || s.Title == "" || s.Table == nil {
			t.Fatalf("section %d malformed: %+v", i, s)
		}
	}
	scale, ok := report.Section(SectionScale)
	if !ok || !scale.Table.Has("scale_change_last_week") || scale.Table.Has("scale_change_last_year") {
		t.Fatalf("scale section should compare last week only: %v", scale.Table.Names())
	}
	if !report.Date.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected report date %v", report.Date)
	}
}

func TestReportService_FailureIsolated(t *testing.T) {
	rc := sampleContext(t)
	rc.History[models.LastWeek] = models.Dataset{
		Positions: &models.Snapshot{Data: table(t, positionCols,
			[]string{"A", "Alpha", "cat1", "1", "1"},
			[]string{"A", "Alpha", "cat1", "2", "1"},
		)},
	}
	report := NewReportService(DefaultOptions()).Run(context.Background(), rc, nil)

	// duplicate codes break the joins on code but not the category table
	for _, name := range []string{SectionDetail, SectionVolatility} {
		if !report.Failed(name) {
			t.Fatalf("%s should fail", name)
		}
	}
	if _, ok := report.Section(SectionScale); !ok {
		t.Fatalf("scale section should survive")
	}
	var ambiguous *frame.AmbiguousJoinError
	if !errors.As(report.Failures[0], &ambiguous) {
		t.Fatalf("failure should unwrap to *AmbiguousJoinError: %v", report.Failures[0])
	}
}

func TestReportService_UnknownAndSubset(t *testing.T) {
	report := NewReportService(DefaultOptions()).Run(context.Background(), sampleContext(t), []string{"nope", SectionScale})
	if len(report.Sections) != 1 || report.Sections[0].Name != SectionScale {
		t.Fatalf("unexpected sections: %+v", report.Sections)
	}
	if len(report.Failures) != 1 || report.Failures[0].Section != "nope" {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}
}

func TestReportService_PanicRecovered(t *testing.T) {
	s := NewReportService(DefaultOptions()).(*reportService)
	s.sections["boom"] = func(models.ReportContext) (models.Section, error) {
		panic("index out of range")
	}
	report := s.Run(context.Background(), sampleContext(t), []string{"boom", SectionDetail})
	if !report.Failed("boom") {
		t.Fatalf("panic should be recorded as a failure")
	}
	if _, ok := report.Section(SectionDetail); !ok {
		t.Fatalf("sibling section should still run")
	}
}

func TestReportService_MissingInputs(t *testing.T) {
	report := NewReportService(DefaultOptions()).Run(context.Background(), models.ReportContext{}, nil)
	if len(report.Sections) != 0 || len(report.Failures) != len(SectionNames) {
		t.Fatalf("every section needs a current snapshot: %+v", report.Failures)
	}
}

func TestReportService_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := NewReportService(DefaultOptions()).Run(ctx, sampleContext(t), []string{SectionScale})
	if len(report.Failures) != 1 || !errors.Is(report.Failures[0], context.Canceled) {
		t.Fatalf("want canceled failure, got %+v", report.Failures)
	}
}

func TestComputationFailure_Error(t *testing.T) {
	f := &ComputationFailure{Section: "scale", Cause: errors.New("boom")}
	if f.Error() != "section scale failed: boom" {
		t.Fatalf("unexpected message %q", f.Error())
	}
}

func TestNewReportService_Options(t *testing.T) {
	s := NewReportService(Options{Tolerance: dec("0.2")})
	if !s.Reconciler().Tolerance.Equal(dec("0.2")) {
		t.Fatalf("tolerance not applied")
	}
}

func TestNewReportService_ZeroSettingsAreKept(t *testing.T) {
	s := NewReportService(Options{}).(*reportService)
	if !s.Reconciler().Tolerance.IsZero() || !s.threshold.IsZero() {
		t.Fatalf("zero settings replaced: tolerance=%s threshold=%s", s.Reconciler().Tolerance, s.threshold)
	}
	// with a zero tolerance any disagreement goes to the book of record
	v := s.Reconciler().Resolve("P1", dec("95"), decimal.NewNullDecimal(dec("100")))
	if !v.Overridden || !v.Resolved.Equal(dec("100")) {
		t.Fatalf("zero tolerance must override: %+v", v)
	}
}
