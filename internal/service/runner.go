package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/logger"
	"github.com/shopspring/decimal"
)

// ReportService runs report sections over a ReportContext.
// Handlers and the command line depend on this interface, not on the
// builders directly.
type ReportService interface {
	Run(ctx context.Context, rc models.ReportContext, sections []string) *Report
	Reconciler() *ChannelReconciler
}

// Options tunes the section builders. Values are used as given, zero
// included; DefaultOptions carries the usual settings.
type Options struct {
	Tolerance           decimal.Decimal
	VolatilityThreshold decimal.Decimal
}

// DefaultOptions returns a 0.10 reconciliation tolerance and a 0.03
// volatility threshold.
func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance, VolatilityThreshold: DefaultVolatilityThreshold}
}

// Report is the outcome of one run: the sections that succeeded, in the
// requested order, and one failure per section that did not. Warnings
// carries input problems found before the sections ran.
type Report struct {
	Date     time.Time             `json:"date"`
	Sections []models.Section      `json:"sections"`
	Failures []*ComputationFailure `json:"-"`
	Warnings []string              `json:"warnings,omitempty"`
}

// Section returns the named section, if it succeeded.
func (r *Report) Section(name string) (models.Section, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return models.Section{}, false
}

// Failed reports whether the named section failed.
func (r *Report) Failed(name string) bool {
	for _, f := range r.Failures {
		if f.Section == name {
			return true
		}
	}
	return false
}

var sectionTitles = map[string]string{
	SectionScale:          "Product scale by category",
	SectionDetail:         "Product detail",
	SectionChannel:        "Channel scale",
	SectionChannelSummary: "Channel summary",
	SectionAllocation:     "Asset allocation",
	SectionVolatility:     "High nav volatility",
}

type sectionFunc func(rc models.ReportContext) (models.Section, error)

type reportService struct {
	reconciler *ChannelReconciler
	threshold  decimal.Decimal
	sections   map[string]sectionFunc
}

// NewReportService wires every section builder with opts.
func NewReportService(opts Options) ReportService {
	s := &reportService{
		reconciler: NewChannelReconciler(opts.Tolerance),
		threshold:  opts.VolatilityThreshold,
	}
	s.sections = map[string]sectionFunc{
		SectionScale:          s.scale,
		SectionDetail:         s.detail,
		SectionChannel:        s.channel,
		SectionChannelSummary: s.channelSummary,
		SectionAllocation:     s.allocation,
		SectionVolatility:     s.volatility,
	}
	return s
}

func (s *reportService) Reconciler() *ChannelReconciler { return s.reconciler }

// Run computes the requested sections (all of them when names is empty) in
// order. A section that returns an error or panics is recorded as a
// ComputationFailure and left out; the others are unaffected.
func (s *reportService) Run(ctx context.Context, rc models.ReportContext, names []string) *Report {
	if len(names) == 0 {
		names = SectionNames
	}
	report := &Report{Date: rc.ReportDate}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			report.fail(name, err)
			continue
		}
		fn, ok := s.sections[name]
		if !ok {
			report.fail(name, fmt.Errorf("unknown section"))
			continue
		}
		sec, err := runSection(name, fn, rc)
		if err != nil {
			report.fail(name, err)
			continue
		}
		logger.L().Info().Str("section", name).Int("rows", sec.Table.Len()).Msg("section computed")
		report.Sections = append(report.Sections, sec)
	}
	return report
}

func runSection(name string, fn sectionFunc, rc models.ReportContext) (sec models.Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Error().
				Str("section", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	sec, err = fn(rc)
	if err != nil {
		return sec, err
	}
	sec.Name = name
	sec.Title = sectionTitles[name]
	return sec, nil
}

func (r *Report) fail(name string, err error) {
	f := &ComputationFailure{Section: name, Cause: err}
	logger.L().Error().Str("section", name).Err(err).Msg("section failed")
	r.Failures = append(r.Failures, f)
}

func (s *reportService) scale(rc models.ReportContext) (models.Section, error) {
	r, err := BuildScaleReport(rc.Current.Positions.Frame(), rc.HistoryOf(models.Positions, models.HistoricalPeriods...))
	if err != nil {
		return models.Section{}, err
	}
	return models.Section{Table: r.Frame(), Warnings: r.Warnings}, nil
}

func (s *reportService) detail(rc models.ReportContext) (models.Section, error) {
	r, err := BuildInstrumentDetail(rc.Current.Positions.Frame(), rc.Historical(models.LastWeek, models.Positions))
	if err != nil {
		return models.Section{}, err
	}
	return models.Section{Table: r.Table, Warnings: r.Warnings}, nil
}

func (s *reportService) channel(rc models.ReportContext) (models.Section, error) {
	r, err := BuildChannelReport(s.reconciler, currentChannels(rc), historicalChannels(rc))
	if err != nil {
		return models.Section{}, err
	}
	sec := models.Section{Table: r.Table, Warnings: r.Warnings}
	if r.Overridden > 0 {
		sec.Notes = append(sec.Notes, fmt.Sprintf("%d channel figures replaced by the book of record", r.Overridden))
	}
	return sec, nil
}

func (s *reportService) channelSummary(rc models.ReportContext) (models.Section, error) {
	r, err := BuildChannelSummary(s.reconciler, currentChannels(rc), historicalChannels(rc))
	if err != nil {
		return models.Section{}, err
	}
	return models.Section{Table: r.Frame(), Warnings: r.Warnings}, nil
}

func (s *reportService) allocation(rc models.ReportContext) (models.Section, error) {
	r, err := BuildAllocationReport(rc.Current.Holdings.Frame(), rc.Current.Positions.Frame(),
		rc.HistoryOf(models.Holdings, models.HistoricalPeriods...))
	if err != nil {
		return models.Section{}, err
	}
	return models.Section{Table: r.Frame(), Warnings: r.Warnings}, nil
}

func (s *reportService) volatility(rc models.ReportContext) (models.Section, error) {
	r, err := BuildVolatilityReport(rc.Current.Positions.Frame(), rc.Historical(models.LastWeek, models.Positions), s.threshold)
	if err != nil {
		return models.Section{}, err
	}
	return models.Section{Table: r.Table, Warnings: r.Warnings, Notes: r.Notes()}, nil
}

func currentChannels(rc models.ReportContext) ChannelInput {
	return ChannelInput{Channels: rc.Current.Channels.Frame(), Positions: rc.Current.Positions.Frame()}
}

func historicalChannels(rc models.ReportContext) map[models.Period]ChannelInput {
	out := map[models.Period]ChannelInput{}
	for _, p := range channelPeriods {
		out[p] = ChannelInput{
			Channels:  rc.Historical(p, models.Channels),
			Positions: rc.Historical(p, models.Positions),
		}
	}
	return out
}
