package service

import (
	"fmt"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
	"github.com/guttosm/aumreport/internal/normalize"
)

// ChannelInput pairs a channel snapshot with the positions snapshot of the
// same date, which serves as its book of record.
type ChannelInput struct {
	Channels  *frame.Frame
	Positions *frame.Frame
}

// channelPeriods are the periods the channel tables compare against.
var channelPeriods = []models.Period{models.LastWeek, models.LastMonth}

// ChannelSummarySpec groups reconciled channel scale by canonical channel.
var ChannelSummarySpec = GroupSpec{
	Section: SectionChannelSummary,
	Group:   models.ColChannel,
	Value:   models.ColAdjustedScale,
	Periods: channelPeriods,
}

// ChannelReport is the reconciled per-product channel table.
type ChannelReport struct {
	Table      *frame.Frame
	Values     []models.ReconciledValue
	Overridden int
	Periods    []models.Period
	Warnings   []string
}

// BuildChannelReport normalizes channel names, reconciles every channel
// figure against the current positions and joins the reconciled scale of
// the last-week and last-month channel snapshots on (code, channel).
// Historical channel figures are reconciled against their own period's
// positions when those are present.
func BuildChannelReport(rec *ChannelReconciler, current ChannelInput, history map[models.Period]ChannelInput) (*ChannelReport, error) {
	report := &ChannelReport{}
	table, values, err := prepareChannels(rec, current, models.Current, &report.Warnings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SectionChannel, err)
	}
	report.Values = values
	for _, v := range values {
		if v.Overridden {
			report.Overridden++
		}
	}

	out := []string{
		models.ColCode, models.ColName, models.ColChannel, models.ColScale,
		models.ColReferenceScale, models.ColAdjustedScale, models.ColOverridden,
	}
	table = ensureColumns(SectionChannel, models.Current, table, []frame.Column{{Name: models.ColName, Kind: frame.Text}}, &report.Warnings)

	for _, p := range channelPeriods {
		in, ok := history[p]
		if !ok || in.Channels == nil {
			continue
		}
		hist, _, err := prepareChannels(rec, in, p, &report.Warnings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", SectionChannel, err)
		}
		table, err = frame.MergeWithHistory(table, hist, frame.Join{
			Keys:   []string{models.ColCode, models.ColChannel},
			Values: []string{models.ColAdjustedScale},
			Suffix: string(p),
		})
		if err != nil {
			return nil, fmt.Errorf("%s: merge %s: %w", SectionChannel, p, err)
		}
		out = append(out,
			frame.HistColumn(models.ColAdjustedScale, string(p)),
			frame.ChangeColumn(models.ColAdjustedScale, string(p)))
		report.Periods = append(report.Periods, p)
	}

	table, err = table.Select(out...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SectionChannel, err)
	}
	report.Table = table.SortStable(byChannelThenScale)
	return report, nil
}

// BuildChannelSummary sums the reconciled scale per canonical channel, with
// the same reconciliation applied to the last-week and last-month channel
// snapshots before they are compared.
func BuildChannelSummary(rec *ChannelReconciler, current ChannelInput, history map[models.Period]ChannelInput) (*GroupReport, error) {
	var warnings []string
	cur, _, err := prepareChannels(rec, current, models.Current, &warnings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SectionChannelSummary, err)
	}
	hist := map[models.Period]*frame.Frame{}
	for _, p := range channelPeriods {
		in, ok := history[p]
		if !ok || in.Channels == nil {
			continue
		}
		if hist[p], _, err = prepareChannels(rec, in, p, &warnings); err != nil {
			return nil, fmt.Errorf("%s: %w", SectionChannelSummary, err)
		}
	}
	report, err := BuildGroupReport(cur, hist, ChannelSummarySpec)
	if err != nil {
		return nil, err
	}
	report.Warnings = append(warnings, report.Warnings...)
	return report, nil
}

func prepareChannels(rec *ChannelReconciler, in ChannelInput, p models.Period, warnings *[]string) (*frame.Frame, []models.ReconciledValue, error) {
	if in.Channels == nil {
		return nil, nil, fmt.Errorf("no %s channel snapshot", p)
	}
	named := normalize.Channels.Column(in.Channels, models.ColChannelName, models.ColChannel)
	return rec.ReconcileFrame(named, in.Positions, p, warnings)
}

// byChannelThenScale orders channel ascending, then adjusted scale
// descending.
func byChannelThenScale(a, b frame.Row) bool {
	ca, cb := a.Text(models.ColChannel), b.Text(models.ColChannel)
	if ca != cb {
		return ca < cb
	}
	return a.Get(models.ColAdjustedScale).Num.GreaterThan(b.Get(models.ColAdjustedScale).Num)
}
