package service

import (
	"errors"
	"reflect"
	"testing"

	"github.com/guttosm/aumreport/internal/domain/models"
	"github.com/guttosm/aumreport/internal/frame"
)

func currentChannelInput(t *testing.T) ChannelInput {
	return ChannelInput{
		Channels: table(t, channelCols,
			[]string{"A", "Alpha", "外部渠道1", "89"},
			[]string{"B", "Beta", "自营渠道", "48"},
			[]string{"C", "Gamma", "渠道A", "150"},
			[]string{"A", "Alpha", "自有渠道", "10"},
		),
		Positions: sampleCurrent(t),
	}
}

func TestBuildChannelReport_NoHistory(t *testing.T) {
	r, err := BuildChannelReport(NewChannelReconciler(DefaultTolerance), currentChannelInput(t), nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []string{"code", "name", "channel", "scale", "reference_scale", "adjusted_scale", "overridden"}
	if got := r.Table.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected columns: %v", got)
	}
	// A/自有渠道 reports 10 against 100 and is overridden as well.
	if r.Overridden != 2 {
		t.Fatalf("want 2 overrides, got %d", r.Overridden)
	}
	var order []string
	for i := 0; i < r.Table.Len(); i++ {
		order = append(order, r.Table.Cell(i, "channel").Str+"/"+r.Table.Cell(i, "code").Str)
	}
	wantOrder := []string{"External A/C", "External A/A", "Proprietary/A", "Proprietary/B"}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestBuildChannelReport_WithHistory(t *testing.T) {
	history := map[models.Period]ChannelInput{
		models.LastWeek: {
			Channels: table(t, channelCols,
				[]string{"A", "Alpha", "External A", "80"},
				[]string{"C", "Gamma", "External A", "120"},
			),
		},
	}
	r, err := BuildChannelReport(NewChannelReconciler(DefaultTolerance), currentChannelInput(t), history)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(r.Periods, []models.Period{models.LastWeek}) {
		t.Fatalf("unexpected periods: %v", r.Periods)
	}
	if !r.Table.Has("adjusted_scale_last_week") || r.Table.Has("adjusted_scale_last_month") {
		t.Fatalf("unexpected columns: %v", r.Table.Names())
	}
	// row 0 is External A/C: 150 against 120
	assertDec(t, "C change", r.Table.Cell(0, "adjusted_scale_change_last_week").Num, "0.25")
	// row 1 is External A/A: adjusted 100 against 80
	assertDec(t, "A change", r.Table.Cell(1, "adjusted_scale_change_last_week").Num, "0.25")
	if r.Table.Cell(2, "adjusted_scale_last_week").Valid {
		t.Fatalf("Proprietary/A has no last-week row")
	}
}

func TestBuildChannelReport_AmbiguousHistory(t *testing.T) {
	history := map[models.Period]ChannelInput{
		models.LastMonth: {
			Channels: table(t, channelCols,
				[]string{"A", "Alpha", "External A", "80"},
				[]string{"A", "Alpha", "渠道A", "20"},
			),
		},
	}
	_, err := BuildChannelReport(NewChannelReconciler(DefaultTolerance), currentChannelInput(t), history)
	var ambiguous *frame.AmbiguousJoinError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("want *AmbiguousJoinError, got %v", err)
	}
}

func TestBuildChannelReport_NoChannels(t *testing.T) {
	if _, err := BuildChannelReport(NewChannelReconciler(DefaultTolerance), ChannelInput{}, nil); err == nil {
		t.Fatalf("want error without channel snapshot")
	}
}

func TestBuildChannelSummary(t *testing.T) {
	history := map[models.Period]ChannelInput{
		models.LastWeek: {
			Channels: table(t, channelCols,
				[]string{"A", "Alpha", "External A", "200"},
				[]string{"B", "Beta", "自营", "50"},
			),
			Positions: table(t, positionCols,
				[]string{"A", "Alpha", "cat1", "100", "1"},
			),
		},
	}
	r, err := BuildChannelSummary(NewChannelReconciler(DefaultTolerance), currentChannelInput(t), history)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	groups := r.Groups()
	if len(groups) != 2 || groups[0].Group != "External A" || groups[1].Group != "Proprietary" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	// External A: C 150 + A 100 (overridden)
	assertDec(t, "External A", groups[0].Scale, "250")
	// Proprietary: B 48 + A 100 (overridden)
	assertDec(t, "Proprietary", groups[1].Scale, "148")
	assertDec(t, "total", r.Total().Scale, "398")

	// last week External A was 200 reported against a 100 book of record
	week := groups[0].History[models.LastWeek]
	assertDec(t, "External A last week", week.Scale.Decimal, "100")
	assertDec(t, "External A change", week.Change.Decimal, "1.5")
	if !reflect.DeepEqual(r.Periods, []models.Period{models.LastWeek}) {
		t.Fatalf("unexpected periods: %v", r.Periods)
	}
}
