package service

import "fmt"

// Section names, in the order a full report lists them.
const (
	SectionScale          = "scale"
	SectionDetail         = "detail"
	SectionChannel        = "channel"
	SectionChannelSummary = "channel_summary"
	SectionAllocation     = "allocation"
	SectionVolatility     = "volatility"
)

// SectionNames is the default section order.
var SectionNames = []string{
	SectionScale,
	SectionDetail,
	SectionChannel,
	SectionChannelSummary,
	SectionAllocation,
	SectionVolatility,
}

// ComputationFailure records a section that could not be produced. The rest
// of the report is unaffected.
type ComputationFailure struct {
	Section string
	Cause   error
}

func (e *ComputationFailure) Error() string {
	return fmt.Sprintf("section %s failed: %v", e.Section, e.Cause)
}

func (e *ComputationFailure) Unwrap() error { return e.Cause }
