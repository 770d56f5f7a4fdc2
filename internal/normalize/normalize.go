// Package normalize maps the free-form labels found in source spreadsheets
// (channel names, asset types) onto canonical labels before they reach the
// report sections.
package normalize

import (
	"strings"

	"github.com/guttosm/aumreport/internal/frame"
)

// Mapping is an explicit alias table with a fallback.
type Mapping struct {
	Name    string
	Aliases map[string]string
	// Fallback labels null or blank input, and unmapped input unless
	// KeepUnmapped is set.
	Fallback     string
	KeepUnmapped bool
}

// Apply returns the canonical label for one source label. Lookup ignores
// surrounding spaces and ASCII case.
func (m Mapping) Apply(label string, valid bool) string {
	s := strings.TrimSpace(label)
	if !valid || s == "" {
		return m.Fallback
	}
	if canon, ok := m.lookup(s); ok {
		return canon
	}
	if m.KeepUnmapped {
		return s
	}
	return m.Fallback
}

// Mapped reports whether label has an alias entry.
func (m Mapping) Mapped(label string) bool {
	_, ok := m.lookup(strings.TrimSpace(label))
	return ok
}

func (m Mapping) lookup(s string) (string, bool) {
	if canon, ok := m.Aliases[s]; ok {
		return canon, true
	}
	for k, canon := range m.Aliases {
		if strings.EqualFold(k, s) {
			return canon, true
		}
	}
	return "", false
}

// Column returns a copy of f with dst holding the canonical label of src.
// A frame without src gets dst filled with the fallback.
func (m Mapping) Column(f *frame.Frame, src, dst string) *frame.Frame {
	return f.WithColumn(frame.Column{Name: dst, Kind: frame.Text}, func(r frame.Row) frame.Cell {
		c := r.Get(src)
		return frame.Str(m.Apply(c.Str, c.Valid))
	})
}

// Channels canonicalizes distribution-channel names. Unknown channels are
// kept as reported.
var Channels = Mapping{
	Name: "channel",
	Aliases: map[string]string{
		"外部渠道1":       "External A",
		"外部渠道A":       "External A",
		"渠道A":         "External A",
		"External A":  "External A",
		"外部渠道2":       "External B",
		"外部渠道B":       "External B",
		"渠道B":         "External B",
		"External B":  "External B",
		"自营":          "Proprietary",
		"自营渠道":        "Proprietary",
		"自有渠道":        "Proprietary",
		"Proprietary": "Proprietary",
	},
	Fallback:     "Other",
	KeepUnmapped: true,
}

// AssetClasses folds holding asset types into the four allocation classes.
var AssetClasses = Mapping{
	Name: "asset_class",
	Aliases: map[string]string{
		"股票":    "Equity",
		"A股":    "Equity",
		"STOCK": "Equity",
		"债券":    "Bond",
		"BOND":  "Bond",
		"基金":    "Fund",
		"FUND":  "Fund",
		"货币基金":  "Fund",
		"股票型基金": "Fund",
		"债券型基金": "Fund",
		"混合型基金": "Fund",
		"定期存款":  "Cash & Other",
		"存款":    "Cash & Other",
		"活期存款":  "Cash & Other",
		"现金":    "Cash & Other",
		"其他":    "Cash & Other",
		"CASH":  "Cash & Other",
	},
	Fallback: "Other",
}
