package reporting

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"retail-sales-lab/internal/domain"
)

var printer = message.NewPrinter(language.English)

// formatAmount renders v with thousands separators and two decimals.
func formatAmount(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// formatOpt renders an optional amount, or "undefined".
func formatOpt(o domain.OptFloat) string {
	if !o.Valid {
		return "undefined"
	}
	return formatAmount(o.Value)
}

// formatPercent renders a ratio as a signed percentage, or "undefined".
func formatPercent(o domain.OptFloat) string {
	if !o.Valid {
		return "undefined"
	}
	return fmt.Sprintf("%+.2f%%", o.Value*100)
}

// formatBucket renders a trend bucket for the given granularity.
func formatBucket(g domain.Granularity, b time.Time) string {
	switch g {
	case domain.GranularityMonth:
		return b.Format("2006-01")
	case domain.GranularityRaw:
		return b.Format(time.RFC3339)
	default:
		return b.Format("2006-01-02")
	}
}
