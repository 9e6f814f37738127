// Package dashboard holds the formatting, chart window and chart rendering
// shared by the stockdesk panels.
package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Sign classes for a percentage change.
const (
	ClassPositive = "positive"
	ClassNegative = "negative"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	return humanize.Comma(n)
}

// FormatVolume formats a traded volume with grouping; zero renders as "0".
func FormatVolume(v int64) string {
	return FormatInt(v)
}

// FormatPrice formats a price as <currency>X.XX.
func FormatPrice(currency string, p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		p = 0
	}
	return fmt.Sprintf("%s%.2f", currency, p)
}

// FormatChange formats a signed percentage change with an explicit sign for
// non-negative values, e.g. "+1.23%" or "-0.50%".
func FormatChange(c float64) string {
	if c >= 0 {
		return fmt.Sprintf("+%.2f%%", c)
	}
	return fmt.Sprintf("%.2f%%", c)
}

// ChangeClass returns the style class for a change value.
func ChangeClass(c float64) string {
	if c >= 0 {
		return ClassPositive
	}
	return ClassNegative
}

// FormatFraction formats a fraction in [0,1] as a percentage with two
// decimals, e.g. 0.8765 → "87.65%".
func FormatFraction(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

// FormatClock formats a chart label.
func FormatClock(t time.Time) string {
	return t.Local().Format("15:04:05")
}

// FormatDateTime formats a news timestamp.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// ProgressBar renders frac (clamped to [0,1]) as a bar of width cells.
func ProgressBar(frac float64, width int) string {
	if width <= 0 {
		return ""
	}
	if math.IsNaN(frac) || frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(math.Round(frac * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
