// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashcast/internal/model"
)

// Currency is the symbol prefixed to money values.
var Currency = "$"

// FormatMoney formats an amount with thousands separators and two decimals.
// e.g., -1234.5 -> "-$1,234.50"
func FormatMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s%s%s.%02d", sign, Currency, FormatNumber(whole.IntPart()), cents)
}

// FormatMoneyShort formats an amount compactly for cards and charts.
// e.g., 1234 -> "$1.2K", 980 -> "$980"
func FormatMoneyShort(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s%s%.1fM", sign, Currency, abs/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%s%s%.0fK", sign, Currency, abs/1_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s%s%.1fK", sign, Currency, abs/1_000)
	default:
		return fmt.Sprintf("%s%s%.0f", sign, Currency, abs)
	}
}

// FormatSignedMoney formats an amount with an explicit sign.
func FormatSignedMoney(v float64) string {
	if v > 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatRate formats occurrences per month.
func FormatRate(perMonth float64) string {
	if perMonth >= 10 {
		return fmt.Sprintf("%.0f/mo", perMonth)
	}
	return fmt.Sprintf("%.1f/mo", perMonth)
}

// FormatDelta formats the change between two amounts with a sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatMoney(delta)
	}
	return FormatMoney(delta)
}

// FormatDate formats a forecast date as "Mon 07 Jul".
func FormatDate(t time.Time) string {
	return t.Format("Mon 02 Jan")
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}

// FormatOrdinal formats a day of month as "1st", "22nd", "13th".
func FormatOrdinal(day int) string {
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(day) + suffix
}

// FormatPatternDays describes when a pattern usually lands: day-of-month for
// monthly patterns, the dominant weekday and its share otherwise.
func FormatPatternDays(p *model.Pattern) string {
	switch p.PatternType {
	case model.Monthly:
		parts := make([]string, 0, len(p.MostLikelyDaysOfMonth))
		for _, d := range p.MostLikelyDaysOfMonth {
			parts = append(parts, FormatOrdinal(d.Day))
		}
		return strings.Join(parts, " ")
	case model.Daily:
		return "every day"
	}
	best, share := -1, 0.0
	for wd, s := range p.DayOfWeekProb {
		if s > share || (s == share && wd < best) {
			best, share = wd, s
		}
	}
	if best < 0 {
		return ""
	}
	return FormatDayOfWeek(best) + " " + FormatPercent(share)
}
