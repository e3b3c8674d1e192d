package series

import (
	"fmt"
	"strings"
	"time"

	"pepperwatch/internal/domain"
)

// FormatINR formats a price as Indian rupees with en-IN digit grouping:
// the last three digits form one group, the rest group in pairs
// (₹12,34,567.89).
func FormatINR(v float64) string {
	return "₹" + groupIndian(fmt.Sprintf("%.2f", v))
}

// FormatINRWhole is FormatINR without paise, as the dashboard KPI cards
// show it.
func FormatINRWhole(v float64) string {
	return "₹" + groupIndian(fmt.Sprintf("%.0f", v))
}

// groupIndian inserts en-IN thousands separators into a plain decimal
// string (optionally signed, optionally with a fractional part).
func groupIndian(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}

	var b strings.Builder
	head := intPart[:len(intPart)-3]
	tail := intPart[len(intPart)-3:]
	// Head groups in pairs, right to left.
	start := len(head) % 2
	if start > 0 {
		b.WriteString(head[:start])
	}
	for i := start; i < len(head); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return sign + b.String() + fracPart
}

// FormatDateShort renders a series date as "02 Jan" for chart axes.
// Malformed dates are passed through unchanged.
func FormatDateShort(date string) string {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02 Jan")
}

// FormatDateLong renders a series date as "Monday, 02 January 2006" for
// the prediction result card.
func FormatDateLong(date string) string {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, 02 January 2006")
}
