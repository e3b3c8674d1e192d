// Package forecast provides horizon math and the reliability tiering for
// forecast dates. All date comparisons go through an injected Clock so the
// results are deterministic under test.
package forecast

import "time"

// Clock supplies the current time. Production code uses SystemClock; tests
// inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// Tier is the discrete confidence classification of a forecast horizon.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Label returns the tier as displayed in the UI.
func (t Tier) Label() string {
	switch t {
	case TierHigh:
		return "High Reliability"
	case TierMedium:
		return "Medium Reliability"
	case TierLow:
		return "Low Reliability"
	}
	return string(t)
}

// HorizonDays returns the forecast horizon in whole days between today and
// the target date, rounding partial days up. Negative horizons are
// returned as-is; validating that a date lies in the future is the
// workflow's job, not the classifier's.
func HorizonDays(today, target time.Time) int {
	d := target.Sub(today)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Classify maps a forecast horizon to a confidence tier: high for up to 5
// days ahead, medium for 6-10, low beyond that. It is total: any pair of
// dates yields a tier.
func Classify(today, target time.Time) Tier {
	return ClassifyHorizon(HorizonDays(today, target))
}

// ClassifyHorizon is Classify for an already-computed horizon.
func ClassifyHorizon(days int) Tier {
	switch {
	case days <= 5:
		return TierHigh
	case days <= 10:
		return TierMedium
	default:
		return TierLow
	}
}
