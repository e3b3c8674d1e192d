// Package domain defines the core types shared across the pepperwatch
// client: regions, price points, prediction results, chart series, and
// conversation messages.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in all
// client-side series ("YYYY-MM-DD"). Lexicographic order on these strings
// matches chronological order.
const DateLayout = "2006-01-02"

// Region identifies one of the tracked pepper markets. The value is the
// lowercase wire form expected by the backend.
type Region string

const (
	RegionMadikeri       Region = "madikeri"
	RegionSirsi          Region = "sirsi"
	RegionChikkamagaluru Region = "chikkamagaluru"
)

// Regions returns all tracked regions in display order.
func Regions() []Region {
	return []Region{RegionMadikeri, RegionSirsi, RegionChikkamagaluru}
}

// ParseRegion maps a user-supplied region name to a Region. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RegionMadikeri, RegionSirsi, RegionChikkamagaluru:
		return r, nil
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// DisplayName returns the region name with the first letter capitalized,
// as used in table views.
func (r Region) DisplayName() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// PricePoint is a single observed market price on a calendar date.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Time parses the point's date.
func (p PricePoint) Time() (time.Time, error) {
	return time.Parse(DateLayout, p.Date)
}

// PredictionResult is the outcome of a single predict call. It is owned by
// the workflow instance that requested it and replaced wholesale on the next
// predict action.
type PredictionResult struct {
	Region         Region  `json:"region"`
	TargetDate     string  `json:"target_date"`
	PredictedPrice float64 `json:"predicted_price"`
}

// BacktestPoint compares a past model prediction with the realized price on
// the same date. Backtest data is never mixed into live prediction series.
type BacktestPoint struct {
	Date      string  `json:"date"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
}

// LatestQuote is the most recent known price for a region.
type LatestQuote struct {
	Price float64 `json:"price"`
	Date  string  `json:"date"`
}

// SeriesPoint is one renderable point of a chart series. IsPrediction marks
// the single synthetic forecast point, always last in the series.
type SeriesPoint struct {
	Date         string  `json:"date"`
	Price        float64 `json:"price"`
	IsPrediction bool    `json:"isPrediction,omitempty"`
}

// ChartSeries is an ordered, render-ready price series. At most one point is
// flagged as a prediction and, when present, it is the last element.
type ChartSeries []SeriesPoint

// Last returns the final point of the series and true, or a zero point and
// false for an empty series.
func (s ChartSeries) Last() (SeriesPoint, bool) {
	if len(s) == 0 {
		return SeriesPoint{}, false
	}
	return s[len(s)-1], true
}

// HasPrediction reports whether the series ends with a prediction point.
func (s ChartSeries) HasPrediction() bool {
	p, ok := s.Last()
	return ok && p.IsPrediction
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation log.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
