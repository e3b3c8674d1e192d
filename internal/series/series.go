// Package series shapes historical and predicted prices into renderable
// chart series. Formatting helpers live here too; they are applied only at
// the render boundary and never mutate a series.
package series

import "pepperwatch/internal/domain"

// Build merges a historical price sequence with an optional prediction into
// a ChartSeries. History is copied as-is: the backend contract delivers it
// in chronological order and the builder does not re-sort. When a
// prediction is supplied it is appended as exactly one synthetic point
// flagged IsPrediction, even if its date already appears in history.
func Build(history []domain.PricePoint, prediction *domain.PricePoint) domain.ChartSeries {
	out := make(domain.ChartSeries, 0, len(history)+1)
	for _, p := range history {
		out = append(out, domain.SeriesPoint{Date: p.Date, Price: p.Price})
	}
	if prediction != nil {
		out = append(out, domain.SeriesPoint{
			Date:         prediction.Date,
			Price:        prediction.Price,
			IsPrediction: true,
		})
	}
	return out
}

// FromBacktest shapes model-performance points into two parallel series
// (actual, predicted) sharing the same dates.
func FromBacktest(points []domain.BacktestPoint) (actual, predicted domain.ChartSeries) {
	actual = make(domain.ChartSeries, 0, len(points))
	predicted = make(domain.ChartSeries, 0, len(points))
	for _, p := range points {
		actual = append(actual, domain.SeriesPoint{Date: p.Date, Price: p.Actual})
		predicted = append(predicted, domain.SeriesPoint{Date: p.Date, Price: p.Predicted})
	}
	return actual, predicted
}

// Reversed returns a copy of the series in reverse order. The raw-data
// table view shows newest rows first.
func Reversed(s domain.ChartSeries) domain.ChartSeries {
	out := make(domain.ChartSeries, len(s))
	for i, p := range s {
		out[len(s)-1-i] = p
	}
	return out
}
