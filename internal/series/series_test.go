package series

import (
	"testing"

	"pepperwatch/internal/domain"
)

func history(n int) []domain.PricePoint {
	pts := make([]domain.PricePoint, n)
	for i := range pts {
		pts[i] = domain.PricePoint{
			Date:  "2025-01-" + string(rune('0'+(i+1)/10)) + string(rune('0'+(i+1)%10)),
			Price: 600 + float64(i),
		}
	}
	return pts
}

func TestBuildWithoutPrediction(t *testing.T) {
	hist := history(5)
	s := Build(hist, nil)

	if len(s) != 5 {
		t.Fatalf("series has %d points, want 5", len(s))
	}
	for i, p := range s {
		if p.Date != hist[i].Date || p.Price != hist[i].Price {
			t.Errorf("point %d = %+v, want %+v", i, p, hist[i])
		}
		if p.IsPrediction {
			t.Errorf("point %d flagged as prediction without one supplied", i)
		}
	}
}

func TestBuildAppendsPredictionLast(t *testing.T) {
	hist := history(30)
	pred := &domain.PricePoint{Date: "2025-02-01", Price: 685.50}
	s := Build(hist, pred)

	if len(s) != 31 {
		t.Fatalf("series has %d points, want 31", len(s))
	}
	last, _ := s.Last()
	if !last.IsPrediction || last.Price != 685.50 {
		t.Errorf("last point = %+v, want the prediction", last)
	}
	predictions := 0
	for _, p := range s {
		if p.IsPrediction {
			predictions++
		}
	}
	if predictions != 1 {
		t.Errorf("series has %d prediction points, want exactly 1", predictions)
	}
}

func TestBuildDuplicateDateNoMerge(t *testing.T) {
	hist := []domain.PricePoint{{Date: "2025-01-01", Price: 600}}
	pred := &domain.PricePoint{Date: "2025-01-01", Price: 610}
	s := Build(hist, pred)

	// No dedup: both points survive, the prediction last.
	if len(s) != 2 {
		t.Fatalf("series has %d points, want 2", len(s))
	}
	if s[0].IsPrediction || !s[1].IsPrediction {
		t.Errorf("prediction flag misplaced: %+v", s)
	}
}

func TestBuildDoesNotAliasHistory(t *testing.T) {
	hist := history(3)
	s := Build(hist, nil)
	s[0].Price = -1
	if hist[0].Price == -1 {
		t.Error("Build must copy history, not alias it")
	}
}

func TestFromBacktest(t *testing.T) {
	pts := []domain.BacktestPoint{
		{Date: "2025-01-01", Actual: 600, Predicted: 598},
		{Date: "2025-01-02", Actual: 610, Predicted: 612},
	}
	actual, predicted := FromBacktest(pts)
	if len(actual) != 2 || len(predicted) != 2 {
		t.Fatalf("series lengths = %d/%d, want 2/2", len(actual), len(predicted))
	}
	if actual[1].Price != 610 || predicted[1].Price != 612 {
		t.Errorf("values mismatched: actual=%+v predicted=%+v", actual[1], predicted[1])
	}
	if actual[0].Date != predicted[0].Date {
		t.Error("actual and predicted series must share dates")
	}
}

func TestReversed(t *testing.T) {
	s := Build(history(3), nil)
	r := Reversed(s)
	if r[0].Date != s[2].Date || r[2].Date != s[0].Date {
		t.Errorf("Reversed order wrong: %+v", r)
	}
	// Original untouched.
	if s[0].Date != "2025-01-01" {
		t.Errorf("Reversed mutated input: %+v", s)
	}
}

func TestFormatINR(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{685.5, "₹685.50"},
		{68550, "₹68,550.00"},
		{1234567.89, "₹12,34,567.89"},
		{100, "₹100.00"},
		{-68550, "₹-68,550.00"},
	}
	for _, c := range cases {
		if got := FormatINR(c.in); got != c.want {
			t.Errorf("FormatINR(%v) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := FormatINRWhole(68550.75); got != "₹68,551" {
		t.Errorf("FormatINRWhole = %q, want ₹68,551", got)
	}
}

func TestFormatDates(t *testing.T) {
	if got := FormatDateShort("2025-03-14"); got != "14 Mar" {
		t.Errorf("FormatDateShort = %q, want %q", got, "14 Mar")
	}
	if got := FormatDateLong("2025-03-14"); got != "Friday, 14 March 2025" {
		t.Errorf("FormatDateLong = %q, want %q", got, "Friday, 14 March 2025")
	}
	if got := FormatDateShort("garbage"); got != "garbage" {
		t.Errorf("malformed date should pass through, got %q", got)
	}
}
