package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"pepperwatch/internal/config"
	"pepperwatch/internal/domain"
	"pepperwatch/internal/market"
	"pepperwatch/pkg/pepper"
)

type stubBackend struct {
	historyCalls atomic.Int64

	chatReply string
	chatErr   error
}

func (b *stubBackend) Chat(ctx context.Context, message string) (string, error) {
	return b.chatReply, b.chatErr
}

func (b *stubBackend) Predict(ctx context.Context, region domain.Region, date string) (domain.PredictionResult, error) {
	return domain.PredictionResult{Region: region, TargetDate: date, PredictedPrice: 685.50}, nil
}

func (b *stubBackend) LatestPrices(ctx context.Context) (map[domain.Region]domain.LatestQuote, error) {
	return map[domain.Region]domain.LatestQuote{
		domain.RegionSirsi:    {Price: 68550.25, Date: "2025-05-31"},
		domain.RegionMadikeri: {Price: 64000, Date: "2025-05-31"},
	}, nil
}

func (b *stubBackend) HistoricalData(ctx context.Context, region domain.Region, days int) ([]domain.PricePoint, error) {
	b.historyCalls.Add(1)
	pts := make([]domain.PricePoint, days)
	for i := range pts {
		pts[i] = domain.PricePoint{
			Date:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i-days).Format(domain.DateLayout),
			Price: 600 + float64(i),
		}
	}
	return pts, nil
}

func (b *stubBackend) ModelBacktest(ctx context.Context, region domain.Region, days int) ([]domain.BacktestPoint, error) {
	pts := make([]domain.BacktestPoint, days)
	for i := range pts {
		pts[i] = domain.BacktestPoint{
			Date:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i-days).Format(domain.DateLayout),
			Actual:    600 + float64(i),
			Predicted: 601 + float64(i),
		}
	}
	return pts, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestServer(backend market.Backend) *httptest.Server {
	log := slog.New(slog.DiscardHandler)
	orch := market.New(backend, log)
	views := config.Views{OverviewDays: 30, PredictContextDays: 30, BacktestDays: 90, TableDays: 180}
	clock := fixedClock{time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	return httptest.NewServer(NewServer(orch, clock, views, 5, log).Handler())
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, url, body string, v any) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func TestOverviewEndpoint(t *testing.T) {
	srv := newTestServer(&stubBackend{})
	defer srv.Close()

	var resp OverviewResponse
	getJSON(t, srv.URL+"/api/overview", &resp)

	if len(resp.Regions) != 3 {
		t.Fatalf("got %d regions, want 3", len(resp.Regions))
	}
	var sirsi *RegionOverviewJSON
	for i := range resp.Regions {
		if resp.Regions[i].Region == "sirsi" {
			sirsi = &resp.Regions[i]
		}
	}
	if sirsi == nil {
		t.Fatal("overview missing sirsi")
	}
	if sirsi.Latest == nil || sirsi.Latest.PriceDisplay != "₹68,550.25" {
		t.Errorf("sirsi latest = %+v", sirsi.Latest)
	}
	if len(sirsi.Trend) != 30 {
		t.Errorf("sirsi trend has %d points, want 30", len(sirsi.Trend))
	}
	if sirsi.ChangePct <= 0 {
		t.Errorf("ChangePct = %v, want positive for a rising series", sirsi.ChangePct)
	}
}

func TestOverviewCachedUntilRefresh(t *testing.T) {
	backend := &stubBackend{}
	srv := newTestServer(backend)
	defer srv.Close()

	getJSON(t, srv.URL+"/api/overview", nil)
	after := backend.historyCalls.Load()
	if after != 3 {
		t.Fatalf("first overview made %d history calls, want 3", after)
	}

	getJSON(t, srv.URL+"/api/overview", nil)
	if got := backend.historyCalls.Load(); got != after {
		t.Errorf("cached overview refetched: %d calls, want %d", got, after)
	}

	getJSON(t, srv.URL+"/api/overview?refresh=1", nil)
	if got := backend.historyCalls.Load(); got != after+3 {
		t.Errorf("refresh made %d calls total, want %d", got, after+3)
	}
}

func TestTableEndpointNewestFirst(t *testing.T) {
	srv := newTestServer(&stubBackend{})
	defer srv.Close()

	var resp TableResponse
	getJSON(t, srv.URL+"/api/table/sirsi", &resp)

	if len(resp.Rows) != 180 {
		t.Fatalf("got %d rows, want 180", len(resp.Rows))
	}
	if resp.Rows[0].Date <= resp.Rows[1].Date {
		t.Errorf("rows not newest first: %s then %s", resp.Rows[0].Date, resp.Rows[1].Date)
	}
	if resp.Rows[0].PriceDisplay != "₹779.00" {
		t.Errorf("PriceDisplay = %q", resp.Rows[0].PriceDisplay)
	}
}

func TestPerformanceEndpoint(t *testing.T) {
	srv := newTestServer(&stubBackend{})
	defer srv.Close()

	var resp PerformanceResponse
	getJSON(t, srv.URL+"/api/performance/madikeri", &resp)

	if len(resp.Actual) != 90 || len(resp.Predicted) != 90 {
		t.Fatalf("actual %d predicted %d, want 90 each", len(resp.Actual), len(resp.Predicted))
	}
	if resp.Predicted[0].Price != resp.Actual[0].Price+1 {
		t.Errorf("predicted[0] = %v, actual[0] = %v", resp.Predicted[0].Price, resp.Actual[0].Price)
	}
}

func TestUnknownRegionIs404(t *testing.T) {
	srv := newTestServer(&stubBackend{})
	defer srv.Close()

	resp := getJSON(t, srv.URL+"/api/table/kerala", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPredictEndpoint(t *testing.T) {
	srv := newTestServer(&stubBackend{})
	defer srv.Close()

	var resp PredictResponse
	postJSON(t, srv.URL+"/api/predict", `{"region":"sirsi","date":"2025-06-02"}`, &resp)

	if resp.PredictedPrice != 685.50 || resp.TargetDate != "2025-06-02" {
		t.Errorf("prediction = %+v", resp)
	}
	if resp.Tier != "high" || resp.TierLabel != "High Reliability" || resp.Horizon != 1 {
		t.Errorf("tier = %q label = %q horizon = %d", resp.Tier, resp.TierLabel, resp.Horizon)
	}
	if len(resp.Series) != 31 {
		t.Fatalf("series has %d points, want 31", len(resp.Series))
	}
	if !resp.Series[30].IsPrediction {
		t.Error("last series point should be flagged as the prediction")
	}
}

func TestPredictValidationIs400(t *testing.T) {
	srv := newTestServer(&stubBackend{})
	defer srv.Close()

	var body map[string]string
	resp := postJSON(t, srv.URL+"/api/predict", `{"region":"sirsi","date":"2020-01-01"}`, &body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] == "" {
		t.Error("error body should carry a message")
	}
}

func TestChatEndpoint(t *testing.T) {
	srv := newTestServer(&stubBackend{chatReply: "Prices are steady this week."})
	defer srv.Close()

	var resp ChatResponse
	postJSON(t, srv.URL+"/api/chat", `{"message":"how are prices?"}`, &resp)
	if resp.Reply != "Prices are steady this week." {
		t.Errorf("Reply = %q", resp.Reply)
	}
}

func TestChatUpstreamFailureIs504(t *testing.T) {
	srv := newTestServer(&stubBackend{chatErr: &pepper.NetworkError{Err: context.DeadlineExceeded}})
	defer srv.Close()

	var body map[string]string
	resp := postJSON(t, srv.URL+"/api/chat", `{"message":"hello"}`, &body)
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", resp.StatusCode)
	}
}
