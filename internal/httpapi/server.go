// Package httpapi exposes the gateway HTTP API. It shapes backend data into
// render-ready view models and caches each view until it is invalidated.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pepperwatch/internal/chat"
	"pepperwatch/internal/config"
	"pepperwatch/internal/domain"
	"pepperwatch/internal/forecast"
	"pepperwatch/internal/market"
	"pepperwatch/internal/parse"
	"pepperwatch/internal/predict"
	"pepperwatch/internal/series"
	"pepperwatch/internal/viewcache"
	"pepperwatch/pkg/pepper"
)

// Server serves the gateway HTTP API.
type Server struct {
	orch     *market.Orchestrator
	workflow *predict.Workflow
	session  *chat.Session
	cache    *viewcache.Cache
	views    config.Views
	log      *slog.Logger
}

// NewServer wires the gateway to its backend orchestrator.
func NewServer(orch *market.Orchestrator, clock forecast.Clock, views config.Views, maxDaysAhead int, log *slog.Logger) *Server {
	return &Server{
		orch:     orch,
		workflow: predict.NewWorkflow(orch, clock, log, maxDaysAhead, views.PredictContextDays),
		session:  chat.NewSession(orch, log),
		cache:    viewcache.New(),
		views:    views,
		log:      log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/performance/{region}", s.handlePerformance)
	mux.HandleFunc("GET /api/table/{region}", s.handleTable)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("POST /api/chat", s.handleChat)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps backend failures onto gateway status codes. Validation
// rejections are the caller's fault; upstream refusals and transport
// failures are gateway errors.
func statusFor(err error) int {
	var ve *predict.ValidationError
	var se *pepper.ServerError
	var ne *pepper.NetworkError
	var pe *parse.ParseError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &se):
		return http.StatusBadGateway
	case errors.As(err, &ne):
		return http.StatusGatewayTimeout
	case errors.As(err, &pe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// regionFromPath parses the {region} path value, writing a 404 on failure.
func regionFromPath(w http.ResponseWriter, r *http.Request) (domain.Region, bool) {
	region, err := domain.ParseRegion(r.PathValue("region"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return region, true
}

// refreshRequested reports whether the caller asked to bypass the cache.
func refreshRequested(r *http.Request) bool {
	return r.URL.Query().Get("refresh") == "1"
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	resp := RegionsResponse{}
	for _, region := range domain.Regions() {
		resp.Regions = append(resp.Regions, RegionJSON{
			Region:      string(region),
			DisplayName: region.DisplayName(),
		})
	}
	writeJSON(w, resp)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if refreshRequested(r) {
		s.cache.Invalidate(viewcache.ViewOverview, "")
	}

	v, err := s.cache.Ensure(r.Context(), viewcache.ViewOverview, "", func(ctx context.Context) (any, error) {
		ov, err := s.orch.GetOverview(ctx, s.views.OverviewDays)
		// A partial overview is still worth rendering; fail only when
		// nothing at all came back.
		if err != nil && len(ov.Trends) == 0 && len(ov.Latest) == 0 {
			return nil, err
		}
		return s.buildOverview(ov), nil
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, v)
}

func (s *Server) buildOverview(ov market.Overview) OverviewResponse {
	failed := make(map[domain.Region]bool, len(ov.Failed))
	resp := OverviewResponse{}
	for _, region := range ov.Failed {
		failed[region] = true
		resp.Failed = append(resp.Failed, string(region))
	}

	for _, region := range domain.Regions() {
		block := RegionOverviewJSON{
			Region:      string(region),
			DisplayName: region.DisplayName(),
			Trend:       []TrendPointJSON{},
			Failed:      failed[region],
		}
		if q, ok := ov.Latest[region]; ok {
			block.Latest = &QuoteJSON{
				Price:        q.Price,
				PriceDisplay: series.FormatINR(q.Price),
				Date:         q.Date,
			}
		}
		if trend, ok := ov.Trends[region]; ok {
			for _, p := range trend {
				block.Trend = append(block.Trend, TrendPointJSON{Date: p.Date, Price: p.Price})
			}
			if len(trend) >= 2 && trend[0].Price != 0 {
				first, last := trend[0].Price, trend[len(trend)-1].Price
				block.ChangePct = (last - first) / first * 100
			}
		}
		resp.Regions = append(resp.Regions, block)
	}
	return resp
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	region, ok := regionFromPath(w, r)
	if !ok {
		return
	}
	if refreshRequested(r) {
		s.cache.Invalidate(viewcache.ViewPerformance, region)
	}

	v, err := s.cache.Ensure(r.Context(), viewcache.ViewPerformance, region, func(ctx context.Context) (any, error) {
		points, err := s.orch.GetBacktest(ctx, region, s.views.BacktestDays)
		if err != nil {
			return nil, err
		}
		actual, predicted := series.FromBacktest(points)
		resp := PerformanceResponse{
			Region:    string(region),
			Days:      s.views.BacktestDays,
			Actual:    toTrendPoints(actual),
			Predicted: toTrendPoints(predicted),
		}
		return resp, nil
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	region, ok := regionFromPath(w, r)
	if !ok {
		return
	}
	if refreshRequested(r) {
		s.cache.Invalidate(viewcache.ViewTable, region)
	}

	v, err := s.cache.Ensure(r.Context(), viewcache.ViewTable, region, func(ctx context.Context) (any, error) {
		points, err := s.orch.GetHistorical(ctx, region, s.views.TableDays)
		if err != nil {
			return nil, err
		}
		resp := TableResponse{Region: string(region), Rows: []TableRowJSON{}}
		// Newest first.
		for i := len(points) - 1; i >= 0; i-- {
			p := points[i]
			resp.Rows = append(resp.Rows, TableRowJSON{
				Date:         p.Date,
				DateDisplay:  series.FormatDateShort(p.Date),
				Price:        p.Price,
				PriceDisplay: series.FormatINR(p.Price),
			})
		}
		return resp, nil
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, v)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := s.workflow.Run(r.Context(), predict.Input{Region: req.Region, Date: req.Date})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := PredictResponse{
		Region:             string(out.Result.Region),
		TargetDate:         out.Result.TargetDate,
		PredictedPrice:     out.Result.PredictedPrice,
		PriceDisplay:       series.FormatINR(out.Result.PredictedPrice),
		Tier:               string(out.Tier),
		TierLabel:          out.Tier.Label(),
		Horizon:            out.Horizon,
		Series:             toTrendPoints(out.Series),
		ContextUnavailable: out.ContextErr != nil,
	}
	writeJSON(w, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// The gateway is stateless per request; the shared session still
	// serializes sends so replies never interleave.
	if err := s.session.Send(r.Context(), req.Message); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	msgs := s.session.Messages()
	resp := ChatResponse{}
	if n := len(msgs); n > 0 && msgs[n-1].Role == domain.RoleAssistant {
		resp.Reply = msgs[n-1].Content
	}
	writeJSON(w, resp)
}

func toTrendPoints(s domain.ChartSeries) []TrendPointJSON {
	if s == nil {
		return nil
	}
	out := make([]TrendPointJSON, len(s))
	for i, p := range s {
		out[i] = TrendPointJSON{Date: p.Date, Price: p.Price, IsPrediction: p.IsPrediction}
	}
	return out
}
