// Package market sequences calls to the prediction backend: parallel
// overview fan-out, predict composition, and chat-driven quote extraction.
// It returns shaped domain values only; no raw backend payload leaves this
// package or the SDK beneath it.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pepperwatch/internal/domain"
	"pepperwatch/internal/parse"
	"pepperwatch/pkg/pepper"
)

// Backend is the slice of the pepper SDK the orchestrator consumes.
type Backend interface {
	Chat(ctx context.Context, message string) (string, error)
	Predict(ctx context.Context, region domain.Region, date string) (domain.PredictionResult, error)
	LatestPrices(ctx context.Context) (map[domain.Region]domain.LatestQuote, error)
	HistoricalData(ctx context.Context, region domain.Region, days int) ([]domain.PricePoint, error)
	ModelBacktest(ctx context.Context, region domain.Region, days int) ([]domain.BacktestPoint, error)
}

var _ Backend = (*pepper.Client)(nil)

// Orchestrator issues and combines backend calls. It never retries on its
// own; callers decide whether to retry a failed operation.
type Orchestrator struct {
	backend Backend
	log     *slog.Logger
	now     func() time.Time
}

// New creates an Orchestrator over the given backend.
func New(backend Backend, log *slog.Logger) *Orchestrator {
	return &Orchestrator{backend: backend, log: log, now: time.Now}
}

// WithClock overrides the time source used for chat-derived quote dates.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// ---------------------------------------------------------------------------
// Overview fan-out
// ---------------------------------------------------------------------------

// Overview aggregates the dashboard's first tab: latest quotes plus one
// trend series per region. Regions that failed are listed in Failed and
// absent from Trends; successful series stay renderable regardless.
type Overview struct {
	Latest map[domain.Region]domain.LatestQuote
	Trends map[domain.Region][]domain.PricePoint
	Failed []domain.Region
}

// GetOverview fetches the latest prices and the trend history of every
// region concurrently, returning once all requests settle. A non-nil error
// aggregates every per-region failure into one; the partially filled
// Overview is still returned alongside it.
func (o *Orchestrator) GetOverview(ctx context.Context, days int) (Overview, error) {
	regions := domain.Regions()

	ov := Overview{
		Trends: make(map[domain.Region][]domain.PricePoint, len(regions)),
	}

	trends := make([][]domain.PricePoint, len(regions))
	errs := make([]error, len(regions)+1)

	// Plain errgroup, no shared context cancellation: one region failing
	// must not abort the others.
	var g errgroup.Group
	g.Go(func() error {
		latest, err := o.backend.LatestPrices(ctx)
		if err != nil {
			errs[len(regions)] = fmt.Errorf("latest prices: %w", err)
			return nil
		}
		ov.Latest = latest
		return nil
	})
	for i, region := range regions {
		g.Go(func() error {
			pts, err := o.backend.HistoricalData(ctx, region, days)
			if err != nil {
				errs[i] = fmt.Errorf("%s history: %w", region, err)
				return nil
			}
			trends[i] = pts
			return nil
		})
	}
	g.Wait()

	for i, region := range regions {
		if errs[i] != nil {
			ov.Failed = append(ov.Failed, region)
			continue
		}
		ov.Trends[region] = trends[i]
	}

	if err := errors.Join(errs...); err != nil {
		o.log.Warn("overview partially failed", "failedRegions", len(ov.Failed))
		return ov, err
	}
	return ov, nil
}

// ---------------------------------------------------------------------------
// Predict composition
// ---------------------------------------------------------------------------

// PredictOutcome is the combined result of the mandatory predict call and
// the best-effort historical context fetch. ContextErr is set when the
// context fetch failed; History is nil in that case and the caller shows a
// price-only view.
type PredictOutcome struct {
	Result     domain.PredictionResult
	History    []domain.PricePoint
	ContextErr error
}

// Predict runs the prediction call and the chart-context history fetch
// concurrently. The predict call is mandatory: its failure aborts the
// operation. The history fetch is best-effort: its failure degrades the
// outcome to price-only.
func (o *Orchestrator) Predict(ctx context.Context, region domain.Region, date string, contextDays int) (PredictOutcome, error) {
	var out PredictOutcome
	var predictErr error

	var g errgroup.Group
	g.Go(func() error {
		out.Result, predictErr = o.backend.Predict(ctx, region, date)
		return nil
	})
	g.Go(func() error {
		history, err := o.backend.HistoricalData(ctx, region, contextDays)
		if err != nil {
			out.ContextErr = err
			return nil
		}
		out.History = history
		return nil
	})
	g.Wait()

	if predictErr != nil {
		return PredictOutcome{}, predictErr
	}
	if out.ContextErr != nil {
		o.log.Warn("predict context fetch failed, price-only view",
			"region", region, "error", out.ContextErr)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Chat-derived quote
// ---------------------------------------------------------------------------

// LatestQuoteViaChat asks the chat endpoint for a region's latest price as
// a single number and extracts the first numeric token from the reply. A
// *parse.ParseError return is a soft failure: the reply arrived but
// contained nothing numeric.
func (o *Orchestrator) LatestQuoteViaChat(ctx context.Context, region domain.Region) (domain.LatestQuote, error) {
	msg := fmt.Sprintf("What is the latest price for %s as a single number?", region)
	reply, err := o.backend.Chat(ctx, msg)
	if err != nil {
		return domain.LatestQuote{}, err
	}

	price, err := parse.Price(reply)
	if err != nil {
		return domain.LatestQuote{}, err
	}
	return domain.LatestQuote{
		Price: price,
		Date:  o.now().Format(domain.DateLayout),
	}, nil
}

// ---------------------------------------------------------------------------
// Pass-through operations
// ---------------------------------------------------------------------------

// Chat forwards a free-text message to the backend.
func (o *Orchestrator) Chat(ctx context.Context, message string) (string, error) {
	return o.backend.Chat(ctx, message)
}

// GetHistorical fetches a region's price history.
func (o *Orchestrator) GetHistorical(ctx context.Context, region domain.Region, days int) ([]domain.PricePoint, error) {
	return o.backend.HistoricalData(ctx, region, days)
}

// GetBacktest fetches a region's model-performance comparison.
func (o *Orchestrator) GetBacktest(ctx context.Context, region domain.Region, days int) ([]domain.BacktestPoint, error) {
	return o.backend.ModelBacktest(ctx, region, days)
}

// GetLatestPrices fetches the latest quote for every region.
func (o *Orchestrator) GetLatestPrices(ctx context.Context) (map[domain.Region]domain.LatestQuote, error) {
	return o.backend.LatestPrices(ctx)
}
