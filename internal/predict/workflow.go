// Package predict drives the forecast form: input validation, the combined
// predict-plus-context fetch, and assembly of the chart series shown with
// the result.
package predict

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pepperwatch/internal/domain"
	"pepperwatch/internal/forecast"
	"pepperwatch/internal/market"
	"pepperwatch/internal/series"
)

// ValidationReason says why an input was rejected.
type ValidationReason string

const (
	MissingField   ValidationReason = "missing_field"
	BadDateFormat  ValidationReason = "bad_date_format"
	DateOutOfRange ValidationReason = "date_out_of_range"
)

// ValidationError rejects a prediction input before any request is made.
type ValidationError struct {
	Field  string
	Reason ValidationReason
	Msg    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// State is the workflow's lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateFetching
	StateSucceeded
	StateFailed
)

// Input is what the form submits.
type Input struct {
	Region string
	Date   string
}

// Outcome is a completed prediction ready to render. Series is the context
// history with the predicted point appended and flagged; Series is nil when
// the context fetch failed and the view degrades to price-only.
type Outcome struct {
	Result     domain.PredictionResult
	Series     domain.ChartSeries
	Tier       forecast.Tier
	Horizon    int
	ContextErr error
}

// Predictor is the slice of the orchestrator the workflow needs.
type Predictor interface {
	Predict(ctx context.Context, region domain.Region, date string, contextDays int) (market.PredictOutcome, error)
}

// Workflow validates prediction inputs, runs the fetch, and retains the
// latest outcome or error. Run calls are guarded by a generation token: a
// newer Run supersedes an older in-flight one, whose result is discarded
// when it lands. All methods are safe for concurrent use.
type Workflow struct {
	predictor    Predictor
	clock        forecast.Clock
	log          *slog.Logger
	maxDaysAhead int
	contextDays  int

	mu      sync.Mutex
	gen     uint64
	state   State
	input   Input
	outcome *Outcome
	lastErr error
}

// NewWorkflow wires a workflow to its backend slice. maxDaysAhead bounds how
// far into the future a target date may be; contextDays sizes the history
// fetched for the result chart.
func NewWorkflow(p Predictor, clock forecast.Clock, log *slog.Logger, maxDaysAhead, contextDays int) *Workflow {
	return &Workflow{
		predictor:    p,
		clock:        clock,
		log:          log,
		maxDaysAhead: maxDaysAhead,
		contextDays:  contextDays,
		state:        StateIdle,
	}
}

// Validate checks an input without running it. The region must name a known
// market and the date must be a calendar day strictly after today and at
// most the configured horizon ahead.
func (w *Workflow) Validate(in Input) (domain.Region, time.Time, error) {
	if in.Region == "" {
		return "", time.Time{}, &ValidationError{Field: "region", Reason: MissingField, Msg: "region is required"}
	}
	region, err := domain.ParseRegion(in.Region)
	if err != nil {
		return "", time.Time{}, &ValidationError{Field: "region", Reason: MissingField, Msg: err.Error()}
	}
	if in.Date == "" {
		return "", time.Time{}, &ValidationError{Field: "date", Reason: MissingField, Msg: "date is required"}
	}
	target, err := time.Parse(domain.DateLayout, in.Date)
	if err != nil {
		return "", time.Time{}, &ValidationError{Field: "date", Reason: BadDateFormat,
			Msg: fmt.Sprintf("date must look like %s", domain.DateLayout)}
	}

	today := w.clock.Now().Truncate(24 * time.Hour)
	horizon := forecast.HorizonDays(today, target)
	if horizon < 1 {
		return "", time.Time{}, &ValidationError{Field: "date", Reason: DateOutOfRange,
			Msg: "date must be after today"}
	}
	if horizon > w.maxDaysAhead {
		return "", time.Time{}, &ValidationError{Field: "date", Reason: DateOutOfRange,
			Msg: fmt.Sprintf("date must be at most %d days ahead", w.maxDaysAhead)}
	}
	return region, target, nil
}

// Run validates and executes a prediction. It returns the outcome and also
// retains it for State/Outcome/LastError. If a newer Run starts while this
// one is in flight, this one's result is discarded on arrival and the
// retained state belongs to the newer call.
func (w *Workflow) Run(ctx context.Context, in Input) (*Outcome, error) {
	w.mu.Lock()
	w.gen++
	gen := w.gen
	w.state = StateValidating
	w.input = in
	w.mu.Unlock()

	region, target, err := w.Validate(in)
	if err != nil {
		w.settle(gen, nil, err)
		return nil, err
	}

	w.mu.Lock()
	if w.gen == gen {
		w.state = StateFetching
	}
	w.mu.Unlock()

	fetched, err := w.predictor.Predict(ctx, region, in.Date, w.contextDays)
	if err != nil {
		w.settle(gen, nil, err)
		return nil, err
	}

	horizon := forecast.HorizonDays(w.clock.Now().Truncate(24*time.Hour), target)
	out := &Outcome{
		Result:     fetched.Result,
		Tier:       forecast.ClassifyHorizon(horizon),
		Horizon:    horizon,
		ContextErr: fetched.ContextErr,
	}
	if fetched.ContextErr == nil {
		out.Series = series.Build(fetched.History, &domain.PricePoint{
			Date:  fetched.Result.TargetDate,
			Price: fetched.Result.PredictedPrice,
		})
	}

	w.settle(gen, out, nil)
	return out, nil
}

// settle stores the terminal state for gen, unless a newer Run superseded it.
func (w *Workflow) settle(gen uint64, out *Outcome, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen != gen {
		w.log.Debug("discarding superseded prediction", "generation", gen)
		return
	}
	if err != nil {
		w.state = StateFailed
		w.lastErr = err
		w.outcome = nil
		return
	}
	w.state = StateSucceeded
	w.lastErr = nil
	w.outcome = out
}

// State reports the current lifecycle phase.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Outcome returns the retained result of the most recent completed Run, or
// nil if none succeeded yet.
func (w *Workflow) Outcome() *Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outcome
}

// LastError returns the error that failed the most recent Run.
func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// LastInput returns the most recently submitted input, kept so the form can
// be re-shown populated after a failure.
func (w *Workflow) LastInput() Input {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input
}
