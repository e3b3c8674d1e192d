// Package pepper is the HTTP SDK for the pepper-price prediction backend.
// It exposes the five backend operations with their exact wire field names
// and classifies failures as NetworkError or ServerError.
package pepper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pepperwatch/internal/domain"
	"pepperwatch/internal/parse"
)

// Client calls the prediction backend. The base URL is injected at
// construction; there is no ambient default.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type predictRequest struct {
	Region string `json:"region"`
	Date   string `json:"date"`
}

// predictResponse tolerates both backend shapes: the full
// {region, target_date, predicted_price} record and the bare
// {predicted_price} one.
type predictResponse struct {
	Region         string  `json:"region"`
	TargetDate     string  `json:"target_date"`
	PredictedPrice float64 `json:"predicted_price"`
}

// historicalRecord matches the backend's capitalised historical fields.
type historicalRecord struct {
	Date  string  `json:"Date"`
	Price float64 `json:"Price"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Chat sends a free-text message to POST /chat and returns the assistant's
// reply text.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var out chatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat", nil, chatRequest{Message: message}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// Predict requests a price forecast for a region on a future date via
// POST /predict. Fields missing from the bare response shape are filled in
// from the request.
func (c *Client) Predict(ctx context.Context, region domain.Region, date string) (domain.PredictionResult, error) {
	var out predictResponse
	err := c.doJSON(ctx, http.MethodPost, "/predict", nil, predictRequest{Region: string(region), Date: date}, &out)
	if err != nil {
		return domain.PredictionResult{}, err
	}

	res := domain.PredictionResult{
		Region:         region,
		TargetDate:     date,
		PredictedPrice: out.PredictedPrice,
	}
	if out.Region != "" {
		res.Region = domain.Region(out.Region)
	}
	if out.TargetDate != "" {
		res.TargetDate = out.TargetDate
	}
	return res, nil
}

// LatestPrices returns the most recent quote per region from
// GET /latest-prices.
func (c *Client) LatestPrices(ctx context.Context) (map[domain.Region]domain.LatestQuote, error) {
	var out map[domain.Region]domain.LatestQuote
	if err := c.doJSON(ctx, http.MethodGet, "/latest-prices", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HistoricalData returns the last `days` days of prices for a region from
// GET /historical-data, in chronological order as delivered by the backend.
func (c *Client) HistoricalData(ctx context.Context, region domain.Region, days int) ([]domain.PricePoint, error) {
	q := url.Values{}
	q.Set("region", string(region))
	q.Set("days", strconv.Itoa(days))

	var raw []historicalRecord
	if err := c.doArray(ctx, "/historical-data", q, &raw); err != nil {
		return nil, err
	}

	pts := make([]domain.PricePoint, 0, len(raw))
	for _, r := range raw {
		pts = append(pts, domain.PricePoint{Date: r.Date, Price: r.Price})
	}
	return pts, nil
}

// ModelBacktest returns actual-vs-predicted comparison points for a region
// from GET /model-backtest.
func (c *Client) ModelBacktest(ctx context.Context, region domain.Region, days int) ([]domain.BacktestPoint, error) {
	q := url.Values{}
	q.Set("region", string(region))
	q.Set("days", strconv.Itoa(days))

	var out []domain.BacktestPoint
	if err := c.doArray(ctx, "/model-backtest", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// doJSON performs one JSON request/response round trip. Transport failures
// come back as *NetworkError, non-2xx statuses as *ServerError carrying the
// backend's error field when one is present.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "request failed"
		var er errorResponse
		if json.NewDecoder(resp.Body).Decode(&er) == nil && er.Error != "" {
			msg = er.Error
		}
		return &ServerError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// doArray is doJSON for GET endpoints that return a record array. The body
// goes through the tolerant array extractor, so commentary or log noise
// around the array does not break decoding; an array that cannot be
// extracted surfaces as a soft *parse.ParseError.
func (c *Client) doArray(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "request failed"
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		return &ServerError{Status: resp.StatusCode, Message: msg}
	}

	return parse.Records(string(body), out)
}
