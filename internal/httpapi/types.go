package httpapi

// JSON view-model types returned by the gateway. These are shaped for
// rendering: display strings are precomputed so the frontend never touches
// locale rules.

// QuoteJSON is a latest-price card.
type QuoteJSON struct {
	Price        float64 `json:"price"`
	PriceDisplay string  `json:"priceDisplay"`
	Date         string  `json:"date"`
}

// TrendPointJSON is one point on an overview or prediction chart.
type TrendPointJSON struct {
	Date         string  `json:"date"`
	Price        float64 `json:"price"`
	IsPrediction bool    `json:"isPrediction,omitempty"`
}

// RegionOverviewJSON is the per-region block of the overview.
type RegionOverviewJSON struct {
	Region      string           `json:"region"`
	DisplayName string           `json:"displayName"`
	Latest      *QuoteJSON       `json:"latest,omitempty"`
	Trend       []TrendPointJSON `json:"trend"`
	ChangePct   float64          `json:"changePct"`
	Failed      bool             `json:"failed,omitempty"`
}

// OverviewResponse is the whole overview view.
type OverviewResponse struct {
	Regions []RegionOverviewJSON `json:"regions"`
	Failed  []string             `json:"failed,omitempty"`
}

// PerformanceResponse pairs actual and predicted backtest series.
type PerformanceResponse struct {
	Region    string           `json:"region"`
	Days      int              `json:"days"`
	Actual    []TrendPointJSON `json:"actual"`
	Predicted []TrendPointJSON `json:"predicted"`
}

// TableRowJSON is one row of the raw data table.
type TableRowJSON struct {
	Date         string  `json:"date"`
	DateDisplay  string  `json:"dateDisplay"`
	Price        float64 `json:"price"`
	PriceDisplay string  `json:"priceDisplay"`
}

// TableResponse is the raw data table, newest first.
type TableResponse struct {
	Region string         `json:"region"`
	Rows   []TableRowJSON `json:"rows"`
}

// PredictRequest is the prediction form submission.
type PredictRequest struct {
	Region string `json:"region"`
	Date   string `json:"date"`
}

// PredictResponse is a completed prediction ready to render. Series is
// omitted when the context history could not be fetched.
type PredictResponse struct {
	Region             string           `json:"region"`
	TargetDate         string           `json:"target_date"`
	PredictedPrice     float64          `json:"predicted_price"`
	PriceDisplay       string           `json:"priceDisplay"`
	Tier               string           `json:"tier"`
	TierLabel          string           `json:"tierLabel"`
	Horizon            int              `json:"horizonDays"`
	Series             []TrendPointJSON `json:"series,omitempty"`
	ContextUnavailable bool             `json:"contextUnavailable,omitempty"`
}

// ChatRequest is one user message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the assistant's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// RegionsResponse lists the known market regions.
type RegionsResponse struct {
	Regions []RegionJSON `json:"regions"`
}

// RegionJSON is one selectable region.
type RegionJSON struct {
	Region      string `json:"region"`
	DisplayName string `json:"displayName"`
}
