// Package archive persists fetched market data for offline analysis. It is
// write-mostly: the client exports series on request and nothing here feeds
// back into live view state.
package archive

import (
	"context"

	"pepperwatch/internal/domain"
)

// PriceArchive stores daily price series per region.
type PriceArchive interface {
	// WritePrices merges points into the archive for a region. Points
	// already present for a date are replaced.
	WritePrices(ctx context.Context, region domain.Region, points []domain.PricePoint) error
	// ReadPrices returns the archived points for a region whose dates fall
	// in [from, to], sorted ascending by date.
	ReadPrices(ctx context.Context, region domain.Region, from, to string) ([]domain.PricePoint, error)
	// Regions lists the regions that have archived data.
	Regions(ctx context.Context) ([]domain.Region, error)
}

// PredictionLog records every prediction the user ran, for later comparison
// against the prices that materialized.
type PredictionLog interface {
	SavePrediction(ctx context.Context, rec PredictionRecord) error
	ListPredictions(ctx context.Context, region domain.Region, limit int) ([]PredictionRecord, error)
}

// PredictionRecord is one logged prediction.
type PredictionRecord struct {
	Region         domain.Region
	TargetDate     string
	PredictedPrice float64
	Tier           string
	CreatedAt      string
}
