package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"pepperwatch/internal/domain"
)

// Compile-time interface check.
var _ PriceArchive = (*ParquetArchive)(nil)

// ParquetArchive implements PriceArchive using Parquet files on disk.
type ParquetArchive struct {
	DataDir string
}

// NewParquetArchive creates a ParquetArchive rooted at the given directory.
func NewParquetArchive(dataDir string) *ParquetArchive {
	return &ParquetArchive{DataDir: dataDir}
}

// PriceRecord is the Parquet schema for archived daily prices.
type PriceRecord struct {
	Region string  `parquet:"region"`
	Date   string  `parquet:"date"` // YYYY-MM-DD
	Price  float64 `parquet:"price"`
}

// WritePrices writes points grouped by year. Each region+year combination
// produces a separate file at:
//
//	<DataDir>/prices/<region>/<YYYY>.parquet
func (a *ParquetArchive) WritePrices(_ context.Context, region domain.Region, points []domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	groups := make(map[int][]PriceRecord)
	for _, p := range points {
		t, err := p.Time()
		if err != nil {
			return fmt.Errorf("archiving %s: %w", region, err)
		}
		groups[t.Year()] = append(groups[t.Year()], PriceRecord{
			Region: string(region),
			Date:   p.Date,
			Price:  p.Price,
		})
	}

	for year, records := range groups {
		path := a.pricePath(region, year)

		// Merge with whatever is already on disk for that year.
		existing, _ := readParquetFile[PriceRecord](path)
		merged := mergePriceRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing prices for %s/%d: %w", region, year, err)
		}
	}
	return nil
}

// ReadPrices reads archived points for a region in the inclusive date range
// [from, to].
func (a *ParquetArchive) ReadPrices(_ context.Context, region domain.Region, from, to string) ([]domain.PricePoint, error) {
	fromYear, err := yearOf(from)
	if err != nil {
		return nil, err
	}
	toYear, err := yearOf(to)
	if err != nil {
		return nil, err
	}

	var points []domain.PricePoint
	for year := fromYear; year <= toYear; year++ {
		records, err := readParquetFile[PriceRecord](a.pricePath(region, year))
		if err != nil {
			// No file for this year.
			continue
		}
		for _, r := range records {
			if r.Date >= from && r.Date <= to {
				points = append(points, domain.PricePoint{Date: r.Date, Price: r.Price})
			}
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

// Regions lists all regions with archived price data.
func (a *ParquetArchive) Regions(_ context.Context) ([]domain.Region, error) {
	entries, err := os.ReadDir(filepath.Join(a.DataDir, "prices"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var regions []domain.Region
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		region, err := domain.ParseRegion(e.Name())
		if err != nil {
			continue
		}
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	return regions, nil
}

// pricePath returns the file for one region and year.
func (a *ParquetArchive) pricePath(region domain.Region, year int) string {
	return filepath.Join(a.DataDir, "prices", string(region), strconv.Itoa(year)+".parquet")
}

func yearOf(date string) (int, error) {
	t, err := (domain.PricePoint{Date: date}).Time()
	if err != nil {
		return 0, fmt.Errorf("bad date %q: %w", date, err)
	}
	return t.Year(), nil
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergePriceRecords deduplicates records by (region, date), preferring
// incoming over existing. Results are sorted by date.
func mergePriceRecords(existing, incoming []PriceRecord) []PriceRecord {
	type key struct {
		region string
		date   string
	}
	seen := make(map[key]PriceRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Region, r.Date}] = r
	}
	for _, r := range incoming {
		seen[key{r.Region, r.Date}] = r
	}

	merged := make([]PriceRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	return merged
}
