package archive

import (
	"context"
	"path/filepath"
	"testing"

	"pepperwatch/internal/domain"
)

func TestParquetWriteReadRoundTrip(t *testing.T) {
	a := NewParquetArchive(t.TempDir())
	ctx := context.Background()

	points := []domain.PricePoint{
		{Date: "2025-05-01", Price: 650},
		{Date: "2025-05-02", Price: 652.5},
		{Date: "2025-05-03", Price: 648},
	}
	if err := a.WritePrices(ctx, domain.RegionSirsi, points); err != nil {
		t.Fatalf("WritePrices: %v", err)
	}

	got, err := a.ReadPrices(ctx, domain.RegionSirsi, "2025-05-01", "2025-05-31")
	if err != nil {
		t.Fatalf("ReadPrices: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d points, want 3", len(got))
	}
	if got[1].Date != "2025-05-02" || got[1].Price != 652.5 {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestParquetMergeReplacesByDate(t *testing.T) {
	a := NewParquetArchive(t.TempDir())
	ctx := context.Background()

	first := []domain.PricePoint{
		{Date: "2025-05-01", Price: 650},
		{Date: "2025-05-02", Price: 652},
	}
	if err := a.WritePrices(ctx, domain.RegionMadikeri, first); err != nil {
		t.Fatal(err)
	}

	// Overlapping write: 05-02 is corrected, 05-03 is new.
	second := []domain.PricePoint{
		{Date: "2025-05-02", Price: 653},
		{Date: "2025-05-03", Price: 655},
	}
	if err := a.WritePrices(ctx, domain.RegionMadikeri, second); err != nil {
		t.Fatal(err)
	}

	got, err := a.ReadPrices(ctx, domain.RegionMadikeri, "2025-05-01", "2025-05-03")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d points after merge, want 3", len(got))
	}
	if got[1].Price != 653 {
		t.Errorf("2025-05-02 = %v after merge, want the corrected 653", got[1].Price)
	}
}

func TestParquetReadSpansYears(t *testing.T) {
	a := NewParquetArchive(t.TempDir())
	ctx := context.Background()

	points := []domain.PricePoint{
		{Date: "2024-12-30", Price: 600},
		{Date: "2024-12-31", Price: 601},
		{Date: "2025-01-01", Price: 602},
	}
	if err := a.WritePrices(ctx, domain.RegionSirsi, points); err != nil {
		t.Fatal(err)
	}

	got, err := a.ReadPrices(ctx, domain.RegionSirsi, "2024-12-31", "2025-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points across the year boundary, want 2", len(got))
	}
	if got[0].Date != "2024-12-31" || got[1].Date != "2025-01-01" {
		t.Errorf("points = %+v", got)
	}
}

func TestParquetRegions(t *testing.T) {
	a := NewParquetArchive(t.TempDir())
	ctx := context.Background()

	if err := a.WritePrices(ctx, domain.RegionSirsi, []domain.PricePoint{{Date: "2025-05-01", Price: 650}}); err != nil {
		t.Fatal(err)
	}
	if err := a.WritePrices(ctx, domain.RegionChikkamagaluru, []domain.PricePoint{{Date: "2025-05-01", Price: 640}}); err != nil {
		t.Fatal(err)
	}

	regions, err := a.Regions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []domain.Region{domain.RegionChikkamagaluru, domain.RegionSirsi}
	if len(regions) != len(want) {
		t.Fatalf("regions = %v, want %v", regions, want)
	}
	for i := range want {
		if regions[i] != want[i] {
			t.Errorf("regions[%d] = %q, want %q", i, regions[i], want[i])
		}
	}
}

func TestSQLiteLogSaveAndList(t *testing.T) {
	log, err := NewSQLiteLog(filepath.Join(t.TempDir(), "pepperwatch.db"))
	if err != nil {
		t.Fatalf("NewSQLiteLog: %v", err)
	}
	defer log.Close()
	ctx := context.Background()

	recs := []PredictionRecord{
		{Region: domain.RegionSirsi, TargetDate: "2025-06-02", PredictedPrice: 685.50, Tier: "high", CreatedAt: "2025-06-01T10:00:00Z"},
		{Region: domain.RegionSirsi, TargetDate: "2025-06-05", PredictedPrice: 690, Tier: "high", CreatedAt: "2025-06-01T11:00:00Z"},
		{Region: domain.RegionMadikeri, TargetDate: "2025-06-03", PredictedPrice: 640, Tier: "high", CreatedAt: "2025-06-01T12:00:00Z"},
	}
	for _, rec := range recs {
		if err := log.SavePrediction(ctx, rec); err != nil {
			t.Fatalf("SavePrediction: %v", err)
		}
	}

	got, err := log.ListPredictions(ctx, domain.RegionSirsi, 10)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Newest first.
	if got[0].TargetDate != "2025-06-05" || got[1].TargetDate != "2025-06-02" {
		t.Errorf("order = %s, %s", got[0].TargetDate, got[1].TargetDate)
	}
	if got[0].PredictedPrice != 690 || got[0].Tier != "high" {
		t.Errorf("got[0] = %+v", got[0])
	}
}

func TestSQLiteLogLimit(t *testing.T) {
	log, err := NewSQLiteLog(filepath.Join(t.TempDir(), "pepperwatch.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := PredictionRecord{
			Region:         domain.RegionSirsi,
			TargetDate:     "2025-06-02",
			PredictedPrice: float64(600 + i),
			Tier:           "high",
			CreatedAt:      "2025-06-01T10:00:00Z",
		}
		if err := log.SavePrediction(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := log.ListPredictions(ctx, domain.RegionSirsi, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want limit of 2", len(got))
	}
	// Ties on created_at fall back to insertion order, newest id first.
	if got[0].PredictedPrice != 604 {
		t.Errorf("got[0].PredictedPrice = %v, want 604", got[0].PredictedPrice)
	}
}
