package stats

import (
	"testing"

	"github.com/guarzo/cardcomps/internal/model"
)

func priced(price float64, date string) model.Listing {
	return model.Listing{Price: &price, Date: date}
}

func TestSummarize(t *testing.T) {
	listings := []model.Listing{
		priced(100, "2025-01-01"),
		priced(50, "2025-01-02"),
		priced(150, ""),
		{Title: "no price", Date: "2025-01-03"},
	}

	got := Summarize(listings)
	if got.DataPoints != 3 {
		t.Errorf("DataPoints = %d, want 3", got.DataPoints)
	}
	if got.Average != "100.00" || got.Lowest != "50.00" || got.Highest != "150.00" {
		t.Errorf("summary = %+v", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	want := model.StatsSummary{Average: "0.00", Lowest: "0.00", Highest: "0.00", DataPoints: 0}
	if got != want {
		t.Errorf("empty summary = %+v, want %+v", got, want)
	}
}

func TestSummarizeSingleListing(t *testing.T) {
	got := Summarize([]model.Listing{priced(1234.56, "2024-01-05")})
	if got.Average != "1234.56" || got.Lowest != "1234.56" || got.Highest != "1234.56" || got.DataPoints != 1 {
		t.Errorf("summary = %+v", got)
	}
}

func TestSortByDateDesc(t *testing.T) {
	listings := []model.Listing{
		priced(1, "2025-01-01"),
		priced(2, "2025-03-01"),
		priced(3, "2025-02-01"),
	}

	got := SortByDateDesc(listings)
	wantDates := []string{"2025-03-01", "2025-02-01", "2025-01-01"}
	for i, want := range wantDates {
		if got[i].Date != want {
			t.Errorf("position %d: date %s, want %s", i, got[i].Date, want)
		}
	}
	// Input must not be mutated.
	if listings[0].Date != "2025-01-01" {
		t.Error("SortByDateDesc mutated its input")
	}
}

func TestSortByDateDescUndatedKeepPosition(t *testing.T) {
	listings := []model.Listing{
		priced(1, "2025-01-01"),
		priced(2, ""),
		priced(3, "2025-02-01"),
	}

	got := SortByDateDesc(listings)
	if got[1].Date != "" {
		t.Errorf("undated listing moved from its encountered position: %+v", got)
	}
	if got[0].Date != "2025-02-01" || got[2].Date != "2025-01-01" {
		t.Errorf("dated listings not ordered around the gap: %+v", got)
	}
}

func TestSortByDateDescStableTies(t *testing.T) {
	a, b := priced(1, "2025-01-01"), priced(2, "2025-01-01")
	got := SortByDateDesc([]model.Listing{a, b})
	if got[0].PriceValue() != 1 || got[1].PriceValue() != 2 {
		t.Error("equal dates must keep relative input order")
	}
}

func TestRecentSalesFirstNEncountered(t *testing.T) {
	// Seven valid sold observations, deliberately not in date order.
	listings := []model.Listing{
		priced(10, "2025-01-07"),
		priced(20, "2025-01-01"),
		priced(30, "2025-01-05"),
		priced(40, "2025-01-02"),
		priced(50, "2025-01-06"),
		priced(60, "2025-01-03"),
		priced(70, "2025-01-04"),
	}

	got := RecentSales(listings, 5)
	if got == nil {
		t.Fatal("expected a summary")
	}
	if got.Count != 5 {
		t.Errorf("Count = %d, want 5", got.Count)
	}
	// First five encountered: 10+20+30+40+50 = 150, avg 30. Chronological
	// order is irrelevant by contract.
	if got.Average != "30.00" {
		t.Errorf("Average = %s, want 30.00", got.Average)
	}
}

func TestRecentSalesSkipsInvalid(t *testing.T) {
	listings := []model.Listing{
		{Title: "no price", Date: "2025-01-01"},
		priced(100, ""), // active, no date
		priced(40, "2025-01-02"),
		priced(60, "2025-01-03"),
	}

	got := RecentSales(listings, 5)
	if got == nil || got.Count != 2 || got.Average != "50.00" {
		t.Errorf("summary = %+v, want count 2 average 50.00", got)
	}
}

func TestRecentSalesNoQualifyingListings(t *testing.T) {
	if got := RecentSales([]model.Listing{priced(10, "")}, 5); got != nil {
		t.Errorf("expected nil summary, got %+v", got)
	}
}

func TestPricePointsChronological(t *testing.T) {
	listings := []model.Listing{
		priced(3, "2025-02-01"),
		priced(1, "2025-01-01"),
		priced(9, ""), // active listing contributes nothing
	}

	got := PricePoints(listings)
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2", len(got))
	}
	if got[0].Date != "2025-01-01" || got[1].Date != "2025-02-01" {
		t.Errorf("points not chronological: %+v", got)
	}
}
