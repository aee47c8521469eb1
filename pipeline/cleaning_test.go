package pipeline

import (
	"errors"
	"fmt"
	"testing"
)

func repeatListings(location string, n int, sqft, bhk float64) []Listing {
	listings := make([]Listing, n)
	for i := range listings {
		listings[i] = Listing{Location: location, TotalSqft: sqft, Bath: 2, BHK: bhk, Price: 50}
	}
	return listings
}

func TestNewDataCleaner(t *testing.T) {
	cleaner := NewDataCleaner(nil, 10, 300)
	if cleaner == nil {
		t.Fatal("NewDataCleaner returned nil")
	}
	if len(cleaner.rules) != 4 {
		t.Fatalf("expected 4 default rules, got %d", len(cleaner.rules))
	}
	names := []string{"price_per_sqft", "trim_location", "rare_location", "sqft_per_bhk"}
	for i, rule := range cleaner.rules {
		if rule.Name() != names[i] {
			t.Fatalf("rule %d is %s, want %s", i, rule.Name(), names[i])
		}
	}
}

func TestPricePerSqftRule(t *testing.T) {
	listings := []Listing{{TotalSqft: 1000, Price: 50}}
	out, modified, err := PricePerSqftRule{}.Apply(listings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modified != 1 || out[0].PricePerSqft != 5000 {
		t.Fatalf("unexpected result: %+v (modified=%d)", out[0], modified)
	}
}

func TestTrimLocationRule(t *testing.T) {
	listings := []Listing{{Location: "  Hebbal "}, {Location: "Whitefield"}}
	out, modified, err := TrimLocationRule{}.Apply(listings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modified != 1 || out[0].Location != "Hebbal" || out[1].Location != "Whitefield" {
		t.Fatalf("unexpected result: %+v (modified=%d)", out, modified)
	}
}

func TestRareLocationRule(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		threshold int
		wantLoc   string
	}{
		{name: "exactly threshold is rare", count: 10, threshold: 10, wantLoc: "other"},
		{name: "above threshold kept", count: 11, threshold: 10, wantLoc: "Hebbal"},
		{name: "zero threshold keeps all", count: 1, threshold: 0, wantLoc: "Hebbal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listings := repeatListings("Hebbal", tt.count, 1000, 2)
			out, _, err := RareLocationRule{Threshold: tt.threshold}.Apply(listings)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, l := range out {
				if l.Location != tt.wantLoc {
					t.Fatalf("expected %s, got %s", tt.wantLoc, l.Location)
				}
			}
		})
	}

	// Case-sensitive counting: 6 + 6 spellings are both rare at 10.
	listings := append(repeatListings("Hebbal", 6, 1000, 2), repeatListings("hebbal", 6, 1000, 2)...)
	out, modified, err := RareLocationRule{Threshold: 10}.Apply(listings)
	if err != nil {
		t.Fatal(err)
	}
	if modified != 12 || out[0].Location != "other" || out[11].Location != "other" {
		t.Fatalf("expected both spellings bucketed, modified=%d", modified)
	}

	if _, _, err := (RareLocationRule{Threshold: -1}).Apply(listings); err == nil {
		t.Fatal("expected error for negative threshold")
	}
}

func TestSqftPerBedroomRule(t *testing.T) {
	listings := []Listing{
		{Location: "a", TotalSqft: 600, BHK: 2},  // 300, kept
		{Location: "b", TotalSqft: 599, BHK: 2},  // below
		{Location: "c", TotalSqft: 1000, BHK: 6}, // below
		{Location: "d", TotalSqft: 1000, BHK: 1},
	}
	out, _, err := SqftPerBedroomRule{Min: 300}.Apply(listings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].Location != "a" || out[1].Location != "d" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestDataCleanerClean(t *testing.T) {
	var listings []Listing
	listings = append(listings, repeatListings(" Whitefield", 12, 1200, 2)...)
	listings = append(listings, repeatListings("Tiny Lane", 3, 1200, 2)...)
	listings = append(listings, repeatListings("Whitefield", 1, 500, 4)...)

	input := append([]Listing(nil), listings...)
	cleaner := NewDataCleaner(nil, 10, 300)
	cleaned, stats, err := cleaner.Clean(listings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Input != 16 || stats.Output != 15 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Dropped["sqft_per_bhk"] != 1 {
		t.Fatalf("expected one implausible row dropped: %+v", stats.Dropped)
	}
	if stats.Modified["rare_location"] != 3 || stats.Modified["trim_location"] != 12 {
		t.Fatalf("unexpected modified counts: %+v", stats.Modified)
	}
	if stats.Locations != 2 {
		t.Fatalf("expected 2 locations, got %d", stats.Locations)
	}

	counts := map[string]int{}
	for _, l := range cleaned {
		counts[l.Location]++
		if l.PricePerSqft == 0 {
			t.Fatal("price_per_sqft not derived")
		}
	}
	if counts["Whitefield"] != 12 || counts["other"] != 3 {
		t.Fatalf("unexpected location counts: %v", counts)
	}

	for i := range input {
		if listings[i] != input[i] {
			t.Fatal("Clean must not modify its input")
		}
	}
}

type failingRule struct{}

func (failingRule) Name() string { return "failing" }

func (failingRule) Apply([]Listing) ([]Listing, int, error) {
	return nil, 0, fmt.Errorf("boom")
}

func TestDataCleanerErrors(t *testing.T) {
	cleaner := NewEmptyDataCleaner(nil)
	cleaner.AddRule(failingRule{})
	if _, _, err := cleaner.Clean([]Listing{{Location: "a"}}); err == nil {
		t.Fatal("expected rule error")
	}

	cleaner = NewEmptyDataCleaner(nil)
	cleaner.AddRule(SqftPerBedroomRule{Min: 300})
	_, _, err := cleaner.Clean([]Listing{{Location: "a", TotalSqft: 100, BHK: 1}})
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}
