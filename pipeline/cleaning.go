package pipeline

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"houseprice/ml"
)

// CleaningRule transforms or filters the whole dataset. Rules run in the
// order they were added; rows a rule removes are counted as dropped by it.
type CleaningRule interface {
	Name() string
	Apply(listings []Listing) (cleaned []Listing, modified int, err error)
}

// CleaningStats summarises one Clean run.
type CleaningStats struct {
	Input            int            `json:"input"`
	Output           int            `json:"output"`
	Dropped          map[string]int `json:"dropped"`
	Modified         map[string]int `json:"modified"`
	Locations        int            `json:"locations"`
	MeanPricePerSqft float64        `json:"mean_price_per_sqft"`
}

// DataCleaner runs the feature engineering rules before encoding.
type DataCleaner struct {
	rules  []CleaningRule
	logger *zap.Logger
}

// NewDataCleaner creates a cleaner with the default rules: derive
// price_per_sqft, trim locations, bucket rare locations, drop implausible
// sqft per bedroom.
func NewDataCleaner(logger *zap.Logger, rareThreshold int, minSqftPerBHK float64) *DataCleaner {
	cleaner := NewEmptyDataCleaner(logger)
	cleaner.AddRule(PricePerSqftRule{})
	cleaner.AddRule(TrimLocationRule{})
	cleaner.AddRule(RareLocationRule{Threshold: rareThreshold})
	cleaner.AddRule(SqftPerBedroomRule{Min: minSqftPerBHK})
	return cleaner
}

// NewEmptyDataCleaner creates a cleaner without rules.
func NewEmptyDataCleaner(logger *zap.Logger) *DataCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataCleaner{logger: logger}
}

// AddRule appends a rule after the existing ones.
func (dc *DataCleaner) AddRule(rule CleaningRule) {
	dc.rules = append(dc.rules, rule)
	dc.logger.Debug("added cleaning rule", zap.String("rule", rule.Name()))
}

// Clean applies every rule in order. The input slice is not modified.
func (dc *DataCleaner) Clean(listings []Listing) ([]Listing, CleaningStats, error) {
	stats := CleaningStats{
		Input:    len(listings),
		Dropped:  make(map[string]int),
		Modified: make(map[string]int),
	}

	current := append([]Listing(nil), listings...)
	for _, rule := range dc.rules {
		before := len(current)
		cleaned, modified, err := rule.Apply(current)
		if err != nil {
			return nil, stats, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		if dropped := before - len(cleaned); dropped > 0 {
			stats.Dropped[rule.Name()] = dropped
		}
		if modified > 0 {
			stats.Modified[rule.Name()] = modified
		}
		current = cleaned
	}

	stats.Output = len(current)
	locations := make(map[string]bool)
	sum := 0.0
	for _, l := range current {
		locations[l.Location] = true
		sum += l.PricePerSqft
	}
	stats.Locations = len(locations)
	if len(current) > 0 {
		stats.MeanPricePerSqft = sum / float64(len(current))
	}

	dc.logger.Info("dataset cleaned",
		zap.Int("input", stats.Input),
		zap.Int("output", stats.Output),
		zap.Int("locations", stats.Locations),
		zap.Any("dropped", stats.Dropped),
		zap.Any("modified", stats.Modified),
		zap.Float64("mean_price_per_sqft", stats.MeanPricePerSqft))

	if len(current) == 0 {
		return nil, stats, ErrEmptyDataset
	}
	return current, stats, nil
}

// ============ rules ============

// PricePerSqftRule derives price_per_sqft = price * 100000 / total_sqft.
type PricePerSqftRule struct{}

// Name implements CleaningRule.
func (PricePerSqftRule) Name() string { return "price_per_sqft" }

// Apply fills PricePerSqft; no row is dropped.
func (PricePerSqftRule) Apply(listings []Listing) ([]Listing, int, error) {
	for i := range listings {
		listings[i].PricePerSqft = listings[i].Price * 100000 / listings[i].TotalSqft
	}
	return listings, len(listings), nil
}

// TrimLocationRule strips surrounding whitespace from location names.
type TrimLocationRule struct{}

// Name implements CleaningRule.
func (TrimLocationRule) Name() string { return "trim_location" }

// Apply trims surrounding whitespace from locations.
func (TrimLocationRule) Apply(listings []Listing) ([]Listing, int, error) {
	modified := 0
	for i := range listings {
		trimmed := strings.TrimSpace(listings[i].Location)
		if trimmed != listings[i].Location {
			listings[i].Location = trimmed
			modified++
		}
	}
	return listings, modified, nil
}

// RareLocationRule renames locations seen at most Threshold times to
// "other". Counting is case-sensitive.
type RareLocationRule struct {
	Threshold int
}

// Name implements CleaningRule.
func (RareLocationRule) Name() string { return "rare_location" }

// Apply renames rare locations to other.
func (r RareLocationRule) Apply(listings []Listing) ([]Listing, int, error) {
	if r.Threshold < 0 {
		return nil, 0, fmt.Errorf("threshold must not be negative, got %d", r.Threshold)
	}
	counts := make(map[string]int)
	for _, l := range listings {
		counts[l.Location]++
	}
	modified := 0
	for i := range listings {
		loc := listings[i].Location
		if loc != ml.OtherLocation && counts[loc] <= r.Threshold {
			listings[i].Location = ml.OtherLocation
			modified++
		}
	}
	return listings, modified, nil
}

// SqftPerBedroomRule drops rows with total_sqft / bhk below Min.
type SqftPerBedroomRule struct {
	Min float64
}

// Name implements CleaningRule.
func (SqftPerBedroomRule) Name() string { return "sqft_per_bhk" }

// Apply drops rows below Min square feet per bedroom.
func (r SqftPerBedroomRule) Apply(listings []Listing) ([]Listing, int, error) {
	kept := listings[:0]
	for _, l := range listings {
		if l.TotalSqft/l.BHK < r.Min {
			continue
		}
		kept = append(kept, l)
	}
	return kept, 0, nil
}
