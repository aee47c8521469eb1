package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrEmptyDataset is returned when no usable rows remain.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")
)

// Listing is one row of the housing dataset. Price is in lakhs.
type Listing struct {
	Location  string  `json:"location"`
	TotalSqft float64 `json:"total_sqft"`
	Bath      float64 `json:"bath"`
	BHK       float64 `json:"bhk"`
	Price     float64 `json:"price"`

	// PricePerSqft is derived during cleaning and only used for reporting.
	PricePerSqft float64 `json:"price_per_sqft,omitempty"`
}

// RequiredColumns lists the dataset columns the trainer reads.
func RequiredColumns() []string {
	return []string{"location", "total_sqft", "bath", "bhk", "price"}
}

// ReadStats describes what ReadCSV kept and skipped.
type ReadStats struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string) ([]Listing, ReadStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, err
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV reads listings from a CSV document with a header row. Columns are
// located by name, extra columns are ignored, and a leading BOM is dropped.
// Rows with unparsable numbers or a non-positive total_sqft or bhk are
// skipped and counted.
func ReadCSV(r io.Reader) ([]Listing, ReadStats, error) {
	var stats ReadStats
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, stats, ErrEmptyDataset
	}
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.ToLower(strings.TrimSpace(name))] = i
	}
	cols := make([]int, 0, len(RequiredColumns()))
	for _, name := range RequiredColumns() {
		idx, ok := positions[name]
		if !ok {
			return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		cols = append(cols, idx)
	}

	var listings []Listing
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read row %d: %w", stats.Rows+stats.Skipped+2, err)
		}
		listing, ok := parseRecord(record, cols)
		if !ok {
			stats.Skipped++
			continue
		}
		listings = append(listings, listing)
		stats.Rows++
	}

	if len(listings) == 0 {
		return nil, stats, ErrEmptyDataset
	}
	return listings, stats, nil
}

// parseRecord converts one row; false means the row is skipped.
func parseRecord(record []string, cols []int) (Listing, bool) {
	for _, idx := range cols {
		if idx >= len(record) {
			return Listing{}, false
		}
	}
	numbers := make([]float64, 4)
	for i, idx := range cols[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return Listing{}, false
		}
		numbers[i] = v
	}
	listing := Listing{
		Location:  record[cols[0]],
		TotalSqft: numbers[0],
		Bath:      numbers[1],
		BHK:       numbers[2],
		Price:     numbers[3],
	}
	if !listing.Valid() {
		return Listing{}, false
	}
	return listing, true
}

// Valid reports whether the row can be used for training: finite numbers
// and a positive total_sqft and bhk.
func (l Listing) Valid() bool {
	for _, v := range []float64{l.TotalSqft, l.Bath, l.BHK, l.Price} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return l.TotalSqft > 0 && l.BHK > 0
}
