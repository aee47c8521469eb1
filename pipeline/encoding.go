package pipeline

import (
	"sort"

	"houseprice/ml"
)

// EncodedDataset is the training matrix in schema column order.
type EncodedDataset struct {
	Columns  []string
	Features [][]float64
	Targets  []float64
}

// OneHotEncode lays out total_sqft, bath, bhk followed by one indicator per
// location, sorted by name. Names are lower-cased, so spellings differing
// only in case share a column, and "other" gets none: it is the baseline.
func OneHotEncode(listings []Listing) (*EncodedDataset, error) {
	if len(listings) == 0 {
		return nil, ErrEmptyDataset
	}

	seen := make(map[string]bool)
	for _, l := range listings {
		key := ml.NormalizeLocation(l.Location)
		if key == "" || key == ml.OtherLocation {
			continue
		}
		seen[key] = true
	}
	locations := make([]string, 0, len(seen))
	for key := range seen {
		locations = append(locations, key)
	}
	sort.Strings(locations)

	columns := append(ml.FixedColumns(), locations...)
	index := make(map[string]int, len(locations))
	for i, name := range locations {
		index[name] = i + len(ml.FixedColumns())
	}

	features := make([][]float64, len(listings))
	targets := make([]float64, len(listings))
	for i, l := range listings {
		row := make([]float64, len(columns))
		row[0] = l.TotalSqft
		row[1] = l.Bath
		row[2] = l.BHK
		if idx, ok := index[ml.NormalizeLocation(l.Location)]; ok {
			row[idx] = 1
		}
		features[i] = row
		targets[i] = l.Price
	}

	return &EncodedDataset{Columns: columns, Features: features, Targets: targets}, nil
}
