package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ColumnTotalSqft = "total_sqft"
	ColumnBath      = "bath"
	ColumnBHK       = "bhk"

	// OtherLocation is the baseline bucket for rare locations. It has no
	// indicator column in a trained schema.
	OtherLocation = "other"

	// locationOffset is the index of the first location column.
	locationOffset = 3
)

// FixedColumns returns the numeric columns every schema starts with, in order.
func FixedColumns() []string {
	return []string{ColumnTotalSqft, ColumnBath, ColumnBHK}
}

// Schema is the ordered column layout of a feature vector. Columns 0..2 are
// total_sqft, bath and bhk; the rest are location indicators.
//
// A Schema is immutable once built and safe for concurrent use.
type Schema struct {
	columns []string
	index   map[string]int
}

// schemaFile is the on-disk layout of columns.json.
type schemaFile struct {
	DataColumns []string `json:"data_columns"`
}

// NewSchema validates columns and builds the location lookup table.
func NewSchema(columns []string) (*Schema, error) {
	fixed := FixedColumns()
	if len(columns) < len(fixed) {
		return nil, fmt.Errorf("schema has %d columns, need at least %d", len(columns), len(fixed))
	}
	for i, name := range fixed {
		if NormalizeLocation(columns[i]) != name {
			return nil, fmt.Errorf("column %d is %q, want %q", i, columns[i], name)
		}
	}

	index := make(map[string]int, len(columns)-locationOffset)
	for i := locationOffset; i < len(columns); i++ {
		key := NormalizeLocation(columns[i])
		if key == "" {
			return nil, fmt.Errorf("column %d is empty", i)
		}
		if prev, ok := index[key]; ok {
			return nil, fmt.Errorf("column %d %q duplicates column %d", i, columns[i], prev)
		}
		index[key] = i
	}

	return &Schema{
		columns: append([]string(nil), columns...),
		index:   index,
	}, nil
}

// NormalizeLocation trims and lower-cases a location name the same way for
// schema columns and incoming requests.
func NormalizeLocation(name string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// Len returns the feature vector length.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Columns returns a copy of the column names.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Locations returns the known location names in schema order.
func (s *Schema) Locations() []string {
	return append([]string(nil), s.columns[locationOffset:]...)
}

// LocationIndex returns the schema index for a location, matched
// case-insensitively after trimming.
func (s *Schema) LocationIndex(location string) (int, bool) {
	idx, ok := s.index[NormalizeLocation(location)]
	return idx, ok
}

// Save writes the schema as {"data_columns": [...]}.
func (s *Schema) Save(path string) error {
	payload, err := json.Marshal(schemaFile{DataColumns: s.columns})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

// LoadSchema reads a schema document written by Save.
func LoadSchema(path string) (*Schema, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: schema %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("%w: read schema %s: %v", ErrArtifactCorrupt, path, err)
	}

	var doc schemaFile
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode schema %s: %v", ErrArtifactCorrupt, path, err)
	}
	schema, err := NewSchema(doc.DataColumns)
	if err != nil {
		return nil, fmt.Errorf("%w: schema %s: %v", ErrArtifactCorrupt, path, err)
	}
	return schema, nil
}
