package ml

import (
	"errors"
	"math"
)

// FeatureRequest is one prediction query as submitted by a user.
type FeatureRequest struct {
	Location  string  `json:"location"`
	TotalSqft float64 `json:"total_sqft"`
	BHK       int     `json:"bhk"`
	Bath      int     `json:"bath"`
}

// Validate applies the optional bounds checks. Encode never calls it.
func (r FeatureRequest) Validate() error {
	if math.IsNaN(r.TotalSqft) || math.IsInf(r.TotalSqft, 0) || r.TotalSqft <= 0 {
		return errors.New("total_sqft must be positive")
	}
	if r.BHK < 1 {
		return errors.New("bhk must be at least 1")
	}
	if r.Bath < 1 {
		return errors.New("bath must be at least 1")
	}
	return nil
}

// Encode maps a request onto the schema layout. Indices 0..2 always carry
// sqft, bath and bhk; at most one location indicator is set, none when the
// location is unknown.
func (s *Schema) Encode(req FeatureRequest) []float64 {
	vector := make([]float64, len(s.columns))
	vector[0] = req.TotalSqft
	vector[1] = float64(req.Bath)
	vector[2] = float64(req.BHK)
	if idx, ok := s.LocationIndex(req.Location); ok {
		vector[idx] = 1
	}
	return vector
}
