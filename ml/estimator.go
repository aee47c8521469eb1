package ml

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RoundPrice rounds to two decimal places. Values too large to carry cents
// are returned unchanged.
func RoundPrice(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= 1e15 {
		return v
	}
	return math.Round(v*100) / 100
}

// cacheKey identifies an encoded request; unknown locations use -1.
type cacheKey struct {
	location int
	sqft     float64
	bath     int
	bhk      int
}

// Estimator is the read-only serving context: the loaded schema, the model
// and an optional prediction cache. It is built once at startup and shared by
// all handlers.
type Estimator struct {
	schema *Schema
	model  Regressor
	cache  *lru.Cache[cacheKey, float64]
}

// NewEstimator wires a schema and model together. cacheSize <= 0 disables
// the prediction cache.
func NewEstimator(schema *Schema, model Regressor, cacheSize int) (*Estimator, error) {
	if schema == nil || model == nil {
		return nil, errors.New("schema and model are required")
	}
	e := &Estimator{schema: schema, model: model}
	if cacheSize > 0 {
		cache, err := lru.New[cacheKey, float64](cacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = cache
	}
	return e, nil
}

// NewEstimatorFromArtifacts is NewEstimator for a loaded artifact pair.
func NewEstimatorFromArtifacts(artifacts *Artifacts, cacheSize int) (*Estimator, error) {
	if artifacts == nil {
		return nil, errors.New("artifacts are required")
	}
	return NewEstimator(artifacts.Schema, artifacts.Model, cacheSize)
}

// Schema returns the loaded schema.
func (e *Estimator) Schema() *Schema {
	return e.schema
}

// Locations returns the known location names for the form.
func (e *Estimator) Locations() []string {
	return e.schema.Locations()
}

// Estimate encodes the request, evaluates the model and rounds the price.
// Errors wrap ErrDimensionMismatch or ErrNonFinitePrediction, or come from
// the model itself.
func (e *Estimator) Estimate(req FeatureRequest) (float64, error) {
	key := cacheKey{location: -1, sqft: req.TotalSqft, bath: req.Bath, bhk: req.BHK}
	if idx, ok := e.schema.LocationIndex(req.Location); ok {
		key.location = idx
	}
	if e.cache != nil {
		if price, ok := e.cache.Get(key); ok {
			return price, nil
		}
	}

	raw, err := e.model.Predict(e.schema.Encode(req))
	if err != nil {
		return 0, err
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinitePrediction, raw)
	}
	price := RoundPrice(raw)
	if e.cache != nil {
		e.cache.Add(key, price)
	}
	return price, nil
}

// CacheLen reports how many predictions are memoised.
func (e *Estimator) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}
