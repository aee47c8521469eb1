package ml

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

type fakeModel struct {
	price float64
	err   error
	calls int
}

func (f *fakeModel) Predict(features []float64) (float64, error) {
	f.calls++
	return f.price, f.err
}

func TestEstimatorEstimate(t *testing.T) {
	schema := scenarioSchema(t)
	model := &LinearRegression{Weights: []float64{0.1, 5, 10, 20, -3}, Intercept: 1.234}

	estimator, err := NewEstimator(schema, model, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	price, err := estimator.Estimate(FeatureRequest{Location: "1st Block", TotalSqft: 1000, BHK: 2, Bath: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1.234 + 100 + 10 + 20 + 20
	if price != 151.23 {
		t.Fatalf("expected 151.23, got %v", price)
	}

	for i := 0; i < 5; i++ {
		again, err := estimator.Estimate(FeatureRequest{Location: "1st block", TotalSqft: 1000, BHK: 2, Bath: 2})
		if err != nil || again != price {
			t.Fatalf("estimate not deterministic: %v %v", again, err)
		}
	}
}

func TestEstimatorCache(t *testing.T) {
	model := &fakeModel{price: 42.4242}
	estimator, err := NewEstimator(scenarioSchema(t), model, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := FeatureRequest{Location: "nowhere", TotalSqft: 900, BHK: 2, Bath: 1}
	for i := 0; i < 3; i++ {
		price, err := estimator.Estimate(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if price != 42.42 {
			t.Fatalf("expected 42.42, got %v", price)
		}
	}
	if model.calls != 1 {
		t.Fatalf("expected one model call, got %d", model.calls)
	}

	// Unknown locations share the baseline key.
	req.Location = "elsewhere"
	if _, err := estimator.Estimate(req); err != nil {
		t.Fatal(err)
	}
	if model.calls != 1 || estimator.CacheLen() != 1 {
		t.Fatalf("calls=%d cache=%d", model.calls, estimator.CacheLen())
	}
}

func TestEstimatorDimensionMismatch(t *testing.T) {
	model := &LinearRegression{Weights: []float64{1, 2, 3}}
	estimator, err := NewEstimator(scenarioSchema(t), model, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = estimator.Estimate(FeatureRequest{Location: "1st block", TotalSqft: 1, BHK: 1, Bath: 1})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if estimator.CacheLen() != 0 {
		t.Fatal("errors must not be cached")
	}
}

func TestEstimatorPropagatesModelError(t *testing.T) {
	estimator, err := NewEstimator(scenarioSchema(t), &fakeModel{err: fmt.Errorf("boom")}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := estimator.Estimate(FeatureRequest{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRoundPrice(t *testing.T) {
	tests := map[float64]float64{
		49.996:  50,
		49.994:  49.99,
		-12.346: -12.35,
		100:     100,
		5e306:   5e306,
		-2e15:   -2e15,
	}
	for in, want := range tests {
		if got := RoundPrice(in); got != want {
			t.Fatalf("RoundPrice(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestEstimatorHugeInputs(t *testing.T) {
	schema := scenarioSchema(t)

	finite, err := NewEstimator(schema, &LinearRegression{Weights: []float64{0.05, 0, 0, 0, 0}}, 0)
	if err != nil {
		t.Fatal(err)
	}
	price, err := finite.Estimate(FeatureRequest{TotalSqft: 1e308, BHK: 2, Bath: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsInf(price, 0) || math.Abs(price-5e306) > 1e292 {
		t.Fatalf("expected about 5e306, got %v", price)
	}

	overflow, err := NewEstimator(schema, &LinearRegression{Weights: []float64{5, 0, 0, 0, 0}}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := overflow.Estimate(FeatureRequest{TotalSqft: 1e308, BHK: 2, Bath: 2}); !errors.Is(err, ErrNonFinitePrediction) {
		t.Fatalf("expected ErrNonFinitePrediction, got %v", err)
	}
	if overflow.CacheLen() != 0 {
		t.Fatalf("errors must not be cached")
	}
}
