package ml

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearRegressionFitExact(t *testing.T) {
	features := [][]float64{
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 3},
		{0, 5},
		{7, 2},
	}
	targets := make([]float64, len(features))
	for i, row := range features {
		targets[i] = 2*row[0] + 3*row[1] + 5
	}

	model := &LinearRegression{}
	require.NoError(t, model.Fit(features, targets))
	assert.InDelta(t, 2, model.Weights[0], 1e-9)
	assert.InDelta(t, 3, model.Weights[1], 1e-9)
	assert.InDelta(t, 5, model.Intercept, 1e-9)

	got, err := model.Predict([]float64{10, 10})
	require.NoError(t, err)
	assert.InDelta(t, 55, got, 1e-9)

	score, err := model.Score(features, targets)
	require.NoError(t, err)
	assert.InDelta(t, 1, score, 1e-12)
}

func TestLinearRegressionRankDeficient(t *testing.T) {
	// The third column is an indicator that never fires and the fourth
	// duplicates the first; both must not break the fit.
	features := [][]float64{
		{1, 2, 0, 1},
		{2, 1, 0, 2},
		{3, 5, 0, 3},
		{4, 4, 0, 4},
		{5, 7, 0, 5},
	}
	targets := make([]float64, len(features))
	for i, row := range features {
		targets[i] = 4*row[0] - row[1] + 10
	}

	model := &LinearRegression{}
	require.NoError(t, model.Fit(features, targets))
	assert.InDelta(t, 0, model.Weights[2], 1e-9)
	for i, row := range features {
		got, err := model.Predict(row)
		require.NoError(t, err)
		assert.InDelta(t, targets[i], got, 1e-6)
	}
}

func TestLinearRegressionErrors(t *testing.T) {
	model := &LinearRegression{}

	_, err := model.Predict([]float64{1})
	assert.True(t, errors.Is(err, ErrNotTrained))
	assert.Error(t, model.Save(filepath.Join(t.TempDir(), "m.json")))

	assert.Error(t, model.Fit(nil, nil))
	assert.Error(t, model.Fit([][]float64{{1}}, []float64{1, 2}))
	err = model.Fit([][]float64{{1, 2}, {1}}, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	require.NoError(t, model.Fit([][]float64{{1}, {2}, {3}}, []float64{2, 4, 6}))
	_, err = model.Predict([]float64{1, 2})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestLinearRegressionSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	model := &LinearRegression{Weights: []float64{0.5, -1.25, 3}, Intercept: 7}
	require.NoError(t, model.Save(path))

	loaded := &LinearRegression{}
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, model.Weights, loaded.Weights)
	assert.Equal(t, model.Intercept, loaded.Intercept)

	err := loaded.Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.Is(err, ErrArtifactMissing))
}

func TestTrainTestSplitDeterministic(t *testing.T) {
	features := make([][]float64, 10)
	targets := make([]float64, 10)
	for i := range features {
		features[i] = []float64{float64(i)}
		targets[i] = float64(i)
	}

	trainX, trainY, testX, testY := TrainTestSplit(features, targets, 0.2, 10)
	assert.Len(t, trainX, 8)
	assert.Len(t, trainY, 8)
	assert.Len(t, testX, 2)
	assert.Len(t, testY, 2)
	for i := range testX {
		assert.Equal(t, testX[i][0], testY[i])
	}

	_, _, again, _ := TrainTestSplit(features, targets, 0.2, 10)
	assert.Equal(t, testX, again)

	trainX, _, testX, _ = TrainTestSplit(features[:1], targets[:1], 0.2, 10)
	assert.Len(t, trainX, 1)
	assert.Empty(t, testX)
}

func TestLinearRegressionEvaluate(t *testing.T) {
	model := &LinearRegression{Weights: []float64{1}, Intercept: 0}

	eval, err := model.Evaluate([][]float64{{1}, {2}, {3}}, []float64{1, 2, 5})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(4.0/3.0), eval.RMSE, 1e-12)
	assert.InDelta(t, R2([]float64{1, 2, 5}, []float64{1, 2, 3}), eval.R2, 1e-12)

	_, err = model.Evaluate([][]float64{{1}}, []float64{1, 2})
	assert.Error(t, err)
}

func TestErrorMetrics(t *testing.T) {
	assert.Equal(t, 0.0, MSE(nil, nil))
	assert.InDelta(t, 4.0/3.0, MSE([]float64{1, 2, 3}, []float64{1, 2, 5}), 1e-12)
	assert.InDelta(t, 2, RMSE([]float64{0, 0}, []float64{2, -2}), 1e-12)
}
