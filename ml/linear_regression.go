package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// machineEpsilon is the float64 unit roundoff used for the rank cutoff.
const machineEpsilon = 2.220446049250313e-16

// LinearRegression is an ordinary least squares model: one weight per
// schema column plus an intercept.
type LinearRegression struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// Fit solves the least squares problem on centered data so the intercept is
// not penalised. Rank deficient inputs (e.g. indicator columns that are
// never set) get the minimum-norm solution.
func (lr *LinearRegression) Fit(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}

	rows := len(features)
	cols := len(features[0])
	for i, row := range features {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), cols)
		}
	}

	xMean := make([]float64, cols)
	yMean := 0.0
	for i, row := range features {
		for j, v := range row {
			xMean[j] += v
		}
		yMean += targets[i]
	}
	for j := range xMean {
		xMean[j] /= float64(rows)
	}
	yMean /= float64(rows)

	if cols == 0 {
		lr.Weights = []float64{}
		lr.Intercept = yMean
		return nil
	}

	x := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for i, row := range features {
		for j, v := range row {
			x.Set(i, j, v-xMean[j])
		}
		y.SetVec(i, targets[i]-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return errors.New("svd factorization failed")
	}
	rank := svd.Rank(float64(max(rows, cols)) * machineEpsilon)
	if rank == 0 {
		lr.Weights = make([]float64, cols)
		lr.Intercept = yMean
		return nil
	}

	var w mat.VecDense
	svd.SolveVecTo(&w, y, rank)

	weights := make([]float64, cols)
	intercept := yMean
	for j := range weights {
		weights[j] = w.AtVec(j)
		intercept -= weights[j] * xMean[j]
	}
	lr.Weights = weights
	lr.Intercept = intercept
	return nil
}

// Predict returns intercept + weights·features.
func (lr *LinearRegression) Predict(features []float64) (float64, error) {
	if lr.Weights == nil {
		return 0, ErrNotTrained
	}
	if len(features) != len(lr.Weights) {
		return 0, fmt.Errorf("%w: model has %d weights, vector has %d", ErrDimensionMismatch, len(lr.Weights), len(features))
	}
	sum := lr.Intercept
	for i, v := range features {
		sum += lr.Weights[i] * v
	}
	return sum, nil
}

// Evaluation holds held-out metrics.
type Evaluation struct {
	R2   float64
	RMSE float64
}

// Evaluate predicts every row and compares against targets.
func (lr *LinearRegression) Evaluate(features [][]float64, targets []float64) (Evaluation, error) {
	if len(features) != len(targets) {
		return Evaluation{}, errors.New("features and targets size mismatch")
	}
	predicted := make([]float64, len(features))
	for i, row := range features {
		p, err := lr.Predict(row)
		if err != nil {
			return Evaluation{}, err
		}
		predicted[i] = p
	}
	return Evaluation{R2: R2(targets, predicted), RMSE: RMSE(targets, predicted)}, nil
}

// Score returns the R² of the model on the given rows.
func (lr *LinearRegression) Score(features [][]float64, targets []float64) (float64, error) {
	eval, err := lr.Evaluate(features, targets)
	return eval.R2, err
}

// Dimension is the number of weights.
func (lr *LinearRegression) Dimension() int {
	return len(lr.Weights)
}

// Save writes the model as JSON.
func (lr *LinearRegression) Save(path string) error {
	if lr.Weights == nil {
		return ErrNotTrained
	}
	payload, err := json.Marshal(lr)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

// Load reads a model written by Save. Errors wrap ErrArtifactMissing or ErrArtifactCorrupt.
func (lr *LinearRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: model %s", ErrArtifactMissing, path)
		}
		return fmt.Errorf("%w: read model %s: %v", ErrArtifactCorrupt, path, err)
	}
	var model LinearRegression
	if err := json.Unmarshal(payload, &model); err != nil {
		return fmt.Errorf("%w: decode model %s: %v", ErrArtifactCorrupt, path, err)
	}
	if model.Weights == nil {
		return fmt.Errorf("%w: model %s has no weights", ErrArtifactCorrupt, path)
	}
	*lr = model
	return nil
}
