package ml

// Regressor evaluates an encoded feature vector.
type Regressor interface {
	Predict(features []float64) (float64, error)
}

// Model is a regressor that can be trained and persisted.
type Model interface {
	Regressor
	Fit(features [][]float64, targets []float64) error
	Dimension() int
	Save(path string) error
	Load(path string) error
}

var _ Model = (*LinearRegression)(nil)
