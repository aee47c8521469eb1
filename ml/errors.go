package ml

import "errors"

var (
	// ErrArtifactMissing is returned when a schema or model file does not exist.
	ErrArtifactMissing = errors.New("artifact missing")
	// ErrArtifactCorrupt is returned when an artifact exists but cannot be used.
	ErrArtifactCorrupt = errors.New("artifact corrupt")
	// ErrDimensionMismatch means a feature vector and the model disagree on length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNotTrained is returned by Predict/Save on a zero-value model.
	ErrNotTrained = errors.New("model not trained")
	// ErrNonFinitePrediction means the model produced NaN or an infinity.
	ErrNonFinitePrediction = errors.New("non-finite prediction")
)
