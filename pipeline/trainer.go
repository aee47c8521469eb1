package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"houseprice/ml"
)

// TrainingConfig controls the offline training run.
type TrainingConfig struct {
	TestRatio     float64 `yaml:"test_ratio"`
	Seed          int64   `yaml:"seed"`
	RareThreshold int     `yaml:"rare_threshold"`
	MinSqftPerBHK float64 `yaml:"min_sqft_per_bhk"`
}

// DefaultTrainingConfig matches the reference training script.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		TestRatio:     0.2,
		Seed:          10,
		RareThreshold: 10,
		MinSqftPerBHK: 300,
	}
}

// TrainingResult is what a training run produced.
type TrainingResult struct {
	Artifacts *ml.Artifacts
	Cleaning  CleaningStats
	TrainRows int
	TestRows  int
	// TestScore is R² on the held-out rows. Informational only.
	TestScore float64
	// TestRMSE is the held-out root mean squared error, in Lakhs.
	TestRMSE float64
}

// Trainer turns raw listings into a schema and a fitted model.
type Trainer struct {
	config TrainingConfig
	logger *zap.Logger
}

// NewTrainer returns a trainer; a nil logger discards output.
func NewTrainer(config TrainingConfig, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{config: config, logger: logger}
}

// Train cleans, encodes, splits and fits. ctx is checked between stages.
func (t *Trainer) Train(ctx context.Context, listings []Listing) (*TrainingResult, error) {
	cleaner := NewDataCleaner(t.logger, t.config.RareThreshold, t.config.MinSqftPerBHK)
	cleaned, stats, err := cleaner.Clean(listings)
	if err != nil {
		return nil, fmt.Errorf("clean dataset: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, err := OneHotEncode(cleaned)
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	schema, err := ml.NewSchema(encoded.Columns)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trainX, trainY, testX, testY := ml.TrainTestSplit(encoded.Features, encoded.Targets, t.config.TestRatio, t.config.Seed)
	t.logger.Info("training model",
		zap.Int("columns", len(encoded.Columns)),
		zap.Int("train_rows", len(trainX)),
		zap.Int("test_rows", len(testX)))

	model := &ml.LinearRegression{}
	if err := model.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	result := &TrainingResult{
		Artifacts: &ml.Artifacts{Schema: schema, Model: model},
		Cleaning:  stats,
		TrainRows: len(trainX),
		TestRows:  len(testX),
	}
	if len(testX) < 2 {
		t.logger.Warn("test split too small to score", zap.Int("test_rows", len(testX)))
		return result, nil
	}
	eval, err := model.Evaluate(testX, testY)
	if err != nil {
		return nil, fmt.Errorf("score model: %w", err)
	}
	result.TestScore = eval.R2
	result.TestRMSE = eval.RMSE
	t.logger.Info("model evaluated",
		zap.Float64("r2", eval.R2),
		zap.Float64("rmse", eval.RMSE))
	return result, nil
}
