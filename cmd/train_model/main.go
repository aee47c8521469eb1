package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"houseprice/config"
	"houseprice/db"
	"houseprice/logger"
	"houseprice/ml"
	"houseprice/pipeline"
)

const (
	sourceCSV = "csv"

	defaultCSVPath = "Bengaluru_House_Data.csv"
)

// main trains a model offline and writes both artifacts.
func main() {
	cfg, err := loadConfig(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	defaults := cfg.Training

	source := flag.String("source", sourceCSV, "listing source: csv, sqlite3 or oracle")
	data := flag.String("data", "", "CSV path (default "+defaultCSVPath+"), or DSN for sql sources; oracle falls back to HOUSEPRICE_ORACLE_*")
	query := flag.String("query", db.DefaultListingsQuery, "listing query for sql sources")
	stageTo := flag.String("stage_sqlite", "", "also copy CSV listings into this sqlite file")
	outDir := flag.String("out_dir", cfg.ArtifactsDir(), "artifact output directory")
	testRatio := flag.Float64("test_ratio", defaults.TestRatio, "held-out fraction")
	seed := flag.Int64("seed", defaults.Seed, "shuffle seed")
	rareThreshold := flag.Int("rare_threshold", defaults.RareThreshold, "locations with at most this many rows become other")
	minSqftPerBHK := flag.Float64("min_sqft_per_bhk", defaults.MinSqftPerBHK, "drop listings below this area per bedroom")
	logLevel := flag.String("log_level", cfg.Log.Level, "log level")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: *logLevel, Format: "auto"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	location, err := resolveData(*source, *data, os.Getenv)
	if err != nil {
		log.Fatal("invalid listing source", zap.String("source", *source), zap.Error(err))
	}

	listings, stats, err := readListings(ctx, *source, location, *query)
	if err != nil {
		log.Fatal("failed to read listings", zap.String("source", *source), zap.Error(err))
	}
	log.Info("listings read",
		zap.String("source", *source),
		zap.Int("rows", stats.Rows),
		zap.Int("skipped", stats.Skipped))

	if *stageTo != "" {
		if err := stageListings(ctx, *stageTo, listings); err != nil {
			log.Fatal("failed to stage listings", zap.Error(err))
		}
		log.Info("listings staged", zap.String("sqlite", *stageTo), zap.Int("rows", len(listings)))
	}

	trainer := pipeline.NewTrainer(pipeline.TrainingConfig{
		TestRatio:     *testRatio,
		Seed:          *seed,
		RareThreshold: *rareThreshold,
		MinSqftPerBHK: *minSqftPerBHK,
	}, log)
	result, err := trainer.Train(ctx, listings)
	if err != nil {
		log.Fatal("failed to train model", zap.Error(err))
	}

	schemaPath, modelPath, err := ml.SaveArtifacts(*outDir, result.Artifacts)
	if err != nil {
		log.Fatal("failed to save artifacts", zap.Error(err))
	}
	log.Info("training finished",
		zap.Int("train_rows", result.TrainRows),
		zap.Int("test_rows", result.TestRows),
		zap.Float64("r2", result.TestScore),
		zap.Int("locations", len(result.Artifacts.Schema.Locations())))

	fmt.Printf("schema saved to %s\nmodel saved to %s\n", schemaPath, modelPath)
}

// configPath looks in the working directory, then the repository root.
func configPath() string {
	path := "config.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = filepath.Join("..", "..", "config.yaml")
	}
	return path
}

// loadConfig falls back to defaults only when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// resolveData picks the CSV path or DSN for source. An empty -data means the
// bundled CSV for csv, the HOUSEPRICE_ORACLE_* variables for oracle, and is
// an error for sqlite3.
func resolveData(source, data string, getenv func(string) string) (string, error) {
	if data != "" {
		return data, nil
	}
	switch source {
	case sourceCSV:
		return defaultCSVPath, nil
	case db.DriverOracle:
		host := getenv("HOUSEPRICE_ORACLE_HOST")
		if host == "" {
			return "", errors.New("-data or HOUSEPRICE_ORACLE_HOST is required for oracle")
		}
		port := getenv("HOUSEPRICE_ORACLE_PORT")
		if port == "" {
			port = "1521"
		}
		return db.OracleDSN(
			getenv("HOUSEPRICE_ORACLE_USER"),
			getenv("HOUSEPRICE_ORACLE_PASSWORD"),
			host,
			port,
			getenv("HOUSEPRICE_ORACLE_SERVICE"),
		), nil
	case db.DriverSQLite:
		return "", errors.New("-data is required for sqlite3")
	default:
		return "", fmt.Errorf("unknown source %q", source)
	}
}

// readListings loads listings from a CSV path or a database DSN.
func readListings(ctx context.Context, source, data, query string) ([]pipeline.Listing, pipeline.ReadStats, error) {
	switch source {
	case sourceCSV:
		return pipeline.LoadCSV(data)
	case db.DriverSQLite, db.DriverOracle:
		store, err := db.Open(source, data)
		if err != nil {
			return nil, pipeline.ReadStats{}, err
		}
		defer store.Close()
		return store.QueryListings(ctx, query)
	default:
		return nil, pipeline.ReadStats{}, fmt.Errorf("unknown source %q", source)
	}
}

// stageListings copies listings into a sqlite listings table.
func stageListings(ctx context.Context, path string, listings []pipeline.Listing) error {
	store, err := db.Open(db.DriverSQLite, path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	return store.InsertListings(ctx, listings)
}
