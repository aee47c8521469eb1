package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"houseprice/config"
	qhttp "houseprice/http"
	"houseprice/logger"
	"houseprice/ml"
	"houseprice/monitoring"
)

// main starts the price server.
func main() {
	// Look for config in root even if run from cmd/
	configPath := "config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = filepath.Join("..", "config.yaml")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

// loadConfig falls back to defaults only when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// run loads artifacts and serves until a signal arrives.
func run(cfg *config.Config, log *zap.Logger) error {
	artifacts, err := ml.LoadArtifacts(cfg.SchemaPath(), cfg.ModelPath())
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}
	log.Info("artifacts loaded",
		zap.String("schema", cfg.SchemaPath()),
		zap.String("model", cfg.ModelPath()),
		zap.Int("columns", artifacts.Schema.Len()),
		zap.Int("locations", len(artifacts.Schema.Locations())),
	)

	estimator, err := ml.NewEstimatorFromArtifacts(artifacts, cfg.Estimator.CacheSize)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Artifacts.Watch {
		watcher, err := ml.NewArtifactWatcher(log, cfg.SchemaPath(), cfg.ModelPath())
		if err != nil {
			log.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			go watcher.Run(ctx)
		}
	}

	metrics := monitoring.NewMetricsCollector()
	handler := qhttp.NewHandler(estimator, qhttp.HandlerOptions{
		Logger:           log,
		Metrics:          metrics,
		StrictValidation: cfg.Validation.Strict,
		AllowedOrigins:   cfg.Http.AllowedOrigins,
	})
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, handler, metrics, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := server.Stop(); err != nil {
		return err
	}
	log.Info("exiting")
	return nil
}
