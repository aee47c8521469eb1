// Package config loads config.yaml for the price service.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"houseprice/logger"
	"houseprice/pipeline"
)

// Config is the service configuration.
type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log       logger.Config `yaml:"log"`
	Artifacts struct {
		Dir        string `yaml:"dir"`
		SchemaFile string `yaml:"schema_file"`
		ModelFile  string `yaml:"model_file"`
		Watch      bool   `yaml:"watch"`
	} `yaml:"artifacts"`
	Estimator struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"estimator"`
	Validation struct {
		Strict bool `yaml:"strict"`
	} `yaml:"validation"`
	// Training seeds the defaults of cmd/train_model.
	Training pipeline.TrainingConfig `yaml:"training"`

	// baseDir is the directory holding the config file.
	baseDir string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Estimator.CacheSize = 1024
	cfg.Training = pipeline.DefaultTrainingConfig()
	cfg.applyDefaults()
	return cfg
}

// Load decodes path over Default, so keys absent from the file keep their
// default and explicit zeros are kept. HOUSEPRICE_* environment variables
// are applied last.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(abs)
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills fields for which zero is never meaningful. Cache size
// and training values are seeded by Default instead: zero is valid there.
func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = 3000
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = 30 * time.Second
	}
	if c.Http.MaxBodyBytes == 0 {
		c.Http.MaxBodyBytes = 1 << 20
	}
	if len(c.Http.AllowedOrigins) == 0 {
		c.Http.AllowedOrigins = []string{"*"}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "artifacts"
	}
	if c.Artifacts.SchemaFile == "" {
		c.Artifacts.SchemaFile = "columns.json"
	}
	if c.Artifacts.ModelFile == "" {
		c.Artifacts.ModelFile = "house_price_model.json"
	}
	// an empty "training:" key decodes to the zero struct
	if c.Training == (pipeline.TrainingConfig{}) {
		c.Training = pipeline.DefaultTrainingConfig()
	}
}

// validate rejects values no component can run with.
func (c *Config) validate() error {
	if c.Estimator.CacheSize < 0 {
		return fmt.Errorf("estimator.cache_size must be >= 0, got %d", c.Estimator.CacheSize)
	}
	if c.Training.TestRatio < 0 || c.Training.TestRatio >= 1 {
		return fmt.Errorf("training.test_ratio must be in [0, 1), got %v", c.Training.TestRatio)
	}
	if c.Training.RareThreshold < 0 {
		return fmt.Errorf("training.rare_threshold must be >= 0, got %d", c.Training.RareThreshold)
	}
	if c.Training.MinSqftPerBHK < 0 {
		return fmt.Errorf("training.min_sqft_per_bhk must be >= 0, got %v", c.Training.MinSqftPerBHK)
	}
	return nil
}

// applyEnv applies the HOUSEPRICE_* overrides.
func (c *Config) applyEnv() {
	c.Http.Port = getEnvAsInt("HOUSEPRICE_PORT", c.Http.Port)
	c.Log.Level = getEnv("HOUSEPRICE_LOG_LEVEL", c.Log.Level)
	c.Artifacts.Dir = getEnv("HOUSEPRICE_ARTIFACTS_DIR", c.Artifacts.Dir)
}

// SchemaPath resolves the schema artifact. Relative directories are taken
// relative to the config file.
func (c *Config) SchemaPath() string {
	return filepath.Join(c.artifactsDir(), c.Artifacts.SchemaFile)
}

// ArtifactsDir is the resolved artifact directory.
func (c *Config) ArtifactsDir() string {
	return c.artifactsDir()
}

// ModelPath resolves the model artifact like SchemaPath.
func (c *Config) ModelPath() string {
	return filepath.Join(c.artifactsDir(), c.Artifacts.ModelFile)
}

// artifactsDir resolves Artifacts.Dir against the config file directory.
func (c *Config) artifactsDir() string {
	if filepath.IsAbs(c.Artifacts.Dir) || c.baseDir == "" {
		return c.Artifacts.Dir
	}
	return filepath.Join(c.baseDir, c.Artifacts.Dir)
}

// getEnv returns the variable or defaultValue when unset.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt is getEnv for integers; unparsable values are ignored.
func getEnvAsInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
