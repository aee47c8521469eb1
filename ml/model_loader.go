package ml

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultSchemaFile = "columns.json"
	DefaultModelFile  = "house_price_model.json"
)

// Artifacts is the trained schema and model pair.
type Artifacts struct {
	Schema *Schema
	Model  *LinearRegression
}

// LoadArtifacts reads both artifacts and checks that they agree on length.
// Errors wrap ErrArtifactMissing or ErrArtifactCorrupt.
func LoadArtifacts(schemaPath, modelPath string) (*Artifacts, error) {
	schema, err := LoadSchema(schemaPath)
	if err != nil {
		return nil, err
	}
	model := &LinearRegression{}
	if err := model.Load(modelPath); err != nil {
		return nil, err
	}
	if model.Dimension() != schema.Len() {
		return nil, fmt.Errorf("%w: model has %d weights, schema has %d columns: %v",
			ErrArtifactCorrupt, model.Dimension(), schema.Len(), ErrDimensionMismatch)
	}
	return &Artifacts{Schema: schema, Model: model}, nil
}

// SaveArtifacts writes the schema and model under dir using the default
// file names and returns their paths.
func SaveArtifacts(dir string, artifacts *Artifacts) (schemaPath, modelPath string, err error) {
	if artifacts == nil || artifacts.Schema == nil || artifacts.Model == nil {
		return "", "", fmt.Errorf("incomplete artifacts")
	}
	if artifacts.Model.Dimension() != artifacts.Schema.Len() {
		return "", "", fmt.Errorf("%w: model has %d weights, schema has %d columns",
			ErrDimensionMismatch, artifacts.Model.Dimension(), artifacts.Schema.Len())
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	schemaPath = filepath.Join(dir, DefaultSchemaFile)
	modelPath = filepath.Join(dir, DefaultModelFile)
	if err := artifacts.Schema.Save(schemaPath); err != nil {
		return "", "", fmt.Errorf("save schema: %w", err)
	}
	if err := artifacts.Model.Save(modelPath); err != nil {
		return "", "", fmt.Errorf("save model: %w", err)
	}
	return schemaPath, modelPath, nil
}
