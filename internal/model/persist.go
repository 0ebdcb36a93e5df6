package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// artifactSchema is bumped whenever the serialized model layout changes.
const artifactSchema = 1

// artifact is the on-disk envelope around a trained model.
type artifact struct {
	Schema    int       `json:"schema"`
	TrainedAt time.Time `json:"trained_at"`
	Model     *Model    `json:"model"`
}

// Save writes the model to path as JSON, stamped with the training time.
func Save(path string, m *Model) error {
	if m.ConfigVersion == "" {
		return fmt.Errorf("refusing to save model without a config version")
	}
	data, err := json.MarshalIndent(artifact{
		Schema:    artifactSchema,
		TrainedAt: time.Now().UTC(),
		Model:     m,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// Load reads a model from path. When wantVersion is non-empty the stored
// config version must match it exactly; scoring with a model trained under
// a different feature layout is meaningless.
func Load(path, wantVersion string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if a.Schema != artifactSchema {
		return nil, fmt.Errorf("model schema %d not supported (want %d)", a.Schema, artifactSchema)
	}
	if a.Model == nil || len(a.Model.Trees) == 0 {
		return nil, fmt.Errorf("model artifact is empty")
	}
	if wantVersion != "" && a.Model.ConfigVersion != wantVersion {
		return nil, fmt.Errorf("model trained with config %q, current config is %q",
			a.Model.ConfigVersion, wantVersion)
	}
	return a.Model, nil
}
