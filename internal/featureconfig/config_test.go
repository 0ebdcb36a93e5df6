package featureconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	for _, cfg := range []*Config{Lite(), Full()} {
		if err := Validate(cfg); err != nil {
			t.Fatalf("%s: default config invalid: %v", cfg.Meta.ConfigID, err)
		}
	}

	// Lite requires 3 snapshots (deepest lag 2 + 1), full requires 9.
	if got := Lite().Features.MinSnapshots(); got != 3 {
		t.Errorf("lite MinSnapshots: expected 3, got %d", got)
	}
	if got := Full().Features.MinSnapshots(); got != 9 {
		t.Errorf("full MinSnapshots: expected 9, got %d", got)
	}
}

func TestFeatureNames(t *testing.T) {
	f := Full().Features

	names := f.FeatureNames()
	if len(names) != f.NumFeatures() {
		t.Fatalf("expected %d names, got %d", f.NumFeatures(), len(names))
	}

	// No duplicates
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate feature name %q", n)
		}
		seen[n] = true
	}

	// Deterministic ordering
	names2 := f.FeatureNames()
	for i := range names {
		if names[i] != names2[i] {
			t.Fatalf("ordering not deterministic at %d: %s vs %s", i, names[i], names2[i])
		}
	}

	t.Logf("full config: %d features", len(names))
}

func TestSectorCode(t *testing.T) {
	f := Full().Features

	if code := f.SectorCode("technology"); code != 1 {
		t.Errorf("expected code 1 for technology, got %d", code)
	}
	if code := f.SectorCode("does-not-exist"); code != 0 {
		t.Errorf("expected reserved code 0 for unknown sector, got %d", code)
	}
}

func TestHashDeterministic(t *testing.T) {
	cfg := Full()

	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	hash2, _ := Hash(cfg)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}

	// Different config, different hash
	other := Lite()
	otherHash, _ := Hash(other)
	if hash == otherHash {
		t.Error("lite and full configs must not collide")
	}
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	yaml := `
meta:
  config_id: test
  version: v1
  not_a_field: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Load(path); err == nil {
		t.Fatal("expected unknown field to fail decoding")
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing config_id", func(c *Config) { c.Meta.ConfigID = "" }},
		{"empty base metrics", func(c *Config) { c.Features.BaseMetrics = nil }},
		{"duplicate metric", func(c *Config) { c.Features.BaseMetrics = []string{"pe", "pe"} }},
		{"non-increasing lags", func(c *Config) { c.Features.LagDepths = []int{2, 2} }},
		{"bad horizon", func(c *Config) { c.Label.Horizon = "2w" }},
		{"bad label kind", func(c *Config) { c.Label.Kind = "best" }},
		{"one fold", func(c *Config) { c.Split.NumFolds = 1 }},
		{"purge below horizon", func(c *Config) { c.Split.PurgeDays = 10 }},
		{"negative embargo", func(c *Config) { c.Split.EmbargoDays = -1 }},
		{"zero trees", func(c *Config) { c.Model.NumTrees = 0 }},
		{"learning rate above 1", func(c *Config) { c.Model.LearningRate = 1.5 }},
		{"bad cutoff", func(c *Config) { c.Holdout.Cutoff = "01/01/2023" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Full()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
