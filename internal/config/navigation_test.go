package config

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := EmptyNavigationConfig()

	if got := cfg.GetTilePrecision(); got != 7 {
		t.Errorf("GetTilePrecision() = %d, want 7", got)
	}
	if got := cfg.GetCoverageThresholdM(); got != 20 {
		t.Errorf("GetCoverageThresholdM() = %f, want 20", got)
	}
	if got := cfg.GetSearchBoxDeg(); got != 0.001 {
		t.Errorf("GetSearchBoxDeg() = %f, want 0.001", got)
	}
	if got := cfg.GetDefaultAltitudeM(); got != 2 {
		t.Errorf("GetDefaultAltitudeM() = %f, want 2", got)
	}
	if got := cfg.GetTurnMaxDirectionChange(); math.Abs(got-2*math.Pi/9) > 1e-12 {
		t.Errorf("GetTurnMaxDirectionChange() = %f, want 2π/9", got)
	}
	if got := cfg.GetSimilarMinTimeDifferenceMs(); got != 43200000 {
		t.Errorf("GetSimilarMinTimeDifferenceMs() = %d, want 12h", got)
	}
	if got := cfg.GetCoefficient("step_motion", 3); got != 3 {
		t.Errorf("GetCoefficient fallback = %f, want 3", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config should validate: %v", err)
	}
}

func TestDefaultsFileMatchesCompiledDefaults(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	empty := EmptyNavigationConfig()

	pairs := []struct {
		name      string
		got, want float64
	}{
		{"coverage_threshold_m", cfg.GetCoverageThresholdM(), empty.GetCoverageThresholdM()},
		{"pano_max_step_turn_change", cfg.GetPanoMaxStepTurnChange(), empty.GetPanoMaxStepTurnChange()},
		{"step_max_drift", cfg.GetStepMaxDrift(), empty.GetStepMaxDrift()},
		{"turn_max_direction_change", cfg.GetTurnMaxDirectionChange(), empty.GetTurnMaxDirectionChange()},
		{"turn_max_rig_distance", cfg.GetTurnMaxRigDistance(), empty.GetTurnMaxRigDistance()},
		{"similar_max_distance", cfg.GetSimilarMaxDistance(), empty.GetSimilarMaxDistance()},
	}
	for _, p := range pairs {
		if math.Abs(p.got-p.want) > 1e-12 {
			t.Errorf("%s: file %v, compiled %v", p.name, p.got, p.want)
		}
	}
	if cfg.GetPanoMaxItems() != empty.GetPanoMaxItems() {
		t.Errorf("pano_max_items: file %d, compiled %d", cfg.GetPanoMaxItems(), empty.GetPanoMaxItems())
	}
	if got := cfg.GetCoefficient("step_merge_cc_penalty", 0); got != 6 {
		t.Errorf("step_merge_cc_penalty = %f, want 6", got)
	}
}

func TestDefaultsFileHasOnlyKnownKeys(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", DefaultConfigPath))
	if err != nil {
		t.Fatalf("read defaults: %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg NavigationConfig
	if err := dec.Decode(&cfg); err != nil {
		t.Fatalf("defaults file carries a key nothing reads: %v", err)
	}
}

func TestLoadNavigationConfig_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nav.json")
	if err := os.WriteFile(path, []byte(`{"tile_precision": 6, "step_max_distance": 25}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadNavigationConfig(path)
	if err != nil {
		t.Fatalf("LoadNavigationConfig: %v", err)
	}
	if cfg.GetTilePrecision() != 6 {
		t.Errorf("tile_precision = %d, want 6", cfg.GetTilePrecision())
	}
	if cfg.GetStepMaxDistance() != 25 {
		t.Errorf("step_max_distance = %f, want 25", cfg.GetStepMaxDistance())
	}
	// Unset fields keep their defaults.
	if cfg.GetTurnMaxDistance() != 15 {
		t.Errorf("turn_max_distance = %f, want 15", cfg.GetTurnMaxDistance())
	}
}

func TestLoadNavigationConfig_Rejects(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad.json":      `{"tile_precision": 0}`,
		"angle.json":    `{"step_max_drift": 4}`,
		"negative.json": `{"search_box_deg": -1}`,
		"pano.json":     `{"pano_min_distance": 30, "pano_max_distance": 20}`,
		"coef.json":     `{"coefficients": {"step_motion": -1}}`,
		"syntax.json":   `{`,
		"config.yaml":   `{}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadNavigationConfig(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if _, err := LoadNavigationConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file: expected error")
	}
}
