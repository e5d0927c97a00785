package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical navigation defaults file.
const DefaultConfigPath = "config/navigation.defaults.json"

// NavigationConfig is the root configuration for graph construction. Every
// field is optional; the Get* accessors fall back to the compiled defaults
// so partial files are safe. Angles are in radians, distances in metres.
type NavigationConfig struct {
	// Tiles and candidate search
	TilePrecision      *int     `json:"tile_precision,omitempty"`
	CoverageThresholdM *float64 `json:"coverage_threshold_m,omitempty"`
	SearchBoxDeg       *float64 `json:"search_box_deg,omitempty"`
	DefaultAltitudeM   *float64 `json:"default_altitude_m,omitempty"`
	LoaderConcurrency  *int     `json:"loader_concurrency,omitempty"`

	// Edge settings
	PanoMinDistance            *float64 `json:"pano_min_distance,omitempty"`
	PanoMaxDistance            *float64 `json:"pano_max_distance,omitempty"`
	PanoPreferredDistance      *float64 `json:"pano_preferred_distance,omitempty"`
	PanoMaxItems               *int     `json:"pano_max_items,omitempty"`
	PanoMaxStepTurnChange      *float64 `json:"pano_max_step_turn_change,omitempty"`
	SimilarMaxDirectionChange  *float64 `json:"similar_max_direction_change,omitempty"`
	SimilarMaxDistance         *float64 `json:"similar_max_distance,omitempty"`
	SimilarMinTimeDifferenceMs *int64   `json:"similar_min_time_difference_ms,omitempty"`
	StepMaxDistance            *float64 `json:"step_max_distance,omitempty"`
	StepMaxDirectionChange     *float64 `json:"step_max_direction_change,omitempty"`
	StepMaxDrift               *float64 `json:"step_max_drift,omitempty"`
	StepPreferredDistance      *float64 `json:"step_preferred_distance,omitempty"`
	TurnMaxDistance            *float64 `json:"turn_max_distance,omitempty"`
	TurnMaxDirectionChange     *float64 `json:"turn_max_direction_change,omitempty"`
	TurnMaxRigDistance         *float64 `json:"turn_max_rig_distance,omitempty"`
	TurnMinRigDirectionChange  *float64 `json:"turn_min_rig_direction_change,omitempty"`

	// Edge score coefficients
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
}

// Compiled defaults.
const (
	defaultTilePrecision      = 7
	defaultCoverageThresholdM = 20.0
	defaultSearchBoxDeg       = 0.001
	defaultAltitudeM          = 2.0
	defaultLoaderConcurrency  = 4
)

// EmptyNavigationConfig returns a NavigationConfig with all fields unset.
func EmptyNavigationConfig() *NavigationConfig {
	return &NavigationConfig{}
}

// LoadNavigationConfig loads a NavigationConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadNavigationConfig(path string) (*NavigationConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyNavigationConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *NavigationConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadNavigationConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *NavigationConfig) Validate() error {
	if c.TilePrecision != nil && (*c.TilePrecision < 1 || *c.TilePrecision > 12) {
		return fmt.Errorf("tile_precision must be between 1 and 12, got %d", *c.TilePrecision)
	}
	if c.LoaderConcurrency != nil && *c.LoaderConcurrency < 1 {
		return fmt.Errorf("loader_concurrency must be positive, got %d", *c.LoaderConcurrency)
	}
	if c.PanoMaxItems != nil && *c.PanoMaxItems < 1 {
		return fmt.Errorf("pano_max_items must be positive, got %d", *c.PanoMaxItems)
	}
	if c.SimilarMinTimeDifferenceMs != nil && *c.SimilarMinTimeDifferenceMs < 0 {
		return fmt.Errorf("similar_min_time_difference_ms must be non-negative, got %d", *c.SimilarMinTimeDifferenceMs)
	}

	positive := map[string]*float64{
		"coverage_threshold_m": c.CoverageThresholdM,
		"search_box_deg":       c.SearchBoxDeg,
		"pano_max_distance":    c.PanoMaxDistance,
		"similar_max_distance": c.SimilarMaxDistance,
		"step_max_distance":    c.StepMaxDistance,
		"turn_max_distance":    c.TurnMaxDistance,
	}
	for name, v := range positive {
		if v != nil && !(*v > 0) {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}

	angles := map[string]*float64{
		"pano_max_step_turn_change":     c.PanoMaxStepTurnChange,
		"similar_max_direction_change":  c.SimilarMaxDirectionChange,
		"step_max_direction_change":     c.StepMaxDirectionChange,
		"step_max_drift":                c.StepMaxDrift,
		"turn_max_direction_change":     c.TurnMaxDirectionChange,
		"turn_min_rig_direction_change": c.TurnMinRigDirectionChange,
	}
	for name, v := range angles {
		if v != nil && (*v < 0 || *v > math.Pi) {
			return fmt.Errorf("%s must be an angle in [0, π], got %f", name, *v)
		}
	}

	if c.PanoMinDistance != nil && c.PanoMaxDistance != nil && *c.PanoMinDistance > *c.PanoMaxDistance {
		return fmt.Errorf("pano_min_distance %f exceeds pano_max_distance %f", *c.PanoMinDistance, *c.PanoMaxDistance)
	}
	for name, v := range c.Coefficients {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("coefficient %q must be non-negative, got %f", name, v)
		}
	}
	return nil
}

func getFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func getInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// GetTilePrecision returns the geohash length of a tile.
func (c *NavigationConfig) GetTilePrecision() int {
	return getInt(c.TilePrecision, defaultTilePrecision)
}

// GetCoverageThresholdM returns the distance to a tile boundary within which
// a node is also covered by the neighbouring tile.
func (c *NavigationConfig) GetCoverageThresholdM() float64 {
	return getFloat(c.CoverageThresholdM, defaultCoverageThresholdM)
}

// GetSearchBoxDeg returns the side of the candidate search box.
func (c *NavigationConfig) GetSearchBoxDeg() float64 {
	return getFloat(c.SearchBoxDeg, defaultSearchBoxDeg)
}

// GetDefaultAltitudeM returns the altitude assigned to records without one.
func (c *NavigationConfig) GetDefaultAltitudeM() float64 {
	return getFloat(c.DefaultAltitudeM, defaultAltitudeM)
}

// GetLoaderConcurrency returns the number of tiles fetched in parallel.
func (c *NavigationConfig) GetLoaderConcurrency() int {
	return getInt(c.LoaderConcurrency, defaultLoaderConcurrency)
}

func (c *NavigationConfig) GetPanoMinDistance() float64 { return getFloat(c.PanoMinDistance, 0.1) }
func (c *NavigationConfig) GetPanoMaxDistance() float64 { return getFloat(c.PanoMaxDistance, 20) }
func (c *NavigationConfig) GetPanoPreferredDistance() float64 {
	return getFloat(c.PanoPreferredDistance, 5)
}
func (c *NavigationConfig) GetPanoMaxItems() int { return getInt(c.PanoMaxItems, 4) }
func (c *NavigationConfig) GetPanoMaxStepTurnChange() float64 {
	return getFloat(c.PanoMaxStepTurnChange, math.Pi/8)
}
func (c *NavigationConfig) GetSimilarMaxDirectionChange() float64 {
	return getFloat(c.SimilarMaxDirectionChange, math.Pi/8)
}
func (c *NavigationConfig) GetSimilarMaxDistance() float64 {
	return getFloat(c.SimilarMaxDistance, 12)
}

// GetSimilarMinTimeDifferenceMs returns how far apart in capture time two
// images by the same user must be to be linked as similar. Default 12h.
func (c *NavigationConfig) GetSimilarMinTimeDifferenceMs() int64 {
	if c.SimilarMinTimeDifferenceMs == nil {
		return 12 * 3600 * 1000
	}
	return *c.SimilarMinTimeDifferenceMs
}

func (c *NavigationConfig) GetStepMaxDistance() float64 { return getFloat(c.StepMaxDistance, 20) }
func (c *NavigationConfig) GetStepMaxDirectionChange() float64 {
	return getFloat(c.StepMaxDirectionChange, math.Pi/6)
}
func (c *NavigationConfig) GetStepMaxDrift() float64 { return getFloat(c.StepMaxDrift, math.Pi/6) }
func (c *NavigationConfig) GetStepPreferredDistance() float64 {
	return getFloat(c.StepPreferredDistance, 4)
}
func (c *NavigationConfig) GetTurnMaxDistance() float64 { return getFloat(c.TurnMaxDistance, 15) }
func (c *NavigationConfig) GetTurnMaxDirectionChange() float64 {
	return getFloat(c.TurnMaxDirectionChange, 2*math.Pi/9)
}
func (c *NavigationConfig) GetTurnMaxRigDistance() float64 {
	return getFloat(c.TurnMaxRigDistance, 0.65)
}
func (c *NavigationConfig) GetTurnMinRigDirectionChange() float64 {
	return getFloat(c.TurnMinRigDirectionChange, math.Pi/6)
}

// GetCoefficient returns the named score coefficient, or def when unset.
func (c *NavigationConfig) GetCoefficient(name string, def float64) float64 {
	if v, ok := c.Coefficients[name]; ok {
		return v
	}
	return def
}
