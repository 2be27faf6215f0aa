// Package config holds the pipeline-wide settings. One immutable Config
// value is threaded explicitly through every stage; there is no ambient
// or global configuration state.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config contains all tolerances, defaults and policy flags recognized
// by the conversion pipeline. All lengths are in drawing units (mm).
type Config struct {
	// Tolerance is the endpoint-snapping and profile-closure epsilon.
	Tolerance float64 `yaml:"tolerance"`

	// DefaultThickness is the base extrusion depth used when the outer
	// profile carries no EXTRUDE annotation.
	DefaultThickness float64 `yaml:"default_thickness"`

	// DefaultHoleDepth is the hole depth used when a hole annotation
	// omits one.
	DefaultHoleDepth float64 `yaml:"default_hole_depth"`

	// PocketDepthFraction is the heuristic pocket depth as a fraction
	// of the base thickness, in (0, 1].
	PocketDepthFraction float64 `yaml:"pocket_depth_fraction"`

	// AnnotationRadius is the annotation-to-profile matching radius.
	AnnotationRadius float64 `yaml:"annotation_radius"`

	// BestEffort makes the model builder skip features whose boolean
	// step fails instead of aborting the whole job.
	BestEffort bool `yaml:"best_effort"`

	// ArcSegments controls arc-to-polyline approximation.
	ArcSegments int `yaml:"arc_segments"`

	// MeshCells controls marching-cubes tessellation resolution.
	MeshCells int `yaml:"mesh_cells"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tolerance:           0.1,
		DefaultThickness:    10.0,
		DefaultHoleDepth:    10.0,
		PocketDepthFraction: 0.5,
		AnnotationRadius:    15.0,
		BestEffort:          false,
		ArcSegments:         16,
		MeshCells:           200,
	}
}

// Load reads a YAML configuration file on top of the defaults. An
// empty path yields the defaults. Environment variables in the file
// are expanded, and a .env file in the working directory is honored if
// present.
func Load(path string) (Config, error) {
	cfg := Default()

	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that every setting is in its legal range.
func (c Config) Validate() error {
	if c.Tolerance <= 0 {
		return fmt.Errorf("config: tolerance must be positive, got %v", c.Tolerance)
	}
	if c.DefaultThickness <= 0 {
		return fmt.Errorf("config: default_thickness must be positive, got %v", c.DefaultThickness)
	}
	if c.DefaultHoleDepth <= 0 {
		return fmt.Errorf("config: default_hole_depth must be positive, got %v", c.DefaultHoleDepth)
	}
	if c.PocketDepthFraction <= 0 || c.PocketDepthFraction > 1 {
		return fmt.Errorf("config: pocket_depth_fraction must be in (0, 1], got %v", c.PocketDepthFraction)
	}
	if c.AnnotationRadius <= 0 {
		return fmt.Errorf("config: annotation_radius must be positive, got %v", c.AnnotationRadius)
	}
	if c.ArcSegments < 4 {
		return fmt.Errorf("config: arc_segments must be at least 4, got %v", c.ArcSegments)
	}
	if c.MeshCells < 16 {
		return fmt.Errorf("config: mesh_cells must be at least 16, got %v", c.MeshCells)
	}
	return nil
}
