// Package config loads the analysis configuration: acquisition constants
// (time resolution, pixel sizes) and batch settings. Fields omitted from
// the JSON file fall back to defaults via the Get* accessors, so partial
// configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AnalysisConfig is the root configuration for an analysis run.
type AnalysisConfig struct {
	// Acquisition constants
	TimeResolution *float64 `json:"time_resolution,omitempty"` // seconds per frame
	PixelSizeX     *float64 `json:"pixel_size_x,omitempty"`    // length units per pixel
	PixelSizeY     *float64 `json:"pixel_size_y,omitempty"`

	// Batch settings
	MinTrajectoryLength *int  `json:"min_trajectory_length,omitempty"`
	Workers             *int  `json:"workers,omitempty"`
	ByIntensity         *bool `json:"by_intensity,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. The file
// must have a .json extension and stay under the max file size.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
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

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *AnalysisConfig) Validate() error {
	if c.TimeResolution != nil && *c.TimeResolution <= 0 {
		return fmt.Errorf("time_resolution must be positive, got %f", *c.TimeResolution)
	}
	if c.PixelSizeX != nil && *c.PixelSizeX <= 0 {
		return fmt.Errorf("pixel_size_x must be positive, got %f", *c.PixelSizeX)
	}
	if c.PixelSizeY != nil && *c.PixelSizeY <= 0 {
		return fmt.Errorf("pixel_size_y must be positive, got %f", *c.PixelSizeY)
	}
	if c.MinTrajectoryLength != nil && *c.MinTrajectoryLength < 0 {
		return fmt.Errorf("min_trajectory_length must be non-negative, got %d", *c.MinTrajectoryLength)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetTimeResolution returns the time_resolution value or the default.
func (c *AnalysisConfig) GetTimeResolution() float64 {
	if c.TimeResolution == nil {
		return 0.02 // 50 fps acquisition
	}
	return *c.TimeResolution
}

// GetPixelSizeX returns the pixel_size_x value or the default.
func (c *AnalysisConfig) GetPixelSizeX() float64 {
	if c.PixelSizeX == nil {
		return 0.16 // µm per pixel
	}
	return *c.PixelSizeX
}

// GetPixelSizeY returns the pixel_size_y value or the default.
func (c *AnalysisConfig) GetPixelSizeY() float64 {
	if c.PixelSizeY == nil {
		return 0.16
	}
	return *c.PixelSizeY
}

// GetMinTrajectoryLength returns the min_trajectory_length value or the default.
func (c *AnalysisConfig) GetMinTrajectoryLength() int {
	if c.MinTrajectoryLength == nil {
		return 30
	}
	return *c.MinTrajectoryLength
}

// GetWorkers returns the workers value or the default (0: one per CPU).
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetByIntensity returns the by_intensity value or the default.
func (c *AnalysisConfig) GetByIntensity() bool {
	if c.ByIntensity == nil {
		return false
	}
	return *c.ByIntensity
}
