package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
)

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`

	// Render settings
	RenderSize      int     `json:"render_size"`
	Supersample     int     `json:"supersample"`
	WebPQuality     int     `json:"webp_quality"`
	Workers         int     `json:"workers"`
	MmapThresholdMB int     `json:"mmap_threshold_mb"`
	CameraAzimuth   float64 `json:"camera_azimuth"`
	CameraElevation float64 `json:"camera_elevation"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir  string
	OutputDir string
	Quality   int
	Workers   int
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Quality > 0 {
		c.WebPQuality = flags.Quality
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	if c.RenderSize <= 0 {
		c.RenderSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.WebPQuality <= 0 {
		c.WebPQuality = 90
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.MmapThresholdMB <= 0 {
		c.MmapThresholdMB = 64
	}
	if c.CameraAzimuth == 0 {
		c.CameraAzimuth = 35
	}
	if c.CameraElevation == 0 {
		c.CameraElevation = 25
	}
}

// MmapThreshold returns the threshold in bytes.
func (c *Config) MmapThreshold() int64 {
	return int64(c.MmapThresholdMB) << 20
}
