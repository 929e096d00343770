// Package config loads settings for the bindless mesh pipeline.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Supported device backends.
const (
	BackendHost = "host"
	BackendWGPU = "wgpu"
)

// Config holds all pipeline settings.
type Config struct {
	BVH    BVHConfig    `yaml:"bvh"`
	Device DeviceConfig `yaml:"device"`
	Log    LogConfig    `yaml:"log"`
}

// BVHConfig holds hierarchy construction settings.
type BVHConfig struct {
	MinLeafItems int `yaml:"min_leaf_items"` // Work lists at or below this size become leaves
}

// DeviceConfig selects where packed buffers are uploaded.
type DeviceConfig struct {
	Backend       string `yaml:"backend"`
	ForceFallback bool   `yaml:"force_fallback_adapter"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		BVH: BVHConfig{
			MinLeafItems: 4,
		},
		Device: DeviceConfig{
			Backend: BackendHost,
		},
		Log: LogConfig{
			Level:      "notice",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := Parse(cfg, data); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Parse merges YAML data into cfg and validates the result.
func Parse(cfg *Config, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate checks for settings the pipeline cannot work with.
func (c *Config) Validate() error {
	if c.BVH.MinLeafItems < 1 {
		return fmt.Errorf("bvh.min_leaf_items must be at least 1; got %d", c.BVH.MinLeafItems)
	}
	switch c.Device.Backend {
	case BackendHost, BackendWGPU:
	default:
		return fmt.Errorf("unsupported device backend %q", c.Device.Backend)
	}
	return nil
}
