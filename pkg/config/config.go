// Package config provides configuration loading and management for dicomsplit.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dicomsplit/pkg/preview"
	"dicomsplit/pkg/split"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Split parameters
	Split struct {
		// Axis is the in-plane axis to split along: rows, columns, 0 or 1
		Axis string `yaml:"axis"`

		// Count is the number of output volumes. Leave at 0 when Pairs is set.
		Count int `yaml:"count"`

		// Pairs are explicit "SOP_UID/Series_UID" identifiers, one per output
		Pairs []string `yaml:"pairs"`

		// RecomputeOrigin moves Image Position (Patient) to each piece's corner
		RecomputeOrigin bool `yaml:"recomputeOrigin"`
	} `yaml:"split"`

	// Preview image parameters
	Preview struct {
		// Enabled writes a JPEG of every split piece
		Enabled bool `yaml:"enabled"`

		// Dir is the root directory for preview images
		Dir string `yaml:"dir"`

		// Quality is the JPEG quality, 1-100
		Quality int `yaml:"quality"`
	} `yaml:"preview"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`

		// ContinueOnError keeps going after a file fails to split
		ContinueOnError bool `yaml:"continueOnError"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default split parameters
	cfg.Split.Axis = "columns"
	cfg.Split.Count = 0
	cfg.Split.Pairs = []string{}
	cfg.Split.RecomputeOrigin = false

	// Set default preview parameters
	cfg.Preview.Enabled = false
	cfg.Preview.Dir = "previews"
	cfg.Preview.Quality = preview.DefaultQuality

	// Set default output parameters
	cfg.Output.Verbose = true
	cfg.Output.ContinueOnError = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Plan converts the split section into a validated split plan
func (c *Config) Plan() (split.Plan, error) {
	axis, err := split.ParseAxis(c.Split.Axis)
	if err != nil {
		return split.Plan{}, err
	}
	if c.Split.Count != 0 && len(c.Split.Pairs) > 0 {
		return split.Plan{}, fmt.Errorf("%w: set either count or pairs, not both", split.ErrConfig)
	}
	pairs, err := split.ParsePairs(c.Split.Pairs)
	if err != nil {
		return split.Plan{}, err
	}
	return split.NewPlan(axis, c.Split.Count, pairs, c.Split.RecomputeOrigin)
}

// Options builds splitter options from the preview and output sections
func (c *Config) Options(logger *log.Logger) split.Options {
	opts := split.Options{
		Logger:          logger,
		Verbose:         c.Output.Verbose,
		ContinueOnError: c.Output.ContinueOnError,
	}
	if c.Preview.Enabled {
		opts.Preview = preview.NewWriter(c.Preview.Dir, c.Preview.Quality)
	}
	return opts
}
