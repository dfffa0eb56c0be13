package core

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/oooop/timing/cache"
	"github.com/sarchlab/oooop/timing/latency"
	"github.com/sarchlab/oooop/timing/pipeline"
)

// Config groups the engine, store timing and cache configuration of a
// core.
type Config struct {
	Engine pipeline.Config        `json:"engine"`
	Timing *latency.TimingConfig `json:"timing"`
	Cache  cache.Config           `json:"cache"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: pipeline.DefaultConfig(),
		Timing: latency.DefaultTimingConfig(),
		Cache:  cache.DefaultConfig(),
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every part and the store contract between them: a write
// must become visible to reads before its value leaves the write history.
func (c *Config) Validate() error {
	if err := c.Engine.Validate(); err != nil {
		return err
	}

	if c.Timing == nil {
		return fmt.Errorf("%w: missing timing config", pipeline.ErrMisconfiguration)
	}
	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrMisconfiguration, err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrMisconfiguration, err)
	}

	if c.Timing.VisibilityLag > uint64(c.Engine.WriteHistoryDepth) {
		return fmt.Errorf("%w: visibility_lag %d exceeds write_history_depth %d",
			pipeline.ErrMisconfiguration, c.Timing.VisibilityLag, c.Engine.WriteHistoryDepth)
	}

	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Timing != nil {
		clone.Timing = c.Timing.Clone()
	}
	return &clone
}
