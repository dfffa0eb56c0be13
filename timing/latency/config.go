package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the latencies of the simulated store.
type TimingConfig struct {
	// ReadHitLatency is the read completion latency when the item's block
	// is cached. Default: 2 cycles.
	ReadHitLatency uint64 `json:"read_hit_latency"`

	// ReadMissLatency is the read completion latency on a cache miss.
	// Default: 12 cycles.
	ReadMissLatency uint64 `json:"read_miss_latency"`

	// WriteLatency is the number of cycles from write acceptance to the
	// acknowledgement. Default: 3 cycles.
	WriteLatency uint64 `json:"write_latency"`

	// VisibilityLag is the number of cycles after the acknowledgement until
	// reads observe a write. It must not exceed the engine's write history
	// depth. Default: 2 cycles.
	VisibilityLag uint64 `json:"visibility_lag"`

	// Jitter is the maximum number of cycles added at random to every read.
	// Default: 0.
	Jitter uint64 `json:"jitter"`

	// Seed seeds the jitter generator. Default: 1.
	Seed uint64 `json:"seed"`

	// MSHREntries is the number of outstanding cache misses the store
	// tracks. Default: 8.
	MSHREntries int `json:"mshr_entries"`
}

// DefaultTimingConfig returns a TimingConfig with default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ReadHitLatency:  2,
		ReadMissLatency: 12,
		WriteLatency:    3,
		VisibilityLag:   2,
		Jitter:          0,
		Seed:            1,
		MSHREntries:     8,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are usable.
func (c *TimingConfig) Validate() error {
	if c.ReadHitLatency == 0 {
		return fmt.Errorf("read_hit_latency must be > 0")
	}
	if c.ReadMissLatency < c.ReadHitLatency {
		return fmt.Errorf("read_miss_latency must be >= read_hit_latency")
	}
	if c.WriteLatency == 0 {
		return fmt.Errorf("write_latency must be > 0")
	}
	if c.MSHREntries <= 0 {
		return fmt.Errorf("mshr_entries must be > 0")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
