// Package latency provides the timing model of the simulated store.
//
// Reads take a hit or miss latency plus optional seeded jitter; writes are
// acknowledged after a fixed latency and become visible to reads a fixed
// number of cycles later.
package latency

import "math/rand/v2"

// Table turns store accesses into latencies.
type Table struct {
	config *TimingConfig
	rng    *rand.Rand
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return NewTableWithConfig(DefaultTimingConfig())
}

// NewTableWithConfig creates a new latency table with custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	t := &Table{config: config}
	t.Reset()
	return t
}

// Reset reseeds the jitter generator from the configuration.
func (t *Table) Reset() {
	t.rng = rand.New(rand.NewPCG(t.config.Seed, t.config.Seed^0x9e3779b97f4a7c15))
}

// ReadLatency returns the latency of a read that hits or misses the cache.
func (t *Table) ReadLatency(hit bool) uint64 {
	l := t.config.ReadMissLatency
	if hit {
		l = t.config.ReadHitLatency
	}

	if t.config.Jitter > 0 {
		l += t.rng.Uint64N(t.config.Jitter + 1)
	}

	return l
}

// WriteLatency returns the cycles from write acceptance to acknowledgement.
func (t *Table) WriteLatency() uint64 {
	return t.config.WriteLatency
}

// VisibilityLag returns the cycles from acknowledgement to read visibility.
func (t *Table) VisibilityLag() uint64 {
	return t.config.VisibilityLag
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
