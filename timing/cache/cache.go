// Package cache provides a tag-only cache model, built on Akita cache
// components, that decides whether a store access hits or misses.
//
// The cache works in item units: addresses are item indices and sizes are
// item counts. No data is held; the store keeps the values.
package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache geometry.
type Config struct {
	// Size is the capacity in items.
	Size int `json:"size"`
	// Associativity is the number of ways.
	Associativity int `json:"associativity"`
	// BlockSize is the number of items per block.
	BlockSize int `json:"block_size"`
}

// DefaultConfig returns a 1024-item, 4-way cache with 8-item blocks.
func DefaultConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 4,
		BlockSize:     8,
	}
}

// Validate checks the geometry.
func (c Config) Validate() error {
	if c.Size <= 0 || c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("cache size, associativity and block_size must be > 0")
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("cache size %d is not a multiple of associativity*block_size (%d)",
			c.Size, c.Associativity*c.BlockSize)
	}
	return nil
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedBlock is the first index of the replaced block.
	EvictedBlock uint64
	// Writeback is true if the replaced block was dirty.
	Writeback bool
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// HitRate returns the fraction of accesses that hit.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache tracks which blocks of the state array are resident.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New creates a new cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

// BlockAddr returns the first index of the block holding index.
func (c *Cache) BlockAddr(index uint64) uint64 {
	return (index / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// Contains reports whether index is resident without touching LRU state.
func (c *Cache) Contains(index uint64) bool {
	block := c.directory.Lookup(0, c.BlockAddr(index))
	return block != nil && block.IsValid
}

// Read looks up index and allocates its block on a miss.
func (c *Cache) Read(index uint64) AccessResult {
	c.stats.Reads++
	return c.access(index, false)
}

// Write looks up index, allocating on a miss, and marks the block dirty.
func (c *Cache) Write(index uint64) AccessResult {
	c.stats.Writes++
	return c.access(index, true)
}

func (c *Cache) access(index uint64, isWrite bool) AccessResult {
	blockAddr := c.BlockAddr(index)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		if isWrite {
			block.IsDirty = true
		}
		return AccessResult{Hit: true}
	}

	c.stats.Misses++
	result := AccessResult{}

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedBlock = victim.Tag
		if victim.IsDirty {
			c.stats.Writebacks++
			result.Writeback = true
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = isWrite
	c.directory.Visit(victim)

	return result
}

// Invalidate drops the block holding index.
func (c *Cache) Invalidate(index uint64) {
	block := c.directory.Lookup(0, c.BlockAddr(index))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush cleans every dirty block and invalidates all blocks. It returns the
// number of writebacks.
func (c *Cache) Flush() int {
	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				n++
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
	return n
}

// Reset invalidates all blocks and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
