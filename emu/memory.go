package emu

import "maps"

// Memory is a sparse word-addressed state array. Items that were never
// written read as zero. Every stored value is masked to the item width.
type Memory struct {
	words map[uint64]uint64
	mask  uint64
}

// NewMemory creates an empty memory of items that are width bits wide.
func NewMemory(width int) *Memory {
	mask := ^uint64(0)
	if width < 64 {
		mask = (uint64(1) << uint(width)) - 1
	}

	return &Memory{
		words: make(map[uint64]uint64),
		mask:  mask,
	}
}

// Read returns the item at index.
func (m *Memory) Read(index uint64) uint64 {
	return m.words[index]
}

// Write stores value at index.
func (m *Memory) Write(index, value uint64) {
	m.words[index] = value & m.mask
}

// Len returns the number of items ever written.
func (m *Memory) Len() int {
	return len(m.words)
}

// Snapshot returns a copy of every written item.
func (m *Memory) Snapshot() map[uint64]uint64 {
	return maps.Clone(m.words)
}

// Clone returns an independent copy.
func (m *Memory) Clone() *Memory {
	return &Memory{words: maps.Clone(m.words), mask: m.mask}
}

// Equal reports whether both memories hold the same items. Items written
// as zero equal items never written.
func (m *Memory) Equal(other *Memory) bool {
	for k, v := range m.words {
		if other.Read(k) != v {
			return false
		}
	}
	for k, v := range other.words {
		if m.Read(k) != v {
			return false
		}
	}
	return true
}

// Reset drops every item.
func (m *Memory) Reset() {
	clear(m.words)
}
