package pipeline

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// SideEntry is what the engine remembers about a transaction while its read
// is outstanding.
type SideEntry struct {
	Index uint64
	Aux   uint64
}

// IndexSideTable remembers the item index and aux payload of every
// transaction whose read is outstanding. It is keyed by tag.
type IndexSideTable struct {
	entries []SideEntry
	live    *bitset.BitSet
}

// NewIndexSideTable creates a table for size tags.
func NewIndexSideTable(size int) *IndexSideTable {
	return &IndexSideTable{
		entries: make([]SideEntry, size),
		live:    bitset.New(uint(size)),
	}
}

// Reset drops every entry.
func (t *IndexSideTable) Reset() {
	t.live.ClearAll()
}

// Len returns the number of live entries.
func (t *IndexSideTable) Len() int {
	return int(t.live.Count())
}

// Live reports whether tag has an outstanding read.
func (t *IndexSideTable) Live(tag int) bool {
	if tag < 0 || tag >= len(t.entries) {
		return false
	}
	return t.live.Test(uint(tag))
}

// Put records the entry for tag on admission.
func (t *IndexSideTable) Put(tag int, e SideEntry) error {
	if tag < 0 || tag >= len(t.entries) {
		return fmt.Errorf("%w: tag %d outside side table", ErrProtocolViolation, tag)
	}
	if t.live.Test(uint(tag)) {
		return fmt.Errorf("%w: tag %d already has an outstanding read",
			ErrProtocolViolation, tag)
	}

	t.entries[tag] = e
	t.live.Set(uint(tag))

	return nil
}

// Peek returns the entry recorded for tag without consuming it.
func (t *IndexSideTable) Peek(tag int) (SideEntry, error) {
	if !t.Live(tag) {
		return SideEntry{}, fmt.Errorf(
			"%w: completion for tag %d with no outstanding read",
			ErrProtocolViolation, tag)
	}
	return t.entries[tag], nil
}

// Take returns the entry recorded for tag and drops it.
func (t *IndexSideTable) Take(tag int) (SideEntry, error) {
	e, err := t.Peek(tag)
	if err != nil {
		return SideEntry{}, err
	}

	t.live.Clear(uint(tag))

	return e, nil
}

func (t *IndexSideTable) snapshot() sideTableState {
	return sideTableState{
		entries: append([]SideEntry(nil), t.entries...),
		live:    t.live.Clone(),
	}
}

func (t *IndexSideTable) restore(s sideTableState) {
	copy(t.entries, s.entries)
	t.live = s.live.Clone()
}

type sideTableState struct {
	entries []SideEntry
	live    *bitset.BitSet
}
