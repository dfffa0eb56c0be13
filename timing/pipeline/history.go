package pipeline

// HistoryEntry is a committed value kept for forwarding after its write was
// acknowledged.
type HistoryEntry struct {
	Valid bool
	Index uint64
	Value uint64
}

// WriteHistory is a fixed-depth shift buffer of recently committed values.
// Entry 0 is the most recent. It shifts on every tick.
type WriteHistory struct {
	entries []HistoryEntry
}

// NewWriteHistory creates a history of the given depth. Depth zero is valid
// and keeps nothing.
func NewWriteHistory(depth int) *WriteHistory {
	return &WriteHistory{entries: make([]HistoryEntry, depth)}
}

// Depth returns the number of entries.
func (h *WriteHistory) Depth() int {
	return len(h.entries)
}

// At returns entry k.
func (h *WriteHistory) At(k int) HistoryEntry {
	return h.entries[k]
}

// Shift ages every entry by one position and inserts e at position 0. The
// oldest entry falls off.
func (h *WriteHistory) Shift(e HistoryEntry) {
	if len(h.entries) == 0 {
		return
	}

	copy(h.entries[1:], h.entries[:len(h.entries)-1])
	h.entries[0] = e
}

// Reset invalidates every entry.
func (h *WriteHistory) Reset() {
	for i := range h.entries {
		h.entries[i] = HistoryEntry{}
	}
}

func (h *WriteHistory) snapshot() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}

func (h *WriteHistory) restore(s []HistoryEntry) {
	copy(h.entries, s)
}
