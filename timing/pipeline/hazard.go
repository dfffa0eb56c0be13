package pipeline

import "github.com/bits-and-blooms/bitset"

// Probe is the part of a slot the hazard detector compares.
type Probe struct {
	Valid bool
	Index uint64
}

func probeOf(s *Slot) Probe {
	return Probe{Valid: s.Valid, Index: s.Index}
}

// Candidate describes one side of a hazard comparison: the slot as it is
// now, its predecessor, and whether the slot loads from or releases to its
// neighbors on this tick.
type Candidate struct {
	Current  Probe
	Previous Probe
	Load     bool
	Release  bool
}

// Collides reports whether dst and src will hold the same index after this
// tick. The compared pair is selected by the load flags:
//
//	neither loads: current(dst) vs current(src)
//	src loads:     current(dst) vs previous(src)
//	dst loads:     previous(dst) vs current(src)
//	both load:     previous(dst) vs previous(src)
//
// A slot that releases without loading is empty after the tick and never
// collides.
func Collides(dst, src Candidate) bool {
	var a, b Probe

	switch {
	case !dst.Load && !src.Load:
		a, b = dst.Current, src.Current
	case !dst.Load && src.Load:
		a, b = dst.Current, src.Previous
	case dst.Load && !src.Load:
		a, b = dst.Previous, src.Current
	default:
		a, b = dst.Previous, src.Previous
	}

	if !dst.Load && dst.Release {
		return false
	}
	if !src.Load && src.Release {
		return false
	}

	return a.Valid && b.Valid && a.Index == b.Index
}

// Source identifies where a forwarded value comes from.
type Source int

// SourceNone means the slot keeps its own value.
const SourceNone Source = -1

// HazardUnit computes, for every stage before write-back, which forwarding
// sources hold the same index. Sources are numbered nearest to write-back
// first: 0 is WRITE_BACK, 1 is AWAIT_ACK, 2+k is write-history entry k.
// Results are double-buffered; Detect fills the vectors consumed on the next
// tick.
type HazardUnit struct {
	dsts    int
	sources int

	current []*bitset.BitSet
	next    []*bitset.BitSet
}

// NewHazardUnit creates a hazard unit for a layout.
func NewHazardUnit(l Layout) *HazardUnit {
	h := &HazardUnit{
		dsts:    l.WriteBack,
		sources: l.Sources(),
		current: make([]*bitset.BitSet, l.WriteBack),
		next:    make([]*bitset.BitSet, l.WriteBack),
	}

	for i := range h.current {
		h.current[i] = bitset.New(uint(h.sources))
		h.next[i] = bitset.New(uint(h.sources))
	}

	return h
}

// Reset clears all latched collisions.
func (h *HazardUnit) Reset() {
	for i := range h.current {
		h.current[i].ClearAll()
		h.next[i].ClearAll()
	}
}

// Vector returns the latched collision vector of stage dst.
func (h *HazardUnit) Vector(dst int) *bitset.BitSet {
	return h.current[dst]
}

// Detect compares every destination candidate against every source
// candidate and stores the result for the next tick.
func (h *HazardUnit) Detect(dsts, srcs []Candidate) {
	for d := 0; d < h.dsts; d++ {
		vec := h.next[d]
		vec.ClearAll()

		for s := 0; s < h.sources; s++ {
			if Collides(dsts[d], srcs[s]) {
				vec.Set(uint(s))
			}
		}
	}
}

// Latch makes the vectors computed by Detect current.
func (h *HazardUnit) Latch() {
	h.current, h.next = h.next, h.current
}

// Select returns the nearest source recorded in the latched vector of dst,
// and how many sources collided.
func (h *HazardUnit) Select(dst int) (Source, uint) {
	vec := h.current[dst]

	s, ok := vec.NextSet(0)
	if !ok {
		return SourceNone, 0
	}

	return Source(s), vec.Count()
}

func (h *HazardUnit) snapshot() []*bitset.BitSet {
	s := make([]*bitset.BitSet, len(h.current))
	for i, v := range h.current {
		s[i] = v.Clone()
	}
	return s
}

func (h *HazardUnit) restore(s []*bitset.BitSet) {
	for i, v := range s {
		h.current[i] = v.Clone()
	}
}
