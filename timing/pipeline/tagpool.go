package pipeline

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// TagPool hands out transaction tags. Free tags are kept in FIFO order so a
// released tag is reused as late as possible.
type TagPool struct {
	size     int
	free     []int
	head     int
	count    int
	inFlight *bitset.BitSet
}

// NewTagPool creates a pool with size tags, all free.
func NewTagPool(size int) *TagPool {
	p := &TagPool{
		size:     size,
		free:     make([]int, size),
		inFlight: bitset.New(uint(size)),
	}
	p.Reset()
	return p
}

// Reset returns every tag to the pool.
func (p *TagPool) Reset() {
	for i := range p.free {
		p.free[i] = i
	}
	p.head = 0
	p.count = p.size
	p.inFlight.ClearAll()
}

// Size returns the number of tags.
func (p *TagPool) Size() int {
	return p.size
}

// Free returns the number of tags available for allocation.
func (p *TagPool) Free() int {
	return p.count
}

// InFlight returns the number of allocated tags.
func (p *TagPool) InFlight() int {
	return int(p.inFlight.Count())
}

// Available reports whether at least one tag can be allocated.
func (p *TagPool) Available() bool {
	return p.count > 0
}

// IsInFlight reports whether tag is currently allocated.
func (p *TagPool) IsInFlight(tag int) bool {
	if tag < 0 || tag >= p.size {
		return false
	}
	return p.inFlight.Test(uint(tag))
}

// TryAllocate takes the oldest free tag. ok is false when the pool is
// exhausted.
func (p *TagPool) TryAllocate() (tag int, ok bool) {
	if p.count == 0 {
		return 0, false
	}

	tag = p.free[p.head]
	p.head = (p.head + 1) % p.size
	p.count--
	p.inFlight.Set(uint(tag))

	return tag, true
}

// Allocate is TryAllocate returning an error on exhaustion.
func (p *TagPool) Allocate() (int, error) {
	tag, ok := p.TryAllocate()
	if !ok {
		return 0, fmt.Errorf("%w: tag pool exhausted", ErrProtocolViolation)
	}
	return tag, nil
}

// Release returns tag to the pool. Releasing a tag that is not in flight is
// a protocol violation.
func (p *TagPool) Release(tag int) error {
	if !p.IsInFlight(tag) {
		return fmt.Errorf("%w: release of tag %d which is not in flight",
			ErrProtocolViolation, tag)
	}

	p.inFlight.Clear(uint(tag))
	p.free[(p.head+p.count)%p.size] = tag
	p.count++

	return nil
}

func (p *TagPool) snapshot() tagPoolState {
	return tagPoolState{
		free:     append([]int(nil), p.free...),
		head:     p.head,
		count:    p.count,
		inFlight: p.inFlight.Clone(),
	}
}

func (p *TagPool) restore(s tagPoolState) {
	copy(p.free, s.free)
	p.head = s.head
	p.count = s.count
	p.inFlight = s.inFlight.Clone()
}

type tagPoolState struct {
	free     []int
	head     int
	count    int
	inFlight *bitset.BitSet
}
