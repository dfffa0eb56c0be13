package pipeline

import (
	"fmt"
	"math/bits"
)

// Config holds the structural parameters of the engine. Strategies (the
// operation and the cancel predicate) are injected with options instead.
type Config struct {
	// StateWidth is the width of one state item in bits. Must be 8, 16, 32
	// or 64.
	StateWidth int `json:"state_width"`

	// AddressWidth is the width of the byte address of the state array. The
	// number of addressable items is 2^AddressWidth / (StateWidth/8).
	AddressWidth int `json:"address_width"`

	// AuxWidth is the width of the auxiliary transaction payload in bits.
	// Zero disables aux propagation.
	AuxWidth int `json:"aux_width"`

	// ItemCount optionally requests an explicit number of items. Zero means
	// the whole address space. It must fit into AddressWidth.
	ItemCount uint64 `json:"item_count,omitempty"`

	// MaxOutstanding is the size of the tag pool, i.e. the maximum number of
	// transactions in flight between admission and retirement.
	MaxOutstanding int `json:"max_outstanding"`

	// StateLoadStages is the number of propagate stages between the read
	// data receive stage and the write-back stage.
	StateLoadStages int `json:"state_load_stages"`

	// WriteHistoryDepth is the number of ticks a committed value stays
	// visible as a forwarding source after its acknowledgement.
	WriteHistoryDepth int `json:"write_history_depth"`
}

// DefaultConfig returns the configuration used when nothing else is given:
// 32-bit items over a 64KiB array, an 8-bit aux payload, 16 tags, one
// state-load stage and a 4-entry write history.
func DefaultConfig() Config {
	return Config{
		StateWidth:        32,
		AddressWidth:      16,
		AuxWidth:          8,
		MaxOutstanding:    16,
		StateLoadStages:   1,
		WriteHistoryDepth: 4,
	}
}

// Validate checks the configuration. All errors wrap ErrMisconfiguration.
func (c Config) Validate() error {
	switch c.StateWidth {
	case 8, 16, 32, 64:
	default:
		return fmt.Errorf("%w: state_width must be 8, 16, 32 or 64, got %d",
			ErrMisconfiguration, c.StateWidth)
	}

	if c.AddressWidth <= 0 || c.AddressWidth > 63 {
		return fmt.Errorf("%w: address_width must be in [1, 63], got %d",
			ErrMisconfiguration, c.AddressWidth)
	}

	if c.AddressWidth < c.offsetBits() {
		return fmt.Errorf("%w: address_width %d cannot address a single %d-bit item",
			ErrMisconfiguration, c.AddressWidth, c.StateWidth)
	}

	if c.ItemCount > c.capacity() {
		return fmt.Errorf("%w: address_width %d insufficient for %d items (max %d)",
			ErrMisconfiguration, c.AddressWidth, c.ItemCount, c.capacity())
	}

	if c.AuxWidth < 0 || c.AuxWidth > 64 {
		return fmt.Errorf("%w: aux_width must be in [0, 64], got %d",
			ErrMisconfiguration, c.AuxWidth)
	}

	if c.MaxOutstanding < 1 || c.MaxOutstanding > 1<<16 {
		return fmt.Errorf("%w: max_outstanding must be in [1, 65536], got %d",
			ErrMisconfiguration, c.MaxOutstanding)
	}

	if c.StateLoadStages < 1 {
		return fmt.Errorf("%w: state_load_stages must be >= 1, got %d",
			ErrMisconfiguration, c.StateLoadStages)
	}

	if c.WriteHistoryDepth < 0 {
		return fmt.Errorf("%w: write_history_depth must be >= 0, got %d",
			ErrMisconfiguration, c.WriteHistoryDepth)
	}

	return nil
}

func (c Config) offsetBits() int {
	return bits.TrailingZeros(uint(c.StateWidth / 8))
}

func (c Config) capacity() uint64 {
	return uint64(1) << uint(c.AddressWidth-c.offsetBits())
}

// IndexWidth returns the number of bits of an item index.
func (c Config) IndexWidth() int {
	return c.AddressWidth - c.offsetBits()
}

// Items returns the number of items in the state array.
func (c Config) Items() uint64 {
	if c.ItemCount != 0 {
		return c.ItemCount
	}
	return c.capacity()
}

// Address returns the byte address of the item at index.
func (c Config) Address(index uint64) uint64 {
	return index << uint(c.offsetBits())
}

// StateMask returns the mask applied to every value produced by the
// operation.
func (c Config) StateMask() uint64 {
	return widthMask(c.StateWidth)
}

// AuxMask returns the mask applied to the aux payload on admission.
func (c Config) AuxMask() uint64 {
	return widthMask(c.AuxWidth)
}

func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

// Layout names the stage positions of a pipeline built from a Config.
type Layout struct {
	// ReadDataReceive is the stage that ingests read completions.
	ReadDataReceive int
	// StateLoad is the first propagate stage.
	StateLoad int
	// WriteBack is the stage that applies the operation and issues the
	// write.
	WriteBack int
	// AwaitAck is the stage that blocks until the write is acknowledged.
	AwaitAck int
	// Stages is the number of pipeline slots (ReadDataReceive..AwaitAck).
	Stages int
	// HistoryDepth is the number of write-history entries after AwaitAck.
	HistoryDepth int
}

// Layout returns the stage positions for this configuration.
func (c Config) Layout() Layout {
	wb := 1 + c.StateLoadStages
	return Layout{
		ReadDataReceive: 0,
		StateLoad:       1,
		WriteBack:       wb,
		AwaitAck:        wb + 1,
		Stages:          wb + 2,
		HistoryDepth:    c.WriteHistoryDepth,
	}
}

// Sources returns the number of forwarding sources: write-back, await-ack
// and every write-history entry.
func (l Layout) Sources() int {
	return 2 + l.HistoryDepth
}
