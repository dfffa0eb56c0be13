// Package pipeline provides the out-of-order cumulative read-modify-write
// engine. Transactions are admitted with a tag, their state item is read from
// an external store, and the update is applied in write-back order with
// in-flight results forwarded to younger transactions on the same index.
package pipeline

// Slot holds the state of one pipeline stage or write-history entry.
// Invalidating a slot keeps its payload; only Valid is cleared.
type Slot struct {
	// Valid indicates the slot carries a live transaction.
	Valid bool

	// Tag is the transaction tag assigned on admission.
	Tag int

	// Index is the state item the transaction updates.
	Index uint64

	// Aux is the caller payload that travels with the transaction.
	Aux uint64

	// Value is the working value. Before write-back it is the prior state
	// of the item; from write-back onwards it is the updated state.
	Value uint64

	// Prior is the state the operation was applied to.
	Prior uint64

	// Proposed is the operation result. It equals Value unless the write
	// was cancelled, in which case Value keeps Prior.
	Proposed uint64

	// Cancelled is set at write-back when the write is suppressed.
	Cancelled bool

	// Forwarded is set once the value was replaced by a forwarded one.
	Forwarded bool

	// FromHistory is set when a forwarded value came from the write history.
	FromHistory bool
}

// Clear marks the slot empty.
func (s *Slot) Clear() {
	s.Valid = false
}

// Request is a new transaction offered by the caller.
type Request struct {
	Valid bool
	Index uint64
	Aux   uint64
}

// ReadCompletion is the store's answer to a read.
type ReadCompletion struct {
	Valid bool
	Tag   int
	Value uint64
}

// WriteAck is the store's acknowledgement of a write.
type WriteAck struct {
	Valid bool
	Tag   int
}

// Inputs are the signals sampled on one tick.
type Inputs struct {
	// Request is the offered transaction.
	Request Request

	// ReadReady reports that the store accepts a read this tick.
	ReadReady bool

	// Completion is the offered read completion.
	Completion ReadCompletion

	// WriteAddrReady and WriteDataReady report that the store accepts the
	// write address and write data channels this tick. A write is issued
	// only when both are ready.
	WriteAddrReady bool
	WriteDataReady bool

	// Ack is the offered write acknowledgement.
	Ack WriteAck

	// OutputReady reports that the consumer accepts a result this tick.
	OutputReady bool
}

// ReadRequest is a read issued to the store.
type ReadRequest struct {
	Valid   bool
	Tag     int
	Index   uint64
	Address uint64
}

// WriteRequest is a write issued to the store.
type WriteRequest struct {
	Valid   bool
	Tag     int
	Index   uint64
	Address uint64
	Value   uint64
}

// Result is emitted for every retired transaction, cancelled or not. Value
// is the state of the item after the transaction.
type Result struct {
	Valid     bool
	Tag       int
	Index     uint64
	Aux       uint64
	Prior     uint64
	Value     uint64
	Proposed  uint64
	Cancelled bool
}

// Outputs are the signals driven on one tick.
type Outputs struct {
	// RequestAccepted reports that Inputs.Request was admitted.
	RequestAccepted bool

	// Read is the read issued this tick.
	Read ReadRequest

	// CompletionAccepted reports that Inputs.Completion was consumed.
	CompletionAccepted bool

	// Write is the write issued this tick.
	Write WriteRequest

	// AckAccepted reports that Inputs.Ack was consumed.
	AckAccepted bool

	// Result is the transaction retired this tick.
	Result Result
}
