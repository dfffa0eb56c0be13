package pipeline

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	log "github.com/sirupsen/logrus"
)

// Statistics holds engine performance statistics.
type Statistics struct {
	// Cycles is the total number of ticks executed.
	Cycles uint64
	// Admitted is the number of requests accepted.
	Admitted uint64
	// Retired is the number of transactions that emitted a result.
	Retired uint64
	// Cancelled is the number of retired transactions whose write was
	// suppressed.
	Cancelled uint64
	// ReadsIssued is the number of reads sent to the store.
	ReadsIssued uint64
	// WritesIssued is the number of writes sent to the store.
	WritesIssued uint64
	// Forwards is the number of transactions whose operation used a
	// forwarded value instead of the value read from the store.
	Forwards uint64
	// HistoryForwards is the part of Forwards served by the write history.
	HistoryForwards uint64
	// MultiSourceHazards counts forwards where more than one source held the
	// same index.
	MultiSourceHazards uint64
	// AdmissionStalls counts ticks with an offered request that was not
	// admitted.
	AdmissionStalls uint64
	// TagStalls is the part of AdmissionStalls caused by an empty tag pool.
	TagStalls uint64
	// IngestStalls counts ticks with an offered completion that was not
	// accepted.
	IngestStalls uint64
	// WriteStalls counts ticks where WRITE_BACK waited for the write channels.
	WriteStalls uint64
	// AckStalls counts ticks where AWAIT_ACK waited for the acknowledgement.
	AckStalls uint64
	// OutputStalls counts ticks where a result was held by the consumer.
	OutputStalls uint64
	// MaxInFlight is the largest number of tags allocated at once.
	MaxInFlight int
}

// Throughput returns retired transactions per cycle.
func (s Statistics) Throughput() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Retired) / float64(s.Cycles)
}

// ForwardRate returns the fraction of retired transactions that used a
// forwarded value.
func (s Statistics) ForwardRate() float64 {
	if s.Retired == 0 {
		return 0
	}
	return float64(s.Forwards) / float64(s.Retired)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithOperation sets the cumulative update. The default is Increment.
func WithOperation(op Operation) PipelineOption {
	return func(p *Pipeline) {
		p.op = op
	}
}

// WithWriteCancel sets the cancel predicate. The default is NeverCancel.
func WithWriteCancel(c CancelPredicate) PipelineOption {
	return func(p *Pipeline) {
		p.cancel = c
	}
}

// WithLogger sets the logger used for transaction events.
func WithLogger(l *log.Entry) PipelineOption {
	return func(p *Pipeline) {
		p.log = l
	}
}

// Pipeline is the out-of-order cumulative read-modify-write engine.
//
// Stage 0 (READ_DATA_RECEIVE) ingests read completions in any order. The
// state-load stages carry the transaction to WRITE_BACK, which applies the
// operation and issues the write. AWAIT_ACK holds the transaction until the
// store acknowledges it, then the result is emitted and the tag released.
// Committed values stay in the write history for a fixed number of ticks.
//
// Every stage before WRITE_BACK keeps its value fresh from the nearest
// in-flight or recently committed transaction on the same index, so updates
// to one index are applied in pipeline order without stalls.
type Pipeline struct {
	config    Config
	layout    Layout
	items     uint64
	stateMask uint64
	auxMask   uint64

	op     Operation
	cancel CancelPredicate
	log    *log.Entry

	tags    *TagPool
	table   *IndexSideTable
	history *WriteHistory
	hazards *HazardUnit

	slots []Slot
	next  []Slot
	ctl   control
	dsts  []Candidate
	srcs  []Candidate

	stats Statistics
	fault error
}

// NewPipeline creates an engine. The configuration is validated before
// anything is built.
func NewPipeline(config Config, opts ...PipelineOption) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	layout := config.Layout()
	p := &Pipeline{
		config:    config,
		layout:    layout,
		items:     config.Items(),
		stateMask: config.StateMask(),
		auxMask:   config.AuxMask(),
		op:        Increment,
		cancel:    NeverCancel,
		log:       log.NewEntry(log.StandardLogger()),
		tags:      NewTagPool(config.MaxOutstanding),
		table:     NewIndexSideTable(config.MaxOutstanding),
		history:   NewWriteHistory(config.WriteHistoryDepth),
		hazards:   NewHazardUnit(layout),
		slots:     make([]Slot, layout.Stages),
		next:      make([]Slot, layout.Stages),
		ctl:       newControl(layout.Stages),
		dsts:      make([]Candidate, layout.WriteBack),
		srcs:      make([]Candidate, layout.Sources()),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.op == nil {
		return nil, fmt.Errorf("%w: nil operation", ErrMisconfiguration)
	}
	if p.cancel == nil {
		return nil, fmt.Errorf("%w: nil cancel predicate", ErrMisconfiguration)
	}
	if p.log == nil {
		return nil, fmt.Errorf("%w: nil logger", ErrMisconfiguration)
	}

	return p, nil
}

// Config returns the configuration the engine was built with.
func (p *Pipeline) Config() Config {
	return p.config
}

// Layout returns the stage positions.
func (p *Pipeline) Layout() Layout {
	return p.layout
}

// Stats returns engine statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Slot returns a copy of stage i.
func (p *Pipeline) Slot(i int) Slot {
	return p.slots[i]
}

// History returns a copy of write-history entry k.
func (p *Pipeline) History(k int) HistoryEntry {
	return p.history.At(k)
}

// InFlight returns the number of allocated tags.
func (p *Pipeline) InFlight() int {
	return p.tags.InFlight()
}

// FreeTags returns the number of tags available for admission.
func (p *Pipeline) FreeTags() int {
	return p.tags.Free()
}

// PendingReads returns the number of admitted transactions whose read has
// not been ingested.
func (p *Pipeline) PendingReads() int {
	return p.table.Len()
}

// Idle reports whether no transaction is in flight.
func (p *Pipeline) Idle() bool {
	return p.tags.InFlight() == 0
}

// Fault returns the latched protocol violation, if any.
func (p *Pipeline) Fault() error {
	return p.fault
}

// Reset drops every transaction, statistic and latched fault.
func (p *Pipeline) Reset() {
	p.tags.Reset()
	p.table.Reset()
	p.history.Reset()
	p.hazards.Reset()

	for i := range p.slots {
		p.slots[i] = Slot{}
	}

	p.stats = Statistics{}
	p.fault = nil
}

// Tick executes one engine cycle. It samples in, drives the returned
// outputs and latches the new state. A protocol violation is latched; the
// failing tick and every later one change nothing and return the error.
func (p *Pipeline) Tick(in Inputs) (Outputs, error) {
	if p.fault != nil {
		return Outputs{}, p.fault
	}

	if err := p.checkInputs(in); err != nil {
		p.fault = err
		p.log.WithError(err).Error("engine stopped")
		return Outputs{}, err
	}

	p.computeControl(in)
	p.detectHazards(in)
	p.advance(in)

	out, err := p.commit(in)
	if err != nil {
		p.fault = err
		p.log.WithError(err).Error("engine stopped")
		return Outputs{}, err
	}

	return out, nil
}

// checkInputs rejects offers that break the neighbor contracts.
func (p *Pipeline) checkInputs(in Inputs) error {
	p.ctl.ingest = SideEntry{}

	if in.Completion.Valid {
		e, err := p.table.Peek(in.Completion.Tag)
		if err != nil {
			return err
		}
		p.ctl.ingest = e
	}

	if in.Ack.Valid {
		a := &p.slots[p.layout.AwaitAck]
		switch {
		case !a.Valid || a.Tag != in.Ack.Tag:
			return fmt.Errorf("%w: ack for tag %d with no outstanding write",
				ErrProtocolViolation, in.Ack.Tag)
		case a.Cancelled:
			return fmt.Errorf("%w: ack for tag %d whose write was cancelled",
				ErrProtocolViolation, in.Ack.Tag)
		}
	}

	if in.Request.Valid && in.Request.Index >= p.items {
		return fmt.Errorf("%w: index %d, item count %d",
			ErrIndexOutOfRange, in.Request.Index, p.items)
	}

	return nil
}

// commit performs the side effects of the tick and latches the new state.
// Admission allocates before retirement releases, so a tag freed on this
// tick is not reused before the next one.
func (p *Pipeline) commit(in Inputs) (Outputs, error) {
	c := &p.ctl
	wb := p.layout.WriteBack
	aa := p.layout.AwaitAck
	out := Outputs{}

	if c.admit {
		if err := p.admit(in.Request, &out); err != nil {
			return Outputs{}, err
		}
	}

	if c.load[0] {
		if _, err := p.table.Take(in.Completion.Tag); err != nil {
			return Outputs{}, err
		}
		out.CompletionAccepted = true
		p.debugf("ingest tag=%d index=%d value=%d",
			in.Completion.Tag, c.ingest.Index, in.Completion.Value)
	}

	if w := &p.slots[wb]; c.release[wb] && !w.Cancelled {
		out.Write = WriteRequest{
			Valid:   true,
			Tag:     w.Tag,
			Index:   w.Index,
			Address: p.config.Address(w.Index),
			Value:   w.Value,
		}
		p.stats.WritesIssued++
		p.debugf("write tag=%d index=%d value=%d", w.Tag, w.Index, w.Value)
	}

	a := p.slots[aa]
	if c.release[aa] {
		if err := p.retire(&a, &out); err != nil {
			return Outputs{}, err
		}
	}

	p.countStalls(in)

	p.history.Shift(HistoryEntry{Valid: c.release[aa], Index: a.Index, Value: a.Value})
	p.slots, p.next = p.next, p.slots
	p.hazards.Latch()

	p.stats.Cycles++
	p.stats.MaxInFlight = max(p.stats.MaxInFlight, p.tags.InFlight())

	return out, nil
}

func (p *Pipeline) admit(req Request, out *Outputs) error {
	tag, err := p.tags.Allocate()
	if err != nil {
		return err
	}

	aux := req.Aux & p.auxMask
	if err := p.table.Put(tag, SideEntry{Index: req.Index, Aux: aux}); err != nil {
		return err
	}

	out.RequestAccepted = true
	out.Read = ReadRequest{
		Valid:   true,
		Tag:     tag,
		Index:   req.Index,
		Address: p.config.Address(req.Index),
	}

	p.stats.Admitted++
	p.stats.ReadsIssued++
	p.debugf("admit tag=%d index=%d aux=%d", tag, req.Index, aux)

	return nil
}

func (p *Pipeline) retire(a *Slot, out *Outputs) error {
	if err := p.tags.Release(a.Tag); err != nil {
		return err
	}

	out.AckAccepted = p.ctl.ackMatch
	out.Result = Result{
		Valid:     true,
		Tag:       a.Tag,
		Index:     a.Index,
		Aux:       a.Aux,
		Prior:     a.Prior,
		Value:     a.Value,
		Proposed:  a.Proposed,
		Cancelled: a.Cancelled,
	}

	p.stats.Retired++
	if a.Cancelled {
		p.stats.Cancelled++
	}
	p.debugf("retire tag=%d index=%d value=%d cancelled=%t",
		a.Tag, a.Index, a.Value, a.Cancelled)

	return nil
}

func (p *Pipeline) countStalls(in Inputs) {
	c := &p.ctl
	w := &p.slots[p.layout.WriteBack]
	a := &p.slots[p.layout.AwaitAck]

	if in.Request.Valid && !c.admit {
		p.stats.AdmissionStalls++
		if !p.tags.Available() {
			p.stats.TagStalls++
		}
	}

	if in.Completion.Valid && !c.load[0] {
		p.stats.IngestStalls++
	}

	if w.Valid && !w.Cancelled && !(in.WriteAddrReady && in.WriteDataReady) {
		p.stats.WriteStalls++
	}

	if a.Valid && !a.Cancelled && !c.ackMatch {
		p.stats.AckStalls++
	}

	if a.Valid && (a.Cancelled || c.ackMatch) && !in.OutputReady {
		p.stats.OutputStalls++
	}
}

func (p *Pipeline) debugf(format string, args ...interface{}) {
	if p.log.Logger.IsLevelEnabled(log.DebugLevel) {
		p.log.Debugf(format, args...)
	}
}

// State is a copy of everything the next tick depends on.
type State struct {
	slots   []Slot
	history []HistoryEntry
	hazards []*bitset.BitSet
	tags    tagPoolState
	table   sideTableState
	stats   Statistics
	fault   error
}

// Snapshot captures the engine state. Restoring it and replaying the same
// inputs reproduces the same outputs.
func (p *Pipeline) Snapshot() State {
	return State{
		slots:   append([]Slot(nil), p.slots...),
		history: p.history.snapshot(),
		hazards: p.hazards.snapshot(),
		tags:    p.tags.snapshot(),
		table:   p.table.snapshot(),
		stats:   p.stats,
		fault:   p.fault,
	}
}

// Restore returns the engine to a captured state. The state must come from
// an engine with the same configuration.
func (p *Pipeline) Restore(s State) {
	copy(p.slots, s.slots)
	p.history.restore(s.history)
	p.hazards.restore(s.hazards)
	p.tags.restore(s.tags)
	p.table.restore(s.table)
	p.stats = s.stats
	p.fault = s.fault
}
