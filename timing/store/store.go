// Package store provides the simulated asynchronous store the engine reads
// state from and writes it back to.
//
// Reads are tagged and complete out of order: their latency comes from a
// tag-only cache model, and reads to a block with an outstanding miss are
// merged into the miss through an MSHR. Writes are acknowledged after a
// fixed latency and become visible to reads VisibilityLag cycles after the
// acknowledgement is due. A completion offered at cycle t therefore reflects
// every write acknowledged at or before t - VisibilityLag.
package store

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/oooop/emu"
	"github.com/sarchlab/oooop/timing/cache"
	"github.com/sarchlab/oooop/timing/latency"
	"github.com/sarchlab/oooop/timing/pipeline"
)

// Statistics holds store statistics.
type Statistics struct {
	Reads       uint64
	Writes      uint64
	ReadHits    uint64
	ReadMisses  uint64
	Coalesced   uint64
	MSHRStalls  uint64
	Completions uint64
	Acks        uint64
	// MaxPendingReads is the largest number of reads outstanding at once.
	MaxPendingReads int
}

type pendingRead struct {
	tag   int
	index uint64
	due   uint64
	seq   uint64
	block uint64
	miss  bool
}

type pendingWrite struct {
	tag       int
	index     uint64
	value     uint64
	ackAt     uint64
	visibleAt uint64
	acked     bool
	applied   bool
}

// Option configures a Store.
type Option func(*Store)

// WithReadLatency replaces the cache model with a per-request latency.
func WithReadLatency(f func(tag int, index uint64) uint64) Option {
	return func(s *Store) {
		s.readLatency = f
	}
}

// WithReadiness sets when the read, write-address and write-data channels
// accept requests. A nil function means always ready.
func WithReadiness(read, writeAddr, writeData func(cycle uint64) bool) Option {
	return func(s *Store) {
		s.readReady = read
		s.writeAddrReady = writeAddr
		s.writeDataReady = writeData
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Entry) Option {
	return func(s *Store) {
		s.log = l
	}
}

// Store is the simulated store.
type Store struct {
	timing *latency.TimingConfig
	table  *latency.Table
	cache  *cache.Cache
	mshr   akitacache.MSHR
	memory *emu.Memory
	log    *log.Entry

	readLatency    func(tag int, index uint64) uint64
	readReady      func(cycle uint64) bool
	writeAddrReady func(cycle uint64) bool
	writeDataReady func(cycle uint64) bool

	now    uint64
	seq    uint64
	held   bool
	reads  []*pendingRead
	writes []*pendingWrite

	offeredRead  *pendingRead
	offeredWrite *pendingWrite

	injectedCompletion *pipeline.ReadCompletion
	injectedAck        *pipeline.WriteAck

	stats Statistics
}

// New creates a store over memory.
func New(
	timing *latency.TimingConfig,
	cacheConfig cache.Config,
	memory *emu.Memory,
	opts ...Option,
) (*Store, error) {
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrMisconfiguration, err)
	}
	if err := cacheConfig.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrMisconfiguration, err)
	}

	s := &Store{
		timing: timing,
		table:  latency.NewTableWithConfig(timing),
		cache:  cache.New(cacheConfig),
		mshr:   akitacache.NewMSHR(timing.MSHREntries),
		memory: memory,
		log:    log.NewEntry(log.StandardLogger()),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Memory returns the backing memory.
func (s *Store) Memory() *emu.Memory {
	return s.memory
}

// Cache returns the cache model.
func (s *Store) Cache() *cache.Cache {
	return s.cache
}

// Stats returns store statistics.
func (s *Store) Stats() Statistics {
	return s.stats
}

// Now returns the current cycle.
func (s *Store) Now() uint64 {
	return s.now
}

// Hold stops every delivery and closes every channel while held is true.
func (s *Store) Hold(held bool) {
	s.held = held
}

// InjectCompletion makes the next Offer present c instead of a real
// completion.
func (s *Store) InjectCompletion(c pipeline.ReadCompletion) {
	c.Valid = true
	s.injectedCompletion = &c
}

// InjectAck makes the next Offer present an ack for tag.
func (s *Store) InjectAck(tag int) {
	s.injectedAck = &pipeline.WriteAck{Valid: true, Tag: tag}
}

// PendingReads returns the number of reads not yet consumed.
func (s *Store) PendingReads() int {
	return len(s.reads)
}

// PendingWrites returns the number of writes not yet acknowledged or not
// yet visible.
func (s *Store) PendingWrites() int {
	return len(s.writes)
}

// Drained reports whether no read or write is outstanding.
func (s *Store) Drained() bool {
	return len(s.reads) == 0 && len(s.writes) == 0
}

func ready(f func(uint64) bool, cycle uint64) bool {
	return f == nil || f(cycle)
}

// Offer applies the writes that became visible and fills the store side of
// the engine inputs for the current cycle.
func (s *Store) Offer(in *pipeline.Inputs) {
	s.applyVisible()

	s.offeredRead = nil
	s.offeredWrite = nil

	if s.held {
		in.ReadReady = false
		in.WriteAddrReady = false
		in.WriteDataReady = false
		in.Completion = pipeline.ReadCompletion{}
		in.Ack = pipeline.WriteAck{}
		return
	}

	in.ReadReady = ready(s.readReady, s.now) && !s.mshr.IsFull()
	if !in.ReadReady && ready(s.readReady, s.now) {
		s.stats.MSHRStalls++
	}
	in.WriteAddrReady = ready(s.writeAddrReady, s.now)
	in.WriteDataReady = ready(s.writeDataReady, s.now)

	in.Completion = s.offerCompletion()
	in.Ack = s.offerAck()
}

func (s *Store) offerCompletion() pipeline.ReadCompletion {
	if s.injectedCompletion != nil {
		c := *s.injectedCompletion
		s.injectedCompletion = nil
		return c
	}

	for _, r := range s.reads {
		if r.due > s.now {
			continue
		}
		if s.offeredRead == nil || r.due < s.offeredRead.due ||
			(r.due == s.offeredRead.due && r.seq < s.offeredRead.seq) {
			s.offeredRead = r
		}
	}

	if s.offeredRead == nil {
		return pipeline.ReadCompletion{}
	}

	return pipeline.ReadCompletion{
		Valid: true,
		Tag:   s.offeredRead.tag,
		Value: s.memory.Read(s.offeredRead.index),
	}
}

func (s *Store) offerAck() pipeline.WriteAck {
	if s.injectedAck != nil {
		a := *s.injectedAck
		s.injectedAck = nil
		return a
	}

	for _, w := range s.writes {
		if !w.acked && w.ackAt <= s.now {
			s.offeredWrite = w
			return pipeline.WriteAck{Valid: true, Tag: w.tag}
		}
	}

	return pipeline.WriteAck{}
}

// Accept consumes what the engine accepted and issued on this cycle.
func (s *Store) Accept(in pipeline.Inputs, out pipeline.Outputs) error {
	if out.CompletionAccepted && s.offeredRead != nil {
		s.consumeRead(s.offeredRead)
	}

	if out.AckAccepted && s.offeredWrite != nil {
		s.offeredWrite.acked = true
		s.stats.Acks++
	}

	if out.Read.Valid {
		if !in.ReadReady {
			return fmt.Errorf("read for tag %d issued while the read channel was not ready",
				out.Read.Tag)
		}
		s.submitRead(out.Read)
	}

	if out.Write.Valid {
		if !in.WriteAddrReady || !in.WriteDataReady {
			return fmt.Errorf("write for tag %d issued while a write channel was not ready",
				out.Write.Tag)
		}
		s.submitWrite(out.Write)
	}

	s.pruneWrites()

	return nil
}

// Tick advances the store by one cycle.
func (s *Store) Tick() {
	s.now++
}

func (s *Store) submitRead(req pipeline.ReadRequest) {
	s.stats.Reads++

	r := &pendingRead{
		tag:   req.Tag,
		index: req.Index,
		seq:   s.seq,
		block: s.cache.BlockAddr(req.Index),
	}
	s.seq++

	switch {
	case s.readLatency != nil:
		r.due = s.now + max(1, s.readLatency(req.Tag, req.Index))
	default:
		s.scheduleCachedRead(r)
	}

	s.reads = append(s.reads, r)
	s.stats.MaxPendingReads = max(s.stats.MaxPendingReads, len(s.reads))
}

// scheduleCachedRead sets the due cycle of r from the cache model. A read
// to a block with an outstanding miss completes with that miss.
func (s *Store) scheduleCachedRead(r *pendingRead) {
	if entry := s.mshr.Query(0, r.block); entry != nil {
		first := entry.Requests[0].(*pendingRead)
		entry.Requests = append(entry.Requests, r)
		r.due = first.due
		r.miss = true
		s.stats.Coalesced++
		s.log.Debugf("store: read tag=%d merged into miss on block %d", r.tag, r.block)
		return
	}

	if s.cache.Read(r.index).Hit {
		s.stats.ReadHits++
		r.due = s.now + s.table.ReadLatency(true)
		return
	}

	s.stats.ReadMisses++
	r.due = s.now + s.table.ReadLatency(false)
	r.miss = true

	entry := s.mshr.Add(0, r.block)
	entry.Requests = append(entry.Requests, r)
}

func (s *Store) consumeRead(r *pendingRead) {
	for i, p := range s.reads {
		if p == r {
			s.reads = append(s.reads[:i], s.reads[i+1:]...)
			break
		}
	}
	s.stats.Completions++

	if !r.miss || s.readLatency != nil {
		return
	}

	entry := s.mshr.Query(0, r.block)
	if entry == nil {
		return
	}

	for i, p := range entry.Requests {
		if p.(*pendingRead) == r {
			entry.Requests = append(entry.Requests[:i], entry.Requests[i+1:]...)
			break
		}
	}

	if len(entry.Requests) == 0 {
		s.mshr.Remove(0, r.block)
	}
}

func (s *Store) submitWrite(req pipeline.WriteRequest) {
	s.stats.Writes++
	s.cache.Write(req.Index)

	ackAt := s.now + s.table.WriteLatency()
	s.writes = append(s.writes, &pendingWrite{
		tag:       req.Tag,
		index:     req.Index,
		value:     req.Value,
		ackAt:     ackAt,
		visibleAt: ackAt + s.table.VisibilityLag(),
	})
}

func (s *Store) applyVisible() {
	for _, w := range s.writes {
		if !w.applied && w.visibleAt <= s.now {
			s.memory.Write(w.index, w.value)
			w.applied = true
		}
	}
	s.pruneWrites()
}

func (s *Store) pruneWrites() {
	kept := s.writes[:0]
	for _, w := range s.writes {
		if !(w.acked && w.applied) {
			kept = append(kept, w)
		}
	}
	s.writes = kept
}

// Reset drops every outstanding request and returns to cycle zero. Memory
// is kept.
func (s *Store) Reset() {
	s.now = 0
	s.seq = 0
	s.held = false
	s.reads = nil
	s.writes = nil
	s.offeredRead = nil
	s.offeredWrite = nil
	s.injectedCompletion = nil
	s.injectedAck = nil
	s.cache.Reset()
	s.mshr.Reset()
	s.table.Reset()
	s.stats = Statistics{}
}
