package pipeline

// control holds the handshake decisions of one tick.
type control struct {
	load    []bool
	release []bool
	ready   []bool

	ingest   SideEntry
	ackMatch bool
	admit    bool
}

func newControl(stages int) control {
	return control{
		load:    make([]bool, stages),
		release: make([]bool, stages),
		ready:   make([]bool, stages),
	}
}

// computeControl derives ready, release and load for every stage, from
// AWAIT_ACK backwards to READ_DATA_RECEIVE.
func (p *Pipeline) computeControl(in Inputs) {
	c := &p.ctl
	wb := p.layout.WriteBack
	aa := p.layout.AwaitAck

	a := &p.slots[aa]
	c.ackMatch = in.Ack.Valid && a.Valid && !a.Cancelled && in.Ack.Tag == a.Tag
	c.release[aa] = a.Valid && (a.Cancelled || c.ackMatch) && in.OutputReady
	c.ready[aa] = !a.Valid || c.release[aa]

	w := &p.slots[wb]
	writeReady := in.WriteAddrReady && in.WriteDataReady
	c.release[wb] = w.Valid && (w.Cancelled || writeReady) && c.ready[aa]
	c.ready[wb] = !w.Valid || c.release[wb]

	for i := wb - 1; i >= 0; i-- {
		c.release[i] = p.slots[i].Valid && c.ready[i+1]
		c.ready[i] = !p.slots[i].Valid || c.release[i]
	}

	c.load[0] = in.Completion.Valid && c.ready[0]
	for i := 1; i <= aa; i++ {
		c.load[i] = c.release[i-1]
	}

	c.admit = in.Request.Valid && in.ReadReady && p.tags.Available()
}

// detectHazards fills the candidates from the current slots and control
// and lets the hazard unit compute the vectors for the next tick.
func (p *Pipeline) detectHazards(in Inputs) {
	c := &p.ctl
	wb := p.layout.WriteBack
	aa := p.layout.AwaitAck

	ingest := Probe{Valid: in.Completion.Valid, Index: c.ingest.Index}

	for i := 0; i < wb; i++ {
		prev := ingest
		if i > 0 {
			prev = probeOf(&p.slots[i-1])
		}

		p.dsts[i] = Candidate{
			Current:  probeOf(&p.slots[i]),
			Previous: prev,
			Load:     c.load[i],
			Release:  c.release[i],
		}
	}

	for i := wb; i <= aa; i++ {
		p.srcs[i-wb] = Candidate{
			Current:  probeOf(&p.slots[i]),
			Previous: probeOf(&p.slots[i-1]),
			Load:     c.load[i],
			Release:  c.release[i],
		}
	}

	for k := 0; k < p.history.Depth(); k++ {
		var prev Probe
		if k == 0 {
			prev = probeOf(&p.slots[aa])
			prev.Valid = prev.Valid && c.release[aa]
		} else {
			e := p.history.At(k - 1)
			prev = Probe{Valid: e.Valid, Index: e.Index}
		}

		e := p.history.At(k)
		p.srcs[2+k] = Candidate{
			Current:  Probe{Valid: e.Valid, Index: e.Index},
			Previous: prev,
			Load:     true,
		}
	}

	p.hazards.Detect(p.dsts, p.srcs)
}

// sourceValue returns the value currently held by forwarding source s.
func (p *Pipeline) sourceValue(s Source) uint64 {
	switch s {
	case 0:
		return p.slots[p.layout.WriteBack].Value
	case 1:
		return p.slots[p.layout.AwaitAck].Value
	default:
		return p.history.At(int(s) - 2).Value
	}
}

// bypass refreshes s from the latched vector of stage dst.
func (p *Pipeline) bypass(dst int, s *Slot) uint {
	src, n := p.hazards.Select(dst)
	if src == SourceNone {
		return 0
	}

	s.Value = p.sourceValue(src)
	s.Forwarded = true
	if src >= 2 {
		s.FromHistory = true
	}

	return n
}

// advance computes the slot contents for the next tick from the current
// ones. It reads only current state, so stage order does not matter.
func (p *Pipeline) advance(in Inputs) {
	c := &p.ctl
	wb := p.layout.WriteBack
	aa := p.layout.AwaitAck

	p.next[aa] = p.slots[aa]
	switch {
	case c.load[aa]:
		p.next[aa] = p.slots[wb]
	case c.release[aa]:
		p.next[aa].Clear()
	}

	p.next[wb] = p.slots[wb]
	switch {
	case c.load[wb]:
		p.next[wb] = p.mainOperation(&p.slots[wb-1])
	case c.release[wb]:
		p.next[wb].Clear()
	}

	for i := 1; i < wb; i++ {
		p.next[i] = p.propagate(i, c.load[i], c.release[i], &p.slots[i-1])
	}

	if c.load[0] {
		p.next[0] = Slot{
			Valid: true,
			Tag:   in.Completion.Tag,
			Index: c.ingest.Index,
			Aux:   c.ingest.Aux,
			Value: in.Completion.Value & p.stateMask,
		}
	} else {
		p.next[0] = p.propagate(0, false, c.release[0], nil)
	}
}

// propagate moves the predecessor into stage i, refreshing a stale value
// from the hazard vector of the predecessor. A holding stage refreshes from
// its own vector.
func (p *Pipeline) propagate(i int, load, release bool, prev *Slot) Slot {
	if load {
		s := *prev
		p.bypass(i-1, &s)
		return s
	}

	s := p.slots[i]
	switch {
	case release:
		s.Clear()
	case s.Valid:
		p.bypass(i, &s)
	}

	return s
}

// mainOperation applies the operation to the freshest prior value of the
// transaction entering WRITE_BACK and evaluates the cancel predicate.
func (p *Pipeline) mainOperation(prev *Slot) Slot {
	s := *prev
	if p.bypass(p.layout.WriteBack-1, &s) > 1 {
		p.stats.MultiSourceHazards++
	}

	if s.Forwarded {
		p.stats.Forwards++
	}
	if s.FromHistory {
		p.stats.HistoryForwards++
	}

	prior := s.Value
	s.Prior = prior
	s.Proposed = p.op(prior, s.Aux) & p.stateMask
	s.Cancelled = p.cancel(s.Index, prior, s.Proposed, s.Aux)

	if !s.Cancelled {
		s.Value = s.Proposed
	}

	return s
}
