// Package emu provides the functional reference model of the cumulative
// read-modify-write engine: requests are applied one at a time, in order,
// directly to memory.
package emu

import (
	"fmt"

	"github.com/sarchlab/oooop/timing/pipeline"
)

// Request is one update applied by the emulator.
type Request struct {
	Index uint64
	Aux   uint64
}

// StepResult represents the result of applying a single request.
type StepResult struct {
	Index     uint64
	Aux       uint64
	Prior     uint64
	Value     uint64
	Proposed  uint64
	Cancelled bool

	// Err is set if the request could not be applied.
	Err error
}

// Emulator applies updates sequentially.
type Emulator struct {
	config pipeline.Config
	memory *Memory
	op     pipeline.Operation
	cancel pipeline.CancelPredicate

	stateMask uint64
	auxMask   uint64
	items     uint64

	steps    uint64
	maxSteps uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithOperation sets the update. The default is pipeline.Increment.
func WithOperation(op pipeline.Operation) EmulatorOption {
	return func(e *Emulator) {
		e.op = op
	}
}

// WithWriteCancel sets the cancel predicate. The default is
// pipeline.NeverCancel.
func WithWriteCancel(c pipeline.CancelPredicate) EmulatorOption {
	return func(e *Emulator) {
		e.cancel = c
	}
}

// WithMemory replaces the emulator's memory.
func WithMemory(m *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithMaxSteps limits the number of requests applied. A value of 0 means no
// limit.
func WithMaxSteps(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxSteps = max
	}
}

// NewEmulator creates an emulator with the widths and item count of config.
func NewEmulator(config pipeline.Config, opts ...EmulatorOption) (*Emulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Emulator{
		config:    config,
		memory:    NewMemory(config.StateWidth),
		op:        pipeline.Increment,
		cancel:    pipeline.NeverCancel,
		stateMask: config.StateMask(),
		auxMask:   config.AuxMask(),
		items:     config.Items(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// Steps returns the number of requests applied.
func (e *Emulator) Steps() uint64 {
	return e.steps
}

// Reset clears memory and the step counter.
func (e *Emulator) Reset() {
	e.memory.Reset()
	e.steps = 0
}

// Step applies one request.
func (e *Emulator) Step(req Request) StepResult {
	if e.maxSteps > 0 && e.steps >= e.maxSteps {
		return StepResult{Err: fmt.Errorf("max steps (%d) reached", e.maxSteps)}
	}

	if req.Index >= e.items {
		return StepResult{Err: fmt.Errorf("%w: index %d, item count %d",
			pipeline.ErrIndexOutOfRange, req.Index, e.items)}
	}

	aux := req.Aux & e.auxMask
	prior := e.memory.Read(req.Index)
	proposed := e.op(prior, aux) & e.stateMask
	cancelled := e.cancel(req.Index, prior, proposed, aux)

	value := proposed
	if cancelled {
		value = prior
	} else {
		e.memory.Write(req.Index, value)
	}

	e.steps++

	return StepResult{
		Index:     req.Index,
		Aux:       aux,
		Prior:     prior,
		Value:     value,
		Proposed:  proposed,
		Cancelled: cancelled,
	}
}

// Run applies every request in order and stops at the first error.
func (e *Emulator) Run(reqs []Request) ([]StepResult, error) {
	results := make([]StepResult, 0, len(reqs))

	for _, req := range reqs {
		r := e.Step(req)
		if r.Err != nil {
			return results, r.Err
		}
		results = append(results, r)
	}

	return results, nil
}
