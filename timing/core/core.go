// Package core wires the engine to the simulated store, an admission queue
// and a result sink into one ticking model.
package core

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/oooop/emu"
	"github.com/sarchlab/oooop/timing/cache"
	"github.com/sarchlab/oooop/timing/pipeline"
	"github.com/sarchlab/oooop/timing/store"
)

// ErrNoProgress is returned when nothing moved for longer than the
// watchdog allows. The engine itself never times out.
var ErrNoProgress = errors.New("no progress")

// DefaultWatchdog is the number of cycles without any handshake after which
// Run gives up.
const DefaultWatchdog = 10000

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Submitted is the number of requests queued.
	Submitted uint64
	Engine    pipeline.Statistics
	Store     store.Statistics
	Cache     cache.Statistics
}

// Option configures a Core.
type Option func(*Core)

// WithPipelineOptions passes options to the engine.
func WithPipelineOptions(opts ...pipeline.PipelineOption) Option {
	return func(c *Core) {
		c.pipelineOpts = append(c.pipelineOpts, opts...)
	}
}

// WithStoreOptions passes options to the store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(c *Core) {
		c.storeOpts = append(c.storeOpts, opts...)
	}
}

// WithOutputReady sets when the result sink accepts a result. The default
// is always.
func WithOutputReady(f func(cycle uint64) bool) Option {
	return func(c *Core) {
		c.outputReady = f
	}
}

// WithResultSink receives every result instead of collecting them.
func WithResultSink(f func(pipeline.Result)) Option {
	return func(c *Core) {
		c.sink = f
	}
}

// WithWatchdog sets the number of cycles without progress after which Run
// fails with ErrNoProgress. Zero disables the watchdog.
func WithWatchdog(cycles uint64) Option {
	return func(c *Core) {
		c.watchdog = cycles
	}
}

// WithLogger sets the logger of the core, the engine and the store.
func WithLogger(l *log.Entry) Option {
	return func(c *Core) {
		c.log = l
	}
}

// Core represents the engine together with its neighbors.
type Core struct {
	// Pipeline is the engine.
	Pipeline *pipeline.Pipeline

	// Store is the simulated store the engine talks to.
	Store *store.Store

	config       *Config
	pipelineOpts []pipeline.PipelineOption
	storeOpts    []store.Option
	outputReady  func(cycle uint64) bool
	sink         func(pipeline.Result)
	watchdog     uint64
	log          *log.Entry

	queue   []pipeline.Request
	results []pipeline.Result

	cycles    uint64
	submitted uint64
	stalled   uint64
}

// NewCore creates a core over memory.
func NewCore(config *Config, memory *emu.Memory, opts ...Option) (*Core, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Core{
		config:   config.Clone(),
		watchdog: DefaultWatchdog,
		log:      log.NewEntry(log.StandardLogger()),
	}

	for _, opt := range opts {
		opt(c)
	}

	pipelineOpts := append([]pipeline.PipelineOption{pipeline.WithLogger(c.log)},
		c.pipelineOpts...)
	p, err := pipeline.NewPipeline(c.config.Engine, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	storeOpts := append([]store.Option{store.WithLogger(c.log)}, c.storeOpts...)
	s, err := store.New(c.config.Timing, c.config.Cache, memory, storeOpts...)
	if err != nil {
		return nil, err
	}

	c.Pipeline = p
	c.Store = s

	return c, nil
}

// Config returns a copy of the core configuration.
func (c *Core) Config() *Config {
	return c.config.Clone()
}

// Submit queues a request for admission.
func (c *Core) Submit(index, aux uint64) {
	c.queue = append(c.queue, pipeline.Request{Valid: true, Index: index, Aux: aux})
	c.submitted++
}

// Queued returns the number of requests not yet admitted.
func (c *Core) Queued() int {
	return len(c.queue)
}

// Results returns the results collected so far in emission order.
func (c *Core) Results() []pipeline.Result {
	return c.results
}

// Drained reports whether every submitted request retired and every write
// became visible.
func (c *Core) Drained() bool {
	return len(c.queue) == 0 && c.Pipeline.Idle() && c.Store.Drained()
}

// Tick executes one cycle of the engine and the store.
func (c *Core) Tick() error {
	var in pipeline.Inputs
	if len(c.queue) > 0 {
		in.Request = c.queue[0]
	}
	in.OutputReady = c.outputReady == nil || c.outputReady(c.cycles)
	c.Store.Offer(&in)

	out, err := c.Pipeline.Tick(in)
	if err != nil {
		return err
	}

	if out.RequestAccepted {
		c.queue = c.queue[1:]
	}

	if err := c.Store.Accept(in, out); err != nil {
		return err
	}

	if out.Result.Valid {
		if c.sink != nil {
			c.sink(out.Result)
		} else {
			c.results = append(c.results, out.Result)
		}
	}

	c.Store.Tick()
	c.cycles++

	if progressed(out) {
		c.stalled = 0
	} else {
		c.stalled++
	}

	return nil
}

func progressed(out pipeline.Outputs) bool {
	return out.RequestAccepted || out.CompletionAccepted || out.AckAccepted ||
		out.Read.Valid || out.Write.Valid || out.Result.Valid
}

// Run ticks until the core is drained.
func (c *Core) Run() error {
	for !c.Drained() {
		if err := c.Tick(); err != nil {
			return err
		}

		if c.watchdog > 0 && c.stalled > c.watchdog {
			return fmt.Errorf("%w: %d cycles without a handshake at cycle %d",
				ErrNoProgress, c.stalled, c.cycles)
		}
	}

	c.log.Debugf("core: drained after %d cycles", c.cycles)

	return nil
}

// RunCycles executes the core for at most the given number of cycles.
// Returns true if work remains.
func (c *Core) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles && !c.Drained(); i++ {
		if err := c.Tick(); err != nil {
			return false, err
		}
	}
	return !c.Drained(), nil
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	return Stats{
		Cycles:    c.cycles,
		Submitted: c.submitted,
		Engine:    c.Pipeline.Stats(),
		Store:     c.Store.Stats(),
		Cache:     c.Store.Cache().Stats(),
	}
}

// Reset drops queued requests, collected results and everything in flight.
// Memory keeps its contents.
func (c *Core) Reset() {
	c.Pipeline.Reset()
	c.Store.Reset()
	c.queue = nil
	c.results = nil
	c.cycles = 0
	c.submitted = 0
	c.stalled = 0
}
