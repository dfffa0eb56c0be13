// Package benchmarks provides the workload harness of the engine: it runs
// request streams through the cycle model, checks them against the
// functional model and reports throughput and forwarding statistics.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/oooop/emu"
	"github.com/sarchlab/oooop/timing/core"
	"github.com/sarchlab/oooop/timing/pipeline"
)

// Version is reported in JSON output.
const Version = "0.1.0"

// BenchmarkResult holds the results of a single workload run.
type BenchmarkResult struct {
	// Name identifies the workload
	Name string `json:"name"`

	// Description explains what the workload measures
	Description string `json:"description"`

	// Requests is the number of requests submitted
	Requests int `json:"requests"`

	// SimulatedCycles is the total cycle count until the core drained
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// Retired is the number of results emitted
	Retired uint64 `json:"retired"`

	// Cancelled is the number of results whose write was suppressed
	Cancelled uint64 `json:"cancelled"`

	// Throughput is retired transactions per cycle
	Throughput float64 `json:"throughput"`

	// Forwards is the number of transactions that used a forwarded value
	Forwards uint64 `json:"forwards"`

	// HistoryForwards is the part of Forwards served by the write history
	HistoryForwards uint64 `json:"history_forwards"`

	// MultiSourceHazards counts forwards with more than one matching source
	MultiSourceHazards uint64 `json:"multi_source_hazards"`

	// Stall counters of the engine
	AdmissionStalls uint64 `json:"admission_stalls"`
	TagStalls       uint64 `json:"tag_stalls"`
	WriteStalls     uint64 `json:"write_stalls"`
	AckStalls       uint64 `json:"ack_stalls"`

	// MaxInFlight is the largest number of tags in use at once
	MaxInFlight int `json:"max_in_flight"`

	// Store cache statistics
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
	Coalesced   uint64 `json:"coalesced"`

	// Verified is set when every result and the final memory matched the
	// functional model
	Verified bool `json:"verified"`

	// Error describes why the run or the verification failed
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single workload.
type Benchmark struct {
	// Name identifies the workload
	Name string

	// Description explains what the workload measures
	Description string

	// Setup prepares the initial memory
	Setup func(memory *emu.Memory)

	// Generate returns the requests for an array of the given item count
	Generate func(items uint64) []emu.Request

	// Operation and Cancel are the strategies; nil selects the defaults
	Operation pipeline.Operation
	Cancel    pipeline.CancelPredicate
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Config is the configuration of the cycle model
	Config *core.Config

	// Verify checks every run against the functional model
	Verify bool

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose logs every run
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Config:  core.DefaultConfig(),
		Verify:  true,
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs workloads and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Config == nil {
		config.Config = core.DefaultConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			log.WithFields(log.Fields{
				"benchmark": result.Name,
				"cycles":    result.SimulatedCycles,
				"verified":  result.Verified,
			}).Info("benchmark finished")
		}
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	engine := h.config.Config.Engine
	memory := emu.NewMemory(engine.StateWidth)
	if bench.Setup != nil {
		bench.Setup(memory)
	}
	initial := memory.Clone()

	var pipelineOpts []pipeline.PipelineOption
	var emuOpts []emu.EmulatorOption
	if bench.Operation != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithOperation(bench.Operation))
		emuOpts = append(emuOpts, emu.WithOperation(bench.Operation))
	}
	if bench.Cancel != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithWriteCancel(bench.Cancel))
		emuOpts = append(emuOpts, emu.WithWriteCancel(bench.Cancel))
	}

	c, err := core.NewCore(h.config.Config, memory,
		core.WithPipelineOptions(pipelineOpts...))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	reqs := bench.Generate(engine.Items())
	result.Requests = len(reqs)
	for _, r := range reqs {
		c.Submit(r.Index, r.Aux)
	}

	start := time.Now()
	err = c.Run()
	result.WallTime = time.Since(start)

	fillStats(&result, c.Stats())

	if err != nil {
		result.Error = err.Error()
		return result
	}

	if h.config.Verify {
		emuOpts = append(emuOpts, emu.WithMemory(initial))
		if err := verify(engine, emuOpts, c.Results(), memory); err != nil {
			result.Error = err.Error()
			return result
		}
		result.Verified = true
	}

	return result
}

func fillStats(r *BenchmarkResult, stats core.Stats) {
	e := stats.Engine
	r.SimulatedCycles = stats.Cycles
	r.Retired = e.Retired
	r.Cancelled = e.Cancelled
	r.Throughput = e.Throughput()
	r.Forwards = e.Forwards
	r.HistoryForwards = e.HistoryForwards
	r.MultiSourceHazards = e.MultiSourceHazards
	r.AdmissionStalls = e.AdmissionStalls
	r.TagStalls = e.TagStalls
	r.WriteStalls = e.WriteStalls
	r.AckStalls = e.AckStalls
	r.MaxInFlight = e.MaxInFlight
	r.CacheHits = stats.Cache.Hits
	r.CacheMisses = stats.Cache.Misses
	r.Coalesced = stats.Store.Coalesced
}

// verify replays the results in emission order on the functional model and
// compares every step and the final memory.
func verify(
	config pipeline.Config,
	opts []emu.EmulatorOption,
	results []pipeline.Result,
	memory *emu.Memory,
) error {
	e, err := emu.NewEmulator(config, opts...)
	if err != nil {
		return err
	}

	for i, r := range results {
		want := e.Step(emu.Request{Index: r.Index, Aux: r.Aux})
		if want.Err != nil {
			return fmt.Errorf("result %d: %w", i, want.Err)
		}

		if r.Prior != want.Prior || r.Value != want.Value || r.Cancelled != want.Cancelled {
			return fmt.Errorf(
				"result %d on index %d: got prior=%d value=%d cancelled=%v, want prior=%d value=%d cancelled=%v",
				i, r.Index, r.Prior, r.Value, r.Cancelled, want.Prior, want.Value, want.Cancelled)
		}
	}

	if !memory.Equal(e.Memory()) {
		return fmt.Errorf("final memory differs from the functional model")
	}

	return nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	w := h.config.Output
	_, _ = fmt.Fprintln(w, "=== oooop Workload Results ===")
	_, _ = fmt.Fprintln(w, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(w, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(w, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(w, "  --- Timing ---")
		_, _ = fmt.Fprintf(w, "  Requests:             %d\n", r.Requests)
		_, _ = fmt.Fprintf(w, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(w, "  Retired:              %d\n", r.Retired)
		_, _ = fmt.Fprintf(w, "  Throughput:           %.3f\n", r.Throughput)
		_, _ = fmt.Fprintf(w, "  Max In Flight:        %d\n", r.MaxInFlight)
		_, _ = fmt.Fprintln(w, "  --- Hazards ---")
		_, _ = fmt.Fprintf(w, "  Forwards:             %d\n", r.Forwards)
		_, _ = fmt.Fprintf(w, "  History Forwards:     %d\n", r.HistoryForwards)
		_, _ = fmt.Fprintf(w, "  Multi-Source:         %d\n", r.MultiSourceHazards)
		if r.Cancelled > 0 {
			_, _ = fmt.Fprintf(w, "  Cancelled Writes:     %d\n", r.Cancelled)
		}
		_, _ = fmt.Fprintln(w, "  --- Stalls ---")
		_, _ = fmt.Fprintf(w, "  Admission:            %d (tags: %d)\n", r.AdmissionStalls, r.TagStalls)
		_, _ = fmt.Fprintf(w, "  Write:                %d\n", r.WriteStalls)
		_, _ = fmt.Fprintf(w, "  Ack:                  %d\n", r.AckStalls)

		if r.CacheHits > 0 || r.CacheMisses > 0 {
			_, _ = fmt.Fprintln(w, "  --- Store Cache ---")
			_, _ = fmt.Fprintf(w, "  Hits:      %d\n", r.CacheHits)
			_, _ = fmt.Fprintf(w, "  Misses:    %d\n", r.CacheMisses)
			_, _ = fmt.Fprintf(w, "  Coalesced: %d\n", r.Coalesced)
		}

		_, _ = fmt.Fprintf(w, "  Verified: %v\n", r.Verified)
		_, _ = fmt.Fprintf(w, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(w, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,requests,cycles,retired,throughput,forwards,history_forwards,multi_source,cancelled,admission_stalls,tag_stalls,write_stalls,ack_stalls,cache_hits,cache_misses,coalesced,verified")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%v\n",
			r.Name,
			r.Requests,
			r.SimulatedCycles,
			r.Retired,
			r.Throughput,
			r.Forwards,
			r.HistoryForwards,
			r.MultiSourceHazards,
			r.Cancelled,
			r.AdmissionStalls,
			r.TagStalls,
			r.WriteStalls,
			r.AckStalls,
			r.CacheHits,
			r.CacheMisses,
			r.Coalesced,
			r.Verified,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the simulator
	Version string `json:"version"`

	// Config is the cycle model configuration used
	Config *core.Config `json:"config"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks int           `json:"total_benchmarks"`
	TotalCycles     uint64        `json:"total_cycles"`
	TotalRetired    uint64        `json:"total_retired"`
	Throughput      float64       `json:"throughput"`
	Failed          int           `json:"failed"`
	TotalWallTime   time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		s.TotalCycles += r.SimulatedCycles
		s.TotalRetired += r.Retired
		s.TotalWallTime += r.WallTime
		if r.Error != "" {
			s.Failed++
		}
	}
	if s.TotalCycles > 0 {
		s.Throughput = float64(s.TotalRetired) / float64(s.TotalCycles)
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Config:    h.config.Config,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
