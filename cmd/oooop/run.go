package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/oooop/emu"
	"github.com/sarchlab/oooop/loader"
	"github.com/sarchlab/oooop/timing/core"
	"github.com/sarchlab/oooop/timing/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] trace_file",
	Short: "Apply a request trace.",
	Long: `Apply the requests of a trace file to a fresh state array, either on the
functional model (default) or on the cycle model (--timing).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		strategies, err := parseStrategies(getString(cmd, "op"), getString(cmd, "cancel"))
		if err != nil {
			return err
		}

		trace, err := loader.Load(args[0])
		if err != nil {
			return err
		}

		opts := runOptions{
			timing:   getFlag(cmd, "timing"),
			quiet:    getFlag(cmd, "quiet"),
			watchdog: getUint(cmd, "watchdog"),
		}

		return runTrace(os.Stdout, config, trace, strategies, opts)
	},
}

func init() {
	runCmd.Flags().Bool("timing", false, "run on the cycle model")
	runCmd.Flags().Bool("quiet", false, "print the summary only")
	runCmd.Flags().String("op", "increment",
		"operation: increment, identity, add, max, saturate:<limit>, affine:<mul>")
	runCmd.Flags().String("cancel", "never", "cancel predicate: never, unchanged")
	runCmd.Flags().Uint64("watchdog", core.DefaultWatchdog,
		"cycles without progress before giving up (0 disables)")
	rootCmd.AddCommand(runCmd)
}

type runOptions struct {
	timing   bool
	quiet    bool
	watchdog uint64
}

// runTrace applies trace and reports every result and the final state to w.
func runTrace(
	w io.Writer,
	config *core.Config,
	trace *loader.Trace,
	strategies Strategies,
	opts runOptions,
) error {
	if err := config.Validate(); err != nil {
		return err
	}

	memory := emu.NewMemory(config.Engine.StateWidth)
	trace.Apply(memory)

	if opts.timing {
		return runTiming(w, config, trace, strategies, opts, memory)
	}

	return runEmulation(w, config, trace, strategies, opts, memory)
}

// runEmulation applies the trace on the functional model.
func runEmulation(
	w io.Writer,
	config *core.Config,
	trace *loader.Trace,
	strategies Strategies,
	opts runOptions,
	memory *emu.Memory,
) error {
	e, err := emu.NewEmulator(config.Engine,
		emu.WithMemory(memory),
		emu.WithOperation(strategies.Operation),
		emu.WithWriteCancel(strategies.Cancel),
	)
	if err != nil {
		return err
	}

	results, err := e.Run(trace.Requests)
	if !opts.quiet {
		for _, r := range results {
			printResult(w, r.Index, r.Aux, r.Prior, r.Value, r.Cancelled)
		}
	}
	if err != nil {
		return fmt.Errorf("request %d: %w", len(results), err)
	}

	_, _ = fmt.Fprintf(w, "requests: %d\n", e.Steps())
	printState(w, memory, opts.quiet)

	return nil
}

// runTiming applies the trace on the cycle model.
func runTiming(
	w io.Writer,
	config *core.Config,
	trace *loader.Trace,
	strategies Strategies,
	opts runOptions,
	memory *emu.Memory,
) error {
	c, err := core.NewCore(config, memory,
		core.WithPipelineOptions(
			pipeline.WithOperation(strategies.Operation),
			pipeline.WithWriteCancel(strategies.Cancel),
		),
		core.WithWatchdog(opts.watchdog),
	)
	if err != nil {
		return err
	}

	for _, r := range trace.Requests {
		c.Submit(r.Index, r.Aux)
	}

	err = c.Run()
	if !opts.quiet {
		for _, r := range c.Results() {
			printResult(w, r.Index, r.Aux, r.Prior, r.Value, r.Cancelled)
		}
	}
	if err != nil {
		return err
	}

	stats := c.Stats()
	_, _ = fmt.Fprintf(w, "requests: %d\n", stats.Submitted)
	_, _ = fmt.Fprintf(w, "cycles: %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(w, "throughput: %.3f\n", stats.Engine.Throughput())
	_, _ = fmt.Fprintf(w, "forwards: %d (history: %d)\n",
		stats.Engine.Forwards, stats.Engine.HistoryForwards)
	_, _ = fmt.Fprintf(w, "cancelled: %d\n", stats.Engine.Cancelled)
	printState(w, memory, opts.quiet)

	log.WithFields(log.Fields{
		"cycles":  stats.Cycles,
		"retired": stats.Engine.Retired,
	}).Debug("timing run finished")

	return nil
}

func printResult(w io.Writer, index, aux, prior, value uint64, cancelled bool) {
	suffix := ""
	if cancelled {
		suffix = " cancelled"
	}
	_, _ = fmt.Fprintf(w, "index=%d aux=%d prior=%d value=%d%s\n", index, aux, prior, value, suffix)
}

func printState(w io.Writer, memory *emu.Memory, quiet bool) {
	if quiet {
		return
	}

	state := memory.Snapshot()
	for _, index := range slices.Sorted(maps.Keys(state)) {
		_, _ = fmt.Fprintf(w, "state[%d] = %d\n", index, state[index])
	}
}
