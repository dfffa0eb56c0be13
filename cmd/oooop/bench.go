package main

import (
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sarchlab/oooop/benchmarks"
	"github.com/sarchlab/oooop/timing/core"
)

var benchCmd = &cobra.Command{
	Use:   "bench [flags]",
	Short: "Run the workload harness.",
	Long: `Run every workload on the cycle model, check it against the functional
model and report cycles, throughput and forwarding statistics. Output is a
table on a terminal and CSV otherwise, unless --csv or --json is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if path := getString(cmd, "cpuprofile"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create CPU profile: %w", err)
			}
			defer func() { _ = f.Close() }()

			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("failed to start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		format := getString(cmd, "format")
		if getFlag(cmd, "csv") {
			format = "csv"
		}
		if getFlag(cmd, "json") {
			format = "json"
		}
		if format == "" {
			format = "csv"
			if term.IsTerminal(int(os.Stdout.Fd())) {
				format = "text"
			}
		}

		opts := benchOptions{
			format:  format,
			quick:   getFlag(cmd, "quick"),
			verify:  !getFlag(cmd, "no-verify"),
			verbose: getFlag(cmd, "verbose"),
		}

		return runBench(os.Stdout, config, opts)
	},
}

func init() {
	benchCmd.Flags().Bool("csv", false, "output results in CSV format")
	benchCmd.Flags().Bool("json", false, "output results in JSON format")
	benchCmd.Flags().String("format", "", "output format: text, csv or json")
	benchCmd.Flags().Bool("quick", false, "run the three core workloads only")
	benchCmd.Flags().Bool("no-verify", false, "skip the check against the functional model")
	benchCmd.Flags().String("cpuprofile", "", "write CPU profile to file")
	rootCmd.AddCommand(benchCmd)
}

type benchOptions struct {
	format  string
	quick   bool
	verify  bool
	verbose bool
}

// runBench runs the harness and writes the report to w. It fails if any
// workload failed.
func runBench(w io.Writer, config *core.Config, opts benchOptions) error {
	harnessConfig := benchmarks.DefaultConfig()
	harnessConfig.Config = config
	harnessConfig.Output = w
	harnessConfig.Verify = opts.verify
	harnessConfig.Verbose = opts.verbose

	harness := benchmarks.NewHarness(harnessConfig)
	if opts.quick {
		harness.AddBenchmarks(benchmarks.GetCoreWorkloads())
	} else {
		harness.AddBenchmarks(benchmarks.GetWorkloads())
	}

	results := harness.RunAll()

	switch opts.format {
	case "text":
		harness.PrintResults(results)
	case "csv":
		harness.PrintCSV(results)
	case "json":
		if err := harness.PrintJSON(results); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output format %q", opts.format)
	}

	if failed := benchmarks.Summarize(results).Failed; failed > 0 {
		return fmt.Errorf("%d of %d workloads failed", failed, len(results))
	}

	return nil
}
