// Command oooop drives the out-of-order cumulative read-modify-write engine.
//
// Usage:
//
//	oooop run [flags] <trace>      apply a request trace
//	oooop bench [flags]            run the workload harness
//	oooop config [file]            print or save the default configuration
//
// Example:
//
//	# Run a trace on the cycle model with a running maximum
//	oooop run --timing --op max --cancel unchanged requests.trace
//
//	# Output CSV for spreadsheet comparison
//	oooop bench --csv > results.csv
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
