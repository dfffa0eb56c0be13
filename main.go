// Package main provides the entry point for oooop.
// oooop is a cycle model of an out-of-order cumulative read-modify-write
// engine, built on Akita.
//
// For the full CLI, use: go run ./cmd/oooop
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("oooop - Out-of-Order Cumulative Read-Modify-Write Engine")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: oooop <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run      Apply a request trace (--timing for the cycle model)")
	fmt.Println("  bench    Run the workload harness")
	fmt.Println("  config   Print or save the default configuration")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/oooop' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/oooop' instead.")
	}
}
