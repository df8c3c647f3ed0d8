// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command warpctl is a thin operator CLI over the engine/wsc packages: it
// never implements engine semantics itself, only drives engine.Engine and
// wsc.{Write,Read,Validate} from flags and files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "warpctl",
	Short: "Inspect, validate, and advance warp snapshot containers",
	Long: `warpctl is an operator tool around the deterministic graph-rewrite
engine: validating and inspecting WSC snapshot files, and driving a single
demo tick against one for local testing. It holds no engine logic of its
own beyond wiring flags into the engine and wsc packages.`,
}

func init() {
	rootCmd.AddCommand(
		validateCmd(),
		inspectCmd(),
		tickCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
