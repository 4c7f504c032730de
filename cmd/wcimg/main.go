package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wcimg",
		Short: "Cluster graph analysis for wire-cell imaging output",
		Long: `wcimg analyzes cluster graphs of blobs, time slices, wires and
measurements produced by wire-cell imaging.

It summarizes graphs, dumps blob signatures, builds channel activity
histograms, samples blobs into point clouds and catalogs runs so dumps
can be compared.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(
		newVersionCmd(),
		newInspectCmd(),
		newDumpBlobsCmd(),
		newActivityCmd(),
		newBlobActivityMaskCmd(),
		newBeeBlobsCmd(),
		newDeposCmd(),
		newGraphCmd(),
		newRunsCmd(),
		newDiffRunsCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("json", false, "Output as JSON")
	cmd.PersistentFlags().String("config", "", "Config file (default ~/.wcimg/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")
	cmd.PersistentFlags().String("metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	cmd.PersistentFlags().String("store", "", "Run catalog database (default ~/.wcimg/runs.db)")
}
