// Package main provides the mtslab CLI entry point.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var version = "dev"

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	output     string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "mtslab",
		Short: "Interpret electrical acceptance and maintenance test results",
		Long: `mtslab is a reference tool for power-system test results. It browses a
curated library of acceptance and maintenance tests, classifies measurements
against tolerance bands as Pass, Investigate or Fail, and explores trends
across manual, simulated or spreadsheet series.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.validate()
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to config file (default: search for .mtslab/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.output, "output", "text", "Output format: text or json")

	rootCmd.AddCommand(
		newLibraryCmd(g),
		newEvaluateCmd(g),
		newExploreCmd(g),
		newChartCmd(g),
		newVoltageCmd(g),
		newBrowseCmd(g),
	)
	return rootCmd
}

func main() {
	if err := fang.Execute(context.Background(), newRootCmd()); err != nil {
		os.Exit(1)
	}
}
