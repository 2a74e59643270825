package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/surface"
)

func newExploreCmd(g *globals) *cobra.Command {
	var (
		sf        seriesFlags
		chartPath string
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Classify a series of measurements and summarize the trend",
		Long: `Evaluates every measurement in a series against one criterion, reports the
status of each reading, the latest value and its change since the first, and an
overall narrative. The series comes from --values, a CSV/XLSX --file, or a
deterministic --simulate scenario.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := runExplore(cmd, g, &sf)
			if err != nil {
				return err
			}
			if err := g.renderer(cmd).Report(cmd.OutOrStdout(), rep); err != nil {
				return fmt.Errorf("rendering: %w", err)
			}
			if chartPath != "" {
				return writeChart(cmd, rep, chartPath)
			}
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&chartPath, "chart", "", "Also write the trend chart as HTML to this path")
	return cmd
}

func newChartCmd(g *globals) *cobra.Command {
	var (
		sf  seriesFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Write an HTML trend chart with tolerance lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := runExplore(cmd, g, &sf)
			if err != nil {
				return err
			}
			return writeChart(cmd, rep, out)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output HTML file (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runExplore(cmd *cobra.Command, g *globals, sf *seriesFlags) (*explore.Report, error) {
	cfg, reg, err := g.loadRegistry(cmd.Context())
	if err != nil {
		return nil, err
	}
	e, in, err := sf.build(cmd, cfg, reg)
	if err != nil {
		return nil, err
	}
	return explore.Run(e, in)
}

func writeChart(cmd *cobra.Command, rep *explore.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	if err := surface.RenderChart(f, rep); err != nil {
		f.Close()
		return fmt.Errorf("rendering chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Chart written to %s\n", path)
	return nil
}
