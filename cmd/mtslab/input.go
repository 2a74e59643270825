package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtslab/mtslab/pkg/config"
	"github.com/mtslab/mtslab/pkg/explore"
	"github.com/mtslab/mtslab/pkg/ingest"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/series"
	"github.com/mtslab/mtslab/pkg/simulate"
)

// seriesFlags select a criterion and one source of measurements.
type seriesFlags struct {
	criterion   string
	values      string
	file        string
	column      string
	sheet       string
	scenario    string
	count       int
	baseline    float64
	nameplateKV float64
	appliedKV   float64
}

func (f *seriesFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.criterion, "criterion", "", "Criterion ID (required)")
	fl.StringVar(&f.values, "values", "", "Measurements separated by commas, spaces, semicolons or dashes")
	fl.StringVar(&f.file, "file", "", "CSV or XLSX file with one measurement per row")
	fl.StringVar(&f.column, "column", "", "Column header or 1-based number to read from --file")
	fl.StringVar(&f.sheet, "sheet", "", "Worksheet to read from an XLSX --file (default: first)")
	fl.StringVar(&f.scenario, "simulate", "", "Synthesize a series: healthy, drifting or out-of-tolerance")
	fl.IntVar(&f.count, "count", 0, "Number of simulated samples (default from config)")
	fl.Float64Var(&f.baseline, "baseline", 0, "Baseline for percentage-change criteria")
	fl.Float64Var(&f.nameplateKV, "nameplate-kv", 0, "Nameplate rating in kV for test-voltage guidance")
	fl.Float64Var(&f.appliedKV, "applied-kv", 0, "Applied DC test voltage in kV")
	_ = cmd.MarkFlagRequired("criterion")
}

// build resolves the criterion and reads the selected series.
func (f *seriesFlags) build(cmd *cobra.Command, cfg *config.Config, reg *library.Registry) (library.Entry, explore.Input, error) {
	e, err := reg.Criterion(f.criterion)
	if err != nil {
		return library.Entry{}, explore.Input{}, err
	}
	c := *e.Criterion

	sources := 0
	for _, set := range []bool{f.values != "", f.file != "", f.scenario != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return e, explore.Input{}, errors.New("use only one of --values, --file or --simulate")
	}

	baseline := f.manualBaseline(cmd, cfg, c)
	var in explore.Input
	switch {
	case f.file != "":
		res, err := ingest.ReadFile(f.file, ingest.Options{Column: f.column, Sheet: f.sheet})
		if err != nil {
			return e, explore.Input{}, err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Read %d value(s) from column %q of %s\n", len(res.Values), res.Column, f.file)
		in = explore.FromValues(c, res.Values, res.Invalid, baseline)
	case f.scenario != "":
		sc, err := simulate.ParseScenario(f.scenario)
		if err != nil {
			return e, explore.Input{}, err
		}
		in, err = explore.FromSimulation(c, sc, f.count, cfg.ExploreOptions())
		if err != nil {
			return e, explore.Input{}, err
		}
	case f.values != "":
		in = explore.FromText(c, f.values, baseline)
	default:
		hint := series.Format(explore.SuggestedValues(c))
		return e, explore.Input{}, fmt.Errorf("one of --values, --file or --simulate is required (for example --values %q)", hint)
	}
	in.NameplateKV, in.AppliedKV = f.nameplateKV, f.appliedKV
	return e, in, nil
}

// manualBaseline prefers --baseline, then the configured default. Only
// percentage-change criteria use a baseline.
func (f *seriesFlags) manualBaseline(cmd *cobra.Command, cfg *config.Config, c library.Criterion) *float64 {
	if c.Mode != library.ModePercentageChange {
		return nil
	}
	b := cfg.Explorer.Baseline
	if cmd.Flags().Changed("baseline") {
		b = f.baseline
	}
	return &b
}
