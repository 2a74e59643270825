package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtslab/mtslab/pkg/evaluate"
	"github.com/mtslab/mtslab/pkg/explore"
)

func newEvaluateCmd(g *globals) *cobra.Command {
	var (
		criterionID string
		value       float64
		baseline    float64
		nameplateKV float64
		appliedKV   float64
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Classify a single measurement against a criterion",
		Long: `Classifies one measurement as Pass, Investigate or Fail. Without --value the
result is Info; qualitative criteria always return Review. Percentage-change
criteria need --baseline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := g.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			e, err := reg.Criterion(criterionID)
			if err != nil {
				return err
			}
			var m evaluate.Measurement
			if cmd.Flags().Changed("value") {
				m = evaluate.Reading(value)
			}
			if cmd.Flags().Changed("baseline") {
				m = m.WithBaseline(baseline)
			}
			if nameplateKV < 0 || appliedKV < 0 {
				return fmt.Errorf("voltages must not be negative")
			}
			calc := explore.Calculate(e, m, nameplateKV, appliedKV)
			return g.renderer(cmd).Calculation(cmd.OutOrStdout(), calc)
		},
	}

	cmd.Flags().StringVar(&criterionID, "criterion", "", "Criterion ID (required)")
	cmd.Flags().Float64Var(&value, "value", 0, "Measured value")
	cmd.Flags().Float64Var(&baseline, "baseline", 0, "Baseline for percentage-change criteria")
	cmd.Flags().Float64Var(&nameplateKV, "nameplate-kv", 0, "Nameplate rating in kV for test-voltage guidance")
	cmd.Flags().Float64Var(&appliedKV, "applied-kv", 0, "Applied DC test voltage in kV")
	_ = cmd.MarkFlagRequired("criterion")
	return cmd
}
