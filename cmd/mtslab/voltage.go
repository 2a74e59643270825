package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVoltageCmd(g *globals) *cobra.Command {
	var (
		testID      string
		nameplateKV float64
		appliedKV   float64
	)

	cmd := &cobra.Command{
		Use:   "voltage",
		Short: "Recommend a DC megohmmeter test voltage for a nameplate rating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := g.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			t, err := reg.Test(testID)
			if err != nil {
				return err
			}
			if nameplateKV < 0 || appliedKV < 0 {
				return fmt.Errorf("voltages must not be negative")
			}
			adv, ok := t.AdviseVoltage(nameplateKV, appliedKV)
			if !ok {
				return fmt.Errorf("test %q has no test-voltage guidance", t.ID)
			}
			return g.renderer(cmd).Voltage(cmd.OutOrStdout(), t, adv)
		},
	}

	cmd.Flags().StringVar(&testID, "test", "insulation_resistance", "Test ID with a voltage table")
	cmd.Flags().Float64Var(&nameplateKV, "nameplate-kv", 0, "Equipment nameplate rating in kV (default: 34.5 capped to the table)")
	cmd.Flags().Float64Var(&appliedKV, "applied-kv", 0, "DC test voltage actually applied in kV (default: the recommendation)")
	return cmd
}
