package main

import (
	"github.com/spf13/cobra"

	"github.com/mtslab/mtslab/internal/tui"
)

func newBrowseCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the library and simulated trends interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, reg, err := g.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			return tui.Run(reg, cfg.ExploreOptions())
		},
	}
}
