package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtslab/mtslab/internal/store"
	"github.com/mtslab/mtslab/pkg/config"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/surface"
)

func (g *globals) validate() error {
	switch g.output {
	case surface.FormatText, surface.FormatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", g.output)
	}
}

func (g *globals) renderer(cmd *cobra.Command) surface.Renderer {
	return surface.New(cmd.OutOrStdout(), g.output)
}

// loadConfig reads --config when given, otherwise the nearest
// .mtslab/config.yaml. A discovered file that fails to load falls back to
// defaults with a warning; an explicit one is an error.
func (g *globals) loadConfig() (*config.Config, error) {
	if g.configPath != "" {
		if _, err := os.Stat(g.configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return config.Load(g.configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.DefaultConfig(), nil
	}
	cfgFile := config.FindConfigFile(wd)
	if cfgFile == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		return config.DefaultConfig(), nil
	}
	return cfg, nil
}

// loadRegistry opens the configured library source and validates it.
func (g *globals) loadRegistry(ctx context.Context) (*config.Config, *library.Registry, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	src, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening library source: %w", err)
	}
	reg, err := src.LoadRegistry(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}
