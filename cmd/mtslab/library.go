package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtslab/mtslab/internal/store"
	"github.com/mtslab/mtslab/pkg/library"
	"github.com/mtslab/mtslab/pkg/surface"
)

func newLibraryCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Browse, validate and publish the test library",
	}
	cmd.AddCommand(
		newLibraryListCmd(g),
		newLibraryShowCmd(g),
		newLibraryValidateCmd(g),
		newLibraryPublishCmd(g),
	)
	return cmd
}

func newLibraryListCmd(g *globals) *cobra.Command {
	var (
		query  string
		phases []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tests, optionally filtered by keyword and phase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := g.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			return g.renderer(cmd).Tests(cmd.OutOrStdout(), reg.Filter(query, phases))
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Keyword matched against name, category, equipment and summary")
	cmd.Flags().StringSliceVar(&phases, "phase", nil, "Lifecycle phase(s): Acceptance, Maintenance")
	return cmd
}

func newLibraryShowCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <test-id>",
		Short: "Show the learning card for a test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, reg, err := g.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			t, err := reg.Test(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "text":
				return g.renderer(cmd).Card(out, t)
			case "markdown", "md":
				_, err := fmt.Fprint(out, surface.CardMarkdown(t))
				return err
			case "html":
				page, err := surface.CardHTML(t)
				if err != nil {
					return fmt.Errorf("rendering card: %w", err)
				}
				_, err = out.Write(page)
				return err
			default:
				return fmt.Errorf("unknown card format %q (want text, markdown or html)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Card format: text, markdown or html")
	return cmd
}

func newLibraryValidateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a library document without loading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading library: %w", err)
			}
			reg, err := library.Parse(data)
			r := g.renderer(cmd)
			var verr *library.ValidationError
			switch {
			case errors.As(err, &verr):
				if rerr := r.Issues(cmd.OutOrStdout(), verr.Issues); rerr != nil {
					return rerr
				}
				return fmt.Errorf("%s: %d issue(s)", args[0], len(verr.Issues))
			case err != nil:
				return err
			}
			if err := r.Issues(cmd.OutOrStdout(), nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d tests, %d criteria\n", reg.Len(), len(reg.Entries()))
			return nil
		},
	}
}

func newLibraryPublishCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <file>",
		Short: "Validate a library document and upload it to the configured source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading library: %w", err)
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			src, err := store.Open(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("opening library source: %w", err)
			}
			reg, err := src.Publish(cmd.Context(), data)
			var verr *library.ValidationError
			if errors.As(err, &verr) {
				if rerr := g.renderer(cmd).Issues(cmd.OutOrStdout(), verr.Issues); rerr != nil {
					return rerr
				}
				return fmt.Errorf("refusing to publish %s: %d issue(s)", args[0], len(verr.Issues))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Published %d tests to %s\n", reg.Len(), src.Describe())
			return nil
		},
	}
}
