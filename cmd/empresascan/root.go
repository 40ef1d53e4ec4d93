package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for empresascan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "empresascan",
		Short: "Scraper for the einforma.com business directory",
		Long: `empresascan collects company records from the public einforma.com
business directory for autónomos (Spanish sole traders).

It walks the search-result pagination to gather company IDs, scrapes each
detail page for registry fields (name, CIF, DUNS, CNAE, legal form,
address), stores the run in a local SQLite database, and exports the
records as CSV, JSON, or Markdown.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
