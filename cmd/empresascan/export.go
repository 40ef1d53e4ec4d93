package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"empresascan/internal/config"
	"empresascan/internal/database"
	"empresascan/internal/export"
	applog "empresascan/internal/log"
	"empresascan/internal/model"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Re-export a stored scrape run",
		Long: `Export reads a previously stored run from the local SQLite database and
writes its company records in the requested format. This separates the
slow scrape from downstream consumption: a run scraped once can be
exported as CSV, JSON, and Markdown without touching the directory again.

Examples:
  # Export the most recent run as CSV to stdout
  empresascan export

  # Export a specific run as Markdown to a file
  empresascan export --run 3 --markdown -o report.md

  # Export the current database rows for a run (see --companies below)
  empresascan export --run 3 --companies

  # Export a single stored company as JSON
  empresascan export --company B12345678 --json

  # List stored runs
  empresascan export --list`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("run", "r", "latest",
		"Run to export: a run ID or \"latest\"")
	cmd.Flags().Bool("list", false,
		"List stored runs instead of exporting")
	cmd.Flags().BoolP("json", "j", false,
		"Export JSON instead of CSV (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Export Markdown instead of CSV (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the export to the specified file path (default: stdout)")
	cmd.Flags().Bool("companies", false,
		"Export the run's company rows as currently stored in the database\n(re-scrapes refresh rows in place; the default export replays the\nrun's report as it was written)")
	cmd.Flags().String("company", "",
		"Export a single stored company by its directory ID")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	logger := applog.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	jsonExport, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownExport, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonExport && markdownExport {
		return config.ErrConflictingExportFormats
	}

	outputFile, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	// The database must already exist; export never creates one.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no stored runs found (run \"empresascan scrape\" first): %w", err)
	}
	defer db.Close()

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listRuns(cmd, db)
	}

	out, closeFn, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeFn()

	var writer export.Writer
	switch {
	case jsonExport:
		writer = export.NewJSONWriter(out, export.WithPrettyPrint())
	case markdownExport:
		writer = export.NewMarkdownWriter(out)
	default:
		writer = export.NewCSVWriter(out)
	}

	companyID, err := cmd.Flags().GetString("company")
	if err != nil {
		return err
	}
	if companyID != "" {
		return exportCompany(cmd, db, writer, companyID)
	}

	runID, err := resolveRunID(cmd, db)
	if err != nil {
		return err
	}

	companiesOnly, err := cmd.Flags().GetBool("companies")
	if err != nil {
		return err
	}
	if companiesOnly {
		companies, err := db.CompaniesByRun(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if _, err := writer.WriteCompanies(companies); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return nil
	}

	report, err := db.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}

	if _, err := writer.Write(report); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// exportCompany writes a single stored company record.
func exportCompany(cmd *cobra.Command, db *database.ScrapeDB, writer export.Writer, id string) error {
	c, err := db.GetCompany(cmd.Context(), id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("company %q not found in the database", id)
	}
	if _, err := writer.WriteCompanies([]*model.Company{c}); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// resolveRunID turns the --run flag into a run ID.
func resolveRunID(cmd *cobra.Command, db *database.ScrapeDB) (int64, error) {
	runFlag, err := cmd.Flags().GetString("run")
	if err != nil {
		return 0, err
	}

	if runFlag == "latest" || runFlag == "" {
		id, err := db.LatestRunID(cmd.Context())
		if errors.Is(err, database.ErrRunNotFound) {
			return 0, errors.New("no stored runs found (run \"empresascan scrape\" first)")
		}
		return id, err
	}

	id, err := strconv.ParseInt(runFlag, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid run id %q: expected a number or \"latest\"", runFlag)
	}
	return id, nil
}

// listRuns prints the stored runs, newest first.
func listRuns(cmd *cobra.Command, db *database.ScrapeDB) error {
	runs, err := db.ListRuns(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored runs.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-24s %-20s %10s %8s\n",
		"RUN", "SOURCE", "STARTED", "COMPANIES", "FAILED")
	for _, r := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%-6d %-24s %-20s %10d %8d\n",
			r.ID, r.Source, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.CompaniesScraped, r.DetailFailures)
	}
	return nil
}
