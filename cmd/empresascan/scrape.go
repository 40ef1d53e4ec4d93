package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"empresascan/internal/client"
	"empresascan/internal/config"
	"empresascan/internal/database"
	"empresascan/internal/export"
	applog "empresascan/internal/log"
	"empresascan/internal/model"
	"empresascan/internal/pipeline"
	"empresascan/internal/scraper"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the business directory and export the records",
		Long: `Scrape walks the einforma.com search-result pagination for autónomos,
collects the company IDs from detail-page links, scrapes each detail page
for registry fields, persists the run to a local SQLite database, and
exports the records.

The export goes to stdout unless --output is given. CSV is the default
format; use --json or --markdown for the alternatives.

Examples:
  # Full scrape, CSV to stdout
  empresascan scrape

  # Sample the first five listing pages into a file
  empresascan scrape --max-pages 5 -o empresas.csv

  # JSON report including run metadata
  empresascan scrape --json -o empresas.json

  # Slow down and use a session cookie from a config file
  empresascan scrape --delay 3s -c myconfig.yaml

Configuration file (.empresascan) example:
  sites:
    www.einforma.com:
      cookie: "JSESSIONID=abc123"
      headers:
        Referer: "https://www.einforma.com/"`,
		Args: cobra.NoArgs,
		RunE: runScrapeCmd,
	}

	// Scrape behavior flags
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Politeness delay between requests")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of listing pages to walk (0 = until pagination ends)")
	cmd.Flags().IntP("retries", "r", config.DefaultRetries,
		"Number of retries on transient failures")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of detail pages scraped in parallel")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .empresascan in current or home directory)")

	// Export flags
	cmd.Flags().BoolP("json", "j", false,
		"Export JSON instead of CSV (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Export Markdown instead of CSV (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the export to the specified file path (default: stdout)")

	// Storage flags
	cmd.Flags().Bool("no-db", false,
		"Skip persisting the run to the SQLite database")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with credential masking
	verbose := getVerboseFlag(cmd)
	logger := applog.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScrape(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Retries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-host configurations from the config file.
	// If the user explicitly specified a config file path, error if not
	// found. If no path specified, silently use empty config.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONExport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownExport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	// Apply per-host overrides from the config file
	applySiteConfig(cfg)

	return cfg, nil
}

// applySiteConfig folds the host's config-file settings into cfg.
// CLI flags still win where both are set because the flag values were
// already copied in; only delay and page-limit overrides from the file
// replace defaults the user didn't touch.
func applySiteConfig(cfg *config.Config) {
	site := cfg.SiteConfigs.GetSiteConfig(cfg.SourceHost())
	if site.DelaySeconds > 0 && cfg.Delay == config.DefaultDelay {
		cfg.Delay = time.Duration(site.DelaySeconds * float64(time.Second))
	}
	if site.MaxPages > 0 && cfg.MaxPages == config.DefaultMaxPages {
		cfg.MaxPages = site.MaxPages
	}
}

// runScrape executes the scrape run.
func runScrape(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	source := cfg.SourceHost()
	logger.Info("starting scrape",
		"source", source,
		"delay", cfg.Delay,
		"maxPages", cfg.MaxPages,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	// Build the HTTP client with per-host credentials
	site := cfg.SiteConfigs.GetSiteConfig(source)
	httpClient := client.New(cfg.Timeout,
		client.WithUserAgent(cfg.UserAgent),
		client.WithRetries(cfg.Retries),
		client.WithBackoff(cfg.RetryBackoff),
		client.WithMaxBodySize(cfg.MaxBodySize),
		client.WithHeaders(site.Headers),
		client.WithCookie(site.Cookie),
		client.WithLogger(logger),
	)

	lister, err := scraper.NewLister(httpClient, cfg.ListingURL, cfg.DetailLinkPattern,
		scraper.WithMaxPages(cfg.MaxPages),
		scraper.WithDelay(cfg.Delay),
		scraper.WithListerLogger(logger),
	)
	if err != nil {
		return err
	}

	// Assemble the pipeline
	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewListStep(lister, logger))
	p.AddStep(pipeline.NewDetailStep(httpClient, cfg.DetailURL,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithDetailDelay(cfg.Delay),
		pipeline.WithDetailLogger(logger),
	))

	var db *database.ScrapeDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
		p.AddStep(pipeline.NewPersistStep(db, logger))
	}

	report := model.NewScrapeReport(source)
	execErr := p.Execute(ctx, report)
	report.Finish()

	// Export whatever was collected, even after cancellation: partial
	// data from a long run is still worth keeping.
	if err := writeExport(cfg, report); err != nil {
		return err
	}

	logger.Info("scrape finished",
		"companies", len(report.Companies),
		"failures", report.DetailFailures(),
		"duration", report.Duration().Round(time.Second),
	)

	return execErr
}

// writeExport writes the report in the configured format and destination.
func writeExport(cfg *config.Config, report *model.ScrapeReport) error {
	out, closeFn, err := openOutput(cfg.OutputFile)
	if err != nil {
		return err
	}
	defer closeFn()

	var writer export.Writer
	switch {
	case cfg.JSONExport:
		writer = export.NewJSONWriter(out, export.WithPrettyPrint())
	case cfg.MarkdownExport:
		writer = export.NewMarkdownWriter(out)
	default:
		writer = export.NewCSVWriter(out)
	}

	if _, err := writer.Write(report); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// openOutput returns the export destination. An empty path means stdout.
// Parent directories are created automatically.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
