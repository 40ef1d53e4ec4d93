package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"empresascan/internal/client"
	"empresascan/internal/database"
	"empresascan/internal/model"
	"empresascan/internal/scraper"
)

// ListStep walks the search-result pagination and fills the report with
// the collected company IDs.
type ListStep struct {
	// lister performs the pagination walk.
	lister *scraper.Lister

	// logger for structured logging.
	logger *slog.Logger
}

// NewListStep creates a listing step around the given Lister.
func NewListStep(lister *scraper.Lister, logger *slog.Logger) *ListStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListStep{lister: lister, logger: logger}
}

// Name returns the step name.
func (s *ListStep) Name() string {
	return "list_companies"
}

// Do executes the listing walk.
// A walk that stopped on a fetch failure is not a step failure: the IDs
// collected before the failure are kept and the run continues.
func (s *ListStep) Do(ctx context.Context, report *model.ScrapeReport) error {
	result, err := s.lister.List(ctx)
	if result != nil {
		report.CompanyIDs = result.CompanyIDs
		report.PagesListed = result.PagesListed
	}
	if err != nil {
		return err
	}

	if result.Stopped != nil {
		s.logger.Warn("pagination stopped early",
			"pagesListed", result.PagesListed,
			"idsCollected", len(result.CompanyIDs),
			"cause", result.Stopped,
		)
	}

	s.logger.Info("listing complete",
		"pagesListed", report.PagesListed,
		"companyIDs", len(report.CompanyIDs),
	)
	return nil
}

// DetailStep scrapes the detail page of every company ID in the report.
//
// Design decision: We use errgroup.SetLimit rather than a hand-rolled
// worker pool because it's simpler and errgroup handles the concurrency
// correctly. Each company gets its own goroutine, but only 'concurrency'
// goroutines run simultaneously, and each goroutine still observes the
// politeness delay after its request.
type DetailStep struct {
	// client performs the HTTP requests.
	client *client.Client

	// extractor parses detail pages.
	extractor *scraper.Extractor

	// detailURL is the fmt template for detail pages (%s = company ID).
	detailURL string

	// concurrency bounds the number of parallel detail fetches.
	concurrency int

	// delay is the politeness wait each worker observes after a request.
	delay time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// DetailStepOption configures a DetailStep.
type DetailStepOption func(*DetailStep)

// WithConcurrency sets the number of parallel detail fetches.
func WithConcurrency(n int) DetailStepOption {
	return func(s *DetailStep) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithDetailDelay sets the politeness wait after each detail request.
func WithDetailDelay(d time.Duration) DetailStepOption {
	return func(s *DetailStep) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithDetailLogger sets a custom logger.
func WithDetailLogger(logger *slog.Logger) DetailStepOption {
	return func(s *DetailStep) {
		s.logger = logger
	}
}

// NewDetailStep creates a detail-scrape step.
func NewDetailStep(c *client.Client, detailURL string, opts ...DetailStepOption) *DetailStep {
	s := &DetailStep{
		client:      c,
		extractor:   scraper.NewExtractor(),
		detailURL:   detailURL,
		concurrency: 4,
		delay:       1 * time.Second,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DetailStep) Name() string {
	return "scrape_details"
}

// Do scrapes all detail pages.
// Individual failures are recorded in the report and do not fail the
// step; only cancellation aborts it. Results keep the first-seen ID
// order regardless of which goroutine finished first.
func (s *DetailStep) Do(ctx context.Context, report *model.ScrapeReport) error {
	if len(report.CompanyIDs) == 0 {
		s.logger.Info("no company IDs to scrape")
		return nil
	}

	// Pre-allocate to keep result order independent of completion order.
	results := make([]*model.Company, len(report.CompanyIDs))
	var mu sync.Mutex
	failed := make(map[int]string)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range report.CompanyIDs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			company, err := s.scrapeOne(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("detail scrape failed",
					"companyID", id,
					"error", err,
				)
				mu.Lock()
				failed[i] = id
				mu.Unlock()
				return nil
			}

			mu.Lock()
			results[i] = company
			mu.Unlock()

			// Politeness delay before this worker picks up the next ID
			if s.delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.delay):
				}
			}
			return nil
		})
	}

	err := g.Wait()

	// Keep partial results in order even when cancelled.
	for i, id := range report.CompanyIDs {
		if c := results[i]; c != nil {
			report.AddCompany(c)
		} else if _, ok := failed[i]; ok {
			report.AddFailedID(id)
		}
	}

	if err != nil {
		report.TimedOut = true
		return err
	}

	s.logger.Info("detail scraping complete",
		"scraped", len(report.Companies),
		"failed", report.DetailFailures(),
	)
	return nil
}

// scrapeOne fetches and parses one detail page.
// The ID is percent-encoded into the URL; IDs are stored decoded, so
// reserved characters ("+", "&", "/") must be re-escaped here.
func (s *DetailStep) scrapeOne(ctx context.Context, id string) (*model.Company, error) {
	detailURL := fmt.Sprintf(s.detailURL, url.QueryEscape(id))
	s.logger.Debug("fetching detail page", "url", detailURL, "companyID", id)

	page, err := s.client.Get(ctx, detailURL)
	if err != nil {
		return nil, err
	}

	company, err := s.extractor.Extract(id, detailURL, page.Body)
	if err != nil {
		return nil, err
	}

	if company.IsEmpty() {
		s.logger.Warn("no fields extracted from detail page; site layout may have changed",
			"companyID", id,
		)
	}
	return company, nil
}

// PersistStep saves the run and its companies to the database.
type PersistStep struct {
	// db is the scrape database.
	db *database.ScrapeDB

	// logger for structured logging.
	logger *slog.Logger
}

// NewPersistStep creates a persistence step.
func NewPersistStep(db *database.ScrapeDB, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{db: db, logger: logger}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist_run"
}

// Do saves the report. The run is stamped finished before saving so the
// stored report carries its duration.
func (s *PersistStep) Do(ctx context.Context, report *model.ScrapeReport) error {
	report.Finish()

	runID, err := s.db.SaveRun(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}

	s.logger.Info("run persisted",
		"runID", runID,
		"companies", len(report.Companies),
		"dbPath", s.db.Path(),
	)
	return nil
}
