package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The scraping defaults mirror the behavior the einforma.com directory
// tolerates well; the politeness settings are deliberately conservative.
const (
	// DefaultListingURL is the paginated search-results URL.
	// The %d verb is replaced with the 1-based page number.
	DefaultListingURL = "https://www.einforma.com/rapp/resultados-busqueda/autonomos?type=AUTONOMOS&page=%d"

	// DefaultDetailURL is the company detail-page URL.
	// The %s verb is replaced with the company ID.
	DefaultDetailURL = "https://www.einforma.com/rapp/ficha/empresas?id=%s"

	// DefaultDetailLinkPattern matches hrefs pointing at company detail
	// pages on listing pages. Links matching this pattern carry the
	// company ID in their "id" query parameter.
	DefaultDetailLinkPattern = `/rapp/ficha/empresas\?id=`

	// DefaultDelay is the politeness delay between requests. One second
	// keeps the request rate well below anything resembling abuse.
	DefaultDelay = 1 * time.Second

	// DefaultTimeout is the per-request timeout. Directory pages are
	// small and served from a CDN; 10 seconds is generous.
	DefaultTimeout = 10 * time.Second

	// DefaultRetries is the number of retries after a failed request.
	// Combined with DefaultRetryBackoff this gives waits of 0.5s, 1s, 2s.
	DefaultRetries = 3

	// DefaultRetryBackoff is the base wait before the first retry.
	// Each subsequent retry doubles it.
	DefaultRetryBackoff = 500 * time.Millisecond

	// DefaultMaxPages of 0 means walk the pagination until a page yields
	// no results. The directory ends pagination naturally, so unbounded
	// is the normal mode; set a limit for sampling or testing.
	DefaultMaxPages = 0

	// DefaultConcurrency is the number of detail pages fetched in
	// parallel. Low on purpose: each worker already waits DefaultDelay
	// between its own requests.
	DefaultConcurrency = 4

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is far above any directory page while bounding memory use.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent is a browser User-Agent. The directory serves a
	// reduced page to clients it does not recognize as browsers.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/90.0.4430.93 Safari/537.36"

	// AppName is the application name used for XDG directory paths.
	AppName = "empresascan"
)

// Config holds all options for a scrape run.
// It is populated from CLI flags and the optional YAML file and passed
// through the application via dependency injection.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// ListingURL is the fmt template for listing pages (%d = page number).
	ListingURL string

	// DetailURL is the fmt template for detail pages (%s = company ID).
	DetailURL string

	// DetailLinkPattern is the regexp matched against hrefs on listing
	// pages to recognize detail-page links.
	DetailLinkPattern string

	// Delay is the politeness delay between requests.
	Delay time.Duration

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Retries is the number of retries on retryable failures
	// (connection errors and HTTP 500/502/503/504).
	Retries int

	// RetryBackoff is the base wait before the first retry; each
	// subsequent retry doubles the wait.
	RetryBackoff time.Duration

	// MaxPages limits the number of listing pages to walk.
	// 0 means walk until the pagination ends.
	MaxPages int

	// Concurrency is the number of detail pages scraped in parallel.
	Concurrency int

	// MaxBodySize limits the size of response bodies to read.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Verbose enables slog.LevelDebug output.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONExport selects JSON output instead of CSV.
	// Mutually exclusive with MarkdownExport.
	JSONExport bool

	// MarkdownExport selects Markdown output instead of CSV.
	// Mutually exclusive with JSONExport.
	MarkdownExport bool

	// OutputFile is the export destination. Empty means stdout.
	// Parent directories are created automatically.
	OutputFile string

	// ConfigFilePath is the path to the YAML configuration file.
	// Empty means search the current directory and then the home
	// directory for .empresascan.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the config file.
	SiteConfigs *File

	// SaveToDB controls whether the run is persisted to SQLite.
	SaveToDB bool

	// DBDir is the directory for the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string
}

// NewConfig returns a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		ListingURL:        DefaultListingURL,
		DetailURL:         DefaultDetailURL,
		DetailLinkPattern: DefaultDetailLinkPattern,
		Delay:             DefaultDelay,
		Timeout:           DefaultTimeout,
		Retries:           DefaultRetries,
		RetryBackoff:      DefaultRetryBackoff,
		MaxPages:          DefaultMaxPages,
		Concurrency:       DefaultConcurrency,
		MaxBodySize:       DefaultMaxBodySize,
		UserAgent:         DefaultUserAgent,
		SaveToDB:          true,
		DBDir:             XDGDataDir(),
	}
}

// Validate checks the configuration for invalid values.
// It returns the first problem found as one of the package sentinel errors.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONExport && c.MarkdownExport {
		return ErrConflictingExportFormats
	}
	if !strings.Contains(c.ListingURL, "%d") {
		return fmt.Errorf("%w: missing %%d page verb in %q", ErrInvalidListingURL, c.ListingURL)
	}
	if !strings.Contains(c.DetailURL, "%s") {
		return fmt.Errorf("%w: missing %%s id verb in %q", ErrInvalidDetailURL, c.DetailURL)
	}
	if _, err := url.Parse(fmt.Sprintf(c.ListingURL, 1)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidListingURL, err)
	}
	if _, err := url.Parse(fmt.Sprintf(c.DetailURL, "x")); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDetailURL, err)
	}
	return nil
}

// SourceHost returns the host of the listing URL. It identifies the
// directory in reports, the database, and per-host site configs.
func (c *Config) SourceHost() string {
	u, err := url.Parse(fmt.Sprintf(c.ListingURL, 1))
	if err != nil {
		return ""
	}
	return u.Host
}

// XDGDataDir returns the XDG data directory for empresascan
// (~/.local/share/empresascan on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
