package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrInvalidTimeout is returned when the request timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidRetries is returned when the retry count is negative.
	// Use 0 to disable retries.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidConcurrency is returned when the detail-scrape concurrency
	// is not positive. Zero workers would stall the run.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxPages is returned when the listing page limit is
	// negative. Use 0 to walk the pagination until it ends.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingExportFormats is returned when both --json and
	// --markdown are specified. Only one export format can be used at a time.
	ErrConflictingExportFormats = errors.New("conflicting export formats: --json and --markdown cannot be used together")

	// ErrInvalidListingURL is returned when the listing URL template does
	// not parse or lacks the %d page verb.
	ErrInvalidListingURL = errors.New("invalid listing URL template")

	// ErrInvalidDetailURL is returned when the detail URL template does
	// not parse or lacks the %s id verb.
	ErrInvalidDetailURL = errors.New("invalid detail URL template")
)
