package model

import (
	"time"
)

// ScrapeReport is the result of one full scrape run: the listing walk
// that collected company IDs plus the detail scrape of each company.
//
// Design decision: We use a single accumulating struct rather than
// returning values step by step because:
//  1. Pipeline steps hand the same report to each other
//  2. Serialization to the database and exporters is one marshal away
//  3. Partial results survive cancellation and are still exportable
type ScrapeReport struct {
	// Source is the host of the directory being scraped.
	Source string `json:"source"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run completed or was aborted.
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// PagesListed is the number of listing pages fetched.
	PagesListed int `json:"pages_listed"`

	// CompanyIDs holds the deduplicated IDs in first-seen order.
	// Export order follows this slice.
	CompanyIDs []string `json:"company_ids"`

	// Companies holds the scraped records in first-seen ID order.
	Companies []*Company `json:"companies"`

	// FailedIDs lists companies whose detail page could not be fetched
	// or parsed. These do not fail the run.
	FailedIDs []string `json:"failed_ids,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut indicates that the run was cancelled before finishing.
	TimedOut bool `json:"timed_out,omitempty"`

	// Error holds the first critical error, if any.
	// Not serialized; ErrorMessage carries the text.
	Error error `json:"-"`

	// ErrorMessage is the text of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewScrapeReport creates a report for the given source host with the
// start time set to now.
func NewScrapeReport(source string) *ScrapeReport {
	return &ScrapeReport{
		Source:     source,
		StartedAt:  time.Now(),
		CompanyIDs: make([]string, 0),
		Companies:  make([]*Company, 0),
	}
}

// AddCompany appends a scraped record to the report.
func (r *ScrapeReport) AddCompany(c *Company) {
	r.Companies = append(r.Companies, c)
}

// AddFailedID records a company whose detail scrape failed.
func (r *ScrapeReport) AddFailedID(id string) {
	r.FailedIDs = append(r.FailedIDs, id)
}

// Finish stamps the end time on the report. Calling it again is a no-op,
// so steps and the command layer can both call it safely.
func (r *ScrapeReport) Finish() {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
}

// Duration returns the elapsed run time. If the run has not finished,
// it returns the time elapsed so far.
func (r *ScrapeReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// DetailFailures returns the number of failed detail scrapes.
func (r *ScrapeReport) DetailFailures() int {
	return len(r.FailedIDs)
}

// SetError records a critical error on the report.
// Only the first error is kept.
func (r *ScrapeReport) SetError(err error) {
	if r.Error != nil || err == nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}
