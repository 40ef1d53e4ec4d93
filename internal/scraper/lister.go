package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"empresascan/internal/client"
	"empresascan/internal/model"
)

// Lister walks the paginated search results and collects company IDs.
//
// Pagination ends when a page yields no detail links, when the page
// limit is reached, or when a listing fetch fails after all retries.
// A mid-walk failure keeps the IDs collected so far: partial data beats
// no data for a long pagination walk.
type Lister struct {
	// client performs the HTTP requests.
	client *client.Client

	// listingURL is the fmt template for listing pages (%d = page number).
	listingURL string

	// linkPattern matches hrefs pointing at detail pages.
	linkPattern *regexp.Regexp

	// maxPages limits the walk. 0 means walk until the pagination ends.
	maxPages int

	// delay is the politeness wait between listing requests.
	delay time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// ListerOption configures a Lister.
type ListerOption func(*Lister)

// WithMaxPages limits the number of listing pages to walk.
// 0 (the default) walks until the pagination ends.
func WithMaxPages(n int) ListerOption {
	return func(l *Lister) {
		if n >= 0 {
			l.maxPages = n
		}
	}
}

// WithDelay sets the politeness wait between listing requests.
func WithDelay(d time.Duration) ListerOption {
	return func(l *Lister) {
		if d >= 0 {
			l.delay = d
		}
	}
}

// WithListerLogger sets a custom logger.
func WithListerLogger(logger *slog.Logger) ListerOption {
	return func(l *Lister) {
		l.logger = logger
	}
}

// NewLister creates a Lister for the given listing URL template and
// detail-link pattern.
func NewLister(c *client.Client, listingURL, linkPattern string, opts ...ListerOption) (*Lister, error) {
	re, err := regexp.Compile(linkPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid detail link pattern: %w", err)
	}

	l := &Lister{
		client:      c,
		listingURL:  listingURL,
		linkPattern: re,
		maxPages:    0,
		delay:       1 * time.Second,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// ListResult holds the outcome of a pagination walk.
type ListResult struct {
	// CompanyIDs are the deduplicated IDs in first-seen order.
	CompanyIDs []string

	// PagesListed is the number of listing pages fetched successfully.
	PagesListed int

	// Stopped carries the fetch error that ended the walk early,
	// or nil if the pagination ended naturally.
	Stopped error
}

// List walks the pagination starting at page 1 and returns the collected
// company IDs. Only context cancellation is returned as an error; fetch
// failures end the walk and are reported in ListResult.Stopped.
func (l *Lister) List(ctx context.Context) (*ListResult, error) {
	result := &ListResult{CompanyIDs: make([]string, 0)}
	seen := make(map[string]bool)

	for page := 1; ; page++ {
		if l.maxPages > 0 && page > l.maxPages {
			l.logger.Debug("page limit reached", "maxPages", l.maxPages)
			break
		}

		pageURL := fmt.Sprintf(l.listingURL, page)
		l.logger.Debug("fetching listing page", "url", pageURL, "page", page)

		fetched, err := l.client.Get(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			l.logger.Warn("listing page failed, stopping pagination",
				"page", page,
				"error", err,
			)
			result.Stopped = err
			break
		}
		result.PagesListed++

		ids, err := l.extractIDs(fetched)
		if err != nil {
			l.logger.Warn("listing page unparseable, stopping pagination",
				"page", page,
				"error", err,
			)
			result.Stopped = err
			break
		}

		if len(ids) == 0 {
			l.logger.Debug("no results on page, end of pagination", "page", page)
			break
		}

		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				result.CompanyIDs = append(result.CompanyIDs, id)
			}
		}

		l.logger.Info("listing page collected",
			"page", page,
			"uniqueIDs", len(result.CompanyIDs),
		)

		// Politeness delay before the next page
		if l.delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(l.delay):
			}
		}
	}

	return result, nil
}

// extractIDs pulls company IDs out of the detail links on one listing page.
func (l *Lister) extractIDs(page *model.Page) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	ids := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || !l.linkPattern.MatchString(href) {
			return
		}

		raw := idFromHref(href)
		if raw == "" {
			return
		}

		id, err := model.NormalizeCompanyID(raw)
		if err != nil {
			l.logger.Debug("skipping malformed company id", "href", href, "error", err)
			return
		}
		ids = append(ids, id)
	})

	return ids, nil
}

// idQueryFallback extracts the id value when the href does not parse as
// a URL. Listing pages sometimes emit hrefs with stray characters.
var idQueryFallback = regexp.MustCompile(`id=([^&]+)`)

// idFromHref extracts the "id" query parameter from a detail link and
// returns it percent-decoded. Decoding happens exactly once: Query()
// already decodes on the primary path, and the regex fallback decodes
// its raw match here. NormalizeCompanyID receives the decoded value.
func idFromHref(href string) string {
	if u, err := url.Parse(href); err == nil {
		if id := u.Query().Get("id"); id != "" {
			return id
		}
	}
	if m := idQueryFallback.FindStringSubmatch(href); m != nil {
		if decoded, err := url.QueryUnescape(m[1]); err == nil {
			return decoded
		}
		return m[1]
	}
	return ""
}
