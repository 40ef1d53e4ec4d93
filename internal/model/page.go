package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MaxPageSize is the maximum size of page content to retain.
// Larger bodies are truncated to this size. Directory pages are small;
// the limit protects against unexpectedly large responses.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Page represents one fetched web page.
//
// Design decision: We keep the decoded body together with the response
// metadata because:
//  1. The extractor needs the body, the database needs the metadata
//  2. The hash allows change detection across runs
//  3. A single struct keeps the client's return type simple
type Page struct {
	// URL is the full URL the page was fetched from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type"`

	// Headers contains all HTTP response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the response body decoded to UTF-8.
	// Limited to MaxPageSize bytes.
	Body []byte `json:"-"` // Excluded from JSON to keep reports small

	// Hash is the SHA-256 hash of the body.
	// Used for change detection between runs.
	Hash string `json:"hash,omitempty"`

	// FetchedAt is when the response was received.
	FetchedAt time.Time `json:"fetched_at"`

	// Attempts is the number of HTTP attempts the fetch took,
	// including retries.
	Attempts int `json:"attempts,omitempty"`
}

// ComputeHash calculates and stores the SHA-256 hash of the body.
func (p *Page) ComputeHash() {
	sum := sha256.Sum256(p.Body)
	p.Hash = hex.EncodeToString(sum[:])
}

// TruncateBody limits the body to MaxPageSize bytes.
func (p *Page) TruncateBody() {
	if len(p.Body) > MaxPageSize {
		p.Body = p.Body[:MaxPageSize]
	}
}
