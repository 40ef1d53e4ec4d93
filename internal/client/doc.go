// Package client provides the retrying HTTP client used for all directory
// requests.
//
// # Retry policy
//
// Connection errors and the transient server statuses 500, 502, 503, and
// 504 are retried with exponential backoff (base 500ms: 0.5s, 1s, 2s for
// the default three retries). Every request is a plain GET, so re-issuing
// it is always safe. Client errors (4xx) are never retried: the directory uses 403
// and 429 deliberately, and hammering it would only make things worse.
//
// # Decoding
//
// Response bodies are decoded to UTF-8 using the charset declared in the
// Content-Type header or sniffed from the document. Spanish directory
// pages still occasionally arrive as ISO-8859-1.
package client
