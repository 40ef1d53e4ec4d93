// Package database provides SQLite-backed persistence for scrape runs.
//
// Two tables carry the data:
//
//   - runs: one row per scrape run with summary counters and the full
//     report serialized as JSON
//   - companies: the scraped records, upserted by company ID so that
//     re-scrapes refresh fields in place
//
// The export command reads stored runs back, so a scrape and its export
// can be separated in time.
//
// Design decision: We use modernc.org/sqlite (pure Go, no cgo) because it
// keeps the binary cross-compilable and the container image simple. A
// single database file in the XDG data directory holds all runs.
package database
