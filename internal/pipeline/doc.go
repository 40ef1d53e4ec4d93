// Package pipeline orchestrates the steps of a scrape run.
//
// A run is a sequence of named Steps executed over a shared
// *model.ScrapeReport:
//
//  1. ListStep walks the search-result pagination and collects company IDs
//  2. DetailStep scrapes each company's detail page, bounded by an
//     errgroup concurrency limit
//  3. PersistStep saves the run and its records to SQLite
//
// Steps accumulate into the report rather than returning values, so a
// cancelled run still carries its partial results to the exporters.
package pipeline
