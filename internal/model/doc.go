// Package model defines the core data structures shared across empresascan.
//
// The central type is Company, one scraped business-registry record from a
// directory detail page. ScrapeReport accumulates the result of a full run
// (listing walk plus detail scraping) and is what the pipeline steps, the
// database layer, and the exporters all operate on.
//
// Design decision: We keep models in a dedicated package rather than
// spreading them across the packages that produce them because:
//  1. The scraper, database, and export packages all need the same types
//  2. It avoids import cycles between those packages
//  3. Serialization tags live in one place
package model
