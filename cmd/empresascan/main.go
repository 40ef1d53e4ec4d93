// Package main provides the entry point for the empresascan CLI.
//
// empresascan scrapes the public einforma.com business directory for
// autónomos (Spanish sole traders): it walks the search-result pagination,
// scrapes each company detail page, and exports the collected records.
//
// Usage:
//
//	empresascan scrape
//	empresascan scrape --max-pages 5 --json -o empresas.json
//	empresascan export --run latest
//
// See --help for all available options.
package main

// main is the entry point for empresascan.
func main() {
	Execute()
}
