// Package export writes scraped company records in the supported output
// formats.
//
// CSV is the canonical format (column order: id, name, cif, duns, cnae,
// legal_form, address). JSON carries the full report for tool integration.
// Markdown produces a shareable summary with the records as a table.
//
// All writers implement the Writer interface; MultiWriter fans one report
// out to several destinations, such as a file and the terminal.
package export
