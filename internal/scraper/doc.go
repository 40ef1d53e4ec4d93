// Package scraper extracts company data from directory pages.
//
// # Components
//
//   - Lister: walks the paginated search results and collects company IDs
//     from detail-page links
//   - Extractor: parses a company detail page and pulls the registry
//     fields out of its label/value markup
//
// # Extraction model
//
// Detail pages label each field with a <strong> element ("Denominación",
// "CIF", "Número D-U-N-S", ...) followed by the value as a bare text node,
// except the registered address, which lives in the first <a> after the
// "Domicilio Social" label. Labels are matched after folding accents so
// that "Denominación" and "Denominacion" both hit; the site has served
// both over time.
//
// Design decision: We use goquery for traversal because the label/value
// markup is positional, not structural. Selector-based lookup plus raw
// node-sibling access is much clearer than walking the html.Node tree by
// hand, and goquery handles the malformed HTML these pages ship.
package scraper
