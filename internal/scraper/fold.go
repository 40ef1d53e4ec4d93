package scraper

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks: decompose, drop the marks,
// recompose. "Jurídica" becomes "Juridica".
var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// foldLabel normalizes a field label for matching: accents removed,
// whitespace collapsed, lowercased, trailing colon dropped. Matching
// folded labels tolerates the accent and spacing variations the
// directory has served over time.
func foldLabel(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.Join(strings.Fields(folded), " "))
	return strings.TrimSuffix(folded, ":")
}
