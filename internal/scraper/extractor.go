package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"empresascan/internal/model"
)

// Field label patterns, matched against folded <strong> text.
// The directory varies accents and spacing; folding plus these patterns
// covers every variant observed so far.
var (
	labelName      = regexp.MustCompile(`^denominacion`)
	labelDUNS      = regexp.MustCompile(`^numero\s*d-u-n-s`)
	labelCNAE      = regexp.MustCompile(`^actividad\s*cnae`)
	labelLegalForm = regexp.MustCompile(`^forma\s*juridica`)
)

// Exact-match labels (after folding).
const (
	labelCIF     = "cif"
	labelAddress = "domicilio social"
)

// Extractor parses company detail pages into model.Company records.
// It is stateless and safe for concurrent use.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses the detail-page body for the given company ID.
// Missing labels produce empty fields, never errors; only unparseable
// HTML fails. The returned record always carries the ID and URL.
func (e *Extractor) Extract(companyID, pageURL string, body []byte) (*model.Company, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse detail page for %s: %w", companyID, err)
	}

	company := &model.Company{
		ID:        companyID,
		DetailURL: pageURL,
		ScrapedAt: time.Now(),
	}

	doc.Find("strong").Each(func(_ int, sel *goquery.Selection) {
		label := foldLabel(sel.Text())
		if label == "" || len(sel.Nodes) == 0 {
			return
		}
		node := sel.Nodes[0]

		switch {
		case labelName.MatchString(label):
			setIfEmpty(&company.Name, siblingText(node))
		case label == labelCIF:
			setIfEmpty(&company.CIF, siblingText(node))
		case labelDUNS.MatchString(label):
			setIfEmpty(&company.DUNS, siblingText(node))
		case labelCNAE.MatchString(label):
			setIfEmpty(&company.CNAE, siblingText(node))
		case labelLegalForm.MatchString(label):
			setIfEmpty(&company.LegalForm, siblingText(node))
		case label == labelAddress:
			if a := nextAnchor(node); a != nil {
				setIfEmpty(&company.Address, nodeText(a))
			}
		}
	})

	return company, nil
}

// setIfEmpty assigns value to dst only if dst is empty and value is not.
// Detail pages occasionally repeat a label; the first occurrence wins.
func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

// siblingText returns the trimmed text of the node immediately following
// the label element. Values sit as bare text nodes right after their
// <strong> label.
func siblingText(n *html.Node) string {
	sib := n.NextSibling
	if sib == nil || sib.Type != html.TextNode {
		return ""
	}
	return strings.TrimSpace(sib.Data)
}

// nextAnchor returns the first <a> element after n in document order,
// or nil if none exists.
func nextAnchor(n *html.Node) *html.Node {
	for cur := nextNode(n); cur != nil; cur = nextNode(cur) {
		if cur.Type == html.ElementNode && cur.Data == "a" {
			return cur
		}
	}
	return nil
}

// nextNode advances one step in document order: first child, then next
// sibling, then the next sibling of the closest ancestor that has one.
func nextNode(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// nodeText returns the trimmed concatenated text of a node's subtree.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			sb.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
