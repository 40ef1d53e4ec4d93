package model

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyCompanyID is returned when a company ID is empty after normalization.
var ErrEmptyCompanyID = errors.New("empty company id")

// ErrInvalidCompanyID is returned when a company ID contains embedded
// whitespace, which a single query value cannot carry.
var ErrInvalidCompanyID = errors.New("invalid company id")

// Company is one business record scraped from a directory detail page.
//
// All registry fields are optional: directory pages frequently omit labels,
// and a missing label produces an empty field rather than an error. Only ID
// is guaranteed to be set.
type Company struct {
	// ID is the directory's opaque identifier for the company, extracted
	// from the "id" query parameter of the detail-page link.
	ID string `json:"id"`

	// Name is the registered company name (label "Denominación").
	Name string `json:"name,omitempty"`

	// CIF is the Spanish tax identification code (label "CIF").
	CIF string `json:"cif,omitempty"`

	// DUNS is the Dun & Bradstreet number (label "Número D-U-N-S").
	DUNS string `json:"duns,omitempty"`

	// CNAE is the national economic activity classification
	// (label "Actividad CNAE").
	CNAE string `json:"cnae,omitempty"`

	// LegalForm is the legal form of the company (label "Forma Jurídica").
	LegalForm string `json:"legal_form,omitempty"`

	// Address is the registered address (label "Domicilio Social").
	Address string `json:"address,omitempty"`

	// DetailURL is the URL the record was scraped from.
	DetailURL string `json:"detail_url,omitempty"`

	// ScrapedAt is when the detail page was fetched.
	ScrapedAt time.Time `json:"scraped_at,omitempty"`
}

// CSVHeader returns the column names for CSV export.
// The column order is part of the export contract and must stay stable:
// downstream consumers key on column position.
func CSVHeader() []string {
	return []string{"id", "name", "cif", "duns", "cnae", "legal_form", "address"}
}

// CSVRecord returns the company's fields in CSVHeader order.
func (c *Company) CSVRecord() []string {
	return []string{c.ID, c.Name, c.CIF, c.DUNS, c.CNAE, c.LegalForm, c.Address}
}

// IsEmpty reports whether no registry field was extracted.
// Such records usually indicate a layout change on the directory site.
func (c *Company) IsEmpty() bool {
	return c.Name == "" && c.CIF == "" && c.DUNS == "" &&
		c.CNAE == "" && c.LegalForm == "" && c.Address == ""
}

// NormalizeCompanyID validates a company ID extracted from a listing
// link. The caller hands in the percent-decoded query value; this
// function must not decode again, or IDs containing "+" or "%" would be
// corrupted. It trims surrounding whitespace and rejects embedded
// whitespace, keeping the ID otherwise opaque.
func NormalizeCompanyID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrEmptyCompanyID
	}

	// IDs travel as single query values; embedded whitespace means the
	// href was malformed or truncated.
	if strings.ContainsAny(id, " \t\r\n") {
		return "", ErrInvalidCompanyID
	}

	return id, nil
}
