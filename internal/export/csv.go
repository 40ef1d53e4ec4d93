package export

import (
	"encoding/csv"
	"io"

	"empresascan/internal/model"
)

// CSVWriter outputs company records as CSV.
// This is the canonical export format; the column order is stable and
// documented in model.CSVHeader.
type CSVWriter struct {
	baseWriter

	// comma is the field delimiter. Defaults to ','.
	comma rune
}

// CSVWriterOption configures a CSVWriter.
type CSVWriterOption func(*CSVWriter)

// WithComma sets the field delimiter.
// Useful for consumers that expect semicolon-separated values, which is
// common for spreadsheets configured for Spanish locales.
func WithComma(comma rune) CSVWriterOption {
	return func(w *CSVWriter) {
		w.comma = comma
	}
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer, opts ...CSVWriterOption) *CSVWriter {
	w := &CSVWriter{
		baseWriter: newBaseWriter(output),
		comma:      ',',
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report's companies as CSV.
func (w *CSVWriter) Write(report *model.ScrapeReport) (int, error) {
	return w.WriteCompanies(report.Companies)
}

// WriteCompanies outputs the records as CSV with a header row.
// Rows follow the order of the slice, which the pipeline keeps in
// first-seen ID order.
func (w *CSVWriter) WriteCompanies(companies []*model.Company) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)
	cw.Comma = w.comma

	if err := cw.Write(model.CSVHeader()); err != nil {
		return counter.n, err
	}
	for _, c := range companies {
		if err := cw.Write(c.CSVRecord()); err != nil {
			return counter.n, err
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}

// countingWriter counts bytes written through it so Write can report
// its byte count like the other writers.
type countingWriter struct {
	w io.Writer
	n int
}

// Write implements io.Writer.
func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
