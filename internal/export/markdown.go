package export

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"empresascan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
//  1. Type-safe markdown generation
//  2. Support for tables, lists, and alerts
//  3. GitHub-flavored markdown output
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScrapeReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	writeCompanyTable(md, report.Companies)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

// WriteCompanies outputs only the company records as a Markdown table.
func (w *MarkdownWriter) WriteCompanies(companies []*model.Company) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Company Records")
	md.PlainText("")
	writeCompanyTable(md, companies)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScrapeReport) {
	md.H1("Scrape Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + report.Source + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Second).String()},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the run counters.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScrapeReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Listing pages walked", strconv.Itoa(report.PagesListed)},
			{"Company IDs found", strconv.Itoa(len(report.CompanyIDs))},
			{"Companies scraped", strconv.Itoa(len(report.Companies))},
			{"Detail failures", strconv.Itoa(report.DetailFailures())},
		},
	})
	md.PlainText("")

	switch {
	case report.ErrorMessage != "":
		md.Warningf("Run ended with an error: %s", report.ErrorMessage)
	case report.DetailFailures() > 0:
		md.Note(strconv.Itoa(report.DetailFailures()) + " detail page(s) could not be scraped; see Failures below.")
	default:
		md.Tip("All detail pages scraped successfully.")
	}
	md.PlainText("")
}

// writeFailures lists the company IDs whose detail scrape failed.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.ScrapeReport) {
	if len(report.FailedIDs) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")
	md.BulletList(report.FailedIDs...)
	md.PlainText("")
}

// writeCompanyTable writes the records as a Markdown table.
func writeCompanyTable(md *markdown.Markdown, companies []*model.Company) {
	md.H2("Companies")
	md.PlainText("")

	if len(companies) == 0 {
		md.PlainText("No company records collected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(companies))
	for _, c := range companies {
		rows = append(rows, []string{
			c.ID, c.Name, c.CIF, c.DUNS, c.CNAE, c.LegalForm, c.Address,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Name", "CIF", "DUNS", "CNAE", "Legal Form", "Address"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status cell based on report state.
func statusText(report *model.ScrapeReport) string {
	if report.TimedOut {
		return "⚠️ Cancelled (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}
