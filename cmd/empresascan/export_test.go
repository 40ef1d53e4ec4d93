package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"empresascan/internal/database"
	"empresascan/internal/export"
	"empresascan/internal/model"
)

// openTestDB creates a throwaway database with one stored run.
func openTestDB(t *testing.T, companies ...*model.Company) *database.ScrapeDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	report := model.NewScrapeReport("example.com")
	for _, c := range companies {
		report.CompanyIDs = append(report.CompanyIDs, c.ID)
		report.AddCompany(c)
	}
	report.Finish()

	if _, err := db.SaveRun(context.Background(), report); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	return db
}

func TestExportCompany(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, &model.Company{
		ID:        "B12345678",
		Name:      "EJEMPLO S.L.",
		CIF:       "B12345678",
		ScrapedAt: time.Now(),
	})

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	if err := exportCompany(cmd, db, export.NewCSVWriter(&buf), "B12345678"); err != nil {
		t.Fatalf("exportCompany: %v", err)
	}
	if !strings.Contains(buf.String(), "EJEMPLO S.L.") {
		t.Errorf("output missing company record:\n%s", buf.String())
	}
}

func TestExportCompanyMissing(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := exportCompany(cmd, db, export.NewCSVWriter(&buf), "NOPE")
	if err == nil {
		t.Fatal("expected an error for a missing company")
	}
	if !strings.Contains(err.Error(), "NOPE") {
		t.Errorf("error should name the missing ID: %v", err)
	}
}
