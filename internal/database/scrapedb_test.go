package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"empresascan/internal/model"
)

// testReport builds a finished report with the given companies.
func testReport(t *testing.T, source string, companies ...*model.Company) *model.ScrapeReport {
	t.Helper()

	report := model.NewScrapeReport(source)
	report.PagesListed = 1
	for _, c := range companies {
		report.CompanyIDs = append(report.CompanyIDs, c.ID)
		report.AddCompany(c)
	}
	report.Finish()
	return report
}

func testCompany(id, name string) *model.Company {
	return &model.Company{
		ID:        id,
		Name:      name,
		CIF:       id,
		LegalForm: "Sociedad Limitada",
		ScrapedAt: time.Now(),
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if db.Path() == "" {
		t.Error("expected a database path")
	}
}

// TestOpenWithoutCreate verifies mode=rw refuses a missing database.
func TestOpenWithoutCreate(t *testing.T) {
	t.Parallel()

	opts := Options{CreateIfNotExists: false, EnableWAL: true}
	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	report := testReport(t, "www.einforma.com",
		testCompany("B111", "PRIMERA S.L."),
		testCompany("B222", "SEGUNDA S.L."),
	)

	runID, err := db.SaveRun(ctx, report)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if runID == 0 {
		t.Fatal("expected a non-zero run ID")
	}

	stored, err := db.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if stored.Source != "www.einforma.com" {
		t.Errorf("Source = %q", stored.Source)
	}
	if len(stored.Companies) != 2 {
		t.Errorf("expected 2 companies in stored report, got %d", len(stored.Companies))
	}
	if stored.PagesListed != 1 {
		t.Errorf("PagesListed = %d, want 1", stored.PagesListed)
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := db.GetRun(context.Background(), 42); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestLatestRunID(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if _, err := db.LatestRunID(ctx); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound on empty database, got %v", err)
	}

	first, err := db.SaveRun(ctx, testReport(t, "example.com"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	second, err := db.SaveRun(ctx, testReport(t, "example.com"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if second <= first {
		t.Errorf("expected increasing run IDs, got %d then %d", first, second)
	}

	latest, err := db.LatestRunID(ctx)
	if err != nil {
		t.Fatalf("LatestRunID: %v", err)
	}
	if latest != second {
		t.Errorf("LatestRunID = %d, want %d", latest, second)
	}
}

// TestCompanyUpsert verifies a re-scrape refreshes the stored record
// instead of duplicating it.
func TestCompanyUpsert(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if _, err := db.SaveRun(ctx, testReport(t, "example.com",
		testCompany("B111", "NOMBRE VIEJO S.L."))); err != nil {
		t.Fatalf("first SaveRun: %v", err)
	}

	secondRun, err := db.SaveRun(ctx, testReport(t, "example.com",
		testCompany("B111", "NOMBRE NUEVO S.L.")))
	if err != nil {
		t.Fatalf("second SaveRun: %v", err)
	}

	c, err := db.GetCompany(ctx, "B111")
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if c == nil {
		t.Fatal("expected a stored company")
	}
	if c.Name != "NOMBRE NUEVO S.L." {
		t.Errorf("Name = %q, want refreshed value", c.Name)
	}

	// The refreshed record now belongs to the second run
	companies, err := db.CompaniesByRun(ctx, secondRun)
	if err != nil {
		t.Fatalf("CompaniesByRun: %v", err)
	}
	if len(companies) != 1 || companies[0].ID != "B111" {
		t.Errorf("CompaniesByRun = %+v", companies)
	}
}

func TestCompaniesByRunOrder(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runID, err := db.SaveRun(ctx, testReport(t, "example.com",
		testCompany("B333", "TERCERA"),
		testCompany("B111", "PRIMERA"),
		testCompany("B222", "SEGUNDA"),
	))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	companies, err := db.CompaniesByRun(ctx, runID)
	if err != nil {
		t.Fatalf("CompaniesByRun: %v", err)
	}

	want := []string{"B333", "B111", "B222"}
	if len(companies) != len(want) {
		t.Fatalf("expected %d companies, got %d", len(want), len(companies))
	}
	for i, id := range want {
		if companies[i].ID != id {
			t.Errorf("companies[%d].ID = %q, want %q", i, companies[i].ID, id)
		}
	}
}

// TestCompaniesByRunOrderAfterUpsert verifies the per-run order survives a
// later run upserting the same companies in a different order. Insertion
// order in the table no longer matches the second run's scrape order, so
// the query must follow the stored sequence.
func TestCompaniesByRunOrderAfterUpsert(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.SaveRun(ctx, testReport(t, "example.com",
		testCompany("B111", "PRIMERA"),
		testCompany("B222", "SEGUNDA"),
	)); err != nil {
		t.Fatalf("first SaveRun: %v", err)
	}

	secondRun, err := db.SaveRun(ctx, testReport(t, "example.com",
		testCompany("B222", "SEGUNDA"),
		testCompany("B111", "PRIMERA"),
	))
	if err != nil {
		t.Fatalf("second SaveRun: %v", err)
	}

	companies, err := db.CompaniesByRun(ctx, secondRun)
	if err != nil {
		t.Fatalf("CompaniesByRun: %v", err)
	}

	want := []string{"B222", "B111"}
	if len(companies) != len(want) {
		t.Fatalf("expected %d companies, got %d", len(want), len(companies))
	}
	for i, id := range want {
		if companies[i].ID != id {
			t.Errorf("companies[%d].ID = %q, want %q", i, companies[i].ID, id)
		}
	}
}

func TestGetCompanyMissing(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	c, err := db.GetCompany(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil for a missing company, got %+v", c)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, source := range []string{"primero.example", "segundo.example"} {
		if _, err := db.SaveRun(ctx, testReport(t, source)); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := db.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	// Newest first
	if runs[0].Source != "segundo.example" || runs[1].Source != "primero.example" {
		t.Errorf("unexpected order: %q, %q", runs[0].Source, runs[1].Source)
	}
	if runs[0].ID <= runs[1].ID {
		t.Errorf("expected descending IDs, got %d then %d", runs[0].ID, runs[1].ID)
	}
	if runs[0].StartedAt.IsZero() {
		t.Error("expected StartedAt to be parsed")
	}
}
