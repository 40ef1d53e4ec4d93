package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"empresascan/internal/model"
)

// ErrRunNotFound is returned when no run matches the requested ID,
// or when the database holds no runs at all.
var ErrRunNotFound = errors.New("scrape run not found")

// ScrapeDB provides SQLite-based storage for scrape runs and company
// records. It manages connection pooling and provides CRUD operations.
type ScrapeDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScrapeDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScrapeDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScrapeDB, error) {
	dbPath := filepath.Join(dbDir, "empresascan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY churn during the persist step.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScrapeDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *ScrapeDB) Close() error {
	return sdb.db.Close()
}

// Path returns the path of the database file.
func (sdb *ScrapeDB) Path() string {
	return sdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScrapeDB) createTables() error {
	schema := `
	-- Runs store one row per scrape run, with the full report as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		pages_listed INTEGER NOT NULL DEFAULT 0,
		ids_found INTEGER NOT NULL DEFAULT 0,
		companies_scraped INTEGER NOT NULL DEFAULT 0,
		detail_failures INTEGER NOT NULL DEFAULT 0,
		report TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Companies are upserted by directory ID; re-scrapes refresh fields.
	-- seq is the record's position within its run, so per-run queries
	-- return first-seen order even after upserts reassign run_id.
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT,
		cif TEXT,
		duns TEXT,
		cnae TEXT,
		legal_form TEXT,
		address TEXT,
		detail_url TEXT,
		scraped_at DATETIME,
		run_id INTEGER NOT NULL,
		seq INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_companies_run ON companies(run_id);
	CREATE INDEX IF NOT EXISTS idx_companies_cif ON companies(cif);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun persists a completed (or aborted) run and its companies.
// It returns the new run ID. Companies are upserted by ID, so records
// from earlier runs are refreshed rather than duplicated.
func (sdb *ScrapeDB) SaveRun(ctx context.Context, report *model.ScrapeReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (source, started_at, finished_at, pages_listed,
			ids_found, companies_scraped, detail_failures, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Source,
		report.StartedAt.UTC().Format(time.RFC3339),
		report.FinishedAt.UTC().Format(time.RFC3339),
		report.PagesListed,
		len(report.CompanyIDs),
		len(report.Companies),
		report.DetailFailures(),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for i, c := range report.Companies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO companies (id, name, cif, duns, cnae, legal_form,
				address, detail_url, scraped_at, run_id, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				cif = excluded.cif,
				duns = excluded.duns,
				cnae = excluded.cnae,
				legal_form = excluded.legal_form,
				address = excluded.address,
				detail_url = excluded.detail_url,
				scraped_at = excluded.scraped_at,
				run_id = excluded.run_id,
				seq = excluded.seq`,
			c.ID, c.Name, c.CIF, c.DUNS, c.CNAE, c.LegalForm,
			c.Address, c.DetailURL, c.ScrapedAt.UTC().Format(time.RFC3339), runID, i,
		); err != nil {
			return 0, fmt.Errorf("failed to upsert company %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// GetRun loads the stored report for a run ID.
func (sdb *ScrapeDB) GetRun(ctx context.Context, runID int64) (*model.ScrapeReport, error) {
	var reportJSON string
	err := sdb.db.QueryRowContext(ctx,
		"SELECT report FROM runs WHERE id = ?", runID,
	).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %d: %w", runID, err)
	}

	var report model.ScrapeReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report for run %d: %w", runID, err)
	}
	return &report, nil
}

// LatestRunID returns the ID of the most recent run.
func (sdb *ScrapeDB) LatestRunID(ctx context.Context) (int64, error) {
	var id int64
	err := sdb.db.QueryRowContext(ctx,
		"SELECT id FROM runs ORDER BY id DESC LIMIT 1",
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRunNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query latest run: %w", err)
	}
	return id, nil
}

// RunMetadata summarizes one stored run for listings.
type RunMetadata struct {
	// ID is the run's database identifier.
	ID int64

	// Source is the directory host the run scraped.
	Source string

	// StartedAt is when the run began.
	StartedAt time.Time

	// CompaniesScraped is the number of records the run collected.
	CompaniesScraped int

	// DetailFailures is the number of detail pages that failed.
	DetailFailures int
}

// ListRuns returns metadata for all stored runs, newest first.
func (sdb *ScrapeDB) ListRuns(ctx context.Context) ([]RunMetadata, error) {
	rows, err := sdb.db.QueryContext(ctx, `
		SELECT id, source, started_at, companies_scraped, detail_failures
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var m RunMetadata
		var started string
		if err := rows.Scan(&m.ID, &m.Source, &started, &m.CompaniesScraped, &m.DetailFailures); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		m.StartedAt = parseTimestamp(started)
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// CompaniesByRun returns the companies persisted by a run, in first-seen
// scrape order. Ordering follows the stored per-run sequence rather than
// rowid, so rows that were upserted by a later re-scrape keep their place.
func (sdb *ScrapeDB) CompaniesByRun(ctx context.Context, runID int64) ([]*model.Company, error) {
	rows, err := sdb.db.QueryContext(ctx, `
		SELECT id, name, cif, duns, cnae, legal_form, address, detail_url, scraped_at
		FROM companies WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies for run %d: %w", runID, err)
	}
	defer rows.Close()

	companies := make([]*model.Company, 0)
	for rows.Next() {
		var c model.Company
		var scraped string
		if err := rows.Scan(&c.ID, &c.Name, &c.CIF, &c.DUNS, &c.CNAE,
			&c.LegalForm, &c.Address, &c.DetailURL, &scraped); err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		c.ScrapedAt = parseTimestamp(scraped)
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// GetCompany returns one stored company by directory ID.
func (sdb *ScrapeDB) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	var scraped string
	err := sdb.db.QueryRowContext(ctx, `
		SELECT id, name, cif, duns, cnae, legal_form, address, detail_url, scraped_at
		FROM companies WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.CIF, &c.DUNS, &c.CNAE,
		&c.LegalForm, &c.Address, &c.DetailURL, &scraped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query company %s: %w", id, err)
	}
	c.ScrapedAt = parseTimestamp(scraped)
	return &c, nil
}

// parseTimestamp parses stored timestamps, tolerating both RFC3339 and
// SQLite's default DATETIME format.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
