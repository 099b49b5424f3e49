//go:build ignore

// generate_testdata.go creates sample report feeds for manual testing and
// benchmarking. Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/feeds/small.jsonl   (200 reports)
//	testdata/feeds/medium.jsonl  (2000 reports)
//	testdata/feeds/large.jsonl   (20000 reports)
//	testdata/feeds/reports.db    (2000 reports, SQLite)
//
// Point winnow at any of them: winnow --feed testdata/feeds/large.jsonl
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/mwoudstra/winnow/pkg/model"
	"github.com/mwoudstra/winnow/pkg/testutil"
)

var datasets = []struct {
	name string
	size int
}{
	{"small", 200},
	{"medium", 2000},
	{"large", 20000},
}

func main() {
	outputDir := filepath.Join("testdata", "feeds")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s feed (%d reports)...\n", ds.name, ds.size)
		records := testutil.GenerateReports(ds.size)
		path := filepath.Join(outputDir, ds.name+".jsonl")
		if err := writeJSONL(path, records); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  wrote %s\n", path)
	}

	dbPath := filepath.Join(outputDir, "reports.db")
	fmt.Printf("Generating SQLite feed (2000 reports)...\n")
	if err := writeDB(dbPath, testutil.GenerateReports(2000)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	fmt.Printf("  wrote %s\n", dbPath)
}

func writeJSONL(path string, records []model.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func writeDB(path string, records []model.Report) error {
	os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE reports (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			body       TEXT,
			category   TEXT,
			region     TEXT,
			severity   TEXT,
			reporter   TEXT,
			resolved   INTEGER NOT NULL DEFAULT 0,
			created_at TEXT,
			updated_at TEXT
		);
		CREATE INDEX idx_reports_created ON reports (created_at DESC);
		CREATE INDEX idx_reports_category ON reports (category);
		CREATE INDEX idx_reports_region ON reports (region)`)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO reports (id, title, body, category, region, severity,
		                     reporter, resolved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		resolved := 0
		if r.Resolved {
			resolved = 1
		}
		if _, err := stmt.Exec(r.ID, r.Title, r.Body, r.Category, r.Region,
			r.Severity, r.Reporter, resolved,
			r.CreatedAt.Format(time.RFC3339), r.UpdatedAt.Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
