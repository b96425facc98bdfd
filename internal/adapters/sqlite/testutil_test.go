// Package sqlite_test contains integration tests for SQLite repositories.
//
// This file is the single point where the database schema is loaded for
// tests. All test setup uses db.GetSchemaSQL() so tests always run against
// the authoritative schema. Do not hardcode CREATE TABLE statements in test
// files.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/shopsync/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedMapping inserts a test mapping row.
func seedMapping(t *testing.T, db *sql.DB, kind, localID, remoteID, sku string) {
	t.Helper()
	var skuVal sql.NullString
	if sku != "" {
		skuVal = sql.NullString{String: sku, Valid: true}
	}
	_, err := db.Exec(
		"INSERT INTO mappings (kind, local_id, remote_id, sku) VALUES (?, ?, ?, ?)",
		kind, localID, remoteID, skuVal,
	)
	if err != nil {
		t.Fatalf("failed to seed mapping: %v", err)
	}
}

// seedRun inserts a test sync run.
func seedRun(t *testing.T, db *sql.DB, id, kind string) {
	t.Helper()
	_, err := db.Exec("INSERT INTO sync_runs (id, kind) VALUES (?, ?)", id, kind)
	if err != nil {
		t.Fatalf("failed to seed run: %v", err)
	}
}
