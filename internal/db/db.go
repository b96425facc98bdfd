// Package db owns the sqlite connection and the authoritative schema.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var (
	conn        *sql.DB
	initialized bool
)

// Open opens (or creates) the database at path and applies the schema.
// Subsequent calls return the same connection.
func Open(path string) (*sql.DB, error) {
	if conn != nil {
		return conn, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys; WAL lets worker processes read and write the
	// ledger concurrently with the manager.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	conn = db
	if !initialized {
		initialized = true
		if _, err := db.Exec(SchemaSQL); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return conn, nil
}

// Close closes the database connection.
func Close() error {
	if conn != nil {
		err := conn.Close()
		conn = nil
		initialized = false
		return err
	}
	return nil
}
