package db

// SchemaSQL is the complete schema for fresh shopsync installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All repository
// tests load it via GetSchemaSQL() so that a column referenced by repository
// code but missing here fails immediately with "no such column" instead of
// drifting silently.
const SchemaSQL = `
-- Ledger: identifier pairings between the supplier and storefront systems.
-- Rows are superseded in place, never deleted.
CREATE TABLE IF NOT EXISTS mappings (
	kind TEXT NOT NULL CHECK(kind IN ('product', 'order')),
	local_id TEXT NOT NULL,
	remote_id TEXT NOT NULL,
	sku TEXT,
	last_synced_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (kind, local_id),
	UNIQUE (kind, remote_id)
);

CREATE INDEX IF NOT EXISTS idx_mappings_sku ON mappings(sku);

-- Per-kind high-water mark bounding the next fetch window.
CREATE TABLE IF NOT EXISTS sync_state (
	kind TEXT PRIMARY KEY CHECK(kind IN ('product', 'order')),
	last_sync_at DATETIME NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Append-only audit trail: one run per engine invocation.
CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK(kind IN ('product', 'order')),
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME,
	total INTEGER NOT NULL DEFAULT 0,
	succeeded INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('running', 'completed', 'partial', 'failed')) DEFAULT 'running'
);

-- Append-only audit trail: one row per item processed in a run.
CREATE TABLE IF NOT EXISTS sync_details (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	item_id TEXT NOT NULL,
	sku TEXT,
	outcome TEXT NOT NULL CHECK(outcome IN ('success', 'failed', 'skipped')),
	reason TEXT,
	message TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (run_id) REFERENCES sync_runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sync_details_run ON sync_details(run_id);
`

// GetSchemaSQL returns the authoritative schema SQL.
func GetSchemaSQL() string {
	return SchemaSQL
}
