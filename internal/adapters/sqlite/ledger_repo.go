// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// LedgerRepository implements secondary.LedgerRepository with SQLite.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new SQLite ledger repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetRemoteID retrieves the remote counterpart of a local id.
func (r *LedgerRepository) GetRemoteID(ctx context.Context, kind models.ItemKind, localID string) (string, error) {
	var remoteID string
	err := r.db.QueryRowContext(ctx,
		"SELECT remote_id FROM mappings WHERE kind = ? AND local_id = ?",
		string(kind), localID,
	).Scan(&remoteID)
	if err == sql.ErrNoRows {
		return "", secondary.ErrNotMapped
	}
	if err != nil {
		return "", fmt.Errorf("failed to get remote id: %w", err)
	}
	return remoteID, nil
}

// GetLocalID retrieves the local counterpart of a remote id.
func (r *LedgerRepository) GetLocalID(ctx context.Context, kind models.ItemKind, remoteID string) (string, error) {
	var localID string
	err := r.db.QueryRowContext(ctx,
		"SELECT local_id FROM mappings WHERE kind = ? AND remote_id = ?",
		string(kind), remoteID,
	).Scan(&localID)
	if err == sql.ErrNoRows {
		return "", secondary.ErrNotMapped
	}
	if err != nil {
		return "", fmt.Errorf("failed to get local id: %w", err)
	}
	return localID, nil
}

// GetBySKU retrieves the mapping carrying the given SKU.
func (r *LedgerRepository) GetBySKU(ctx context.Context, sku string) (*secondary.MappingRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT kind, local_id, remote_id, sku, last_synced_at FROM mappings WHERE sku = ?",
		sku,
	)

	record, err := scanMapping(row)
	if err == sql.ErrNoRows {
		return nil, secondary.ErrNotMapped
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mapping by sku: %w", err)
	}
	return record, nil
}

// SaveMapping creates or supersedes the pairing for localID. The write is a
// single statement, so concurrent readers never observe a partial mapping.
func (r *LedgerRepository) SaveMapping(ctx context.Context, kind models.ItemKind, localID, remoteID, sku string) error {
	var skuVal sql.NullString
	if sku != "" {
		skuVal = sql.NullString{String: sku, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mappings (kind, local_id, remote_id, sku, last_synced_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(kind, local_id)
		 DO UPDATE SET remote_id = excluded.remote_id, sku = excluded.sku, last_synced_at = CURRENT_TIMESTAMP`,
		string(kind), localID, remoteID, skuVal,
	)
	if err != nil {
		return fmt.Errorf("failed to save mapping: %w", err)
	}
	return nil
}

// UpdateSyncState advances the per-kind high-water mark.
func (r *LedgerRepository) UpdateSyncState(ctx context.Context, kind models.ItemKind, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_state (kind, last_sync_at, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(kind)
		 DO UPDATE SET last_sync_at = excluded.last_sync_at, updated_at = CURRENT_TIMESTAMP`,
		string(kind), at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync state: %w", err)
	}
	return nil
}

// GetLastSyncTime returns the per-kind high-water mark, or the zero time
// when no sync has completed yet.
func (r *LedgerRepository) GetLastSyncTime(ctx context.Context, kind models.ItemKind) (time.Time, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx,
		"SELECT last_sync_at FROM sync_state WHERE kind = ?",
		string(kind),
	).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sync time: %w", err)
	}
	return at, nil
}

// scanMapping scans a mappings row into a MappingRecord.
func scanMapping(scanner interface {
	Scan(dest ...any) error
}) (*secondary.MappingRecord, error) {
	var (
		kind string
		sku  sql.NullString
	)

	record := &secondary.MappingRecord{}
	err := scanner.Scan(&kind, &record.LocalID, &record.RemoteID, &sku, &record.LastSyncedAt)
	if err != nil {
		return nil, err
	}

	record.Kind = models.ItemKind(kind)
	record.SKU = sku.String
	return record, nil
}

// Ensure LedgerRepository implements the interface
var _ secondary.LedgerRepository = (*LedgerRepository)(nil)
