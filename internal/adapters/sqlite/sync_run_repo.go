package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// SyncRunRepository implements secondary.SyncRunRepository with SQLite.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SQLite sync-run repository.
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// CreateRun records the start of an engine invocation.
func (r *SyncRunRepository) CreateRun(ctx context.Context, id string, kind models.ItemKind) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sync_runs (id, kind, status) VALUES (?, ?, 'running')",
		id, string(kind),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

// FinishRun records the final counts and status of a run.
func (r *SyncRunRepository) FinishRun(ctx context.Context, id string, total, succeeded, failed int, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE sync_runs SET finished_at = CURRENT_TIMESTAMP, total = ?, succeeded = ?, failed = ?, status = ? WHERE id = ?",
		total, succeeded, failed, status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("sync run %s not found", id)
	}
	return nil
}

// AddDetail appends one item outcome to a run.
func (r *SyncRunRepository) AddDetail(ctx context.Context, detail *secondary.DetailRecord) error {
	var sku, reason, message sql.NullString
	if detail.SKU != "" {
		sku = sql.NullString{String: detail.SKU, Valid: true}
	}
	if detail.Reason != "" {
		reason = sql.NullString{String: detail.Reason, Valid: true}
	}
	if detail.Message != "" {
		message = sql.NullString{String: detail.Message, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sync_details (run_id, item_id, sku, outcome, reason, message) VALUES (?, ?, ?, ?, ?, ?)",
		detail.RunID, detail.ItemID, sku, detail.Outcome, reason, message,
	)
	if err != nil {
		return fmt.Errorf("failed to add sync detail: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *SyncRunRepository) ListRuns(ctx context.Context, limit int) ([]*secondary.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, kind, started_at, finished_at, total, succeeded, failed, status FROM sync_runs ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.RunRecord
	for rows.Next() {
		var (
			kind       string
			finishedAt sql.NullTime
		)
		record := &secondary.RunRecord{}
		err := rows.Scan(&record.ID, &kind, &record.StartedAt, &finishedAt,
			&record.Total, &record.Succeeded, &record.Failed, &record.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		record.Kind = models.ItemKind(kind)
		if finishedAt.Valid {
			record.FinishedAt = finishedAt.Time
		}
		runs = append(runs, record)
	}

	return runs, nil
}

// ListDetails returns the detail rows of a run in insertion order.
func (r *SyncRunRepository) ListDetails(ctx context.Context, runID string) ([]*secondary.DetailRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT run_id, item_id, sku, outcome, reason, message FROM sync_details WHERE run_id = ? ORDER BY id ASC",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync details: %w", err)
	}
	defer rows.Close()

	var details []*secondary.DetailRecord
	for rows.Next() {
		var sku, reason, message sql.NullString
		record := &secondary.DetailRecord{}
		err := rows.Scan(&record.RunID, &record.ItemID, &sku, &record.Outcome, &reason, &message)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync detail: %w", err)
		}
		record.SKU = sku.String
		record.Reason = reason.String
		record.Message = message.String
		details = append(details, record)
	}

	return details, nil
}

// Ensure SyncRunRepository implements the interface
var _ secondary.SyncRunRepository = (*SyncRunRepository)(nil)
