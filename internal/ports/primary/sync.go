// Package primary defines the primary ports (driving interfaces) exposed to
// the CLI layer.
package primary

import (
	"context"
	"time"

	"github.com/example/shopsync/internal/models"
)

// SyncOptions control one reconciliation run.
type SyncOptions struct {
	// Workers overrides the configured worker count when > 0.
	Workers int
	// Serial forces in-process sequential processing regardless of batch size.
	Serial bool
	// Full ignores the sync-state high-water mark and fetches everything.
	Full bool
}

// SyncSummary is the user-visible outcome of a run.
type SyncSummary struct {
	RunID     string
	Kind      models.ItemKind
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// SyncService runs batch reconciliation for one item kind.
type SyncService interface {
	// Sync fetches the candidate set and reconciles it.
	Sync(ctx context.Context, opts SyncOptions) (*SyncSummary, error)

	// ProcessOne runs the per-item path for a single item. Safe to invoke
	// on an already-synced item: a ledger hit short-circuits before any
	// remote call.
	ProcessOne(ctx context.Context, item models.SyncItem) error
}

// RetryOptions control a dead-letter replay pass.
type RetryOptions struct {
	// All replays every unprocessed record regardless of age.
	All bool
	// Window bounds replay to records captured within the duration; ignored
	// when All is set. Zero means the configured default.
	Window time.Duration
	// Latest replays only the single most recently captured record.
	Latest bool
	// DryRun classifies records without side effects.
	DryRun bool
	// NoRepair disables the automatic repair heuristics for
	// validation-failed records.
	NoRepair bool
}

// RetryOutcome reports one replayed record.
type RetryOutcome struct {
	ItemID   string
	Kind     models.ItemKind
	Reason   string
	Result   string // processed, failed_retry, dry_run
	Repaired bool
	Err      string
}

// RetryService replays dead letters through the per-item processing path.
type RetryService interface {
	Retry(ctx context.Context, opts RetryOptions) ([]RetryOutcome, error)
}

// ReportService reads the sync-run audit trail.
type ReportService interface {
	Runs(ctx context.Context, limit int) ([]RunReport, error)
	RunDetails(ctx context.Context, runID string) ([]DetailReport, error)
}

// RunReport is one audit-trail run row for display.
type RunReport struct {
	ID         string
	Kind       models.ItemKind
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
	Status     string
}

// DetailReport is one audit-trail item row for display.
type DetailReport struct {
	ItemID  string
	SKU     string
	Outcome string
	Reason  string
	Message string
}
