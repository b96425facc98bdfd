// Package secondary defines the secondary ports (driven adapters) for the
// application: persistence, file storage, and the two remote systems.
package secondary

import (
	"context"
	"errors"
	"time"

	"github.com/example/shopsync/internal/models"
)

// ErrNotMapped is returned by ledger lookups that find no pairing.
var ErrNotMapped = errors.New("no mapping for item")

// MappingRecord pairs a supplier-side (local) identifier with its
// storefront-side (remote) counterpart.
type MappingRecord struct {
	Kind         models.ItemKind
	LocalID      string
	RemoteID     string
	SKU          string
	LastSyncedAt time.Time
}

// LedgerRepository is the durable mapping store linking the two systems'
// identifiers. Writes are atomic per mapping; rows are superseded, never
// deleted.
type LedgerRepository interface {
	// GetRemoteID returns the remote counterpart of a local id.
	// Returns ErrNotMapped when no pairing exists.
	GetRemoteID(ctx context.Context, kind models.ItemKind, localID string) (string, error)

	// GetLocalID returns the local counterpart of a remote id.
	// Returns ErrNotMapped when no pairing exists.
	GetLocalID(ctx context.Context, kind models.ItemKind, remoteID string) (string, error)

	// GetBySKU returns the mapping carrying the given SKU.
	// Returns ErrNotMapped when no pairing exists.
	GetBySKU(ctx context.Context, sku string) (*MappingRecord, error)

	// SaveMapping creates or supersedes the pairing for localID.
	SaveMapping(ctx context.Context, kind models.ItemKind, localID, remoteID, sku string) error

	// UpdateSyncState advances the per-kind high-water mark to now.
	UpdateSyncState(ctx context.Context, kind models.ItemKind, at time.Time) error

	// GetLastSyncTime returns the per-kind high-water mark, or the zero
	// time when no sync has completed yet.
	GetLastSyncTime(ctx context.Context, kind models.ItemKind) (time.Time, error)
}

// RunRecord is one engine invocation in the audit trail.
type RunRecord struct {
	ID         string
	Kind       models.ItemKind
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
	Status     string
}

// DetailRecord is one processed item within a run.
type DetailRecord struct {
	RunID   string
	ItemID  string
	SKU     string
	Outcome string // success, failed, skipped
	Reason  string
	Message string
}

// SyncRunRepository is the append-only audit trail. Operational reporting
// only; not correctness-critical.
type SyncRunRepository interface {
	// CreateRun records the start of an engine invocation.
	CreateRun(ctx context.Context, id string, kind models.ItemKind) error

	// FinishRun records the final counts and status of a run.
	FinishRun(ctx context.Context, id string, total, succeeded, failed int, status string) error

	// AddDetail appends one item outcome to a run.
	AddDetail(ctx context.Context, detail *DetailRecord) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*RunRecord, error)

	// ListDetails returns the detail rows of a run in insertion order.
	ListDetails(ctx context.Context, runID string) ([]*DetailRecord, error)
}
