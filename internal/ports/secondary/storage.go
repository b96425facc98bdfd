package secondary

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/example/shopsync/internal/models"
)

// ErrCacheMiss is returned by DetailCache.Get for absent or expired entries.
var ErrCacheMiss = errors.New("cache miss")

// DetailCache is the time-boxed cache of expensive remote detail lookups.
// An entry whose expiry has passed is a miss; a miss is lazily overwritten
// by the next Put, never swept.
type DetailCache interface {
	// Get returns the cached payload for an item, or ErrCacheMiss.
	Get(kind models.ItemKind, itemID string) (json.RawMessage, error)

	// Put stores a payload unconditionally, replacing any prior entry.
	Put(kind models.ItemKind, itemID string, payload json.RawMessage) error

	// Invalidate removes the entry for itemID, or every entry when itemID
	// is empty.
	Invalidate(kind models.ItemKind, itemID string) error
}

// Dead-letter failure reasons.
const (
	ReasonException        = "exception"
	ReasonInvalidResponse  = "invalid_response"
	ReasonUnknownResponse  = "unknown_response"
	ReasonCreateFailed     = "create_failed"
	ReasonUpdateFailed     = "update_failed"
	ReasonValidationFailed = "validation_failed"
)

// DeadLetterRecord is a durably persisted failed item awaiting retry.
type DeadLetterRecord struct {
	Kind       models.ItemKind `json:"kind"`
	Reason     string          `json:"reason"`
	ItemID     string          `json:"item_id"`
	Payload    json.RawMessage `json:"original_payload"`
	Issues     []string        `json:"issues,omitempty"`
	CapturedAt time.Time       `json:"captured_at"`

	// Path is the record's current file path, set on read, empty on capture.
	Path string `json:"-"`
}

// DeadLetterStore persists failed items. Records transition one-way from
// captured to processed, failed_retry, or dry_run via atomic rename; they
// are never edited in place or silently dropped.
type DeadLetterStore interface {
	// Capture persists a record synchronously before the caller proceeds.
	Capture(record *DeadLetterRecord) error

	// ListUnprocessed returns captured records modified within the window
	// (all records when window is zero), most recent first.
	ListUnprocessed(window time.Duration) ([]*DeadLetterRecord, error)

	// MarkProcessed transitions a record to the processed state.
	MarkProcessed(record *DeadLetterRecord) error

	// MarkFailedRetry transitions a record to the failed_retry state.
	MarkFailedRetry(record *DeadLetterRecord) error

	// MarkDryRun transitions a record to the dry_run state.
	MarkDryRun(record *DeadLetterRecord) error
}

// Mailbox is the chunk/result file protocol between the pool manager and
// the worker processes: single writer, single reader after process exit.
type Mailbox interface {
	// WriteChunk writes a chunk file for a worker. Written once.
	WriteChunk(runID string, workerID int, items []models.SyncItem) (path string, err error)

	// ReadChunk reads a chunk file.
	ReadChunk(path string) ([]models.SyncItem, error)

	// ResultPath returns the result file path for a worker.
	ResultPath(runID string, workerID int) string

	// WriteResult overwrites a worker's result file (progress or final).
	WriteResult(path string, result *models.WorkerResult) error

	// ReadResult reads a worker's result file. Advisory before the worker
	// process has exited, authoritative after.
	ReadResult(path string) (*models.WorkerResult, error)

	// Cleanup removes a worker's chunk and result files, best-effort.
	Cleanup(runID string, workerID int)
}
