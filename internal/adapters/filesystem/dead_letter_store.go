package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/example/shopsync/internal/core/deadletter"
	"github.com/example/shopsync/internal/ports/secondary"
)

// DeadLetterStore implements secondary.DeadLetterStore with one JSON file
// per record. State transitions append a suffix via atomic rename; file
// contents are never edited in place.
type DeadLetterStore struct {
	dir string
	now func() time.Time
}

// NewDeadLetterStore creates a dead-letter store rooted at dir.
func NewDeadLetterStore(dir string) (*DeadLetterStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dead-letter directory: %w", err)
	}
	return &DeadLetterStore{dir: dir, now: time.Now}, nil
}

// FileName builds the capture filename for a record.
func FileName(record *secondary.DeadLetterRecord, at time.Time) string {
	return deadletter.EncodeName(record.Kind, record.Reason, record.ItemID, at)
}

// Capture persists a record synchronously. The record's Path is set to the
// written file.
func (s *DeadLetterStore) Capture(record *secondary.DeadLetterRecord) error {
	if record.CapturedAt.IsZero() {
		record.CapturedAt = s.now()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	path := filepath.Join(s.dir, FileName(record, record.CapturedAt))
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to capture dead letter: %w", err)
	}
	record.Path = path
	return nil
}

// ListUnprocessed returns captured records modified within the window (all
// when window is zero), most recent first. Only files still carrying the
// bare .json suffix are unprocessed; transitioned files are excluded by
// their suffix alone.
func (s *DeadLetterStore) ListUnprocessed(window time.Duration) ([]*secondary.DeadLetterRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dead-letter directory: %w", err)
	}

	cutoff := time.Time{}
	if window > 0 {
		cutoff = s.now().Add(-window)
	}

	type candidate struct {
		record *secondary.DeadLetterRecord
		mtime  time.Time
	}
	var candidates []candidate

	for _, entry := range entries {
		name := entry.Name()
		if !deadletter.IsCaptured(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !cutoff.IsZero() && info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		record := &secondary.DeadLetterRecord{}
		if err := json.Unmarshal(data, record); err != nil {
			// Corrupt record: leave it in place for operator inspection.
			continue
		}
		record.Path = path
		candidates = append(candidates, candidate{record: record, mtime: info.ModTime()})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].mtime.After(candidates[j].mtime)
	})

	records := make([]*secondary.DeadLetterRecord, len(candidates))
	for i, c := range candidates {
		records[i] = c.record
	}
	return records, nil
}

// MarkProcessed transitions a record to the processed state.
func (s *DeadLetterStore) MarkProcessed(record *secondary.DeadLetterRecord) error {
	return s.transition(record, "processed")
}

// MarkFailedRetry transitions a record to the failed_retry state.
func (s *DeadLetterStore) MarkFailedRetry(record *secondary.DeadLetterRecord) error {
	return s.transition(record, "failed_retry")
}

// MarkDryRun transitions a record to the dry_run state.
func (s *DeadLetterStore) MarkDryRun(record *secondary.DeadLetterRecord) error {
	return s.transition(record, "dry_run")
}

// transition renames the record file, appending the state suffix. The
// rename is atomic; once a record has left the captured state the original
// path no longer exists, so a second transition fails rather than
// overwrites.
func (s *DeadLetterStore) transition(record *secondary.DeadLetterRecord, state string) error {
	if record.Path == "" {
		return fmt.Errorf("dead letter has no path")
	}
	if !strings.HasSuffix(record.Path, ".json") {
		return fmt.Errorf("dead letter %s already transitioned", filepath.Base(record.Path))
	}

	newPath := fmt.Sprintf("%s.%s_%s", record.Path, state, s.now().Format(deadletter.TimestampLayout))
	if err := os.Rename(record.Path, newPath); err != nil {
		return fmt.Errorf("failed to transition dead letter to %s: %w", state, err)
	}
	record.Path = newPath
	return nil
}

// Ensure DeadLetterStore implements the interface
var _ secondary.DeadLetterStore = (*DeadLetterStore)(nil)
