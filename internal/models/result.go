package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Estimate is a remaining-time estimate in seconds. It marshals as a JSON
// number, or as the string "unknown" when no rate has been established yet
// (negative value).
type Estimate float64

// EstimateUnknown is the sentinel for "no estimate available".
const EstimateUnknown Estimate = -1

// MarshalJSON implements json.Marshaler.
func (e Estimate) MarshalJSON() ([]byte, error) {
	if e < 0 {
		return []byte(`"unknown"`), nil
	}
	return json.Marshal(float64(e))
}

// UnmarshalJSON implements json.Unmarshaler, accepting a number or a string.
func (e *Estimate) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*e = Estimate(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid estimate: %s", string(data))
	}
	*e = EstimateUnknown
	return nil
}

// ProgressSnapshot is the live progress view a worker overwrites in place at
// a bounded interval. Readers treat it as advisory until the worker process
// has exited.
type ProgressSnapshot struct {
	ProcessedItems         int      `json:"processed_items"`
	TotalItems             int      `json:"total_items"`
	ProgressPercent        float64  `json:"progress_percent"`
	ElapsedTime            float64  `json:"elapsed_time"`
	ItemsPerSecond         float64  `json:"items_per_second"`
	EstimatedTimeRemaining Estimate `json:"estimated_time_remaining"`
}

// NewProgressSnapshot computes a snapshot from raw counters.
func NewProgressSnapshot(processed, total int, elapsed time.Duration) ProgressSnapshot {
	s := ProgressSnapshot{
		ProcessedItems:         processed,
		TotalItems:             total,
		ElapsedTime:            elapsed.Seconds(),
		EstimatedTimeRemaining: EstimateUnknown,
	}
	if total > 0 {
		s.ProgressPercent = float64(processed) / float64(total) * 100
	}
	if elapsed > 0 && processed > 0 {
		s.ItemsPerSecond = float64(processed) / elapsed.Seconds()
		s.EstimatedTimeRemaining = Estimate(float64(total-processed) / s.ItemsPerSecond)
	}
	return s
}

// WorkerResult is the result envelope a worker persists to its result file.
// It is written repeatedly while the worker runs (partial, advisory) and one
// final time before exit (authoritative once the process has terminated).
type WorkerResult struct {
	WorkerID   int              `json:"worker_id"`
	WorkerType ItemKind         `json:"worker_type"`
	Processed  int              `json:"processed"`
	Success    int              `json:"success"`
	Failed     int              `json:"failed"`
	Data       []SyncItem       `json:"data"`
	FailedData []SyncItem       `json:"failed_data,omitempty"`
	Failures   []ItemFailure    `json:"failures,omitempty"`
	Progress   ProgressSnapshot `json:"progress"`
	Error      string           `json:"error,omitempty"`
}

// ItemFailure carries the classified reason for one failed item, parallel
// to FailedData, so the audit trail keeps per-item reasons across the
// process boundary.
type ItemFailure struct {
	ItemID  string `json:"item_id"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// FailureFor returns the recorded failure for an item, if any.
func (r *WorkerResult) FailureFor(itemID string) (ItemFailure, bool) {
	for _, f := range r.Failures {
		if f.ItemID == itemID {
			return f, true
		}
	}
	return ItemFailure{}, false
}
