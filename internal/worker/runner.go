// Package worker contains the per-chunk processing loop and the two item
// processors. A worker runs as its own OS process so a crash cannot
// corrupt the pool manager; the same Runner also backs the engine's serial
// path for small batches.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// ItemProcessor reconciles a single item against the remote systems.
type ItemProcessor interface {
	Kind() models.ItemKind
	ProcessItem(ctx context.Context, item models.SyncItem) error
}

// Runner drives an ItemProcessor over a chunk of items, strictly in chunk
// order. Item failures are contained: a failing item is dead-lettered and
// counted, never aborting its siblings.
type Runner struct {
	processor   ItemProcessor
	deadLetters secondary.DeadLetterStore
	logger      *zap.Logger

	progressInterval time.Duration
	limiter          *rate.Limiter

	// persist receives the current result snapshot at a throttled cadence
	// plus once at the end. Nil disables persistence (serial engine path).
	persist func(*models.WorkerResult)

	stopped atomic.Bool
}

// RunnerOptions configure a Runner.
type RunnerOptions struct {
	// ProgressInterval throttles result-file persistence. Default 5s.
	ProgressInterval time.Duration
	// ItemDelay is the cooperative pause after each item. Default 100ms.
	ItemDelay time.Duration
	// Persist is the result snapshot sink. Optional.
	Persist func(*models.WorkerResult)
}

// NewRunner creates a Runner for the given processor.
func NewRunner(processor ItemProcessor, deadLetters secondary.DeadLetterStore, logger *zap.Logger, opts RunnerOptions) *Runner {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 5 * time.Second
	}
	if opts.ItemDelay <= 0 {
		opts.ItemDelay = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		processor:        processor,
		deadLetters:      deadLetters,
		logger:           logger,
		progressInterval: opts.ProgressInterval,
		limiter:          rate.NewLimiter(rate.Every(opts.ItemDelay), 1),
		persist:          opts.Persist,
	}
}

// Stop requests a cooperative early stop. The runner finishes the item in
// flight and returns partial results; there is no mid-item preemption.
func (r *Runner) Stop() {
	r.stopped.Store(true)
}

// Run processes the chunk sequentially and returns the final result. The
// result is also pushed through the persist sink so a polling manager can
// observe live progress.
func (r *Runner) Run(ctx context.Context, workerID int, items []models.SyncItem) *models.WorkerResult {
	start := time.Now()
	result := &models.WorkerResult{
		WorkerID:   workerID,
		WorkerType: r.processor.Kind(),
		Data:       []models.SyncItem{},
	}

	lastPersist := time.Time{}
	for _, item := range items {
		if r.stopped.Load() || ctx.Err() != nil {
			r.logger.Info("stopping early",
				zap.Int("worker_id", workerID),
				zap.Int("processed", result.Processed))
			break
		}

		if err := r.processOne(ctx, item); err != nil {
			result.Failed++
			result.FailedData = append(result.FailedData, item)
			reason := r.capture(item, err)
			result.Failures = append(result.Failures, models.ItemFailure{
				ItemID:  item.ID,
				Reason:  reason,
				Message: err.Error(),
			})
			r.logger.Warn("item failed",
				zap.String("item_id", item.ID),
				zap.Error(err))
		} else {
			result.Success++
			result.Data = append(result.Data, item)
		}
		result.Processed++

		result.Progress = models.NewProgressSnapshot(result.Processed, len(items), time.Since(start))
		if r.persist != nil && time.Since(lastPersist) >= r.progressInterval {
			r.persist(result)
			lastPersist = time.Now()
		}

		// Cooperative throttle for the remote systems' rate limits.
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}
	}

	result.Progress = models.NewProgressSnapshot(result.Processed, len(items), time.Since(start))
	if r.persist != nil {
		r.persist(result)
	}
	return result
}

// processOne runs a single item with panic containment.
func (r *Runner) processOne(ctx context.Context, item models.SyncItem) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic processing item %s: %v", item.ID, rec)
		}
	}()
	return r.processor.ProcessItem(ctx, item)
}

// capture dead-letters a failed item synchronously before the runner moves
// to the next one, returning the classified reason.
func (r *Runner) capture(item models.SyncItem, err error) string {
	reason, issues := Classify(err)
	if r.deadLetters == nil {
		return reason
	}

	record := &secondary.DeadLetterRecord{
		Kind:    item.Kind,
		Reason:  reason,
		ItemID:  item.ID,
		Payload: item.Payload,
		Issues:  issues,
	}
	if captureErr := r.deadLetters.Capture(record); captureErr != nil {
		r.logger.Error("failed to capture dead letter",
			zap.String("item_id", item.ID),
			zap.Error(captureErr))
	}
	return reason
}
