// Package app contains the application services driving the reconciliation
// engine: batch sync per item kind, dead-letter retry, and run reporting.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/pool"
	"github.com/example/shopsync/internal/ports/primary"
	"github.com/example/shopsync/internal/ports/secondary"
	"github.com/example/shopsync/internal/worker"
)

// chunkPool abstracts the worker pool so tests can run without spawning
// processes.
type chunkPool interface {
	ProcessItems(ctx context.Context, kind models.ItemKind, items []models.SyncItem) ([]models.WorkerResult, error)
}

// fetchFunc returns the candidate items changed since the given time; the
// zero time means everything.
type fetchFunc func(ctx context.Context, since time.Time) ([]models.SyncItem, error)

// EngineOptions tune one sync engine instance.
type EngineOptions struct {
	// Workers is the default pool size; SyncOptions.Workers overrides per run.
	Workers int
	// SerialThreshold is the batch size at or under which the engine skips
	// the pool and processes in-process. Default 5.
	SerialThreshold int
	// PollInterval is the pool's liveness poll cadence.
	PollInterval time.Duration
	// ProgressInterval throttles worker result persistence.
	ProgressInterval time.Duration
	// ItemDelay is the per-item pacing delay.
	ItemDelay time.Duration
}

// SyncServiceImpl implements the SyncService interface for one item kind.
type SyncServiceImpl struct {
	kind        models.ItemKind
	fetch       fetchFunc
	processor   worker.ItemProcessor
	ledger      secondary.LedgerRepository
	runs        secondary.SyncRunRepository
	deadLetters secondary.DeadLetterStore
	mailbox     secondary.Mailbox
	logger      *zap.Logger
	opts        EngineOptions

	// newPool builds the chunk pool for a run. Replaced in tests.
	newPool func(workers int) (chunkPool, error)
}

// NewProductSyncService creates the supplier-to-storefront product engine.
func NewProductSyncService(
	ledger secondary.LedgerRepository,
	runs secondary.SyncRunRepository,
	deadLetters secondary.DeadLetterStore,
	cache secondary.DetailCache,
	supplier secondary.SupplierClient,
	storefront secondary.StorefrontClient,
	mailbox secondary.Mailbox,
	logger *zap.Logger,
	opts EngineOptions,
) *SyncServiceImpl {
	fetch := func(ctx context.Context, since time.Time) ([]models.SyncItem, error) {
		return supplier.ListItems(ctx, models.KindProduct, since)
	}
	processor := worker.NewProductProcessor(ledger, cache, supplier, storefront, logger)
	return newSyncService(models.KindProduct, fetch, processor, ledger, runs, deadLetters, mailbox, logger, opts)
}

// NewOrderSyncService creates the storefront-to-supplier order engine.
func NewOrderSyncService(
	ledger secondary.LedgerRepository,
	runs secondary.SyncRunRepository,
	deadLetters secondary.DeadLetterStore,
	supplier secondary.SupplierClient,
	storefront secondary.StorefrontClient,
	mailbox secondary.Mailbox,
	logger *zap.Logger,
	opts EngineOptions,
) *SyncServiceImpl {
	fetch := func(ctx context.Context, since time.Time) ([]models.SyncItem, error) {
		return fetchStorefrontOrders(ctx, storefront, since)
	}
	processor := worker.NewOrderProcessor(ledger, supplier, storefront, logger)
	return newSyncService(models.KindOrder, fetch, processor, ledger, runs, deadLetters, mailbox, logger, opts)
}

func newSyncService(
	kind models.ItemKind,
	fetch fetchFunc,
	processor worker.ItemProcessor,
	ledger secondary.LedgerRepository,
	runs secondary.SyncRunRepository,
	deadLetters secondary.DeadLetterStore,
	mailbox secondary.Mailbox,
	logger *zap.Logger,
	opts EngineOptions,
) *SyncServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SerialThreshold <= 0 {
		opts.SerialThreshold = 5
	}
	s := &SyncServiceImpl{
		kind:        kind,
		fetch:       fetch,
		processor:   processor,
		ledger:      ledger,
		runs:        runs,
		deadLetters: deadLetters,
		mailbox:     mailbox,
		logger:      logger,
		opts:        opts,
	}
	s.newPool = func(workers int) (chunkPool, error) {
		return pool.NewManager(s.mailbox, s.logger, pool.Options{
			Workers:      workers,
			PollInterval: s.opts.PollInterval,
			Fallback:     s.fallback,
		})
	}
	return s
}

// fetchStorefrontOrders pages through the storefront order listing and
// wraps each record as a sync item.
func fetchStorefrontOrders(ctx context.Context, storefront secondary.StorefrontClient, since time.Time) ([]models.SyncItem, error) {
	var items []models.SyncItem
	token := ""
	for {
		page, next, err := storefront.ListItems(ctx, secondary.ListParams{
			Resource:  "orders",
			Since:     since,
			PageToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list storefront orders: %w", err)
		}
		for _, record := range page {
			items = append(items, models.SyncItem{
				Kind:    models.KindOrder,
				ID:      record.ID,
				SKU:     record.SKU,
				Payload: record.Payload,
			})
		}
		if next == "" {
			return items, nil
		}
		token = next
	}
}

// Sync fetches the candidate set and reconciles it, recording the run in
// the audit trail and advancing the high-water mark on completion.
func (s *SyncServiceImpl) Sync(ctx context.Context, opts primary.SyncOptions) (*primary.SyncSummary, error) {
	start := time.Now()

	since := time.Time{}
	if !opts.Full {
		last, err := s.ledger.GetLastSyncTime(ctx, s.kind)
		if err != nil {
			return nil, fmt.Errorf("failed to read sync state: %w", err)
		}
		since = last
	}

	items, err := s.fetch(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s candidates: %w", s.kind, err)
	}

	runID := uuid.NewString()
	if err := s.runs.CreateRun(ctx, runID, s.kind); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}
	s.logger.Info("sync run started",
		zap.String("run_id", runID),
		zap.String("kind", string(s.kind)),
		zap.Int("candidates", len(items)),
		zap.Bool("full", opts.Full))

	results, err := s.process(ctx, opts, items)
	if err != nil {
		if finishErr := s.runs.FinishRun(ctx, runID, len(items), 0, 0, "failed"); finishErr != nil {
			s.logger.Error("failed to finalize run", zap.String("run_id", runID), zap.Error(finishErr))
		}
		return nil, err
	}

	summary := &primary.SyncSummary{RunID: runID, Kind: s.kind, Total: len(items)}
	for _, result := range results {
		summary.Succeeded += result.Success
		summary.Failed += result.Failed
		s.recordDetails(ctx, runID, &result)
	}
	summary.Elapsed = time.Since(start)

	status := "completed"
	if summary.Succeeded+summary.Failed < summary.Total || ctx.Err() != nil {
		status = "partial"
	}
	if err := s.runs.FinishRun(ctx, runID, summary.Total, summary.Succeeded, summary.Failed, status); err != nil {
		s.logger.Error("failed to finalize run", zap.String("run_id", runID), zap.Error(err))
	}

	// The high-water mark advances to the fetch start, not the finish, so
	// items changed mid-run are picked up next time. A partial run does not
	// advance it at all.
	if status == "completed" {
		if err := s.ledger.UpdateSyncState(ctx, s.kind, start); err != nil {
			s.logger.Error("failed to advance sync state", zap.Error(err))
		}
	}

	s.logger.Info("sync run finished",
		zap.String("run_id", runID),
		zap.String("status", status),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// process picks the serial or pooled path for the batch.
func (s *SyncServiceImpl) process(ctx context.Context, opts primary.SyncOptions, items []models.SyncItem) ([]models.WorkerResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	if opts.Serial || len(items) <= s.opts.SerialThreshold {
		s.logger.Debug("processing serially", zap.Int("items", len(items)))
		result := s.newRunner().Run(ctx, 0, items)
		return []models.WorkerResult{*result}, nil
	}

	workers := s.opts.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	p, err := s.newPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to build worker pool: %w", err)
	}
	return p.ProcessItems(ctx, s.kind, items)
}

// fallback processes a chunk in-process when its worker cannot be spawned,
// so the chunk's items are never dropped.
func (s *SyncServiceImpl) fallback(ctx context.Context, workerID int, _ models.ItemKind, items []models.SyncItem) (*models.WorkerResult, error) {
	return s.newRunner().Run(ctx, workerID, items), nil
}

func (s *SyncServiceImpl) newRunner() *worker.Runner {
	return worker.NewRunner(s.processor, s.deadLetters, s.logger, worker.RunnerOptions{
		ProgressInterval: s.opts.ProgressInterval,
		ItemDelay:        s.opts.ItemDelay,
	})
}

// recordDetails appends audit rows for one worker result. Reporting only;
// failures are logged and swallowed.
func (s *SyncServiceImpl) recordDetails(ctx context.Context, runID string, result *models.WorkerResult) {
	add := func(item models.SyncItem, outcome, reason, message string) {
		detail := &secondary.DetailRecord{
			RunID:   runID,
			ItemID:  item.ID,
			SKU:     item.SKU,
			Outcome: outcome,
			Reason:  reason,
			Message: message,
		}
		if err := s.runs.AddDetail(ctx, detail); err != nil {
			s.logger.Warn("failed to record run detail", zap.String("item_id", item.ID), zap.Error(err))
		}
	}
	for _, item := range result.Data {
		add(item, "success", "", "")
	}
	for _, item := range result.FailedData {
		reason, message := "", result.Error
		if failure, ok := result.FailureFor(item.ID); ok {
			reason, message = failure.Reason, failure.Message
		}
		add(item, "failed", reason, message)
	}
}

// ProcessOne runs the per-item path for a single item. Safe on an
// already-synced item: a ledger hit returns before any remote call.
func (s *SyncServiceImpl) ProcessOne(ctx context.Context, item models.SyncItem) error {
	mapped, err := s.isMapped(ctx, item)
	if err != nil {
		return err
	}
	if mapped {
		s.logger.Info("item already mapped, skipping",
			zap.String("kind", string(item.Kind)),
			zap.String("item_id", item.ID))
		return nil
	}
	return s.processor.ProcessItem(ctx, item)
}

func (s *SyncServiceImpl) isMapped(ctx context.Context, item models.SyncItem) (bool, error) {
	if item.SKU != "" {
		if _, err := s.ledger.GetBySKU(ctx, item.SKU); err == nil {
			return true, nil
		} else if !errors.Is(err, secondary.ErrNotMapped) {
			return false, fmt.Errorf("failed to check mapping: %w", err)
		}
	}
	if _, err := s.ledger.GetRemoteID(ctx, item.Kind, item.ID); err == nil {
		return true, nil
	} else if !errors.Is(err, secondary.ErrNotMapped) {
		return false, fmt.Errorf("failed to check mapping: %w", err)
	}
	return false, nil
}

// Ensure SyncServiceImpl implements the interface
var _ primary.SyncService = (*SyncServiceImpl)(nil)
