package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/shopsync/internal/core/order"
	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/primary"
	"github.com/example/shopsync/internal/ports/secondary"
)

// RetryServiceImpl implements the RetryService interface. It replays dead
// letters through the per-item sync path and moves each file one-way into
// its outcome state.
type RetryServiceImpl struct {
	deadLetters   secondary.DeadLetterStore
	services      map[models.ItemKind]primary.SyncService
	defaultWindow time.Duration
	logger        *zap.Logger
}

// NewRetryService creates a retry service over the per-kind sync services.
func NewRetryService(
	deadLetters secondary.DeadLetterStore,
	services map[models.ItemKind]primary.SyncService,
	defaultWindow time.Duration,
	logger *zap.Logger,
) *RetryServiceImpl {
	if defaultWindow <= 0 {
		defaultWindow = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryServiceImpl{
		deadLetters:   deadLetters,
		services:      services,
		defaultWindow: defaultWindow,
		logger:        logger,
	}
}

// Retry selects dead letters per the options and replays each one.
func (s *RetryServiceImpl) Retry(ctx context.Context, opts primary.RetryOptions) ([]primary.RetryOutcome, error) {
	window := s.defaultWindow
	if opts.All {
		window = 0
	} else if opts.Window > 0 {
		window = opts.Window
	}

	records, err := s.deadLetters.ListUnprocessed(window)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	if opts.Latest && len(records) > 1 {
		records = records[:1]
	}

	outcomes := make([]primary.RetryOutcome, 0, len(records))
	for _, record := range records {
		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
		outcomes = append(outcomes, s.replay(ctx, record, opts))
	}
	return outcomes, nil
}

// replay runs one record through repair, classification, and the per-item
// path, then transitions its file.
func (s *RetryServiceImpl) replay(ctx context.Context, record *secondary.DeadLetterRecord, opts primary.RetryOptions) primary.RetryOutcome {
	outcome := primary.RetryOutcome{
		ItemID: record.ItemID,
		Kind:   record.Kind,
		Reason: record.Reason,
	}

	item := models.SyncItem{Kind: record.Kind, ID: record.ItemID, Payload: record.Payload}
	if record.Reason == secondary.ReasonValidationFailed && !opts.NoRepair {
		if repaired, ok := repairPayload(record); ok {
			item.Payload = repaired
			outcome.Repaired = true
		}
	}

	if opts.DryRun {
		outcome.Result = "dry_run"
		if err := s.deadLetters.MarkDryRun(record); err != nil {
			outcome.Err = err.Error()
		}
		return outcome
	}

	svc, ok := s.services[record.Kind]
	if !ok {
		outcome.Result = "failed_retry"
		outcome.Err = fmt.Sprintf("no sync service for kind %q", record.Kind)
		s.markFailed(record, &outcome)
		return outcome
	}

	if err := svc.ProcessOne(ctx, item); err != nil {
		s.logger.Warn("retry failed",
			zap.String("item_id", record.ItemID),
			zap.String("reason", record.Reason),
			zap.Error(err))
		outcome.Result = "failed_retry"
		outcome.Err = err.Error()
		s.markFailed(record, &outcome)
		return outcome
	}

	outcome.Result = "processed"
	if err := s.deadLetters.MarkProcessed(record); err != nil {
		outcome.Err = err.Error()
	}
	return outcome
}

func (s *RetryServiceImpl) markFailed(record *secondary.DeadLetterRecord, outcome *primary.RetryOutcome) {
	if err := s.deadLetters.MarkFailedRetry(record); err != nil {
		s.logger.Error("failed to transition dead letter",
			zap.String("item_id", record.ItemID),
			zap.Error(err))
		if outcome.Err == "" {
			outcome.Err = err.Error()
		}
	}
}

// repairPayload applies the automatic repair heuristics to a
// validation-failed order record. Structural problems (no lines, no
// address) are not repairable; those records fail again on replay.
func repairPayload(record *secondary.DeadLetterRecord) (json.RawMessage, bool) {
	if record.Kind != models.KindOrder {
		return nil, false
	}

	var o models.Order
	if err := json.Unmarshal(record.Payload, &o); err != nil {
		return nil, false
	}
	if o.ID == "" {
		o.ID = record.ItemID
	}
	if !order.Repair(&o) {
		return nil, false
	}

	payload, err := json.Marshal(&o)
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Ensure RetryServiceImpl implements the interface
var _ primary.RetryService = (*RetryServiceImpl)(nil)
