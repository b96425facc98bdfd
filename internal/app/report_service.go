package app

import (
	"context"
	"fmt"

	"github.com/example/shopsync/internal/ports/primary"
	"github.com/example/shopsync/internal/ports/secondary"
)

// ReportServiceImpl implements the ReportService interface over the
// sync-run audit trail.
type ReportServiceImpl struct {
	runs secondary.SyncRunRepository
}

// NewReportService creates a report service.
func NewReportService(runs secondary.SyncRunRepository) *ReportServiceImpl {
	return &ReportServiceImpl{runs: runs}
}

// Runs returns the most recent runs, newest first.
func (s *ReportServiceImpl) Runs(ctx context.Context, limit int) ([]primary.RunReport, error) {
	records, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	reports := make([]primary.RunReport, 0, len(records))
	for _, r := range records {
		reports = append(reports, primary.RunReport{
			ID:         r.ID,
			Kind:       r.Kind,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
			Total:      r.Total,
			Succeeded:  r.Succeeded,
			Failed:     r.Failed,
			Status:     r.Status,
		})
	}
	return reports, nil
}

// RunDetails returns the per-item rows of one run.
func (s *ReportServiceImpl) RunDetails(ctx context.Context, runID string) ([]primary.DetailReport, error) {
	records, err := s.runs.ListDetails(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run details: %w", err)
	}

	reports := make([]primary.DetailReport, 0, len(records))
	for _, d := range records {
		reports = append(reports, primary.DetailReport{
			ItemID:  d.ItemID,
			SKU:     d.SKU,
			Outcome: d.Outcome,
			Reason:  d.Reason,
			Message: d.Message,
		})
	}
	return reports, nil
}

// Ensure ReportServiceImpl implements the interface
var _ primary.ReportService = (*ReportServiceImpl)(nil)
