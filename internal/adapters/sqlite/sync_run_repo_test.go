package sqlite_test

import (
	"context"
	"testing"

	"github.com/example/shopsync/internal/adapters/sqlite"
	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

func TestSyncRunRepository_CreateAndFinish(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSyncRunRepository(db)
	ctx := context.Background()

	if err := repo.CreateRun(ctx, "run-1", models.KindProduct); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := repo.FinishRun(ctx, "run-1", 10, 8, 2, "completed"); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := repo.ListRuns(ctx, 5)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Total != 10 || run.Succeeded != 8 || run.Failed != 2 {
		t.Errorf("unexpected counts: %+v", run)
	}
	if run.Status != "completed" {
		t.Errorf("expected completed, got %s", run.Status)
	}
	if run.FinishedAt.IsZero() {
		t.Error("expected finished_at to be set")
	}
}

func TestSyncRunRepository_FinishStatuses(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSyncRunRepository(db)
	ctx := context.Background()

	// Every status the engine finalizes a run with must pass the schema's
	// CHECK constraint, not just the happy path.
	for i, status := range []string{"completed", "partial", "failed"} {
		id := string(rune('a' + i))
		if err := repo.CreateRun(ctx, id, models.KindOrder); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
		if err := repo.FinishRun(ctx, id, 3, 2, 1, status); err != nil {
			t.Fatalf("FinishRun(%q) failed: %v", status, err)
		}
	}

	runs, err := repo.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	seen := make(map[string]bool, len(runs))
	for _, run := range runs {
		seen[run.Status] = true
	}
	for _, status := range []string{"completed", "partial", "failed"} {
		if !seen[status] {
			t.Errorf("run with status %q not persisted", status)
		}
	}
}

func TestSyncRunRepository_FinishUnknownRun(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSyncRunRepository(db)

	if err := repo.FinishRun(context.Background(), "nope", 0, 0, 0, "completed"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestSyncRunRepository_Details(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSyncRunRepository(db)
	ctx := context.Background()

	seedRun(t, db, "run-2", "order")

	details := []*secondary.DetailRecord{
		{RunID: "run-2", ItemID: "ORD-1", Outcome: "success"},
		{RunID: "run-2", ItemID: "ORD-2", Outcome: "failed", Reason: "validation_failed", Message: "missing shipping address"},
		{RunID: "run-2", ItemID: "ORD-3", SKU: "SKU-X", Outcome: "skipped"},
	}
	for _, d := range details {
		if err := repo.AddDetail(ctx, d); err != nil {
			t.Fatalf("AddDetail failed: %v", err)
		}
	}

	got, err := repo.ListDetails(ctx, "run-2")
	if err != nil {
		t.Fatalf("ListDetails failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 details, got %d", len(got))
	}
	if got[0].ItemID != "ORD-1" || got[1].ItemID != "ORD-2" || got[2].ItemID != "ORD-3" {
		t.Errorf("details out of insertion order: %+v", got)
	}
	if got[1].Reason != "validation_failed" {
		t.Errorf("expected reason preserved, got %q", got[1].Reason)
	}
	if got[2].SKU != "SKU-X" {
		t.Errorf("expected sku preserved, got %q", got[2].SKU)
	}
}

func TestSyncRunRepository_ListRunsLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewSyncRunRepository(db)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.CreateRun(ctx, id, models.KindProduct); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs with limit, got %d", len(runs))
	}
}
