package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/shopsync/internal/adapters/filesystem"
	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/worker"
)

func newTestMailbox(t *testing.T) *filesystem.FileMailbox {
	t.Helper()
	mailbox, err := filesystem.NewFileMailbox(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileMailbox failed: %v", err)
	}
	return mailbox
}

func noRunner(models.ItemKind, func(*models.WorkerResult)) (*worker.Runner, error) {
	return nil, fmt.Errorf("runner must not be built")
}

// A worker that cannot start still leaves a result file carrying the
// failure, for every start-failure branch.
func TestRunWorkerStartFailuresWriteResult(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		workerID string
		chunk    string
	}{
		{"unknown worker type", "widget", "1", "chunk.json"},
		{"non-numeric worker id", "product", "one", "chunk.json"},
		{"missing chunk file", "product", "1", "no-such-chunk.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailbox := newTestMailbox(t)
			resultPath := mailbox.ResultPath("run-x", 1)
			chunkPath := filepath.Join(t.TempDir(), tt.chunk)

			args := []string{tt.kind, tt.workerID, chunkPath, resultPath}
			err := runWorker(context.Background(), mailbox, noRunner, func(string) {}, args)
			if err == nil {
				t.Fatal("expected a start failure")
			}

			result, readErr := mailbox.ReadResult(resultPath)
			if readErr != nil {
				t.Fatalf("expected a result file: %v", readErr)
			}
			if result.Error == "" {
				t.Error("expected the result to carry the failure")
			}
			if result.Processed != 0 {
				t.Errorf("expected no items processed, got %d", result.Processed)
			}
		})
	}
}

type chunkProcessor struct {
	seen []string
}

func (p *chunkProcessor) Kind() models.ItemKind { return models.KindProduct }

func (p *chunkProcessor) ProcessItem(_ context.Context, item models.SyncItem) error {
	p.seen = append(p.seen, item.ID)
	return nil
}

func TestRunWorkerProcessesChunk(t *testing.T) {
	mailbox := newTestMailbox(t)
	items := []models.SyncItem{
		{ID: "P-1", Kind: models.KindProduct},
		{ID: "P-2", Kind: models.KindProduct},
	}
	chunkPath, err := mailbox.WriteChunk("run-y", 2, items)
	if err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	resultPath := mailbox.ResultPath("run-y", 2)

	deadStore, err := filesystem.NewDeadLetterStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDeadLetterStore failed: %v", err)
	}
	processor := &chunkProcessor{}
	newRunner := func(_ models.ItemKind, persist func(*models.WorkerResult)) (*worker.Runner, error) {
		return worker.NewRunner(processor, deadStore, zap.NewNop(), worker.RunnerOptions{
			ItemDelay: time.Nanosecond,
			Persist:   persist,
		}), nil
	}

	args := []string{"product", "2", chunkPath, resultPath}
	if err := runWorker(context.Background(), mailbox, newRunner, func(string) {}, args); err != nil {
		t.Fatalf("runWorker failed: %v", err)
	}

	if len(processor.seen) != 2 {
		t.Fatalf("expected 2 items processed, got %d", len(processor.seen))
	}
	result, err := mailbox.ReadResult(resultPath)
	if err != nil {
		t.Fatalf("expected a final result file: %v", err)
	}
	if result.WorkerID != 2 || result.Success != 2 || result.Error != "" {
		t.Errorf("unexpected final result: %+v", result)
	}
}
