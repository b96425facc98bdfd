package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/worker"
)

// stubProcessor scripts per-item outcomes for runner tests.
type stubProcessor struct {
	mu        sync.Mutex
	seen      []string
	failIDs   map[string]error
	panicIDs  map[string]bool
	onProcess func(id string)
}

func newStubProcessor() *stubProcessor {
	return &stubProcessor{failIDs: map[string]error{}, panicIDs: map[string]bool{}}
}

func (s *stubProcessor) Kind() models.ItemKind { return models.KindProduct }

func (s *stubProcessor) ProcessItem(_ context.Context, item models.SyncItem) error {
	s.mu.Lock()
	s.seen = append(s.seen, item.ID)
	s.mu.Unlock()
	if s.onProcess != nil {
		s.onProcess(item.ID)
	}
	if s.panicIDs[item.ID] {
		panic("boom")
	}
	if err, ok := s.failIDs[item.ID]; ok {
		return err
	}
	return nil
}

func chunkOf(ids ...string) []models.SyncItem {
	items := make([]models.SyncItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.SyncItem{Kind: models.KindProduct, ID: id, Payload: []byte(`{}`)})
	}
	return items
}

func fastRunner(proc worker.ItemProcessor, dls *fakeDeadLetters, opts worker.RunnerOptions) *worker.Runner {
	if opts.ItemDelay == 0 {
		opts.ItemDelay = time.Nanosecond
	}
	return worker.NewRunner(proc, dls, nil, opts)
}

func TestRunnerProcessesInChunkOrder(t *testing.T) {
	proc := newStubProcessor()
	r := fastRunner(proc, nil, worker.RunnerOptions{})

	result := r.Run(context.Background(), 1, chunkOf("a", "b", "c", "d"))

	want := []string{"a", "b", "c", "d"}
	if len(proc.seen) != len(want) {
		t.Fatalf("expected %d items processed, got %d", len(want), len(proc.seen))
	}
	for i, id := range want {
		if proc.seen[i] != id {
			t.Errorf("position %d: expected %s, got %s", i, id, proc.seen[i])
		}
	}
	if result.Processed != 4 || result.Success != 4 || result.Failed != 0 {
		t.Errorf("unexpected counts: %+v", result)
	}
}

func TestRunnerContainsItemFailures(t *testing.T) {
	proc := newStubProcessor()
	proc.failIDs["b"] = errors.New("remote unavailable")
	dls := &fakeDeadLetters{}
	r := fastRunner(proc, dls, worker.RunnerOptions{})

	result := r.Run(context.Background(), 1, chunkOf("a", "b", "c"))

	if result.Processed != 3 {
		t.Errorf("a failing item must not abort its siblings, processed=%d", result.Processed)
	}
	if result.Success != 2 || result.Failed != 1 {
		t.Errorf("unexpected counts: success=%d failed=%d", result.Success, result.Failed)
	}
	if len(result.FailedData) != 1 || result.FailedData[0].ID != "b" {
		t.Errorf("expected b in failed data, got %+v", result.FailedData)
	}
	if len(dls.captured) != 1 || dls.captured[0].ItemID != "b" {
		t.Fatalf("expected b dead-lettered, got %+v", dls.captured)
	}
	if dls.captured[0].Reason != "exception" {
		t.Errorf("untagged error must classify as exception, got %s", dls.captured[0].Reason)
	}
	failure, ok := result.FailureFor("b")
	if !ok {
		t.Fatalf("expected a failure record for b, got %+v", result.Failures)
	}
	if failure.Reason != "exception" || failure.Message != "remote unavailable" {
		t.Errorf("unexpected failure record: %+v", failure)
	}
}

func TestRunnerContainsPanics(t *testing.T) {
	proc := newStubProcessor()
	proc.panicIDs["b"] = true
	dls := &fakeDeadLetters{}
	r := fastRunner(proc, dls, worker.RunnerOptions{})

	result := r.Run(context.Background(), 1, chunkOf("a", "b", "c"))

	if result.Processed != 3 || result.Failed != 1 {
		t.Errorf("a panicking item must be contained, got %+v", result)
	}
	if len(dls.captured) != 1 || dls.captured[0].ItemID != "b" {
		t.Errorf("expected panicking item dead-lettered, got %+v", dls.captured)
	}
}

func TestRunnerStopsCooperatively(t *testing.T) {
	proc := newStubProcessor()
	dls := &fakeDeadLetters{}
	r := fastRunner(proc, dls, worker.RunnerOptions{})
	proc.onProcess = func(id string) {
		if id == "b" {
			r.Stop()
		}
	}

	result := r.Run(context.Background(), 1, chunkOf("a", "b", "c", "d"))

	// The item in flight finishes; nothing after it starts.
	if result.Processed != 2 {
		t.Errorf("expected 2 processed after stop, got %d", result.Processed)
	}
	if len(proc.seen) != 2 {
		t.Errorf("expected no items after stop, saw %v", proc.seen)
	}
	if result.Progress.ProcessedItems != 2 {
		t.Errorf("partial result must carry a progress snapshot, got %+v", result.Progress)
	}
}

func TestRunnerHonorsContextCancellation(t *testing.T) {
	proc := newStubProcessor()
	ctx, cancel := context.WithCancel(context.Background())
	proc.onProcess = func(id string) {
		if id == "a" {
			cancel()
		}
	}
	r := fastRunner(proc, nil, worker.RunnerOptions{})

	result := r.Run(ctx, 1, chunkOf("a", "b", "c"))

	if result.Processed > 1 {
		t.Errorf("expected at most 1 processed after cancel, got %d", result.Processed)
	}
}

func TestRunnerPersistsFinalResult(t *testing.T) {
	proc := newStubProcessor()
	var snapshots []models.WorkerResult
	r := fastRunner(proc, nil, worker.RunnerOptions{
		ProgressInterval: time.Hour, // only the final persist fires
		Persist: func(res *models.WorkerResult) {
			snapshots = append(snapshots, *res)
		},
	})

	r.Run(context.Background(), 3, chunkOf("a", "b"))

	if len(snapshots) == 0 {
		t.Fatal("expected at least the final persist")
	}
	last := snapshots[len(snapshots)-1]
	if last.Processed != 2 || last.WorkerID != 3 {
		t.Errorf("final snapshot incomplete: %+v", last)
	}
	if last.Progress.ProgressPercent != 100 {
		t.Errorf("final snapshot must show full progress, got %+v", last.Progress)
	}
}
