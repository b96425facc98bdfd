// Package pool manages the fleet of worker OS processes for a sync run.
// The manager partitions items into chunks, hands each chunk to a spawned
// worker through the filesystem mailbox, polls for liveness and progress,
// and aggregates the authoritative result files after the processes exit.
package pool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

const (
	// MaxWorkers bounds the pool regardless of configuration.
	MaxWorkers = 32

	defaultPollInterval = time.Second
)

// Fallback processes a chunk serially in the manager's own process. It is
// used when a worker fails to spawn, so no chunk is ever silently dropped.
type Fallback func(ctx context.Context, workerID int, kind models.ItemKind, items []models.SyncItem) (*models.WorkerResult, error)

// Options configure a Manager.
type Options struct {
	// Workers is the requested pool size, clamped to [1, MaxWorkers].
	Workers int
	// PollInterval is the liveness/progress poll cadence. Default 1s.
	PollInterval time.Duration
	// Executable is the worker binary. Defaults to the current executable.
	Executable string
	// Fallback handles chunks whose worker could not be spawned. Required.
	Fallback Fallback
}

// Manager spawns and supervises worker processes over the mailbox.
type Manager struct {
	mailbox      secondary.Mailbox
	logger       *zap.Logger
	workers      int
	pollInterval time.Duration
	executable   string
	fallback     Fallback
}

// NewManager creates a pool manager.
func NewManager(mailbox secondary.Mailbox, logger *zap.Logger, opts Options) (*Manager, error) {
	if opts.Fallback == nil {
		return nil, fmt.Errorf("pool manager requires a fallback")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.Executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate worker executable: %w", err)
		}
		opts.Executable = exe
	}
	return &Manager{
		mailbox:      mailbox,
		logger:       logger,
		workers:      ClampWorkers(opts.Workers),
		pollInterval: opts.PollInterval,
		executable:   opts.Executable,
		fallback:     opts.Fallback,
	}, nil
}

// ClampWorkers bounds a requested worker count to [1, MaxWorkers].
func ClampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// Partition splits items into at most workers chunks of ceil(n/workers)
// items each, preserving input order within and across chunks.
func Partition(items []models.SyncItem, workers int) [][]models.SyncItem {
	if len(items) == 0 {
		return nil
	}
	workers = ClampWorkers(workers)
	if workers > len(items) {
		workers = len(items)
	}
	chunkSize := (len(items) + workers - 1) / workers

	chunks := make([][]models.SyncItem, 0, workers)
	for start := 0; start < len(items); start += chunkSize {
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// spawned tracks one live worker process.
type spawned struct {
	workerID   int
	resultPath string
	proc       *os.Process
	exit       chan error
	exited     bool
	exitErr    error
}

// ProcessItems runs items of one kind through the pool and returns one
// result per chunk, ordered by worker id. A chunk whose worker cannot be
// spawned is processed in-process through the fallback instead; partition
// completeness holds even under spawn failure.
func (m *Manager) ProcessItems(ctx context.Context, kind models.ItemKind, items []models.SyncItem) ([]models.WorkerResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	runID := uuid.NewString()
	chunks := Partition(items, m.workers)
	m.logger.Info("dispatching chunks",
		zap.String("run_id", runID),
		zap.String("kind", string(kind)),
		zap.Int("items", len(items)),
		zap.Int("chunks", len(chunks)))

	results := make([]models.WorkerResult, 0, len(chunks))
	var live []*spawned

	for workerID, chunk := range chunks {
		w, err := m.spawn(runID, kind, workerID, chunk)
		if err != nil {
			m.logger.Warn("worker spawn failed, processing chunk in-process",
				zap.Int("worker_id", workerID),
				zap.Error(err))
			result, fbErr := m.fallback(ctx, workerID, kind, chunk)
			if fbErr != nil {
				m.cleanup(runID, live)
				return nil, fmt.Errorf("failed to process chunk %d after spawn failure: %w", workerID, fbErr)
			}
			results = append(results, *result)
			m.mailbox.Cleanup(runID, workerID)
			continue
		}
		live = append(live, w)
	}

	results = append(results, m.supervise(ctx, kind, live)...)
	m.cleanup(runID, live)

	sort.Slice(results, func(i, j int) bool { return results[i].WorkerID < results[j].WorkerID })
	return results, nil
}

// spawn writes the chunk file and starts one worker process. The process
// is deliberately not bound to ctx; cancellation is delivered as a signal
// so the worker can persist partial results before exiting.
func (m *Manager) spawn(runID string, kind models.ItemKind, workerID int, chunk []models.SyncItem) (*spawned, error) {
	chunkPath, err := m.mailbox.WriteChunk(runID, workerID, chunk)
	if err != nil {
		return nil, fmt.Errorf("failed to write chunk: %w", err)
	}
	resultPath := m.mailbox.ResultPath(runID, workerID)

	cmd := exec.Command(m.executable, "worker", string(kind), strconv.Itoa(workerID), chunkPath, resultPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker %d: %w", workerID, err)
	}

	w := &spawned{
		workerID:   workerID,
		resultPath: resultPath,
		proc:       cmd.Process,
		exit:       make(chan error, 1),
	}
	go func() { w.exit <- cmd.Wait() }()

	m.logger.Info("worker started",
		zap.Int("worker_id", workerID),
		zap.Int("pid", cmd.Process.Pid),
		zap.Int("chunk_size", len(chunk)))
	return w, nil
}

// supervise polls the live workers until every one has exited, then reads
// each authoritative result file exactly once.
func (m *Manager) supervise(ctx context.Context, kind models.ItemKind, live []*spawned) []models.WorkerResult {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	done := ctx.Done()
	for remaining(live) > 0 {
		select {
		case <-done:
			m.interrupt(live)
			done = nil // signal once, then keep polling for exits
		case <-ticker.C:
		}

		for _, w := range live {
			if w.exited {
				continue
			}
			select {
			case err := <-w.exit:
				w.exited = true
				w.exitErr = err
			default:
				m.observe(w)
			}
		}
	}

	results := make([]models.WorkerResult, 0, len(live))
	for _, w := range live {
		results = append(results, m.collect(kind, w))
	}
	return results
}

// observe checks liveness and reads the advisory progress snapshot for a
// still-running worker.
func (m *Manager) observe(w *spawned) {
	if err := w.proc.Signal(syscall.Signal(0)); err != nil {
		// Dead but Wait has not delivered yet; next pass picks it up.
		return
	}
	result, err := m.mailbox.ReadResult(w.resultPath)
	if err != nil {
		// No snapshot yet. Workers persist on a throttle.
		return
	}
	m.logger.Info("worker progress",
		zap.Int("worker_id", w.workerID),
		zap.Int("processed", result.Progress.ProcessedItems),
		zap.Int("total", result.Progress.TotalItems),
		zap.Float64("percent", result.Progress.ProgressPercent))
}

// collect reads one exited worker's authoritative result. A missing or
// corrupt result file contributes zero items rather than failing the run.
func (m *Manager) collect(kind models.ItemKind, w *spawned) models.WorkerResult {
	result, err := m.mailbox.ReadResult(w.resultPath)
	if err != nil {
		m.logger.Error("worker left no readable result",
			zap.Int("worker_id", w.workerID),
			zap.NamedError("exit", w.exitErr),
			zap.Error(err))
		return models.WorkerResult{
			WorkerID:   w.workerID,
			WorkerType: kind,
			Error:      fmt.Sprintf("no result file: %v", err),
		}
	}
	if w.exitErr != nil {
		m.logger.Warn("worker exited abnormally",
			zap.Int("worker_id", w.workerID),
			zap.Error(w.exitErr))
		if result.Error == "" {
			result.Error = w.exitErr.Error()
		}
	}
	return *result
}

// interrupt asks every still-running worker to stop. Workers trap the
// signal, finish the item in flight, and persist partial results.
func (m *Manager) interrupt(live []*spawned) {
	for _, w := range live {
		if w.exited {
			continue
		}
		if err := w.proc.Signal(os.Interrupt); err != nil {
			m.logger.Debug("failed to signal worker",
				zap.Int("worker_id", w.workerID),
				zap.Error(err))
		}
	}
}

func (m *Manager) cleanup(runID string, live []*spawned) {
	for _, w := range live {
		m.mailbox.Cleanup(runID, w.workerID)
	}
}

func remaining(live []*spawned) int {
	n := 0
	for _, w := range live {
		if !w.exited {
			n++
		}
	}
	return n
}
