package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// FileMailbox implements the chunk/result file protocol between the pool
// manager and worker processes. Chunk files are written once by the manager
// and read once by their worker; result files are overwritten in place by
// the worker and become authoritative only after the process has exited.
// Filenames are scoped by run id and worker id so a crash before cleanup
// cannot corrupt a later run.
type FileMailbox struct {
	dir string
}

// NewFileMailbox creates a mailbox rooted at dir.
func NewFileMailbox(dir string) (*FileMailbox, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	return &FileMailbox{dir: dir}, nil
}

// WriteChunk writes a chunk file for a worker.
func (m *FileMailbox) WriteChunk(runID string, workerID int, items []models.SyncItem) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chunk: %w", err)
	}

	path := m.chunkPath(runID, workerID)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write chunk: %w", err)
	}
	return path, nil
}

// ReadChunk reads a chunk file.
func (m *FileMailbox) ReadChunk(path string) ([]models.SyncItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk: %w", err)
	}

	var items []models.SyncItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse chunk: %w", err)
	}
	return items, nil
}

// ResultPath returns the result file path for a worker.
func (m *FileMailbox) ResultPath(runID string, workerID int) string {
	return filepath.Join(m.dir, fmt.Sprintf("result_%s_%d.json", sanitize(runID), workerID))
}

// WriteResult overwrites a worker's result file. The temp-file-and-rename
// write keeps a polling manager from ever reading a half-written snapshot.
func (m *FileMailbox) WriteResult(path string, result *models.WorkerResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// ReadResult reads a worker's result file.
func (m *FileMailbox) ReadResult(path string) (*models.WorkerResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	result := &models.WorkerResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	return result, nil
}

// Cleanup removes a worker's chunk and result files. Best-effort; filenames
// are run-scoped so leftovers are harmless.
func (m *FileMailbox) Cleanup(runID string, workerID int) {
	os.Remove(m.chunkPath(runID, workerID))
	os.Remove(m.ResultPath(runID, workerID))
}

func (m *FileMailbox) chunkPath(runID string, workerID int) string {
	return filepath.Join(m.dir, fmt.Sprintf("chunk_%s_%d.json", sanitize(runID), workerID))
}

// Ensure FileMailbox implements the interface
var _ secondary.Mailbox = (*FileMailbox)(nil)
