package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// Ensure mocks implement their interfaces
var (
	_ secondary.LedgerRepository  = (*mockLedger)(nil)
	_ secondary.SyncRunRepository = (*mockRuns)(nil)
	_ secondary.DeadLetterStore   = (*mockDeadLetters)(nil)
)

// mockLedger implements secondary.LedgerRepository for testing.
type mockLedger struct {
	mu       sync.Mutex
	mappings map[string]string // kind|local_id -> remote_id
	skus     map[string]string // sku -> remote_id
	lastSync map[models.ItemKind]time.Time
	advanced []time.Time
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		mappings: map[string]string{},
		skus:     map[string]string{},
		lastSync: map[models.ItemKind]time.Time{},
	}
}

func (m *mockLedger) GetRemoteID(_ context.Context, kind models.ItemKind, localID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if remote, ok := m.mappings[string(kind)+"|"+localID]; ok {
		return remote, nil
	}
	return "", secondary.ErrNotMapped
}

func (m *mockLedger) GetLocalID(context.Context, models.ItemKind, string) (string, error) {
	return "", secondary.ErrNotMapped
}

func (m *mockLedger) GetBySKU(_ context.Context, sku string) (*secondary.MappingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if remote, ok := m.skus[sku]; ok {
		return &secondary.MappingRecord{SKU: sku, RemoteID: remote}, nil
	}
	return nil, secondary.ErrNotMapped
}

func (m *mockLedger) SaveMapping(_ context.Context, kind models.ItemKind, localID, remoteID, sku string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[string(kind)+"|"+localID] = remoteID
	if sku != "" {
		m.skus[sku] = remoteID
	}
	return nil
}

func (m *mockLedger) UpdateSyncState(_ context.Context, _ models.ItemKind, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advanced = append(m.advanced, at)
	return nil
}

func (m *mockLedger) GetLastSyncTime(_ context.Context, kind models.ItemKind) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSync[kind], nil
}

// mockRuns implements secondary.SyncRunRepository for testing.
type mockRuns struct {
	mu       sync.Mutex
	created  []string
	finished map[string]string // run id -> status
	details  []*secondary.DetailRecord
}

func newMockRuns() *mockRuns {
	return &mockRuns{finished: map[string]string{}}
}

func (m *mockRuns) CreateRun(_ context.Context, id string, _ models.ItemKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, id)
	return nil
}

func (m *mockRuns) FinishRun(_ context.Context, id string, _, _, _ int, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[id] = status
	return nil
}

func (m *mockRuns) AddDetail(_ context.Context, detail *secondary.DetailRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details = append(m.details, detail)
	return nil
}

func (m *mockRuns) ListRuns(context.Context, int) ([]*secondary.RunRecord, error) {
	return nil, nil
}

func (m *mockRuns) ListDetails(context.Context, string) ([]*secondary.DetailRecord, error) {
	return nil, nil
}

// mockDeadLetters implements secondary.DeadLetterStore for testing.
type mockDeadLetters struct {
	mu          sync.Mutex
	records     []*secondary.DeadLetterRecord
	listWindows []time.Duration
	processed   []string
	failedRetry []string
	dryRun      []string
}

func (m *mockDeadLetters) Capture(record *secondary.DeadLetterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *mockDeadLetters) ListUnprocessed(window time.Duration) ([]*secondary.DeadLetterRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listWindows = append(m.listWindows, window)
	return append([]*secondary.DeadLetterRecord{}, m.records...), nil
}

func (m *mockDeadLetters) MarkProcessed(record *secondary.DeadLetterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed = append(m.processed, record.ItemID)
	return nil
}

func (m *mockDeadLetters) MarkFailedRetry(record *secondary.DeadLetterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedRetry = append(m.failedRetry, record.ItemID)
	return nil
}

func (m *mockDeadLetters) MarkDryRun(record *secondary.DeadLetterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dryRun = append(m.dryRun, record.ItemID)
	return nil
}

// mockProcessor implements worker.ItemProcessor with scripted failures.
type mockProcessor struct {
	mu      sync.Mutex
	kind    models.ItemKind
	seen    []models.SyncItem
	failIDs map[string]error
}

func newMockProcessor(kind models.ItemKind) *mockProcessor {
	return &mockProcessor{kind: kind, failIDs: map[string]error{}}
}

func (m *mockProcessor) Kind() models.ItemKind { return m.kind }

func (m *mockProcessor) ProcessItem(_ context.Context, item models.SyncItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, item)
	if err, ok := m.failIDs[item.ID]; ok {
		return err
	}
	return nil
}

// mockPool implements chunkPool without spawning processes.
type mockPool struct {
	mu      sync.Mutex
	batches [][]models.SyncItem
	results []models.WorkerResult
}

func (m *mockPool) ProcessItems(_ context.Context, _ models.ItemKind, items []models.SyncItem) ([]models.WorkerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, items)
	return m.results, nil
}

func testItems(kind models.ItemKind, ids ...string) []models.SyncItem {
	items := make([]models.SyncItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.SyncItem{Kind: kind, ID: id, Payload: json.RawMessage(`{}`)})
	}
	return items
}
