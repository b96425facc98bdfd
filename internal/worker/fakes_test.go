package worker_test

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// fakeLedger is an in-memory LedgerRepository.
type fakeLedger struct {
	mu       sync.Mutex
	mappings map[string]*secondary.MappingRecord // keyed kind|local_id
	saves    int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{mappings: map[string]*secondary.MappingRecord{}}
}

func ledgerKey(kind models.ItemKind, localID string) string {
	return string(kind) + "|" + localID
}

func (f *fakeLedger) GetRemoteID(_ context.Context, kind models.ItemKind, localID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.mappings[ledgerKey(kind, localID)]; ok {
		return m.RemoteID, nil
	}
	return "", secondary.ErrNotMapped
}

func (f *fakeLedger) GetLocalID(_ context.Context, kind models.ItemKind, remoteID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mappings {
		if m.Kind == kind && m.RemoteID == remoteID {
			return m.LocalID, nil
		}
	}
	return "", secondary.ErrNotMapped
}

func (f *fakeLedger) GetBySKU(_ context.Context, sku string) (*secondary.MappingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mappings {
		if m.SKU == sku && sku != "" {
			return m, nil
		}
	}
	return nil, secondary.ErrNotMapped
}

func (f *fakeLedger) SaveMapping(_ context.Context, kind models.ItemKind, localID, remoteID, sku string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.mappings[ledgerKey(kind, localID)] = &secondary.MappingRecord{
		Kind: kind, LocalID: localID, RemoteID: remoteID, SKU: sku, LastSyncedAt: time.Now(),
	}
	return nil
}

func (f *fakeLedger) UpdateSyncState(context.Context, models.ItemKind, time.Time) error { return nil }

func (f *fakeLedger) GetLastSyncTime(context.Context, models.ItemKind) (time.Time, error) {
	return time.Time{}, nil
}

// fakeCache is an in-memory DetailCache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
	hits    int
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]json.RawMessage{}}
}

func (f *fakeCache) Get(kind models.ItemKind, itemID string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payload, ok := f.entries[string(kind)+itemID]; ok {
		f.hits++
		return payload, nil
	}
	return nil, secondary.ErrCacheMiss
}

func (f *fakeCache) Put(kind models.ItemKind, itemID string, payload json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	f.entries[string(kind)+itemID] = payload
	return nil
}

func (f *fakeCache) Invalidate(kind models.ItemKind, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, string(kind)+itemID)
	return nil
}

// fakeSupplier scripts SupplierClient behavior.
type fakeSupplier struct {
	mu            sync.Mutex
	items         []models.SyncItem
	details       map[string]json.RawMessage
	detailCalls   int
	processed     []secondary.ProcessedOrder
	createResp    *secondary.SupplierResponse
	createErr     error
	createCalls   int
	updateResp    *secondary.SupplierResponse
	updateCalls   int
	getOrderCalls int
}

func newFakeSupplier() *fakeSupplier {
	return &fakeSupplier{
		details:    map[string]json.RawMessage{},
		createResp: &secondary.SupplierResponse{Status: secondary.StatusSuccess, Reference: "REF-1"},
		updateResp: &secondary.SupplierResponse{Status: secondary.StatusSuccess},
	}
}

func (f *fakeSupplier) ListItems(context.Context, models.ItemKind, time.Time) ([]models.SyncItem, error) {
	return f.items, nil
}

func (f *fakeSupplier) GetItemDetail(_ context.Context, itemID string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if d, ok := f.details[itemID]; ok {
		return d, nil
	}
	return json.RawMessage(`{}`), nil
}

func (f *fakeSupplier) CreateOrder(_ context.Context, _ *models.Order, _ string) (*secondary.SupplierResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeSupplier) UpdateOrder(_ context.Context, _ string, _ *models.Order) (*secondary.SupplierResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	return f.updateResp, nil
}

func (f *fakeSupplier) GetOrders(context.Context, secondary.OrderFilter) ([]secondary.ProcessedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getOrderCalls++
	return f.processed, nil
}

// fakeStorefront scripts StorefrontClient behavior.
type fakeStorefront struct {
	mu               sync.Mutex
	nextID           int
	createCalls      int
	createErr        error
	updateCalls      []string // "remoteID:price:status"
	updateErr        error
	inventoryCalls   []string // "remoteID:qty"
	fulfillmentCalls int
}

func newFakeStorefront() *fakeStorefront {
	return &fakeStorefront{nextID: 100}
}

func (f *fakeStorefront) ListItems(context.Context, secondary.ListParams) ([]secondary.StorefrontItem, string, error) {
	return nil, "", nil
}

func (f *fakeStorefront) CreateItem(_ context.Context, _ *models.Product) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	return "SF-" + itoa(f.nextID), nil
}

func (f *fakeStorefront) UpdateItem(_ context.Context, remoteID string, price float64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updateCalls = append(f.updateCalls, remoteID+":"+ftoa(price)+":"+status)
	return nil
}

func (f *fakeStorefront) UpdateInventory(_ context.Context, remoteID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventoryCalls = append(f.inventoryCalls, remoteID+":"+itoa(quantity))
	return nil
}

func (f *fakeStorefront) GetOrder(context.Context, string) (*models.Order, error) {
	return nil, &secondary.APIError{Op: "get order", StatusCode: 404, Body: "not found"}
}

func (f *fakeStorefront) UpdateOrder(context.Context, string, string) error { return nil }

func (f *fakeStorefront) CreateFulfillment(_ context.Context, _ string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fulfillmentCalls++
	return nil
}

// fakeDeadLetters records captures in memory.
type fakeDeadLetters struct {
	mu       sync.Mutex
	captured []*secondary.DeadLetterRecord
}

func (f *fakeDeadLetters) Capture(record *secondary.DeadLetterRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captured = append(f.captured, record)
	return nil
}

func (f *fakeDeadLetters) ListUnprocessed(time.Duration) ([]*secondary.DeadLetterRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*secondary.DeadLetterRecord{}, f.captured...), nil
}

func (f *fakeDeadLetters) MarkProcessed(*secondary.DeadLetterRecord) error   { return nil }
func (f *fakeDeadLetters) MarkFailedRetry(*secondary.DeadLetterRecord) error { return nil }
func (f *fakeDeadLetters) MarkDryRun(*secondary.DeadLetterRecord) error      { return nil }

func itoa(n int) string {
	return strconv.Itoa(n)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
