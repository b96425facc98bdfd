package secondary

import (
	"context"
	"encoding/json"
	"time"

	"github.com/example/shopsync/internal/models"
)

// SupplierStatus is the explicit outcome field on supplier responses.
type SupplierStatus string

const (
	StatusSuccess       SupplierStatus = "SUCCESS"
	StatusAlreadyExists SupplierStatus = "ALREADY_EXISTS"
	StatusFail          SupplierStatus = "FAIL"
)

// SupplierResponse is the structured envelope returned by every supplier
// operation. Status values outside the known set must be treated as an
// unknown response, not an error.
type SupplierResponse struct {
	Status    SupplierStatus  `json:"status"`
	Message   string          `json:"message,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
}

// ProcessedOrder is one entry in the supplier's set of already accepted
// orders, used to avoid duplicate creation when the ledger is stale.
type ProcessedOrder struct {
	Reference      string `json:"reference"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Status         string `json:"status"`
}

// OrderFilter bounds a GetOrders query.
type OrderFilter struct {
	Since time.Time
	Limit int
}

// SupplierClient is the SOAP-style upstream client: the source of truth for
// products and inventory, and the destination for created orders.
type SupplierClient interface {
	// ListItems returns the items of a kind changed since the given time
	// (the zero time means everything).
	ListItems(ctx context.Context, kind models.ItemKind, since time.Time) ([]models.SyncItem, error)

	// GetItemDetail fetches the full detail payload for one item. Expensive;
	// callers go through the DetailCache.
	GetItemDetail(ctx context.Context, itemID string) (json.RawMessage, error)

	// CreateOrder submits an order.
	CreateOrder(ctx context.Context, order *models.Order, idempotencyKey string) (*SupplierResponse, error)

	// UpdateOrder pushes an order state change (e.g. cancellation).
	UpdateOrder(ctx context.Context, remoteRef string, order *models.Order) (*SupplierResponse, error)

	// GetOrders returns the supplier's already processed orders.
	GetOrders(ctx context.Context, filter OrderFilter) ([]ProcessedOrder, error)
}

// ListParams bounds a storefront listing query.
type ListParams struct {
	Resource  string // "products" or "orders"
	Since     time.Time
	PageToken string
	Limit     int
}

// StorefrontItem is a storefront record with its remote identifier.
type StorefrontItem struct {
	ID      string          `json:"id"`
	SKU     string          `json:"sku,omitempty"`
	Status  string          `json:"status,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StorefrontClient is the REST-style client for the customer-facing system.
// Every method returns a typed error on transport or HTTP failure.
type StorefrontClient interface {
	// ListItems pages through storefront records; an empty next token ends
	// the listing.
	ListItems(ctx context.Context, params ListParams) (items []StorefrontItem, nextPageToken string, err error)

	// CreateItem publishes a new product and returns its remote id.
	CreateItem(ctx context.Context, product *models.Product) (string, error)

	// UpdateItem updates price and status on an existing product, leaving
	// fields the sync does not own untouched.
	UpdateItem(ctx context.Context, remoteID string, price float64, status string) error

	// UpdateInventory sets the available quantity on an existing product.
	UpdateInventory(ctx context.Context, remoteID string, quantity int) error

	// GetOrder fetches a storefront order by its id.
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)

	// UpdateOrder pushes an order state change to the storefront.
	UpdateOrder(ctx context.Context, orderID string, status string) error

	// CreateFulfillment records a fulfillment against a storefront order.
	CreateFulfillment(ctx context.Context, orderID string, reference string) error
}
