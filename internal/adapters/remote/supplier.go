package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// Supplier is the HTTP client for the supplier system. The supplier speaks
// an XML envelope protocol: every call is a POST with an operation name and
// a JSON payload carried inside the envelope, and every response carries an
// explicit status string plus an optional JSON body.
type Supplier struct {
	endpoint string
	apiKey   string
	client   *http.Client
	guard    *guard
	logger   *zap.Logger
}

// NewSupplier creates a supplier client.
func NewSupplier(endpoint, apiKey string, requestsPerSecond float64, logger *zap.Logger) *Supplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supplier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
		guard:    newGuard("supplier", requestsPerSecond, logger),
		logger:   logger,
	}
}

type supplierRequest struct {
	XMLName   xml.Name `xml:"request"`
	Operation string   `xml:"operation"`
	Payload   string   `xml:"payload,omitempty"`
}

type supplierEnvelope struct {
	XMLName   xml.Name `xml:"response"`
	Status    string   `xml:"status"`
	Message   string   `xml:"message,omitempty"`
	Reference string   `xml:"reference,omitempty"`
	Body      string   `xml:"body,omitempty"`
}

// call posts one XML envelope and decodes the response envelope.
func (s *Supplier) call(ctx context.Context, operation string, payload any) (*secondary.SupplierResponse, error) {
	var body string
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", operation, err)
		}
		body = string(data)
	}

	envelope, err := xml.Marshal(supplierRequest{Operation: operation, Payload: body})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", operation, err)
	}

	raw, err := s.guard.call(ctx, func() (any, error) {
		return s.post(ctx, operation, envelope)
	})
	if err != nil {
		return nil, err
	}
	return raw.(*secondary.SupplierResponse), nil
}

func (s *Supplier) post(ctx context.Context, operation string, envelope []byte) (*secondary.SupplierResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supplier %s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read supplier %s response: %w", operation, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &secondary.APIError{
			Op:         "supplier " + operation,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	var env supplierEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse supplier %s response: %w", operation, err)
	}
	return &secondary.SupplierResponse{
		Status:    secondary.SupplierStatus(env.Status),
		Message:   env.Message,
		Reference: env.Reference,
		Body:      json.RawMessage(env.Body),
	}, nil
}

// decodeBody unmarshals the JSON body of a supplier response, requiring a
// SUCCESS status first.
func decodeBody(resp *secondary.SupplierResponse, operation string, v any) error {
	if resp.Status != secondary.StatusSuccess {
		return secondary.NewFailure(secondary.ReasonInvalidResponse,
			fmt.Errorf("supplier %s returned status %q: %s", operation, resp.Status, resp.Message))
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return secondary.NewFailure(secondary.ReasonInvalidResponse,
			fmt.Errorf("failed to parse supplier %s body: %w", operation, err))
	}
	return nil
}

// ListItems returns the items of a kind changed since the given time.
func (s *Supplier) ListItems(ctx context.Context, kind models.ItemKind, since time.Time) ([]models.SyncItem, error) {
	payload := map[string]any{"kind": kind}
	if !since.IsZero() {
		payload["since"] = since.UTC().Format(time.RFC3339)
	}

	resp, err := s.call(ctx, "listItems", payload)
	if err != nil {
		return nil, err
	}

	var items []models.SyncItem
	if err := decodeBody(resp, "listItems", &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Kind = kind
	}
	return items, nil
}

// GetItemDetail fetches the full detail payload for one item.
func (s *Supplier) GetItemDetail(ctx context.Context, itemID string) (json.RawMessage, error) {
	resp, err := s.call(ctx, "getItemDetail", map[string]any{"item_id": itemID})
	if err != nil {
		return nil, err
	}
	if resp.Status != secondary.StatusSuccess {
		return nil, secondary.NewFailure(secondary.ReasonInvalidResponse,
			fmt.Errorf("supplier getItemDetail returned status %q: %s", resp.Status, resp.Message))
	}
	return resp.Body, nil
}

// CreateOrder submits an order with its idempotency key. The response is
// returned as-is; the caller owns the status taxonomy.
func (s *Supplier) CreateOrder(ctx context.Context, order *models.Order, idempotencyKey string) (*secondary.SupplierResponse, error) {
	return s.call(ctx, "createOrder", map[string]any{
		"order":           order,
		"idempotency_key": idempotencyKey,
	})
}

// UpdateOrder pushes an order state change.
func (s *Supplier) UpdateOrder(ctx context.Context, remoteRef string, order *models.Order) (*secondary.SupplierResponse, error) {
	return s.call(ctx, "updateOrder", map[string]any{
		"reference": remoteRef,
		"order":     order,
	})
}

// GetOrders returns the supplier's already processed orders.
func (s *Supplier) GetOrders(ctx context.Context, filter secondary.OrderFilter) ([]secondary.ProcessedOrder, error) {
	payload := map[string]any{}
	if !filter.Since.IsZero() {
		payload["since"] = filter.Since.UTC().Format(time.RFC3339)
	}
	if filter.Limit > 0 {
		payload["limit"] = filter.Limit
	}

	resp, err := s.call(ctx, "getOrders", payload)
	if err != nil {
		return nil, err
	}

	var orders []secondary.ProcessedOrder
	if err := decodeBody(resp, "getOrders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Ensure Supplier implements the interface
var _ secondary.SupplierClient = (*Supplier)(nil)
