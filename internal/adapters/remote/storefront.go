package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// Storefront is the JSON REST client for the customer-facing system.
type Storefront struct {
	baseURL string
	apiKey  string
	client  *http.Client
	guard   *guard
	logger  *zap.Logger
}

// NewStorefront creates a storefront client.
func NewStorefront(baseURL, apiKey string, requestsPerSecond float64, logger *zap.Logger) *Storefront {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storefront{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		guard:   newGuard("storefront", requestsPerSecond, logger),
		logger:  logger,
	}
}

// do performs one JSON request and decodes the response into out (skipped
// when out is nil). Non-2xx responses become typed APIErrors so callers can
// distinguish rejection from transient failure.
func (s *Storefront) do(ctx context.Context, method, path string, body, out any) error {
	_, err := s.guard.call(ctx, func() (any, error) {
		return nil, s.roundTrip(ctx, method, path, body, out)
	})
	return err
}

func (s *Storefront) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("storefront %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read storefront response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &secondary.APIError{
			Op:         method + " " + path,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to parse storefront response: %w", err)
		}
	}
	return nil
}

// ListItems pages through storefront records.
func (s *Storefront) ListItems(ctx context.Context, params secondary.ListParams) ([]secondary.StorefrontItem, string, error) {
	query := url.Values{}
	if !params.Since.IsZero() {
		query.Set("updated_since", params.Since.UTC().Format(time.RFC3339))
	}
	if params.PageToken != "" {
		query.Set("page_token", params.PageToken)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	path := "/" + params.Resource
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page struct {
		Items         []secondary.StorefrontItem `json:"items"`
		NextPageToken string                     `json:"next_page_token"`
	}
	if err := s.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, "", err
	}
	return page.Items, page.NextPageToken, nil
}

// CreateItem publishes a new product and returns its remote id.
func (s *Storefront) CreateItem(ctx context.Context, product *models.Product) (string, error) {
	var created struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/products", product, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("storefront create returned no id for sku %s", product.SKU)
	}
	return created.ID, nil
}

// UpdateItem updates price and status on an existing product. Fields the
// sync does not own are deliberately absent from the request body.
func (s *Storefront) UpdateItem(ctx context.Context, remoteID string, price float64, status string) error {
	body := map[string]any{
		"price":  price,
		"status": status,
	}
	return s.do(ctx, http.MethodPut, "/products/"+url.PathEscape(remoteID), body, nil)
}

// UpdateInventory sets the available quantity on an existing product.
func (s *Storefront) UpdateInventory(ctx context.Context, remoteID string, quantity int) error {
	body := map[string]any{"quantity": quantity}
	return s.do(ctx, http.MethodPut, "/products/"+url.PathEscape(remoteID)+"/inventory", body, nil)
}

// GetOrder fetches a storefront order by its id.
func (s *Storefront) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order := &models.Order{}
	if err := s.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrder pushes an order state change to the storefront.
func (s *Storefront) UpdateOrder(ctx context.Context, orderID string, status string) error {
	body := map[string]any{"status": status}
	return s.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(orderID), body, nil)
}

// CreateFulfillment records a fulfillment against a storefront order.
func (s *Storefront) CreateFulfillment(ctx context.Context, orderID string, reference string) error {
	body := map[string]any{"reference": reference}
	return s.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/fulfillments", body, nil)
}

// Ensure Storefront implements the interface
var _ secondary.StorefrontClient = (*Storefront)(nil)
