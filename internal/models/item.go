// Package models contains the data structures shared between the engine,
// the worker pool, and the worker processes.
package models

import "encoding/json"

// ItemKind distinguishes the two reconcilable item types.
type ItemKind string

const (
	KindProduct ItemKind = "product"
	KindOrder   ItemKind = "order"
)

// Valid reports whether k is a known item kind.
func (k ItemKind) Valid() bool {
	return k == KindProduct || k == KindOrder
}

// SyncItem is the opaque unit of work handed to a worker. It is immutable
// once fetched into a chunk; the payload carries the supplier-side record
// and is decoded by the worker that processes it.
type SyncItem struct {
	Kind    ItemKind        `json:"kind"`
	ID      string          `json:"id"`
	SKU     string          `json:"sku,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Product is the supplier-side product record carried in a SyncItem payload.
type Product struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Category    string  `json:"category,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// Address is a shipping or billing address on an order.
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// OrderLine is a single line item on an order.
type OrderLine struct {
	SKU      string  `json:"sku"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is the storefront-side order record carried in a SyncItem payload.
type Order struct {
	ID              string      `json:"id"`
	Number          string      `json:"number"`
	CustomerEmail   string      `json:"customer_email,omitempty"`
	ShippingAddress *Address    `json:"shipping_address,omitempty"`
	Lines           []OrderLine `json:"lines"`
	Total           float64     `json:"total"`
	Status          string      `json:"status"`
	Fulfillment     string      `json:"fulfillment,omitempty"`
	CancelledAt     string      `json:"cancelled_at,omitempty"`
	CreatedAt       string      `json:"created_at,omitempty"`
}

// DecodeProduct decodes the item payload as a Product.
func (i SyncItem) DecodeProduct() (*Product, error) {
	var p Product
	if err := json.Unmarshal(i.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeOrder decodes the item payload as an Order.
func (i SyncItem) DecodeOrder() (*Order, error) {
	var o Order
	if err := json.Unmarshal(i.Payload, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
