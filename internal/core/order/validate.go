// Package order holds the pure validation and repair logic for orders.
package order

import (
	"fmt"
	"strings"

	"github.com/example/shopsync/internal/models"
)

// ValidationError carries the field-level issues found on an order before
// any remote call was made.
type ValidationError struct {
	Issues []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("order failed validation: %s", strings.Join(e.Issues, "; "))
}

// Validate checks an order for the fields the supplier requires. Returns a
// *ValidationError listing every missing field, or nil.
func Validate(o *models.Order) error {
	var issues []string

	if o.ShippingAddress == nil {
		issues = append(issues, "missing shipping address")
	} else {
		if o.ShippingAddress.Street == "" {
			issues = append(issues, "missing shipping street")
		}
		if o.ShippingAddress.City == "" {
			issues = append(issues, "missing shipping city")
		}
		if o.ShippingAddress.Country == "" {
			issues = append(issues, "missing shipping country")
		}
	}
	if o.CustomerEmail == "" {
		issues = append(issues, "missing customer email")
	}
	if len(o.Lines) == 0 {
		issues = append(issues, "order has no line items")
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Repair applies the automatic data-repair heuristics for orders that
// failed validation: a missing customer email is backfilled from the
// shipping address or a generated placeholder, and a missing country
// defaults to the storefront's home market. Returns whether anything
// changed. Structural problems (no address, no lines) are not repairable.
func Repair(o *models.Order) bool {
	repaired := false

	if o.CustomerEmail == "" {
		if o.ShippingAddress != nil && o.ShippingAddress.Email != "" {
			o.CustomerEmail = o.ShippingAddress.Email
		} else {
			o.CustomerEmail = PlaceholderEmail(o.ID)
		}
		repaired = true
	}
	if o.ShippingAddress != nil && o.ShippingAddress.Country == "" {
		o.ShippingAddress.Country = DefaultCountry
		repaired = true
	}

	return repaired
}

// DefaultCountry is backfilled when an address has no country.
const DefaultCountry = "US"

// PlaceholderEmail generates a deterministic placeholder address for an
// order with no recoverable customer email. The reserved .invalid TLD keeps
// it undeliverable.
func PlaceholderEmail(orderID string) string {
	return fmt.Sprintf("orders+%s@placeholder.invalid", orderID)
}
