// Package product holds the pure reconciliation decision logic for
// products.
package product

// Action is the reconciliation decision for one product.
type Action string

const (
	// ActionCreate publishes a new product on the storefront.
	ActionCreate Action = "create"
	// ActionUpdate pushes price and inventory to an existing counterpart.
	ActionUpdate Action = "update"
	// ActionUnpublish moves an existing counterpart to draft state.
	ActionUnpublish Action = "unpublish"
	// ActionSkip takes no remote action.
	ActionSkip Action = "skip"
)

// Decide picks the reconciliation action for a product. A product with no
// existing mapping and zero inventory is never published for the first
// time; an already-published product that drops to zero is unpublished,
// never deleted.
func Decide(mapped bool, quantity int) Action {
	switch {
	case !mapped && quantity <= 0:
		return ActionSkip
	case !mapped:
		return ActionCreate
	case quantity <= 0:
		return ActionUnpublish
	default:
		return ActionUpdate
	}
}
