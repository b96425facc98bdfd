package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/shopsync/internal/core/order"
	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// OrderProcessor pushes storefront orders to the supplier and reconciles
// fulfillment and cancellation state on mapped orders.
type OrderProcessor struct {
	ledger     secondary.LedgerRepository
	supplier   secondary.SupplierClient
	storefront secondary.StorefrontClient
	logger     *zap.Logger

	// processedLookback bounds the GetOrders duplicate check.
	processedLookback time.Duration
}

// NewOrderProcessor creates an order processor.
func NewOrderProcessor(
	ledger secondary.LedgerRepository,
	supplier secondary.SupplierClient,
	storefront secondary.StorefrontClient,
	logger *zap.Logger,
) *OrderProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderProcessor{
		ledger:            ledger,
		supplier:          supplier,
		storefront:        storefront,
		logger:            logger,
		processedLookback: 30 * 24 * time.Hour,
	}
}

// Kind returns the item kind this processor handles.
func (p *OrderProcessor) Kind() models.ItemKind { return models.KindOrder }

// ProcessItem reconciles one order. Unmapped orders are validated and
// created on the supplier, guarded twice against duplicates: the supplier's
// already-processed set is consulted first, and the creation payload embeds
// a content-derived idempotency key. Mapped orders get divergent
// cancellation or fulfillment state pushed.
func (p *OrderProcessor) ProcessItem(ctx context.Context, item models.SyncItem) error {
	o, err := item.DecodeOrder()
	if err != nil {
		return secondary.NewFailure(secondary.ReasonInvalidResponse,
			fmt.Errorf("order %s payload is not decodable: %w", item.ID, err))
	}
	if o.ID == "" {
		o.ID = item.ID
	}

	remoteRef, err := p.ledger.GetRemoteID(ctx, models.KindOrder, o.ID)
	if errors.Is(err, secondary.ErrNotMapped) {
		return p.create(ctx, o)
	}
	if err != nil {
		return fmt.Errorf("failed to look up order mapping: %w", err)
	}
	return p.reconcileState(ctx, o, remoteRef)
}

func (p *OrderProcessor) create(ctx context.Context, o *models.Order) error {
	if err := order.Validate(o); err != nil {
		return err
	}

	key := order.IdempotencyKey(o)

	// Defense in depth: even with a stale ledger, an order the supplier
	// already accepted must not be created again.
	processed, err := p.supplier.GetOrders(ctx, secondary.OrderFilter{
		Since: time.Now().Add(-p.processedLookback),
	})
	if err != nil {
		return fmt.Errorf("failed to fetch processed orders: %w", err)
	}
	for _, existing := range processed {
		if existing.IdempotencyKey == key {
			p.logger.Info("order already processed by supplier, backfilling mapping",
				zap.String("order_id", o.ID),
				zap.String("reference", existing.Reference))
			return p.saveMapping(ctx, o.ID, existing.Reference)
		}
	}

	resp, err := p.supplier.CreateOrder(ctx, o, key)
	if err != nil {
		return fmt.Errorf("failed to create order %s: %w", o.ID, err)
	}

	switch resp.Status {
	case secondary.StatusSuccess, secondary.StatusAlreadyExists:
		return p.saveMapping(ctx, o.ID, resp.Reference)
	case secondary.StatusFail:
		return secondary.NewFailure(secondary.ReasonCreateFailed,
			fmt.Errorf("supplier rejected order %s: %s", o.ID, resp.Message))
	case "":
		return secondary.NewFailure(secondary.ReasonInvalidResponse,
			fmt.Errorf("supplier response for order %s has no status", o.ID))
	default:
		return secondary.NewFailure(secondary.ReasonUnknownResponse,
			fmt.Errorf("supplier returned status %q for order %s", resp.Status, o.ID))
	}
}

// reconcileState pushes divergent state on an already-mapped order.
func (p *OrderProcessor) reconcileState(ctx context.Context, o *models.Order, remoteRef string) error {
	if o.CancelledAt != "" {
		resp, err := p.supplier.UpdateOrder(ctx, remoteRef, o)
		if err != nil {
			return fmt.Errorf("failed to push cancellation for order %s: %w", o.ID, err)
		}
		switch resp.Status {
		case secondary.StatusSuccess, secondary.StatusAlreadyExists:
			return nil
		case secondary.StatusFail:
			return secondary.NewFailure(secondary.ReasonUpdateFailed,
				fmt.Errorf("supplier rejected cancellation for order %s: %s", o.ID, resp.Message))
		case "":
			return secondary.NewFailure(secondary.ReasonInvalidResponse,
				fmt.Errorf("supplier response for order %s has no status", o.ID))
		default:
			return secondary.NewFailure(secondary.ReasonUnknownResponse,
				fmt.Errorf("supplier returned status %q for order %s", resp.Status, o.ID))
		}
	}

	if o.Fulfillment == "" {
		processed, err := p.supplier.GetOrders(ctx, secondary.OrderFilter{
			Since: time.Now().Add(-p.processedLookback),
		})
		if err != nil {
			return fmt.Errorf("failed to fetch processed orders: %w", err)
		}
		for _, existing := range processed {
			if existing.Reference == remoteRef && existing.Status == "shipped" {
				if err := p.storefront.CreateFulfillment(ctx, o.ID, remoteRef); err != nil {
					return wrapStorefrontErr(secondary.ReasonUpdateFailed, err)
				}
				return nil
			}
		}
	}

	// No divergence to push.
	return nil
}

func (p *OrderProcessor) saveMapping(ctx context.Context, localID, remoteRef string) error {
	if err := p.ledger.SaveMapping(ctx, models.KindOrder, localID, remoteRef, ""); err != nil {
		return fmt.Errorf("failed to persist order mapping: %w", err)
	}
	return nil
}
