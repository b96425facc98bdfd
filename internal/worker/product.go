package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/shopsync/internal/core/product"
	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/secondary"
)

// ProductProcessor reconciles supplier products onto the storefront.
type ProductProcessor struct {
	ledger     secondary.LedgerRepository
	cache      secondary.DetailCache
	supplier   secondary.SupplierClient
	storefront secondary.StorefrontClient
	logger     *zap.Logger
}

// NewProductProcessor creates a product processor.
func NewProductProcessor(
	ledger secondary.LedgerRepository,
	cache secondary.DetailCache,
	supplier secondary.SupplierClient,
	storefront secondary.StorefrontClient,
	logger *zap.Logger,
) *ProductProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductProcessor{
		ledger:     ledger,
		cache:      cache,
		supplier:   supplier,
		storefront: storefront,
		logger:     logger,
	}
}

// Kind returns the item kind this processor handles.
func (p *ProductProcessor) Kind() models.ItemKind { return models.KindProduct }

// ProcessItem reconciles one product: mapped items get price and inventory
// pushed (preserving storefront fields the sync does not own), unmapped
// items are created unless they carry zero inventory, and mapped items
// dropping to zero are unpublished, never deleted.
func (p *ProductProcessor) ProcessItem(ctx context.Context, item models.SyncItem) error {
	detail, err := p.fetchDetail(ctx, item)
	if err != nil {
		return err
	}

	prod := &models.Product{}
	if err := unmarshalDetail(detail, prod); err != nil {
		return secondary.NewFailure(secondary.ReasonInvalidResponse,
			fmt.Errorf("product %s detail is not decodable: %w", item.ID, err))
	}
	if prod.ID == "" {
		prod.ID = item.ID
	}
	if prod.SKU == "" {
		prod.SKU = item.SKU
	}

	mapping, err := p.lookupMapping(ctx, prod)
	if err != nil {
		return err
	}

	switch product.Decide(mapping != nil, prod.Quantity) {
	case product.ActionSkip:
		p.logger.Debug("skipping unavailable unmapped product", zap.String("sku", prod.SKU))
		return nil

	case product.ActionCreate:
		remoteID, err := p.storefront.CreateItem(ctx, prod)
		if err != nil {
			return wrapStorefrontErr(secondary.ReasonCreateFailed, err)
		}
		if err := p.ledger.SaveMapping(ctx, models.KindProduct, prod.ID, remoteID, prod.SKU); err != nil {
			return fmt.Errorf("failed to persist mapping for %s: %w", prod.SKU, err)
		}
		return nil

	case product.ActionUnpublish:
		if err := p.storefront.UpdateItem(ctx, mapping.RemoteID, prod.Price, "draft"); err != nil {
			return wrapStorefrontErr(secondary.ReasonUpdateFailed, err)
		}
		if err := p.storefront.UpdateInventory(ctx, mapping.RemoteID, 0); err != nil {
			return wrapStorefrontErr(secondary.ReasonUpdateFailed, err)
		}
		return p.touchMapping(ctx, prod, mapping)

	default: // product.ActionUpdate
		if err := p.storefront.UpdateItem(ctx, mapping.RemoteID, prod.Price, "active"); err != nil {
			return wrapStorefrontErr(secondary.ReasonUpdateFailed, err)
		}
		if err := p.storefront.UpdateInventory(ctx, mapping.RemoteID, prod.Quantity); err != nil {
			return wrapStorefrontErr(secondary.ReasonUpdateFailed, err)
		}
		return p.touchMapping(ctx, prod, mapping)
	}
}

// fetchDetail reads the product detail through the cache; a miss fetches
// from the supplier and caches unconditionally.
func (p *ProductProcessor) fetchDetail(ctx context.Context, item models.SyncItem) ([]byte, error) {
	if payload, err := p.cache.Get(models.KindProduct, item.ID); err == nil {
		return payload, nil
	} else if !errors.Is(err, secondary.ErrCacheMiss) {
		return nil, fmt.Errorf("failed to read detail cache: %w", err)
	}

	payload, err := p.supplier.GetItemDetail(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch detail for %s: %w", item.ID, err)
	}
	if err := p.cache.Put(models.KindProduct, item.ID, payload); err != nil {
		// Cache write failure degrades performance, not correctness.
		p.logger.Warn("failed to cache detail", zap.String("item_id", item.ID), zap.Error(err))
	}
	return payload, nil
}

// lookupMapping finds the existing pairing by SKU, falling back to the
// supplier id when the product has no SKU. Nil means unmapped.
func (p *ProductProcessor) lookupMapping(ctx context.Context, prod *models.Product) (*secondary.MappingRecord, error) {
	if prod.SKU != "" {
		mapping, err := p.ledger.GetBySKU(ctx, prod.SKU)
		if err == nil {
			return mapping, nil
		}
		if !errors.Is(err, secondary.ErrNotMapped) {
			return nil, fmt.Errorf("failed to look up mapping: %w", err)
		}
		return nil, nil
	}

	remoteID, err := p.ledger.GetRemoteID(ctx, models.KindProduct, prod.ID)
	if err == nil {
		return &secondary.MappingRecord{Kind: models.KindProduct, LocalID: prod.ID, RemoteID: remoteID}, nil
	}
	if !errors.Is(err, secondary.ErrNotMapped) {
		return nil, fmt.Errorf("failed to look up mapping: %w", err)
	}
	return nil, nil
}

// touchMapping re-saves the mapping to advance last_synced_at.
func (p *ProductProcessor) touchMapping(ctx context.Context, prod *models.Product, mapping *secondary.MappingRecord) error {
	if err := p.ledger.SaveMapping(ctx, models.KindProduct, mapping.LocalID, mapping.RemoteID, prod.SKU); err != nil {
		return fmt.Errorf("failed to touch mapping for %s: %w", prod.SKU, err)
	}
	return nil
}

// wrapStorefrontErr tags explicit storefront rejections with the given
// reason; transient failures stay untagged and classify as exceptions.
func wrapStorefrontErr(reason string, err error) error {
	var apiErr *secondary.APIError
	if errors.As(err, &apiErr) && apiErr.IsRejection() {
		return secondary.NewFailure(reason, err)
	}
	return err
}

func unmarshalDetail(payload []byte, v any) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(payload, v)
}
