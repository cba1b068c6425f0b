package service

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog-mirror/internal/models"
	"catalog-mirror/internal/store"
	"catalog-mirror/internal/util"

	"go.uber.org/zap"
)

// ExportCache holds serialized unified exports keyed by resource
type ExportCache interface {
	GetExport(ctx context.Context, resource string) ([]byte, bool, error)
	SetExport(ctx context.Context, resource string, data []byte) error
	InvalidateExports(ctx context.Context) error
}

// CatalogReader projects stored rows into the unified shapes
type CatalogReader struct {
	store  *store.Store
	cache  ExportCache
	logger *zap.Logger
}

// NewCatalogReader creates a reader. cache may be nil.
func NewCatalogReader(store *store.Store, cache ExportCache) *CatalogReader {
	return &CatalogReader{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// Products returns every stored product
func (r *CatalogReader) Products(ctx context.Context) ([]models.UnifiedProduct, error) {
	ctx, span := util.StartSpan(ctx, "CatalogReader.Products")
	defer span.End()

	products, err := r.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	unified := make([]models.UnifiedProduct, 0, len(products))
	for _, p := range products {
		unified = append(unified, models.UnifiedProduct{
			ID:         p.ID,
			PlatformID: p.PlatformID,
			Name:       p.Name,
		})
	}
	return unified, nil
}

// Orders returns every stored order with its line items in remote order.
// An order without line items carries an empty list, never null.
func (r *CatalogReader) Orders(ctx context.Context) ([]models.UnifiedOrder, error) {
	ctx, span := util.StartSpan(ctx, "CatalogReader.Orders")
	defer span.End()

	orders, err := r.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	items, err := r.store.ListLineItems(ctx)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string][]models.UnifiedLineItem, len(orders))
	for _, li := range items {
		byOrder[li.OrderID] = append(byOrder[li.OrderID], models.UnifiedLineItem{ProductID: li.ProductID})
	}

	unified := make([]models.UnifiedOrder, 0, len(orders))
	for _, o := range orders {
		lineItems := byOrder[o.ID]
		if lineItems == nil {
			lineItems = []models.UnifiedLineItem{}
		}
		unified = append(unified, models.UnifiedOrder{
			ID:         o.ID,
			PlatformID: o.PlatformID,
			LineItems:  lineItems,
		})
	}
	return unified, nil
}

// ProductsJSON returns the serialized product export, served from the
// cache when present
func (r *CatalogReader) ProductsJSON(ctx context.Context) ([]byte, error) {
	return r.cachedExport(ctx, models.ResourceProducts, func(ctx context.Context) (any, error) {
		return r.Products(ctx)
	})
}

// OrdersJSON returns the serialized order export, served from the cache
// when present
func (r *CatalogReader) OrdersJSON(ctx context.Context) ([]byte, error) {
	return r.cachedExport(ctx, models.ResourceOrders, func(ctx context.Context) (any, error) {
		return r.Orders(ctx)
	})
}

func (r *CatalogReader) cachedExport(ctx context.Context, resource string, load func(context.Context) (any, error)) ([]byte, error) {
	if r.cache != nil {
		data, ok, err := r.cache.GetExport(ctx, resource)
		if err != nil {
			r.logger.Warn("Export cache read failed", zap.String("resource", resource), zap.Error(err))
		} else if ok {
			return data, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	data, err := MarshalExport(v)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetExport(ctx, resource, data); err != nil {
			r.logger.Warn("Export cache write failed", zap.String("resource", resource), zap.Error(err))
		}
	}
	return data, nil
}

// MarshalExport renders v as two-space indented JSON with a trailing newline
func MarshalExport(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return append(data, '\n'), nil
}
