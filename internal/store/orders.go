package store

import (
	"context"
	"database/sql"
	"errors"

	"catalog-mirror/internal/models"

	"github.com/jmoiron/sqlx"
)

// OrderRef is the outcome of EnsureOrder
type OrderRef struct {
	ID       string
	Inserted bool
}

// InsertOrderIfAbsent inserts an order only when platformID is unseen.
// It reports false on conflict; the existing id must be looked up with
// FindOrderInternalID.
func (q *Queries) InsertOrderIfAbsent(ctx context.Context, internalID, platformID string) (string, bool, error) {
	query := `
		INSERT INTO orders (id, platform_id)
		VALUES (?, ?)
		ON CONFLICT (platform_id) DO NOTHING
		RETURNING id`

	var id string
	err := sqlx.GetContext(ctx, q.ext, &id, q.ext.Rebind(query), internalID, platformID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr("insert order", err)
	}
	return id, true, nil
}

// EnsureOrder inserts or resolves an order in a single statement. The
// conflict branch rewrites platform_id with its own value so RETURNING
// yields the existing row; the row is otherwise left untouched.
// A zero OrderRef means no row came back and the order is unresolved.
func (q *Queries) EnsureOrder(ctx context.Context, internalID, platformID string) (OrderRef, error) {
	query := `
		INSERT INTO orders (id, platform_id)
		VALUES (?, ?)
		ON CONFLICT (platform_id) DO UPDATE SET platform_id = excluded.platform_id
		RETURNING id`

	var id string
	err := sqlx.GetContext(ctx, q.ext, &id, q.ext.Rebind(query), internalID, platformID)
	if errors.Is(err, sql.ErrNoRows) {
		return OrderRef{}, nil
	}
	if err != nil {
		return OrderRef{}, wrapErr("ensure order", err)
	}
	return OrderRef{ID: id, Inserted: id == internalID}, nil
}

// FindOrderInternalID resolves a platform order id
func (q *Queries) FindOrderInternalID(ctx context.Context, platformID string) (string, bool, error) {
	var id string
	err := sqlx.GetContext(ctx, q.ext, &id,
		q.ext.Rebind("SELECT id FROM orders WHERE platform_id = ?"), platformID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr("find order", err)
	}
	return id, true, nil
}

// InsertLineItem appends a line item to an order
func (q *Queries) InsertLineItem(ctx context.Context, item *models.OrderLineItem) error {
	query := `
		INSERT INTO order_line_items (id, order_id, product_id, platform_product_id, position)
		VALUES (?, ?, ?, ?, ?)`

	_, err := q.ext.ExecContext(ctx, q.ext.Rebind(query),
		item.ID, item.OrderID, item.ProductID, item.PlatformProductID, item.Position)
	if err != nil {
		return wrapErr("insert line item", err)
	}
	return nil
}

// ListOrders returns every order ordered by platform id
func (q *Queries) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := sqlx.SelectContext(ctx, q.ext, &orders,
		"SELECT id, platform_id FROM orders ORDER BY platform_id")
	if err != nil {
		return nil, wrapErr("list orders", err)
	}
	return orders, nil
}

// ListLineItems returns every line item grouped by order in storage order
func (q *Queries) ListLineItems(ctx context.Context) ([]models.OrderLineItem, error) {
	items := []models.OrderLineItem{}
	err := sqlx.SelectContext(ctx, q.ext, &items, `
		SELECT id, order_id, product_id, platform_product_id, position
		FROM order_line_items
		ORDER BY order_id, position`)
	if err != nil {
		return nil, wrapErr("list line items", err)
	}
	return items, nil
}

// GetLineItemsByOrderID retrieves all items for an order
func (q *Queries) GetLineItemsByOrderID(ctx context.Context, orderID string) ([]models.OrderLineItem, error) {
	items := []models.OrderLineItem{}
	err := sqlx.SelectContext(ctx, q.ext, &items, q.ext.Rebind(`
		SELECT id, order_id, product_id, platform_product_id, position
		FROM order_line_items
		WHERE order_id = ?
		ORDER BY position`), orderID)
	if err != nil {
		return nil, wrapErr("get line items", err)
	}
	return items, nil
}

// Stats counts mirrored rows
type Stats struct {
	Products  int64 `db:"products" json:"products"`
	Orders    int64 `db:"orders" json:"orders"`
	LineItems int64 `db:"line_items" json:"line_items"`
}

// GetStats returns row counts for every table
func (q *Queries) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := sqlx.GetContext(ctx, q.ext, &stats, `
		SELECT
			(SELECT COUNT(*) FROM products) AS products,
			(SELECT COUNT(*) FROM orders) AS orders,
			(SELECT COUNT(*) FROM order_line_items) AS line_items`)
	if err != nil {
		return nil, wrapErr("get stats", err)
	}
	return &stats, nil
}
