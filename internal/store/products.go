package store

import (
	"context"
	"database/sql"
	"errors"

	"catalog-mirror/internal/models"

	"github.com/jmoiron/sqlx"
)

// Queries issues catalog statements against a pool or a transaction
type Queries struct {
	ext sqlx.ExtContext
}

// UpsertProduct inserts a product or, when platformID is already stored,
// refreshes its name. The returned id is always the stored one; internalID
// is discarded on conflict.
func (q *Queries) UpsertProduct(ctx context.Context, internalID, platformID, name string) (string, error) {
	query := `
		INSERT INTO products (id, platform_id, name)
		VALUES (?, ?, ?)
		ON CONFLICT (platform_id) DO UPDATE SET name = excluded.name
		RETURNING id`

	var id string
	if err := sqlx.GetContext(ctx, q.ext, &id, q.ext.Rebind(query), internalID, platformID, name); err != nil {
		return "", wrapErr("upsert product", err)
	}
	return id, nil
}

// FindProductInternalID resolves a platform product id
func (q *Queries) FindProductInternalID(ctx context.Context, platformID string) (string, bool, error) {
	var id string
	err := sqlx.GetContext(ctx, q.ext, &id,
		q.ext.Rebind("SELECT id FROM products WHERE platform_id = ?"), platformID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr("find product", err)
	}
	return id, true, nil
}

// ListProducts returns every product ordered by name
func (q *Queries) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := sqlx.SelectContext(ctx, q.ext, &products,
		"SELECT id, platform_id, name FROM products ORDER BY name, platform_id")
	if err != nil {
		return nil, wrapErr("list products", err)
	}
	return products, nil
}
