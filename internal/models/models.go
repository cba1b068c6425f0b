package models

// Product is a mirrored catalog product
type Product struct {
	ID         string `db:"id" json:"id"`
	PlatformID string `db:"platform_id" json:"platform_id"`
	Name       string `db:"name" json:"name"`
}

// Order is a mirrored order; its identity never changes after insert
type Order struct {
	ID         string `db:"id" json:"id"`
	PlatformID string `db:"platform_id" json:"platform_id"`
}

// OrderLineItem links an order to a product. ProductID is nil when the
// remote product was not stored at persist time.
type OrderLineItem struct {
	ID                string  `db:"id" json:"id"`
	OrderID           string  `db:"order_id" json:"order_id"`
	ProductID         *string `db:"product_id" json:"product_id"`
	PlatformProductID *string `db:"platform_product_id" json:"platform_product_id"`
	Position          int     `db:"position" json:"position"`
}

// UnifiedProduct is the platform-agnostic product shape
type UnifiedProduct struct {
	ID         string `json:"id"`
	PlatformID string `json:"platform_id"`
	Name       string `json:"name"`
}

// UnifiedOrder is the platform-agnostic order shape
type UnifiedOrder struct {
	ID         string            `json:"id"`
	PlatformID string            `json:"platform_id"`
	LineItems  []UnifiedLineItem `json:"line_items"`
}

// UnifiedLineItem carries the internal product id or null
type UnifiedLineItem struct {
	ProductID *string `json:"product_id"`
}

// Synced resources
const (
	ResourceProducts = "products"
	ResourceOrders   = "orders"
)
