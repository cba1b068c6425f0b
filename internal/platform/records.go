package platform

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PlatformID accepts the remote identifier as a JSON number or string and
// keeps its exact textual form. null decodes to the empty string.
type PlatformID string

func (p *PlatformID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*p = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PlatformID(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*p = PlatformID(n.String())
	default:
		return fmt.Errorf("platform id must be a number or string, got %s", b)
	}
	return nil
}

// String returns the identifier
func (p PlatformID) String() string { return string(p) }

// Product is the subset of a remote product this system reads
type Product struct {
	ID    PlatformID `json:"id"`
	Title *string    `json:"title"`
}

// Name defaults to the empty string when the title is absent
func (p Product) Name() string {
	if p.Title == nil {
		return ""
	}
	return *p.Title
}

// Order is the subset of a remote order this system reads
type Order struct {
	ID        PlatformID `json:"id"`
	LineItems []LineItem `json:"line_items"`
}

// LineItem references a remote product; ProductID may be empty
type LineItem struct {
	ProductID PlatformID `json:"product_id"`
}

// ProductRef returns the remote product reference or nil when absent
func (li LineItem) ProductRef() *string {
	if li.ProductID == "" {
		return nil
	}
	ref := li.ProductID.String()
	return &ref
}

// DecodeProduct decodes one raw product record
func DecodeProduct(raw json.RawMessage) (Product, error) {
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return Product{}, fmt.Errorf("malformed product record: %w", err)
	}
	return p, nil
}

// DecodeOrder decodes one raw order record
func DecodeOrder(raw json.RawMessage) (Order, error) {
	var o Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return Order{}, fmt.Errorf("malformed order record: %w", err)
	}
	return o, nil
}
