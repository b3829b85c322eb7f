package cartapi

import "time"

// Cart is the server-side cart representation. It is the reconciliation
// target during sync, never the live client state.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	LineItems []CartItem `json:"lineItems"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is a server-side line item. The server does not carry display
// fields; only identity and quantity travel on the wire.
type CartItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

// AddItemParams is the payload for POST /cart/items.
type AddItemParams struct {
	ProductID  string            `json:"productId"`
	VariantID  string            `json:"variantId,omitempty"`
	Quantity   int               `json:"quantity"`
	Properties map[string]string `json:"properties,omitempty"`
}

// UpdateItemParams is the payload for PUT /cart/items/{itemId}.
type UpdateItemParams struct {
	Quantity   int               `json:"quantity"`
	Properties map[string]string `json:"properties,omitempty"`
}

type cartEnvelope struct {
	Cart *Cart `json:"cart"`
}

type cartItemEnvelope struct {
	CartItem CartItem `json:"cartItem"`
}
