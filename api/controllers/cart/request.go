package cart

import (
	"github.com/shopspring/decimal"

	cartsvc "github.com/aguilarsoft/cartsync/internal/cart"
)

// AddItemRequest carries the denormalized product fields the cart displays
// offline. Quantity below one is treated as one, matching the store.
type AddItemRequest struct {
	ProductID   string          `json:"productId" validate:"required"`
	VariantID   string          `json:"variantId"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	MaxQuantity int             `json:"maxQuantity" validate:"omitempty,min=0"`
}

// UpdateQuantityRequest uses a pointer so an explicit zero survives decoding:
// zero quantity removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func toItemInput(payload AddItemRequest) cartsvc.ItemInput {
	return cartsvc.ItemInput{
		ProductID:   payload.ProductID,
		VariantID:   payload.VariantID,
		Name:        payload.Name,
		SKU:         payload.SKU,
		Image:       payload.Image,
		Price:       payload.Price,
		Quantity:    payload.Quantity,
		MaxQuantity: payload.MaxQuantity,
	}
}
