package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a single product entry in the local cart. ProductID is the
// uniqueness key: the store never holds two lines for the same product.
// RemoteID is the server-assigned item id, empty until the server has
// confirmed the line.
type LineItem struct {
	ID          string          `json:"id"`
	RemoteID    string          `json:"remoteId,omitempty"`
	ProductID   string          `json:"productId"`
	VariantID   string          `json:"variantId,omitempty"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	MaxQuantity int             `json:"maxQuantity,omitempty"`
}

// ItemInput describes a product being added to the cart. Quantity defaults
// to 1 when unset; display fields are denormalized copies taken at add time.
type ItemInput struct {
	ProductID   string
	VariantID   string
	Name        string
	SKU         string
	Image       string
	Price       decimal.Decimal
	Quantity    int
	MaxQuantity int
}

func (in ItemInput) normalized() (ItemInput, bool) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	if in.ProductID == "" {
		return in, false
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	if in.MaxQuantity < 0 {
		in.MaxQuantity = 0
	}
	if in.Price.IsNegative() {
		in.Price = decimal.Zero
	}
	return in, true
}

func newLineItem(in ItemInput) LineItem {
	return LineItem{
		ID:          uuid.NewString(),
		ProductID:   in.ProductID,
		VariantID:   in.VariantID,
		Name:        in.Name,
		SKU:         in.SKU,
		Image:       in.Image,
		Price:       in.Price,
		Quantity:    clampQuantity(in.Quantity, in.MaxQuantity),
		MaxQuantity: in.MaxQuantity,
	}
}

// clampQuantity bounds a requested quantity to the line's max. A max of zero
// means unbounded. Quantities below one are the caller's removal path and
// never reach here.
func clampQuantity(quantity, max int) int {
	if max > 0 && quantity > max {
		return max
	}
	return quantity
}
