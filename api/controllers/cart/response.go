package cart

import (
	"github.com/shopspring/decimal"

	cartsvc "github.com/aguilarsoft/cartsync/internal/cart"
)

type CartView struct {
	Items         []cartsvc.LineItem `json:"items"`
	TotalItems    int                `json:"totalItems"`
	TotalPrice    decimal.Decimal    `json:"totalPrice"`
	Authenticated bool               `json:"authenticated"`
	Syncing       bool               `json:"syncing"`
}

func newCartView(store *cartsvc.Store) CartView {
	items := store.Items()
	if items == nil {
		items = []cartsvc.LineItem{}
	}
	return CartView{
		Items:         items,
		TotalItems:    store.TotalItems(),
		TotalPrice:    store.TotalPrice(),
		Authenticated: store.Authenticated(),
		Syncing:       store.Syncing(),
	}
}
