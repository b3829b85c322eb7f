package cart

import (
	"context"

	"github.com/aguilarsoft/cartsync/pkg/cartapi"
	"github.com/aguilarsoft/cartsync/pkg/catalog"
)

// RemoteCart is the surface the store needs from the remote cart service.
type RemoteCart interface {
	GetCart(ctx context.Context) (*cartapi.Cart, error)
	AddItem(ctx context.Context, params cartapi.AddItemParams) (*cartapi.CartItem, error)
	UpdateItem(ctx context.Context, itemID string, params cartapi.UpdateItemParams) (*cartapi.CartItem, error)
	RemoveItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

// SnapshotStore is the scoped key-value persistence consumed by the store.
// One blob holds the whole cart state; Load reports ErrNoSnapshot when
// nothing was persisted yet.
type SnapshotStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, blob string) error
}

// CatalogLookup resolves display fields for products loaded from the server,
// batched as a single multi-get. Optional; without it server-loaded lines
// keep placeholder display values.
type CatalogLookup interface {
	Lookup(ctx context.Context, productIDs []string) (map[string]catalog.Product, error)
}
