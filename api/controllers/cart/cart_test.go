package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	cartsvc "github.com/aguilarsoft/cartsync/internal/cart"
	"github.com/aguilarsoft/cartsync/pkg/cartapi"
	"github.com/aguilarsoft/cartsync/pkg/config"
	"github.com/aguilarsoft/cartsync/pkg/logger"
)

type stubRemote struct{}

func (stubRemote) GetCart(context.Context) (*cartapi.Cart, error) { return nil, nil }

func (stubRemote) AddItem(_ context.Context, params cartapi.AddItemParams) (*cartapi.CartItem, error) {
	return &cartapi.CartItem{ID: "srv-1", ProductID: params.ProductID, Quantity: params.Quantity}, nil
}

func (stubRemote) UpdateItem(_ context.Context, itemID string, params cartapi.UpdateItemParams) (*cartapi.CartItem, error) {
	return &cartapi.CartItem{ID: itemID, Quantity: params.Quantity}, nil
}

func (stubRemote) RemoveItem(context.Context, string) error { return nil }

func (stubRemote) ClearCart(context.Context) error { return nil }

func newHandlerStore(t *testing.T) (*cartsvc.Store, *logger.Logger) {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	store, err := cartsvc.NewStore(context.Background(), cartsvc.StoreParams{
		Logger:    logg,
		Remote:    stubRemote{},
		Snapshots: cartsvc.NewMemorySnapshots(),
		Config:    config.SyncConfig{Scope: "test"},
	})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, logg
}

func TestCartFetchEnvelope(t *testing.T) {
	store, logg := newHandlerStore(t)
	store.AddItem(context.Background(), cartsvc.ItemInput{
		ProductID: "p1",
		Name:      "Widget",
		Price:     decimal.RequireFromString("4.25"),
		Quantity:  3,
	})

	rec := httptest.NewRecorder()
	CartFetch(store, logg)(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data CartView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if envelope.Data.TotalItems != 3 {
		t.Fatalf("expected totalItems 3, got %d", envelope.Data.TotalItems)
	}
	if !envelope.Data.TotalPrice.Equal(decimal.RequireFromString("12.75")) {
		t.Fatalf("expected total 12.75, got %s", envelope.Data.TotalPrice)
	}
	if envelope.Data.Authenticated || envelope.Data.Syncing {
		t.Fatalf("fresh store should be signed out and idle")
	}
}

func TestCartAddItemRejectsMalformedBody(t *testing.T) {
	store, logg := newHandlerStore(t)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"productId":`))
	rec := httptest.NewRecorder()
	CartAddItem(store, logg)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("malformed body must not mutate the cart")
	}
}

func TestCartRemoveAbsentProductIsNoOp(t *testing.T) {
	store, logg := newHandlerStore(t)
	store.AddItem(context.Background(), cartsvc.ItemInput{ProductID: "p1"})

	r := chi.NewRouter()
	r.Delete("/cart/items/{productID}", CartRemoveItem(store, logg))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/cart/items/ghost", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.Items()) != 1 {
		t.Fatalf("removing an absent product must leave the cart alone")
	}
}

func TestCartHandlersWithoutStore(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})

	rec := httptest.NewRecorder()
	CartFetch(nil, logg)(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without a store, got %d", rec.Code)
	}
}
