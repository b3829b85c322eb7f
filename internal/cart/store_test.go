package cart

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aguilarsoft/cartsync/pkg/cartapi"
	"github.com/aguilarsoft/cartsync/pkg/config"
	"github.com/aguilarsoft/cartsync/pkg/logger"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T, remote *fakeRemote, opts ...func(*StoreParams)) *Store {
	t.Helper()
	params := StoreParams{
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}}),
		Remote:    remote,
		Snapshots: NewMemorySnapshots(),
		Config:    config.SyncConfig{Scope: "test"},
	}
	for _, opt := range opts {
		opt(&params)
	}
	store, err := NewStore(context.Background(), params)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func widgetInput() ItemInput {
	return ItemInput{
		ProductID:   "p1",
		Name:        "Widget",
		SKU:         "W1",
		Price:       decimal.RequireFromString("9.99"),
		MaxQuantity: 5,
	}
}

func TestAddItemMergesByProductID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeRemote())

	store.AddItem(ctx, widgetInput())
	store.AddItem(ctx, widgetInput())

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected a single line for repeated product, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", items[0].Quantity)
	}
}

func TestAddItemClampsToMaxQuantity(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeRemote())

	input := widgetInput()
	input.Quantity = 3
	store.AddItem(ctx, input)
	store.AddItem(ctx, input)
	store.AddItem(ctx, input)

	items := store.Items()
	if items[0].Quantity != 5 {
		t.Fatalf("expected clamp to max 5, got %d", items[0].Quantity)
	}
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeRemote())

	input := widgetInput()
	input.Quantity = 0
	store.AddItem(ctx, input)

	if got := store.Items()[0].Quantity; got != 1 {
		t.Fatalf("expected default quantity 1, got %d", got)
	}
}

func TestAddItemIgnoresMissingProductID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeRemote())

	store.AddItem(ctx, ItemInput{Name: "nameless"})

	if len(store.Items()) != 0 {
		t.Fatalf("item without product id should be ignored")
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeRemote())

	store.AddItem(ctx, widgetInput())
	store.UpdateQuantity(ctx, "p1", 0)
	if len(store.Items()) != 0 {
		t.Fatalf("quantity 0 should remove the line")
	}

	store.AddItem(ctx, widgetInput())
	store.UpdateQuantity(ctx, "p1", -5)
	if len(store.Items()) != 0 {
		t.Fatalf("negative quantity should remove the line")
	}
}

func TestUpdateQuantityClampsAndIgnoresAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeRemote())

	store.AddItem(ctx, widgetInput())
	store.UpdateQuantity(ctx, "p1", 50)
	if got := store.Items()[0].Quantity; got != 5 {
		t.Fatalf("expected clamp to 5, got %d", got)
	}

	store.UpdateQuantity(ctx, "missing", 3)
	if len(store.Items()) != 1 {
		t.Fatalf("absent product must be a no-op")
	}
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeRemote())

	store.RemoveItem(ctx, "missing")
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart")
	}
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeRemote())

	store.AddItem(ctx, widgetInput())
	store.AddItem(ctx, widgetInput())
	gadget := ItemInput{ProductID: "p2", Name: "Gadget", SKU: "G1", Price: decimal.RequireFromString("3.50"), Quantity: 3}
	store.AddItem(ctx, gadget)

	if got := store.TotalItems(); got != 5 {
		t.Fatalf("expected 5 total items, got %d", got)
	}
	want := decimal.RequireFromString("30.48")
	if got := store.TotalPrice(); !got.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, got)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, newFakeRemote())

	store.AddItem(ctx, widgetInput())
	store.Clear(ctx)
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart after clear")
	}
	store.Clear(ctx)
	if len(store.Items()) != 0 {
		t.Fatalf("second clear must succeed and stay empty")
	}
}

func TestMutationsDoNotPropagateWhenUnauthenticated(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store := newTestStore(t, remote)

	store.AddItem(ctx, widgetInput())
	store.UpdateQuantity(ctx, "p1", 3)
	store.RemoveItem(ctx, "p1")
	store.Clear(ctx)
	store.Wait()

	if calls := remote.callLog(); len(calls) != 0 {
		t.Fatalf("expected no remote calls while unauthenticated, got %v", calls)
	}
}

func TestMutationsSuppressedWhileSyncing(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store := newTestStore(t, remote)

	store.mu.Lock()
	store.authenticated = true
	store.syncing = true
	store.mu.Unlock()

	store.AddItem(ctx, widgetInput())
	store.UpdateQuantity(ctx, "p1", 2)
	store.RemoveItem(ctx, "p1")
	store.Clear(ctx)
	store.Wait()

	if calls := remote.callLog(); len(calls) != 0 {
		t.Fatalf("expected suppression during sync, got %v", calls)
	}
	if got := store.TotalItems(); got != 0 {
		t.Fatalf("local mutations must still apply, got %d items", got)
	}
}

func TestAuthenticatedMutationsPropagate(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store := newTestStore(t, remote)

	store.mu.Lock()
	store.authenticated = true
	store.mu.Unlock()

	store.AddItem(ctx, widgetInput())
	store.Wait()

	calls := remote.callLog()
	if len(calls) != 1 || calls[0] != "add:p1:1" {
		t.Fatalf("expected one add call, got %v", calls)
	}

	// The background add recorded the server-assigned id, so removal can
	// target it.
	if got := store.Items()[0].RemoteID; got == "" {
		t.Fatalf("expected remote id recorded after confirmed add")
	}

	store.RemoveItem(ctx, "p1")
	store.Wait()

	calls = remote.callLog()
	if len(calls) != 2 || !strings.HasPrefix(calls[1], "remove:") {
		t.Fatalf("expected remove call, got %v", calls)
	}
}

func TestRemoveWithoutRemoteIDSkipsServerCall(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.addErr = fmt.Errorf("unreachable")
	store := newTestStore(t, remote)

	store.mu.Lock()
	store.authenticated = true
	store.mu.Unlock()

	store.AddItem(ctx, widgetInput())
	store.Wait()
	remote.reset()

	store.RemoveItem(ctx, "p1")
	store.Wait()

	if calls := remote.callLog(); len(calls) != 0 {
		t.Fatalf("expected no remote call without a server-assigned id, got %v", calls)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("local removal must apply regardless")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	snapshots := NewMemorySnapshots()
	remote := newFakeRemote()

	first := newTestStore(t, remote, func(p *StoreParams) { p.Snapshots = snapshots })
	first.AddItem(ctx, widgetInput())
	first.AddItem(ctx, ItemInput{ProductID: "p2", Name: "Gadget", Price: decimal.RequireFromString("3.50"), Quantity: 2})

	second := newTestStore(t, remote, func(p *StoreParams) { p.Snapshots = snapshots })
	items := second.Items()
	if len(items) != 2 {
		t.Fatalf("expected rehydrated cart with 2 lines, got %d", len(items))
	}
	if items[0].ProductID != "p1" || items[1].ProductID != "p2" {
		t.Fatalf("insertion order lost: %+v", items)
	}
	if !items[0].Price.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("price lost in round trip: %s", items[0].Price)
	}
}

func TestFailedSnapshotLoadYieldsEmptyCart(t *testing.T) {
	remote := newFakeRemote()
	store := newTestStore(t, remote, func(p *StoreParams) {
		p.Snapshots = &failingSnapshots{}
	})
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart on load failure")
	}
}

type failingSnapshots struct{}

func (failingSnapshots) Load(ctx context.Context) (string, error) {
	return "", fmt.Errorf("disk on fire")
}

func (failingSnapshots) Save(ctx context.Context, blob string) error {
	return fmt.Errorf("disk still on fire")
}

// fakeRemote is an in-memory stand-in for the remote cart service.
type fakeRemote struct {
	mu     sync.Mutex
	cart   *cartapi.Cart
	calls  []string
	nextID int

	getErr error
	addErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{}
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]string, len(f.calls))
	copy(calls, f.calls)
	return calls
}

func (f *fakeRemote) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeRemote) setCart(cart *cartapi.Cart) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cart = cart
}

func (f *fakeRemote) GetCart(ctx context.Context) (*cartapi.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.cart == nil {
		return nil, nil
	}
	copied := *f.cart
	copied.LineItems = append([]cartapi.CartItem(nil), f.cart.LineItems...)
	return &copied, nil
}

func (f *fakeRemote) AddItem(ctx context.Context, params cartapi.AddItemParams) (*cartapi.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("add:%s:%d", params.ProductID, params.Quantity))
	if f.addErr != nil {
		return nil, f.addErr
	}
	if f.cart == nil {
		f.cart = &cartapi.Cart{ID: "cart-1", UserID: "user-1"}
	}
	f.nextID++
	item := cartapi.CartItem{
		ID:        fmt.Sprintf("srv-%d", f.nextID),
		ProductID: params.ProductID,
		VariantID: params.VariantID,
		Quantity:  params.Quantity,
	}
	f.cart.LineItems = append(f.cart.LineItems, item)
	return &item, nil
}

func (f *fakeRemote) UpdateItem(ctx context.Context, itemID string, params cartapi.UpdateItemParams) (*cartapi.CartItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("update:%s:%d", itemID, params.Quantity))
	if f.cart != nil {
		for i := range f.cart.LineItems {
			if f.cart.LineItems[i].ID == itemID {
				f.cart.LineItems[i].Quantity = params.Quantity
				item := f.cart.LineItems[i]
				return &item, nil
			}
		}
	}
	return &cartapi.CartItem{ID: itemID, Quantity: params.Quantity}, nil
}

func (f *fakeRemote) RemoveItem(ctx context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("remove:%s", itemID))
	if f.cart != nil {
		for i := range f.cart.LineItems {
			if f.cart.LineItems[i].ID == itemID {
				f.cart.LineItems = append(f.cart.LineItems[:i], f.cart.LineItems[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (f *fakeRemote) ClearCart(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "clear")
	if f.cart != nil {
		f.cart.LineItems = nil
	}
	return nil
}
