package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aguilarsoft/cartsync/pkg/cartapi"
	"github.com/aguilarsoft/cartsync/pkg/config"
	"github.com/aguilarsoft/cartsync/pkg/logger"
	"github.com/aguilarsoft/cartsync/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Store is the canonical client-side view of the cart. Local mutations
// complete synchronously and never fail the caller; remote propagation is
// best-effort and asynchronous. The server only becomes authoritative at
// login-time sync, per the configured MergeStrategy.
type Store struct {
	logg      *logger.Logger
	remote    RemoteCart
	snapshots SnapshotStore
	catalog   CatalogLookup
	merge     MergeStrategy
	metrics   *metrics.SyncMetrics
	cfg       config.SyncConfig

	mu            sync.Mutex
	items         []LineItem
	authenticated bool
	syncing       bool

	background sync.WaitGroup
}

// StoreParams collects the collaborators a Store needs.
type StoreParams struct {
	Logger    *logger.Logger
	Remote    RemoteCart
	Snapshots SnapshotStore
	Catalog   CatalogLookup
	Merge     MergeStrategy
	Metrics   *metrics.SyncMetrics
	Config    config.SyncConfig
}

// NewStore builds a cart store and rehydrates it from the snapshot store. A
// failed or missing snapshot yields an empty cart, never an error to the
// caller beyond a log line.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Remote == nil {
		return nil, fmt.Errorf("remote cart client required")
	}
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if params.Merge == nil {
		params.Merge = PresenceWins{}
	}
	if params.Config.Timeout <= 0 {
		params.Config.Timeout = 15 * time.Second
	}

	s := &Store{
		logg:      params.Logger,
		remote:    params.Remote,
		snapshots: params.Snapshots,
		catalog:   params.Catalog,
		merge:     params.Merge,
		metrics:   params.Metrics,
		cfg:       params.Config,
	}
	s.rehydrate(ctx)
	return s, nil
}

func (s *Store) rehydrate(ctx context.Context) {
	blob, err := s.snapshots.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			s.logg.Error(ctx, "cart snapshot load failed, starting empty", err)
		}
		return
	}
	items, err := decodeSnapshot(blob)
	if err != nil {
		s.logg.Error(ctx, "cart snapshot corrupt, starting empty", err)
		return
	}
	s.items = items
}

// AddItem merges the product into the cart, incrementing quantity when the
// product is already present and clamping to the line's max. Invalid input
// is ignored; the operation never fails the caller.
func (s *Store) AddItem(ctx context.Context, input ItemInput) {
	input, ok := input.normalized()
	if !ok {
		s.logg.Warn(s.logg.WithOperation(ctx, "add_item"), "ignoring item without product id")
		return
	}

	s.mu.Lock()
	var line LineItem
	if idx := s.indexOfLocked(input.ProductID); idx >= 0 {
		existing := &s.items[idx]
		existing.Quantity = clampQuantity(existing.Quantity+input.Quantity, existing.MaxQuantity)
		line = *existing
	} else {
		line = newLineItem(input)
		s.items = append(s.items, line)
	}
	s.persistLocked(ctx)
	propagate := s.shouldPropagateLocked()
	s.mu.Unlock()

	if !propagate {
		return
	}
	s.dispatch(ctx, "add_item", func(ctx context.Context) error {
		confirmed, err := s.remote.AddItem(ctx, cartapi.AddItemParams{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  input.Quantity,
		})
		if err != nil {
			return err
		}
		if confirmed != nil {
			s.recordRemoteID(line.ProductID, confirmed.ID)
		}
		return nil
	})
}

// RemoveItem drops the line for the product. Absent products are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	idx := s.indexOfLocked(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	remoteID := s.items[idx].RemoteID
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persistLocked(ctx)
	propagate := s.shouldPropagateLocked()
	s.mu.Unlock()

	if !propagate || remoteID == "" {
		return
	}
	s.dispatch(ctx, "remove_item", func(ctx context.Context) error {
		return s.remote.RemoveItem(ctx, remoteID)
	})
}

// UpdateQuantity sets the line's quantity, clamped to its max. A quantity of
// zero or below removes the line; that is the only deletion-via-quantity
// path.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID)
		return
	}

	s.mu.Lock()
	idx := s.indexOfLocked(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	line := &s.items[idx]
	line.Quantity = clampQuantity(quantity, line.MaxQuantity)
	remoteID := line.RemoteID
	applied := line.Quantity
	s.persistLocked(ctx)
	propagate := s.shouldPropagateLocked()
	s.mu.Unlock()

	if !propagate || remoteID == "" {
		return
	}
	s.dispatch(ctx, "update_item", func(ctx context.Context) error {
		_, err := s.remote.UpdateItem(ctx, remoteID, cartapi.UpdateItemParams{Quantity: applied})
		return err
	})
}

// Clear empties the cart unconditionally. Clearing an empty cart is a no-op
// that still succeeds.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.persistLocked(ctx)
	propagate := s.shouldPropagateLocked()
	s.mu.Unlock()

	if !propagate {
		return
	}
	s.dispatch(ctx, "clear_cart", func(ctx context.Context) error {
		return s.remote.ClearCart(ctx)
	})
}

// SetAuthenticated records the external auth signal. The false-to-true
// transition is the sole trigger for the synchronization protocol; logout
// clears the local cart only when the clear-on-logout policy is enabled.
func (s *Store) SetAuthenticated(ctx context.Context, authenticated bool) {
	s.mu.Lock()
	if s.authenticated == authenticated {
		s.mu.Unlock()
		return
	}
	s.authenticated = authenticated
	s.mu.Unlock()

	if authenticated {
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			s.runSync(context.WithoutCancel(ctx), "login")
		}()
		return
	}

	if s.cfg.ClearOnLogout {
		s.mu.Lock()
		s.items = nil
		s.persistLocked(ctx)
		s.mu.Unlock()
	}
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return items
}

// TotalItems returns the sum of quantities across all lines.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the sum of price times quantity across all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Authenticated reports the last auth signal received.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Syncing reports whether a bulk sync is in flight.
func (s *Store) Syncing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing
}

// Wait drains in-flight background work: the login-triggered sync and any
// fire-and-forget propagation calls. Called on shutdown.
func (s *Store) Wait() {
	s.background.Wait()
}

func (s *Store) indexOfLocked(productID string) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) shouldPropagateLocked() bool {
	return s.authenticated && !s.syncing
}

func (s *Store) persistLocked(ctx context.Context) {
	blob, err := encodeSnapshot(s.items)
	if err != nil {
		s.logg.Error(ctx, "cart snapshot encode failed", err)
		return
	}
	if err := s.snapshots.Save(ctx, blob); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart snapshot save failed")
	}
}

// dispatch runs a best-effort remote call in the background. The call gets a
// detached context bounded by the sync timeout so a hung request cannot
// outlive the operation window; failures are logged and counted, never
// surfaced to the mutation caller.
func (s *Store) dispatch(ctx context.Context, operation string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		if err := fn(callCtx); err != nil {
			s.metrics.IncPropagationFailure(operation)
			s.logg.Warn(s.logg.WithOperation(callCtx, operation), fmt.Sprintf("cart propagation failed: %v", err))
		}
	}()
}

func (s *Store) recordRemoteID(productID, remoteID string) {
	if remoteID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfLocked(productID)
	if idx < 0 || s.items[idx].RemoteID != "" {
		return
	}
	s.items[idx].RemoteID = remoteID
}
