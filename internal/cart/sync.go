package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aguilarsoft/cartsync/pkg/cartapi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// SyncWithServer reconciles the local cart against the server cart and then
// reloads local state from the server. At-most-once and best-effort: every
// failure is logged and swallowed, the syncing guard is always released, and
// nothing is retried.
func (s *Store) SyncWithServer(ctx context.Context) {
	s.runSync(ctx, "manual")
}

// Reload replaces local state with the server cart without merging first.
func (s *Store) Reload(ctx context.Context) {
	s.guarded(ctx, "reload", s.loadFromServer)
}

func (s *Store) runSync(ctx context.Context, trigger string) {
	s.guarded(ctx, trigger, s.mergeAndReload)
}

// guarded runs fn under the syncing flag so per-mutation propagation stays
// suppressed for the duration, bounds it with the sync timeout, and records
// the outcome. Overlapping invocations are dropped, not queued.
func (s *Store) guarded(ctx context.Context, trigger string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	if s.syncing {
		s.mu.Unlock()
		return
	}
	s.syncing = true
	s.mu.Unlock()

	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	err := fn(callCtx)
	cancel()

	s.mu.Lock()
	s.syncing = false
	s.mu.Unlock()

	s.metrics.ObserveDuration(trigger, time.Since(start))
	logCtx := s.logg.WithField(ctx, "trigger", trigger)
	if err != nil {
		s.metrics.IncFailure(trigger)
		s.logg.Error(logCtx, "cart sync failed", err)
		return
	}
	s.metrics.IncSuccess(trigger)
	s.logg.Info(logCtx, "cart sync complete")
}

func (s *Store) mergeAndReload(ctx context.Context) error {
	s.mu.Lock()
	local := make([]LineItem, len(s.items))
	copy(local, s.items)
	s.mu.Unlock()

	// Nothing local to reconcile; the server copy simply becomes ours.
	if len(local) == 0 {
		return s.loadFromServer(ctx)
	}

	server, err := s.remote.GetCart(ctx)
	if err != nil {
		return err
	}

	plan := s.merge.Plan(local, server)

	var pushErr error
	pushed := 0
	for _, line := range plan.Push {
		if _, err := s.remote.AddItem(ctx, cartapi.AddItemParams{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		}); err != nil {
			pushErr = multierr.Append(pushErr, fmt.Errorf("push %s: %w", line.ProductID, err))
			continue
		}
		pushed++
	}
	s.metrics.AddPushed(pushed)
	s.metrics.AddDropped(len(plan.Drop))

	if len(plan.Drop) > 0 {
		dropped := make([]string, 0, len(plan.Drop))
		for _, line := range plan.Drop {
			dropped = append(dropped, line.ProductID)
		}
		logCtx := s.logg.WithField(ctx, "products", strings.Join(dropped, ","))
		s.logg.Info(logCtx, "cart sync dropped local lines in favor of server copy")
	}

	return multierr.Append(pushErr, s.loadFromServer(ctx))
}

// loadFromServer replaces local items with the server cart's lines. An empty
// or absent server cart leaves local state untouched. Server lines carry no
// display fields; the catalog lookup fills them when configured, otherwise
// placeholders remain.
func (s *Store) loadFromServer(ctx context.Context) error {
	server, err := s.remote.GetCart(ctx)
	if err != nil {
		return err
	}
	if server == nil || len(server.LineItems) == 0 {
		return nil
	}

	mapped := make([]LineItem, 0, len(server.LineItems))
	for _, item := range server.LineItems {
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		mapped = append(mapped, LineItem{
			ID:        uuid.NewString(),
			RemoteID:  item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     decimal.Zero,
		})
	}

	s.enrich(ctx, mapped)

	s.mu.Lock()
	s.items = mapped
	s.persistLocked(ctx)
	s.mu.Unlock()
	return nil
}

func (s *Store) enrich(ctx context.Context, items []LineItem) {
	if s.catalog == nil || len(items) == 0 {
		return
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "catalog enrichment failed, keeping placeholders")
		return
	}

	for i := range items {
		product, ok := products[items[i].ProductID]
		if !ok {
			continue
		}
		items[i].Name = product.Name
		items[i].SKU = product.SKU
		items[i].Image = product.Image
		items[i].Price = product.Price
		items[i].MaxQuantity = product.MaxQuantity
		items[i].Quantity = clampQuantity(items[i].Quantity, items[i].MaxQuantity)
	}
}
