package cart

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// snapshot is the persisted shape of the cart. There is no schema version
// field in the legacy blobs, so the decoder treats every field as optional
// and sanitizes entry by entry instead of trusting the stored shape.
type snapshot struct {
	Items []snapshotItem `json:"items"`
}

type snapshotItem struct {
	ID          string          `json:"id"`
	RemoteID    string          `json:"remoteId"`
	ProductID   string          `json:"productId"`
	VariantID   string          `json:"variantId"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Image       string          `json:"image"`
	Price       json.RawMessage `json:"price"`
	Quantity    int             `json:"quantity"`
	MaxQuantity int             `json:"maxQuantity"`
}

func encodeSnapshot(items []LineItem) (string, error) {
	entries := make([]snapshotItem, 0, len(items))
	for _, item := range items {
		price, err := json.Marshal(item.Price)
		if err != nil {
			return "", fmt.Errorf("encode price for %s: %w", item.ProductID, err)
		}
		entries = append(entries, snapshotItem{
			ID:          item.ID,
			RemoteID:    item.RemoteID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			Name:        item.Name,
			SKU:         item.SKU,
			Image:       item.Image,
			Price:       price,
			Quantity:    item.Quantity,
			MaxQuantity: item.MaxQuantity,
		})
	}
	blob, err := json.Marshal(snapshot{Items: entries})
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(blob), nil
}

// decodeSnapshot rebuilds the cart from a persisted blob. Malformed entries
// are dropped, quantities are forced back into the invariant range, and
// duplicate products keep their first occurrence. Only a blob that is not
// JSON at all is an error.
func decodeSnapshot(blob string) ([]LineItem, error) {
	var snap snapshot
	if err := json.Unmarshal([]byte(blob), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	items := make([]LineItem, 0, len(snap.Items))
	seen := make(map[string]struct{}, len(snap.Items))
	for _, entry := range snap.Items {
		if entry.ProductID == "" {
			continue
		}
		if _, dup := seen[entry.ProductID]; dup {
			continue
		}
		seen[entry.ProductID] = struct{}{}

		item := LineItem{
			ID:          entry.ID,
			RemoteID:    entry.RemoteID,
			ProductID:   entry.ProductID,
			VariantID:   entry.VariantID,
			Name:        entry.Name,
			SKU:         entry.SKU,
			Image:       entry.Image,
			Price:       decodePrice(entry.Price),
			Quantity:    entry.Quantity,
			MaxQuantity: entry.MaxQuantity,
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		if item.MaxQuantity < 0 {
			item.MaxQuantity = 0
		}
		item.Quantity = clampQuantity(item.Quantity, item.MaxQuantity)
		items = append(items, item)
	}
	return items, nil
}

// decodePrice accepts both the decimal-string shape current blobs use and
// the bare-number shape older blobs stored.
func decodePrice(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	var price decimal.Decimal
	if err := json.Unmarshal(raw, &price); err != nil {
		return decimal.Zero
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}
