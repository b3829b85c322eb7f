package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aguilarsoft/cartsync/pkg/config"
	pkgerrors "github.com/aguilarsoft/cartsync/pkg/errors"
	"github.com/aguilarsoft/cartsync/pkg/logger"
	"github.com/shopspring/decimal"
)

var errLoggerRequired = errors.New("catalog logger is required")

// Product carries the display fields the cart service omits from its wire
// representation.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	MaxQuantity int             `json:"maxQuantity"`
}

type productsEnvelope struct {
	Products []Product `json:"products"`
}

// Client fetches product display data in batched multi-get calls.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient builds a catalog client. An empty base URL yields nil, nil so
// callers can treat enrichment as absent.
func NewClient(ctx context.Context, cfg config.CatalogConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, nil
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parsing catalog base url: %w", err)
	}

	logg.Info(ctx, "catalog client initialized")
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logg,
	}, nil
}

// Lookup resolves products by id in a single request. Unknown ids are simply
// absent from the result.
func (c *Client) Lookup(ctx context.Context, productIDs []string) (map[string]Product, error) {
	if len(productIDs) == 0 {
		return map[string]Product{}, nil
	}

	query := url.Values{}
	query.Set("ids", strings.Join(productIDs, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog lookup")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("catalog lookup failed with status %d", resp.StatusCode))
	}

	var envelope productsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}

	byID := make(map[string]Product, len(envelope.Products))
	for _, product := range envelope.Products {
		if product.ID == "" {
			continue
		}
		byID[product.ID] = product
	}

	ctx = c.logger.WithFields(ctx, map[string]any{
		"requested": len(productIDs),
		"resolved":  len(byID),
	})
	c.logger.Info(ctx, "catalog lookup complete")
	return byID, nil
}
