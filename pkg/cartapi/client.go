package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aguilarsoft/cartsync/pkg/config"
	pkgerrors "github.com/aguilarsoft/cartsync/pkg/errors"
	"github.com/aguilarsoft/cartsync/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("cart api base url is required")
	errLoggerRequired  = errors.New("cart api logger is required")
)

// Client talks to the remote cart service with centralized auth, logging,
// and error mapping. The bearer credential is opaque; its lifecycle is owned
// by the caller.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewClient initializes the cart service wrapper and validates the target.
func NewClient(ctx context.Context, cfg config.RemoteConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parsing cart api base url: %w", err)
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logg,
		token:   strings.TrimSpace(cfg.Token),
	}

	logg.Info(ctx, "cart api client initialized")
	return c, nil
}

// SetToken swaps the bearer credential used on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = strings.TrimSpace(token)
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// GetCart fetches the server cart for the authenticated user. A missing cart
// is reported as nil, nil rather than an error.
func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	c.log(ctx, "request", "get_cart", nil)

	var envelope cartEnvelope
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &envelope); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, nil
		}
		c.log(ctx, "error", "get_cart", map[string]any{"error": err.Error()})
		return nil, err
	}

	fields := map[string]any{"found": envelope.Cart != nil}
	if envelope.Cart != nil {
		fields["line_items"] = len(envelope.Cart.LineItems)
	}
	c.log(ctx, "response", "get_cart", fields)
	return envelope.Cart, nil
}

// AddItem appends an item to the server cart.
func (c *Client) AddItem(ctx context.Context, params AddItemParams) (*CartItem, error) {
	c.log(ctx, "request", "add_item", map[string]any{
		"product_id": params.ProductID,
		"quantity":   params.Quantity,
	})

	var envelope cartItemEnvelope
	if err := c.do(ctx, http.MethodPost, "/cart/items", params, &envelope); err != nil {
		c.log(ctx, "error", "add_item", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "add_item", map[string]any{"item_id": envelope.CartItem.ID})
	return &envelope.CartItem, nil
}

// UpdateItem sets the quantity of a server line item.
func (c *Client) UpdateItem(ctx context.Context, itemID string, params UpdateItemParams) (*CartItem, error) {
	c.log(ctx, "request", "update_item", map[string]any{
		"item_id":  itemID,
		"quantity": params.Quantity,
	})

	var envelope cartItemEnvelope
	if err := c.do(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(itemID), params, &envelope); err != nil {
		c.log(ctx, "error", "update_item", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "update_item", map[string]any{"item_id": envelope.CartItem.ID})
	return &envelope.CartItem, nil
}

// RemoveItem deletes a server line item by its server-assigned id.
func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	c.log(ctx, "request", "remove_item", map[string]any{"item_id": itemID})

	if err := c.do(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(itemID), nil, nil); err != nil {
		c.log(ctx, "error", "remove_item", map[string]any{"error": err.Error()})
		return err
	}

	c.log(ctx, "response", "remove_item", nil)
	return nil
}

// ClearCart empties the server cart.
func (c *Client) ClearCart(ctx context.Context) error {
	c.log(ctx, "request", "clear_cart", nil)

	if err := c.do(ctx, http.MethodDelete, "/cart", nil, nil); err != nil {
		c.log(ctx, "error", "clear_cart", map[string]any{"error": err.Error()})
		return err
	}

	c.log(ctx, "response", "clear_cart", nil)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("cart service %s %s", method, path))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return c.statusError(resp, method, path)
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart service response")
	}
	return nil
}

func (c *Client) statusError(resp *http.Response, method, path string) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(payload))
	if message == "" {
		message = resp.Status
	}
	code := domainCodeForStatus(resp.StatusCode)
	return pkgerrors.New(code, fmt.Sprintf("cart service %s %s failed", method, path)).
		WithDetails(map[string]any{"status": resp.StatusCode, "body": message})
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("cart service %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("cart service %s", phase))
	}
}
