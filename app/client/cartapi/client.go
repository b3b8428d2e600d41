// Package cartapi talks to the storefront's /api endpoints over HTTP and
// satisfies cartstore.Backend.
package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Rakhulsr/go-storefront/app/actions"
	"github.com/Rakhulsr/go-storefront/app/models/other"
	"github.com/Rakhulsr/go-storefront/app/services"
	"github.com/Rakhulsr/go-storefront/app/utils/sessions"
	"go.uber.org/zap"
)

const csrfHeader = "X-CSRF-Token"

type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger

	mu        sync.Mutex
	csrfToken string
}

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid storefront url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("storefront url %q must be absolute", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:   base,
		http:   &http.Client{Jar: jar, Timeout: 15 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SessionToken returns the encoded anonymous cart cookie, if the server issued one.
func (c *Client) SessionToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == sessions.CartCookieName {
			return ck.Value
		}
	}
	return ""
}

// SetSessionToken restores a previously issued anonymous cart cookie.
func (c *Client) SetSessionToken(token string) {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{
		Name:     sessions.CartCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	}})
}

func (c *Client) GetCart(ctx context.Context) other.Result[other.CartView] {
	return call[other.CartView](ctx, c, http.MethodGet, "/api/cart", nil)
}

func (c *Client) CartCount(ctx context.Context) other.Result[actions.CartCount] {
	return call[actions.CartCount](ctx, c, http.MethodGet, "/api/cart/count", nil)
}

func (c *Client) AddToCart(ctx context.Context, in actions.AddToCartInput) other.Result[other.CartView] {
	return call[other.CartView](ctx, c, http.MethodPost, "/api/cart/items", in)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID string, qty int) other.Result[other.CartView] {
	return call[other.CartView](ctx, c, http.MethodPatch, "/api/cart/items/"+url.PathEscape(itemID),
		actions.UpdateCartItemInput{Quantity: &qty})
}

func (c *Client) RemoveFromCart(ctx context.Context, itemID string) other.Result[other.CartView] {
	return call[other.CartView](ctx, c, http.MethodDelete, "/api/cart/items/"+url.PathEscape(itemID), nil)
}

func (c *Client) ClearCart(ctx context.Context) other.Result[other.CartView] {
	return call[other.CartView](ctx, c, http.MethodDelete, "/api/cart", nil)
}

func (c *Client) Login(ctx context.Context, email, password string) other.Result[other.CartView] {
	return call[other.CartView](ctx, c, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) Checkout(ctx context.Context) other.Result[other.OrderView] {
	return call[other.OrderView](ctx, c, http.MethodPost, "/api/checkout", nil)
}

func (c *Client) Orders(ctx context.Context) other.Result[[]other.OrderView] {
	return call[[]other.OrderView](ctx, c, http.MethodGet, "/api/orders", nil)
}

func (c *Client) Product(ctx context.Context, id string) other.Result[other.ProductView] {
	return call[other.ProductView](ctx, c, http.MethodGet, "/api/products/"+url.PathEscape(id), nil)
}

// call performs one request and always returns an envelope. Transport and
// decoding failures become UNKNOWN_ERROR.
func call[T any](ctx context.Context, c *Client, method, path string, body any) other.Result[T] {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		c.logger.Error("cartapi: failed to build request", zap.String("path", path), zap.Error(err))
		return unknown[T]()
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("cartapi: request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return unknown[T]()
	}
	defer resp.Body.Close()

	if tok := resp.Header.Get(csrfHeader); tok != "" {
		c.mu.Lock()
		c.csrfToken = tok
		c.mu.Unlock()
	}

	var res other.Result[T]
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		c.logger.Warn("cartapi: unreadable response", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Error(err))
		return unknown[T]()
	}
	if !res.Success && res.Error == nil {
		return unknown[T]()
	}
	return res
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.Lock()
	if c.csrfToken != "" {
		req.Header.Set(csrfHeader, c.csrfToken)
	}
	c.mu.Unlock()
	return req, nil
}

func unknown[T any]() other.Result[T] {
	return other.Fail[T](other.ErrorBody{
		Kind:    string(services.KindUnknown),
		Message: services.ErrMsgSomethingWentWrong,
	})
}
