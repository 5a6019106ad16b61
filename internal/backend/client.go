// Package backend is the HTTP client for the catalog/order REST backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/catalog"
)

var (
	// ErrUnavailable wraps transport failures (connection refused, timeouts)
	ErrUnavailable = errors.New("backend unavailable")
	// ErrRejected is returned when the backend answers 2xx with success:false
	ErrRejected = errors.New("backend rejected request")
)

// StatusError is a non-2xx backend response
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// ProductPage is one page of GET /products
type ProductPage struct {
	Data        []catalog.Product `json:"data"`
	Total       int               `json:"total"`
	CurrentPage int               `json:"currentPage"`
	TotalPages  int               `json:"totalPages"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// ListProducts fetches one page of products
func (c *Client) ListProducts(ctx context.Context, page, limit int) (*ProductPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out ProductPage
	if err := c.do(ctx, http.MethodGet, "/products?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AllProducts walks every page in backend order
func (c *Client) AllProducts(ctx context.Context, limit int) ([]catalog.Product, error) {
	products := []catalog.Product{}
	for page := 1; ; page++ {
		p, err := c.ListProducts(ctx, page, limit)
		if err != nil {
			return nil, fmt.Errorf("products page %d: %w", page, err)
		}
		products = append(products, p.Data...)
		if len(p.Data) == 0 || page >= p.TotalPages {
			return products, nil
		}
	}
}

// ListEntities fetches one taxonomy list
func (c *Client) ListEntities(ctx context.Context, kind catalog.EntityKind) ([]catalog.Entity, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, "/"+string(kind), nil, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: %s: %s", ErrRejected, kind, env.Message)
	}

	entities := []catalog.Entity{}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &entities); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
	}
	return entities, nil
}

type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Note    string `json:"note,omitempty"`
}

// OrderSubmission is the body of POST /orders. Amounts are rounded to 2 places.
type OrderSubmission struct {
	Items      []OrderLine     `json:"items"`
	Customer   Customer        `json:"customer"`
	CouponCode string          `json:"couponCode,omitempty"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Shipping   decimal.Decimal `json:"shipping"`
	Discount   decimal.Decimal `json:"discount"`
	Total      decimal.Decimal `json:"total"`
}

type OrderReceipt struct {
	ID     string `json:"_id"`
	Status string `json:"status"`
}

func (c *Client) SubmitOrder(ctx context.Context, submission OrderSubmission) (*OrderReceipt, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, "/orders", submission, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("%w: orders: %s", ErrRejected, env.Message)
	}

	var receipt OrderReceipt
	if err := json.Unmarshal(env.Data, &receipt); err != nil {
		return nil, fmt.Errorf("decode order receipt: %w", err)
	}
	return &receipt, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func errorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(resp.StatusCode)
}
