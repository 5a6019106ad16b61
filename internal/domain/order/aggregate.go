package order

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/ec-storefront/internal/backend"
	"github.com/example/ec-storefront/internal/domain/aggregate"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/pricing"
)

const AggregateType = "Order"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrEmptyOrder      = errors.New("order must have at least one item")
	ErrInvalidCustomer = errors.New("customer name, phone and address are required")
)

type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Customer holds the checkout contact details
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Validate trims the fields and checks the required ones
func (c *Customer) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	c.City = strings.TrimSpace(c.City)
	if c.Name == "" || c.Phone == "" || c.Address == "" {
		return ErrInvalidCustomer
	}
	return nil
}

type Order struct {
	ID         string         `json:"id"`
	OwnerID    string         `json:"owner_id"`
	BackendID  string         `json:"backend_id"`
	Status     string         `json:"status"`
	Items      []Item         `json:"items"`
	Customer   Customer       `json:"customer"`
	CouponCode string         `json:"coupon_code,omitempty"`
	Totals     pricing.Totals `json:"totals"`
	PlacedAt   time.Time      `json:"placed_at"`
	Version    int            `json:"version"`
}

func (o *Order) GetID() string   { return o.ID }
func (o *Order) GetVersion() int { return o.Version }

func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderPlaced:
		var data OrderPlaced
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.OwnerID = data.OwnerID
		o.BackendID = data.BackendID
		o.Status = data.Status
		o.Items = data.Items
		o.Customer = data.Customer
		o.CouponCode = data.CouponCode
		o.Totals = data.Totals
		o.PlacedAt = data.PlacedAt
	}
	o.Version = event.Version
	return nil
}

// Submitter sends an order to the backend
type Submitter interface {
	SubmitOrder(ctx context.Context, submission backend.OrderSubmission) (*backend.OrderReceipt, error)
}

type Service struct {
	eventStore store.EventStoreInterface
	submitter  Submitter
}

func NewService(es store.EventStoreInterface, submitter Submitter) *Service {
	return &Service{eventStore: es, submitter: submitter}
}

// Place submits the cart as an order and records OrderPlaced.
// Nothing is recorded when the backend refuses the order.
func (s *Service) Place(ctx context.Context, c *cart.Cart, customer Customer) (*Order, error) {
	if c == nil || len(c.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	totals := c.Totals()
	items := make([]Item, len(c.Items))
	lines := make([]backend.OrderLine, len(c.Items))
	for i, it := range c.Items {
		items[i] = Item{ProductID: it.ProductID, Name: it.Name, UnitPrice: it.SellingPrice, Quantity: it.Quantity}
		lines[i] = backend.OrderLine{ProductID: it.ProductID, Name: it.Name, UnitPrice: it.SellingPrice, Quantity: it.Quantity}
	}
	couponCode := ""
	if c.Coupon != nil {
		couponCode = c.Coupon.Code
	}

	rounded := totals.Rounded()
	receipt, err := s.submitter.SubmitOrder(ctx, backend.OrderSubmission{
		Items:      lines,
		Customer:   backend.Customer(customer),
		CouponCode: couponCode,
		Subtotal:   rounded.Subtotal,
		Tax:        rounded.Tax,
		Shipping:   rounded.Shipping,
		Discount:   rounded.Discount,
		Total:      rounded.Total,
	})
	if err != nil {
		logger.Error(ctx).Str("component", "order").Str("cart_id", c.ID).Err(err).Msg("submit order")
		return nil, err
	}

	o := &Order{ID: "order-" + uuid.New().String()}
	status := receipt.Status
	if status == "" {
		status = "pending"
	}
	_, err = aggregate.Commit(ctx, s.eventStore, o, AggregateType, EventOrderPlaced, OrderPlaced{
		OrderID:    o.ID,
		OwnerID:    c.OwnerID,
		BackendID:  receipt.ID,
		Status:     status,
		Items:      items,
		Customer:   customer,
		CouponCode: couponCode,
		Totals:     totals,
		PlacedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Str("component", "order").
		Str("order_id", o.ID).
		Str("backend_id", o.BackendID).
		Str("total", totals.Total.StringFixed(2)).
		Msg("order placed")
	return o, nil
}

// Get loads an order by id
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	o, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order { return &Order{} })
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return o, nil
}
