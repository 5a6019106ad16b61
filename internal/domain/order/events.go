package order

import (
	"time"

	"github.com/example/ec-storefront/internal/pricing"
)

const EventOrderPlaced = "OrderPlaced"

// OrderPlaced is recorded once the backend has accepted the order
type OrderPlaced struct {
	OrderID    string         `json:"order_id"`
	OwnerID    string         `json:"owner_id"`
	BackendID  string         `json:"backend_id"`
	Status     string         `json:"status"`
	Items      []Item         `json:"items"`
	Customer   Customer       `json:"customer"`
	CouponCode string         `json:"coupon_code,omitempty"`
	Totals     pricing.Totals `json:"totals"`
	PlacedAt   time.Time      `json:"placed_at"`
}
