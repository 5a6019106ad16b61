package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventItemAdded       = "ItemAddedToCart"
	EventQuantityChanged = "ItemQuantityChanged"
	EventItemRemoved     = "ItemRemovedFromCart"
	EventCartCleared     = "CartCleared"
	EventCouponApplied   = "CouponApplied"
	EventCouponRemoved   = "CouponRemoved"
)

// ItemAddedToCart carries the product snapshot taken at add time
type ItemAddedToCart struct {
	CartID         string          `json:"cart_id"`
	OwnerID        string          `json:"owner_id"`
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	Stock          int             `json:"stock"`
	ThumbnailImage string          `json:"thumbnail_image,omitempty"`
	BrandName      string          `json:"brand_name,omitempty"`
	ModelName      string          `json:"model_name,omitempty"`
	AddedAt        time.Time       `json:"added_at"`
}

// ItemQuantityChanged sets the absolute quantity of an existing line
type ItemQuantityChanged struct {
	CartID    string    `json:"cart_id"`
	OwnerID   string    `json:"owner_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	ChangedAt time.Time `json:"changed_at"`
}

type ItemRemovedFromCart struct {
	CartID    string    `json:"cart_id"`
	OwnerID   string    `json:"owner_id"`
	ProductID string    `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartCleared struct {
	CartID    string    `json:"cart_id"`
	OwnerID   string    `json:"owner_id"`
	ClearedAt time.Time `json:"cleared_at"`
}

type CouponApplied struct {
	CartID    string    `json:"cart_id"`
	OwnerID   string    `json:"owner_id"`
	Code      string    `json:"code"`
	Percent   int       `json:"percent"`
	AppliedAt time.Time `json:"applied_at"`
}

type CouponRemoved struct {
	CartID    string    `json:"cart_id"`
	OwnerID   string    `json:"owner_id"`
	RemovedAt time.Time `json:"removed_at"`
}
