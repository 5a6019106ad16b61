package command

import "github.com/example/ec-storefront/internal/domain/order"

// Cart Commands. OwnerID is the user id or the guest session id.
type AddToCart struct {
	OwnerID   string `json:"-"`
	ProductID string `json:"productId"`
}

type RemoveFromCart struct {
	OwnerID   string `json:"-"`
	ProductID string `json:"productId"`
}

type IncrementQuantity struct {
	OwnerID   string `json:"-"`
	ProductID string `json:"productId"`
}

type DecrementQuantity struct {
	OwnerID   string `json:"-"`
	ProductID string `json:"productId"`
}

type ClearCart struct {
	OwnerID string `json:"-"`
}

type ApplyCoupon struct {
	OwnerID string `json:"-"`
	Code    string `json:"code"`
}

type RemoveCoupon struct {
	OwnerID string `json:"-"`
}

// Order Commands
type PlaceOrder struct {
	OwnerID  string         `json:"-"`
	Customer order.Customer `json:"customer"`
}
