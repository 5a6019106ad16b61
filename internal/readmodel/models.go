package readmodel

import (
	"time"

	"github.com/example/ec-storefront/internal/pricing"
)

// CartItemReadModel is one cart line as shown to the UI
type CartItemReadModel struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	SellingPrice   string `json:"sellingPrice"`
	Quantity       int    `json:"quantity"`
	Stock          int    `json:"stock"`
	LineTotal      string `json:"lineTotal"`
	ThumbnailImage string `json:"thumbnailImage,omitempty"`
	BrandName      string `json:"brandName,omitempty"`
	ModelName      string `json:"modelName,omitempty"`
}

// CartReadModel is the cart with display totals recomputed on every change
type CartReadModel struct {
	ID         string              `json:"id"`
	OwnerID    string              `json:"ownerId"`
	Items      []CartItemReadModel `json:"items"`
	CouponCode string              `json:"couponCode,omitempty"`
	ItemCount  int                 `json:"itemCount"`
	Totals     pricing.Display     `json:"totals"`
	Version    int                 `json:"version"`
}

type OrderItemReadModel struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type OrderReadModel struct {
	ID           string               `json:"id"`
	OwnerID      string               `json:"ownerId"`
	BackendID    string               `json:"backendId"`
	Items        []OrderItemReadModel `json:"items"`
	CustomerName string               `json:"customerName"`
	CouponCode   string               `json:"couponCode,omitempty"`
	Totals       pricing.Display      `json:"totals"`
	Status       string               `json:"status"`
	PlacedAt     time.Time            `json:"placedAt"`
}
