package catalog

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Axis names one of the taxonomy dimensions a product can be filtered on
type Axis string

const (
	AxisBrand     Axis = "brand"
	AxisModel     Axis = "model"
	AxisColor     Axis = "color"
	AxisStorage   Axis = "storage"
	AxisSim       Axis = "sim"
	AxisCondition Axis = "condition"
	AxisWarranty  Axis = "warranty"
)

// Axes lists every filter axis in a stable order
var Axes = []Axis{AxisBrand, AxisModel, AxisColor, AxisStorage, AxisSim, AxisCondition, AxisWarranty}

// Ref is a reference from a product to a taxonomy entity.
// The backend sends either a populated object or just the id string.
type Ref struct {
	ID       string `json:"_id"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Duration string `json:"duration,omitempty"`
	IsActive bool   `json:"isActive"`
}

// UnmarshalJSON accepts an object or a bare id string
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	type alias Ref
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Ref(a)
	return nil
}

// RefID returns the referenced id, or "" for a nil reference
func (r *Ref) RefID() string {
	if r == nil {
		return ""
	}
	return r.ID
}

// Label returns the display label of the referenced entity
func (r *Ref) Label() string {
	switch {
	case r == nil:
		return ""
	case r.Name != "":
		return r.Name
	case r.Type != "":
		return r.Type
	default:
		return r.Duration
	}
}

// Pricing holds the amounts of a product. SellingPrice is the effective unit price.
type Pricing struct {
	OriginalPrice decimal.Decimal     `json:"originalPrice"`
	DiscountPrice decimal.NullDecimal `json:"discountPrice"`
	SellingPrice  decimal.Decimal     `json:"sellingPrice"`
}

// Product is the read-only catalog projection of a backend product
type Product struct {
	ID             string  `json:"_id"`
	Name           string  `json:"name"`
	SKU            string  `json:"sku,omitempty"`
	Pricing        Pricing `json:"pricing"`
	Stock          int     `json:"stock"`
	IsActive       bool    `json:"isActive"`
	Brand          *Ref    `json:"brandId,omitempty"`
	Model          *Ref    `json:"modelId,omitempty"`
	Color          *Ref    `json:"colorId,omitempty"`
	Storage        *Ref    `json:"storageId,omitempty"`
	Sim            *Ref    `json:"simId,omitempty"`
	Condition      *Ref    `json:"conditionId,omitempty"`
	Warranty       *Ref    `json:"warrantyId,omitempty"`
	ThumbnailImage string  `json:"thumbnailImage,omitempty"`
}

// SellingPrice returns the effective unit price (zero when missing)
func (p Product) SellingPrice() decimal.Decimal {
	return p.Pricing.SellingPrice
}

// InStock reports whether the product can be purchased
func (p Product) InStock() bool {
	return p.Stock > 0
}

// BrandName returns the brand label or ""
func (p Product) BrandName() string {
	return p.Brand.Label()
}

// ModelName returns the model label or ""
func (p Product) ModelName() string {
	return p.Model.Label()
}

// Ref returns the product's reference for a filter axis (nil when absent)
func (p Product) Ref(axis Axis) *Ref {
	switch axis {
	case AxisBrand:
		return p.Brand
	case AxisModel:
		return p.Model
	case AxisColor:
		return p.Color
	case AxisStorage:
		return p.Storage
	case AxisSim:
		return p.Sim
	case AxisCondition:
		return p.Condition
	case AxisWarranty:
		return p.Warranty
	}
	return nil
}
