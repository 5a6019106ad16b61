// Package pricing computes cart totals and resolves coupon codes.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	// TaxRate applied to the subtotal
	TaxRate = decimal.RequireFromString("0.05")
	// FreeShippingThreshold is exclusive: a subtotal must exceed it
	FreeShippingThreshold = decimal.NewFromInt(500)
	// FlatShipping is charged at or below the threshold
	FlatShipping = decimal.NewFromInt(50)

	hundred = decimal.NewFromInt(100)
)

// Line is one priced cart line
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals is the full price breakdown. Values are unrounded.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals prices lines with an optional coupon. Rounding is left to display.
func ComputeTotals(lines []Line, coupon *Coupon) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	tax := subtotal.Mul(TaxRate)

	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	if coupon != nil {
		discount = subtotal.Mul(decimal.NewFromInt(int64(coupon.Percent))).Div(hundred)
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal.Add(tax).Add(shipping).Sub(discount),
	}
}

// Rounded returns the totals rounded half away from zero to 2 places
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Tax:      t.Tax.Round(2),
		Shipping: t.Shipping.Round(2),
		Discount: t.Discount.Round(2),
		Total:    t.Total.Round(2),
	}
}

// Display is the 2-decimal string form handed to the UI
type Display struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

// Display formats each amount with exactly two decimals
func (t Totals) Display() Display {
	return Display{
		Subtotal: t.Subtotal.StringFixed(2),
		Tax:      t.Tax.StringFixed(2),
		Shipping: t.Shipping.StringFixed(2),
		Discount: t.Discount.StringFixed(2),
		Total:    t.Total.StringFixed(2),
	}
}
