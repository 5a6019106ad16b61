package pricing

// Coupon is a percentage discount on the subtotal
type Coupon struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
}

// CouponBook resolves coupon codes. Codes match exactly, case included.
type CouponBook interface {
	Lookup(code string) (Coupon, bool)
}

// StaticCoupons is a fixed code table
type StaticCoupons map[string]int

// DefaultCoupons is the built-in table
var DefaultCoupons = StaticCoupons{
	"SAVE10": 10,
	"SAVE20": 20,
}

// Lookup implements CouponBook
func (s StaticCoupons) Lookup(code string) (Coupon, bool) {
	percent, ok := s[code]
	if !ok {
		return Coupon{}, false
	}
	return Coupon{Code: code, Percent: percent}, true
}
