package models

import "math"

// DiscountType distinguishes percentage discounts from fixed-amount ones.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Discount is an optional promo discount applied at totals-computation time.
// It is resolved per checkout and never persisted.
type Discount struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// Amount returns the discount amount for the given subtotal. A fixed discount
// never exceeds the subtotal.
func (d Discount) Amount(subtotal float64) float64 {
	switch d.Type {
	case DiscountPercent:
		return subtotal * d.Value / 100
	case DiscountFixed:
		return math.Min(d.Value, subtotal)
	default:
		return 0
	}
}

// OrderTotal computes subtotal - discount + shipping, clamped at zero.
func OrderTotal(subtotal, discount, shipping float64) float64 {
	return math.Max(0, subtotal-discount+shipping)
}
