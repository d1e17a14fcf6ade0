package models

// CartLine is one product/variant entry in a cart, with the price snapshotted
// at the time the line was added.
type CartLine struct {
	ProductID int     `json:"product_id" validate:"required,gt=0"`
	Variant   string  `json:"variant,omitempty"` // empty means no variant
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	Price     float64 `json:"price" validate:"gte=0"`
	Name      string  `json:"name"`
	ImageURL  string  `json:"image_url,omitempty"`
	Stock     int     `json:"stock,omitempty"`
}

// SameIdentity reports whether two lines refer to the same product/variant.
// Identity is the (ProductID, Variant) pair.
func (l CartLine) SameIdentity(productID int, variant string) bool {
	return l.ProductID == productID && l.Variant == variant
}

// Total returns price * quantity for this line.
func (l CartLine) Total() float64 {
	return l.Price * float64(l.Quantity)
}

// Cart is an ordered sequence of cart lines with at most one line per
// (ProductID, Variant) identity.
type Cart struct {
	Items []CartLine `json:"items"`
}

// ItemCount returns the sum of quantities over all lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.Items {
		count += line.Quantity
	}
	return count
}

// Subtotal returns the sum of price*quantity over all lines.
func (c Cart) Subtotal() float64 {
	total := 0.0
	for _, line := range c.Items {
		total += line.Total()
	}
	return total
}
