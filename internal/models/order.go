package models

import "time"

// Order statuses. The checkout simulation marks orders completed at creation;
// the status endpoint can move them between these values afterwards.
const (
	OrderStatusCompleted  = "completed"
	OrderStatusProcessing = "processing"
	OrderStatusCancelled  = "cancelled"
)

// OrderUser identifies the owner of an order. Retrieval filters the global
// order list by Email.
type OrderUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order is an immutable snapshot of a cart plus delivery and payment metadata,
// created once at checkout. Only Status may change afterwards.
type Order struct {
	ID              string     `json:"id"`
	Date            time.Time  `json:"date"`
	User            OrderUser  `json:"user"`
	Items           []CartLine `json:"items"`
	DeliveryAddress string     `json:"delivery_address"`
	ShippingMethod  string     `json:"shipping_method"`
	ShippingCost    float64    `json:"shipping_cost"`
	Subtotal        float64    `json:"subtotal"`
	Discount        float64    `json:"discount"`
	DiscountType    string     `json:"discount_type,omitempty"`
	Total           float64    `json:"total"`
	Status          string     `json:"status"`
}

// ItemCount returns the sum of quantities over the order's items.
func (o Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
