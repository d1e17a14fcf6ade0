package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"articonnect/internal/models"
	"articonnect/internal/repositories"
	"articonnect/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
)

// Checkout failure conditions handlers branch on.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNonPositiveTotal = errors.New("order total must be positive")
)

// Payment methods accepted at checkout. Only card payments carry extra
// fields to validate; the others are simulated.
const (
	PaymentMethodCard     = "card"
	PaymentMethodPaypal   = "paypal"
	PaymentMethodApplePay = "apple-pay"
)

// ShippingOption is one selectable delivery method.
type ShippingOption struct {
	Method string  `json:"method"`
	Label  string  `json:"label"`
	Cost   float64 `json:"cost"`
}

// CardDetails carries the card form fields, validated only when the payment
// method is "card".
type CardDetails struct {
	Number string `json:"number" validate:"required,cardnumber"`
	Expiry string `json:"expiry" validate:"required,cardexpiry"`
	CVC    string `json:"cvc" validate:"required,cardcvc"`
	Name   string `json:"name" validate:"required,min=2"`
}

// CheckoutRequest is the final-submit payload of the checkout flow.
type CheckoutRequest struct {
	User            models.OrderUser `json:"user"`
	DeliveryAddress string           `json:"delivery_address" validate:"required"`
	ShippingMethod  string           `json:"shipping_method" validate:"required"`
	PaymentMethod   string           `json:"payment_method" validate:"required,oneof=card paypal apple-pay"`
	Card            *CardDetails     `json:"card,omitempty"`
	PromoCode       string           `json:"promo_code,omitempty"`
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{4}\s?\d{4}\s?\d{4}\s?\d{4}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])\s?/\s?\d{2}$`)
	cardCVCPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// CheckoutService converts a cart snapshot into an immutable order record.
type CheckoutService struct {
	cart     *CartService
	orders   repositories.OrderRepository
	promos   *PromoService
	mqClient *rabbitmq.Client
	validate *validator.Validate
	shipping []ShippingOption
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(cart *CartService, orders repositories.OrderRepository, promos *PromoService, mqClient *rabbitmq.Client) *CheckoutService {
	validate := validator.New()
	// Card field patterns mirror the checkout form's inline validation.
	_ = validate.RegisterValidation("cardnumber", func(fl validator.FieldLevel) bool {
		return cardNumberPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("cardexpiry", func(fl validator.FieldLevel) bool {
		return cardExpiryPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("cardcvc", func(fl validator.FieldLevel) bool {
		return cardCVCPattern.MatchString(fl.Field().String())
	})

	return &CheckoutService{
		cart:     cart,
		orders:   orders,
		promos:   promos,
		mqClient: mqClient,
		validate: validate,
		shipping: []ShippingOption{
			{Method: "standard", Label: "Livraison standard", Cost: 0},
			{Method: "express", Label: "Livraison express", Cost: 9.90},
		},
	}
}

// ShippingOptions returns the selectable delivery methods.
func (s *CheckoutService) ShippingOptions() []ShippingOption {
	return s.shipping
}

func (s *CheckoutService) shippingOption(method string) (*ShippingOption, error) {
	for i := range s.shipping {
		if strings.EqualFold(s.shipping[i].Method, method) {
			return &s.shipping[i], nil
		}
	}
	return nil, fmt.Errorf("unknown shipping method: %s", method)
}

// validateRequest checks the request's required fields and, for card
// payments, the card field patterns. Validation failure aborts the checkout
// before any state is touched.
func (s *CheckoutService) validateRequest(req *CheckoutRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid checkout request: %w", err)
	}
	if req.User.Name == "" || req.User.Email == "" {
		return fmt.Errorf("invalid checkout request: user name and email are required")
	}
	if req.PaymentMethod == PaymentMethodCard {
		if req.Card == nil {
			return fmt.Errorf("invalid checkout request: card details are required for card payment")
		}
		if err := s.validate.Struct(req.Card); err != nil {
			return fmt.Errorf("invalid card details: %w", err)
		}
	}
	return nil
}

// newOrderID generates an order ID of the form AC-<unix millis>-<3 digits>.
// There is no collision guarantee; the timestamp makes collisions unlikely
// enough for this system.
func newOrderID() string {
	return fmt.Sprintf("AC-%d-%d", time.Now().UnixMilli(), 100+rand.Intn(900))
}

// PlaceOrder validates the request, snapshots the owner's cart into an order,
// appends it to the persisted order list, publishes an order.created event
// and clears the cart. Totals are computed from cart data only. An empty
// cart or a non-positive total aborts with no state mutation.
func (s *CheckoutService) PlaceOrder(owner string, req CheckoutRequest) (*models.Order, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	shipping, err := s.shippingOption(req.ShippingMethod)
	if err != nil {
		return nil, err
	}

	cart, err := s.cart.Get(owner)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := cart.Subtotal()

	var discount models.Discount
	discountAmount := 0.0
	discountType := ""
	if req.PromoCode != "" {
		discount, err = s.promos.Resolve(req.PromoCode)
		if err != nil {
			return nil, err
		}
		discountAmount = discount.Amount(subtotal)
		discountType = string(discount.Type)
	}

	total := models.OrderTotal(subtotal, discountAmount, shipping.Cost)
	if total <= 0 {
		return nil, ErrNonPositiveTotal
	}

	order := &models.Order{
		ID:              newOrderID(),
		Date:            time.Now(),
		User:            req.User,
		Items:           cart.Items,
		DeliveryAddress: req.DeliveryAddress,
		ShippingMethod:  shipping.Label,
		ShippingCost:    shipping.Cost,
		Subtotal:        subtotal,
		Discount:        discountAmount,
		DiscountType:    discountType,
		Total:           total,
		Status:          models.OrderStatusCompleted,
	}

	if err := s.orders.Append(order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.publishOrderCreated(order)

	if err := s.cart.Clear(owner); err != nil {
		// The order is already saved; a failed cart clear is logged, not fatal.
		log.Printf("Warning: failed to clear cart after order %s: %v", order.ID, err)
	}

	return order, nil
}

// publishOrderCreated emits an order.created event. Publish failures are
// logged and do not fail the checkout.
func (s *CheckoutService) publishOrderCreated(order *models.Order) {
	if s.mqClient == nil {
		log.Println("RabbitMQ client is not initialized. Skipping message publication.")
		return
	}

	event := map[string]interface{}{
		"orderID": order.ID,
		"email":   order.User.Email,
		"status":  order.Status,
		"total":   order.Total,
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal order event to JSON: %v", err)
		return
	}
	if err := s.mqClient.Publish("order.created", body); err != nil {
		log.Printf("Warning: failed to publish order created event for order %s: %v", order.ID, err)
	} else {
		log.Printf("Published order created event for order %s", order.ID)
	}
}
