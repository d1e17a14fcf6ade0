package handlers

import (
	"errors"
	"log"
	"strings"

	"articonnect/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles the final submit of the checkout flow.
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// RegisterRoutes registers the checkout routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/checkout/shipping-options", h.HandleShippingOptions)
	router.Post("/checkout", h.HandlePlaceOrder)
}

// HandleShippingOptions lists the selectable delivery methods.
func (h *CheckoutHandler) HandleShippingOptions(c *fiber.Ctx) error {
	return c.JSON(h.checkoutService.ShippingOptions())
}

// HandlePlaceOrder validates the checkout request and converts the cart into
// an order.
func (h *CheckoutHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	// The authenticated identity wins over whatever the body claims.
	if email := ownerEmail(c); email != "" {
		req.User.Email = email
	}
	if req.User.Name == "" {
		req.User.Name = ownerName(c)
	}

	order, err := h.checkoutService.PlaceOrder(req.User.Email, req)
	if err != nil {
		log.Printf("Error placing order for %s: %v", req.User.Email, err)
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Your cart is empty",
			})
		case errors.Is(err, services.ErrNonPositiveTotal):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Cannot place an order with a non-positive total",
			})
		case strings.Contains(err.Error(), "invalid") || strings.Contains(err.Error(), "unknown shipping method"):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Checkout validation failed",
				"error":   err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not place order",
				"error":   err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}
