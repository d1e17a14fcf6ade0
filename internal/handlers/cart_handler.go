package handlers

import (
	"fmt"
	"log"

	"articonnect/internal/models"
	"articonnect/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	cartService  *services.CartService
	promoService *services.PromoService
	validate     *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, promoService *services.PromoService) *CartHandler {
	return &CartHandler{
		cartService:  cartService,
		promoService: promoService,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items", h.HandleUpdateQuantity)
	cartRoutes.Delete("/items", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/promo", h.HandleApplyPromo)
}

// HandleGetCart returns the cart lines plus the derived count and subtotal
// the header and summary display.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	owner := ownerEmail(c)
	cart, err := h.cartService.Get(owner)
	if err != nil {
		log.Printf("Error reading cart for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"items":      cart.Items,
		"item_count": cart.ItemCount(),
		"subtotal":   cart.Subtotal(),
	})
}

// HandleAddItem adds a line to the cart, merging with an existing line of
// the same product/variant identity.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var line models.CartLine
	if err := c.BodyParser(&line); err != nil {
		log.Printf("Error parsing cart item body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(line); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	owner := ownerEmail(c)
	if err := h.cartService.AddLine(owner, line); err != nil {
		log.Printf("Error adding cart line for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not add item to cart",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Item added to cart",
		"item_count": h.cartService.ItemCount(owner),
	})
}

// UpdateQuantityRequest represents the request body for a quantity change.
type UpdateQuantityRequest struct {
	ProductID int    `json:"product_id" validate:"required,gt=0"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
}

// HandleUpdateQuantity overwrites the quantity of a cart line. A quantity of
// zero or less removes the line.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req UpdateQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing quantity update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	owner := ownerEmail(c)
	if err := h.cartService.SetQuantity(owner, req.ProductID, req.Variant, req.Quantity); err != nil {
		log.Printf("Error updating quantity for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update quantity",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message":    "Cart updated",
		"item_count": h.cartService.ItemCount(owner),
		"subtotal":   h.cartService.Subtotal(owner),
	})
}

// HandleRemoveItem removes the line identified by the product_id and variant
// query parameters.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	productID := c.QueryInt("product_id")
	if productID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "product_id query parameter is required",
		})
	}
	variant := c.Query("variant")

	owner := ownerEmail(c)
	if err := h.cartService.RemoveLine(owner, productID, variant); err != nil {
		log.Printf("Error removing cart line for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not remove item from cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message":    "Item removed from cart",
		"item_count": h.cartService.ItemCount(owner),
	})
}

// HandleClearCart empties the owner's cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	owner := ownerEmail(c)
	if err := h.cartService.Clear(owner); err != nil {
		log.Printf("Error clearing cart for %s: %v", owner, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not clear cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Cart cleared",
	})
}

// PromoRequest represents the request body for applying a promo code.
type PromoRequest struct {
	Code string `json:"code" validate:"required"`
}

// HandleApplyPromo validates a promo code and previews its effect on the
// current subtotal. The discount itself stays ephemeral; it is re-resolved
// at checkout time.
func (h *CartHandler) HandleApplyPromo(c *fiber.Ctx) error {
	var req PromoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Promo code is required",
		})
	}

	discount, err := h.promoService.Resolve(req.Code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid promo code",
			"error":   err.Error(),
		})
	}

	owner := ownerEmail(c)
	subtotal := h.cartService.Subtotal(owner)
	discountAmount := discount.Amount(subtotal)
	return c.JSON(fiber.Map{
		"message":  "Promo code applied",
		"discount": discount,
		"amount":   discountAmount,
		"subtotal": subtotal,
		"total":    models.OrderTotal(subtotal, discountAmount, 0),
	})
}
