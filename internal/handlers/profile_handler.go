package handlers

import (
	"log"

	"articonnect/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles HTTP requests for per-user preferences.
type ProfileHandler struct {
	prefsService *services.PrefsService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(prefsService *services.PrefsService) *ProfileHandler {
	return &ProfileHandler{
		prefsService: prefsService,
	}
}

// RegisterRoutes registers the profile routes with the Fiber app.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	profileRoutes := router.Group("/profile")
	profileRoutes.Get("/preferences", h.HandleGetPreferences)
	profileRoutes.Put("/preferences", h.HandleUpdatePreferences)
}

// HandleGetPreferences returns the stored preferences and session user
// record for the authenticated user, with defaults where nothing is stored.
func (h *ProfileHandler) HandleGetPreferences(c *fiber.Ctx) error {
	owner := ownerEmail(c)
	return c.JSON(fiber.Map{
		"user_type": h.prefsService.UserType(owner),
		"view":      h.prefsService.ViewPref(owner),
		"user":      h.prefsService.SessionUser(owner),
	})
}

// PreferencesRequest represents the request body for a preference update.
// Omitted fields are left unchanged.
type PreferencesRequest struct {
	UserType string `json:"user_type,omitempty"`
	View     string `json:"view,omitempty"`
}

// HandleUpdatePreferences stores the submitted preferences.
func (h *ProfileHandler) HandleUpdatePreferences(c *fiber.Ctx) error {
	var req PreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing preferences body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	owner := ownerEmail(c)
	if req.UserType != "" {
		if err := h.prefsService.SetUserType(owner, req.UserType); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid user type",
				"error":   err.Error(),
			})
		}
	}
	if req.View != "" {
		if err := h.prefsService.SetViewPref(owner, req.View); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid view preference",
				"error":   err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"message":   "Preferences updated",
		"user_type": h.prefsService.UserType(owner),
		"view":      h.prefsService.ViewPref(owner),
	})
}
