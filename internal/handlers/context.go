package handlers

import "github.com/gofiber/fiber/v2"

// ownerEmail returns the authenticated user's email from the JWT claims the
// auth middleware stored on the context.
func ownerEmail(c *fiber.Ctx) string {
	email, _ := c.Locals("email").(string)
	return email
}

// ownerName returns the authenticated user's display name from the context.
func ownerName(c *fiber.Ctx) string {
	name, _ := c.Locals("name").(string)
	return name
}
