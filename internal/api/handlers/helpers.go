package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func getTenantID(c *fiber.Ctx) (int64, error) {
	tenantID, ok := c.Locals("tenantID").(int64)
	if !ok || tenantID <= 0 {
		return 0, errors.New("tenant id not found in context")
	}
	return tenantID, nil
}

func getActor(c *fiber.Ctx) string {
	if actor, ok := c.Locals("actor").(string); ok {
		return actor
	}
	return ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Unauthorized",
	})
}
