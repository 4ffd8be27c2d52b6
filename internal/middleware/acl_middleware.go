package middleware

import (
	"github.com/gofiber/fiber/v2"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/utils/jwt"
)

// CheckChargeOwnership rejects requests touching a charge that belongs to a
// different tenant.
func CheckChargeOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)
		chargeID := c.Params("id")

		var charge model.Charge
		if err := database.DB.First(&charge, chargeID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Charge not found",
			})
		}

		if charge.UserID != claims.UserID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Charge not found",
			})
		}

		return c.Next()
	}
}

// CheckClientOwnership does the same for clients.
func CheckClientOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)
		clientID := c.Params("id")

		var client model.Client
		if err := database.DB.First(&client, clientID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}

		if client.UserID != claims.UserID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Client not found",
			})
		}

		return c.Next()
	}
}

// CheckSubscriptionOwnership does the same for client subscriptions.
func CheckSubscriptionOwnership() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)
		subID := c.Params("id")

		var sub model.Subscription
		if err := database.DB.First(&sub, subID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Subscription not found",
			})
		}

		if sub.UserID != claims.UserID {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Subscription not found",
			})
		}

		return c.Next()
	}
}
