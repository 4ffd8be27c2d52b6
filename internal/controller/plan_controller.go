package controller

import (
	"github.com/gofiber/fiber/v2"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/database"
)

func ListPlans(c *fiber.Ctx) error {
	var plans []model.Plan
	if err := database.DB.Find(&plans).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch plans",
		})
	}

	return c.JSON(plans)
}
