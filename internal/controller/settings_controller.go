package controller

import (
	"github.com/gofiber/fiber/v2"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/utils/jwt"
)

type GatewayCredentialInput struct {
	AccessToken string `json:"access_token" validate:"required"`
	AccountID   string `json:"account_id"`
}

// UpsertGatewayCredential stores the tenant's Mercado Pago access token so
// the webhook reconciler can resolve that tenant's payments.
func UpsertGatewayCredential(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(GatewayCredentialInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}
	if input.AccessToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "access_token is required",
		})
	}

	var cred model.GatewayCredential
	err := database.DB.Where("user_id = ? AND gateway = ?", claims.UserID, model.GatewayMercadoPago).First(&cred).Error
	if err != nil {
		cred = model.GatewayCredential{
			UserID:      claims.UserID,
			Gateway:     model.GatewayMercadoPago,
			AccessToken: input.AccessToken,
			AccountID:   input.AccountID,
		}
		if err := database.DB.Create(&cred).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not store gateway credential",
			})
		}
	} else {
		cred.AccessToken = input.AccessToken
		cred.AccountID = input.AccountID
		if err := database.DB.Save(&cred).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not update gateway credential",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Gateway credential saved",
	})
}
