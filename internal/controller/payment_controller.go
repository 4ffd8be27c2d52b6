package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/internal/service"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/utils/jwt"
)

type ManualPaymentInput struct {
	ChargeID uint   `json:"charge_id" validate:"required"`
	PaidAt   string `json:"paid_at"` // optional, YYYY-MM-DD
}

func ListMyPayments(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var payments []model.Payment
	if err := database.DB.Where("user_id = ?", claims.UserID).Order("id DESC").Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch payments",
		})
	}

	return c.JSON(payments)
}

// RecordManualPayment settles a charge paid out of band (cash, transfer).
// It flows through the same settlement fan-out as gateway payments, so the
// one-payment-per-charge guarantee holds here too.
func RecordManualPayment(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(ManualPaymentInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var charge model.Charge
	if err := database.DB.Where("id = ? AND user_id = ?", input.ChargeID, claims.UserID).First(&charge).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Charge not found",
		})
	}

	if charge.Status == model.ChargeStatusPaid {
		// Re-run the fan-out so a paid charge whose earlier settlement failed
		// still ends up with its Payment row; no-op when one already exists.
		if err := service.OnChargePaid(database.DB, chargeCfg.Billing, chargeNotifier, charge.ID); err != nil {
			log.Printf("Settlement failed for charge %d: %v", charge.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Charge is paid but settlement failed",
			})
		}

		var payment model.Payment
		database.DB.Where("charge_id = ?", charge.ID).First(&payment)
		return c.JSON(payment)
	}
	if charge.Status == model.ChargeStatusCancelled {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Charge is already cancelled",
		})
	}

	paidAt := time.Now()
	if input.PaidAt != "" {
		parsed, err := time.Parse("2006-01-02", input.PaidAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid paid_at, expected YYYY-MM-DD",
			})
		}
		paidAt = parsed
	}

	if err := database.DB.Model(&charge).Updates(map[string]interface{}{
		"status":  model.ChargeStatusPaid,
		"paid_at": paidAt,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update charge",
		})
	}

	if err := service.OnChargePaid(database.DB, chargeCfg.Billing, chargeNotifier, charge.ID); err != nil {
		log.Printf("Settlement failed for charge %d: %v", charge.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Charge was marked paid but settlement failed",
		})
	}

	var payment model.Payment
	database.DB.Where("charge_id = ?", charge.ID).First(&payment)

	return c.Status(fiber.StatusCreated).JSON(payment)
}
