package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/internal/service"
	"gestorapp_backend/pkg/billing"
	"gestorapp_backend/pkg/config"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/utils/jwt"
)

var (
	chargeCfg      *config.Config
	chargeNotifier service.Notifier
)

func InitChargeController(cfg *config.Config, notifier service.Notifier) {
	chargeCfg = cfg
	chargeNotifier = notifier
}

type ChargeInput struct {
	ClientID      uint    `json:"client_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	DueDate       string  `json:"due_date" validate:"required"` // YYYY-MM-DD
	PaymentMethod string  `json:"payment_method"`
	Description   string  `json:"description"`
}

type ChargeStatusInput struct {
	Status string `json:"status" validate:"required"`
}

type MarkPaidInput struct {
	PaidAt string `json:"paid_at"` // optional, YYYY-MM-DD
}

func ListMyCharges(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	query := database.DB.Preload("Client").Where("user_id = ?", claims.UserID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var charges []model.Charge
	if err := query.Order("due_date DESC").Find(&charges).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch charges",
		})
	}

	return c.JSON(charges)
}

// CreateCharge creates a standalone (one-off) charge against a client.
func CreateCharge(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(ChargeInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Amount must be greater than zero",
		})
	}

	dueDate, err := time.Parse("2006-01-02", input.DueDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid due date, expected YYYY-MM-DD",
		})
	}

	method := input.PaymentMethod
	if method == "" {
		method = model.PaymentMethodPix
	}
	if !model.ValidPaymentMethod(method) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payment method",
		})
	}

	var client model.Client
	if err := database.DB.Where("id = ? AND user_id = ?", input.ClientID, claims.UserID).First(&client).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	charge := model.Charge{
		UserID:            claims.UserID,
		ClientID:          &client.ID,
		Amount:            billing.Round2(input.Amount),
		DueDate:           billing.DateOnly(dueDate),
		PaymentMethod:     method,
		Status:            model.ChargeStatusPending,
		Description:       input.Description,
		ExternalReference: uuid.NewString(),
	}

	if err := database.DB.Create(&charge).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create charge",
		})
	}

	if chargeNotifier != nil {
		var user model.User
		database.DB.First(&user, claims.UserID)
		if err := chargeNotifier.ChargeCreated(&client, &charge, user.CompanyName); err != nil {
			log.Printf("Could not send new-charge notification for charge %d: %v", charge.ID, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(charge)
}

// UpdateChargeStatus handles PATCH /charges/:id/status. Setting "paid" runs
// the settlement fan-out synchronously before responding.
func UpdateChargeStatus(c *fiber.Ctx) error {
	input := new(ChargeStatusInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	switch input.Status {
	case model.ChargeStatusPending, model.ChargeStatusPaid, model.ChargeStatusOverdue, model.ChargeStatusCancelled:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status",
		})
	}

	var charge model.Charge
	if err := database.DB.First(&charge, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Charge not found",
		})
	}

	if charge.Status == input.Status {
		if charge.Status == model.ChargeStatusPaid {
			return resettlePaidCharge(c, &charge)
		}
		return c.JSON(charge)
	}

	if charge.IsTerminal() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Charge is already " + charge.Status,
		})
	}

	return applyChargeStatus(c, &charge, input.Status, time.Now())
}

// MarkChargePaid handles PATCH /charges/:id/mark-paid with an optional
// backdated paid_at.
func MarkChargePaid(c *fiber.Ctx) error {
	input := new(MarkPaidInput)
	if err := c.BodyParser(input); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
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

	var charge model.Charge
	if err := database.DB.First(&charge, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Charge not found",
		})
	}

	if charge.Status == model.ChargeStatusPaid {
		return resettlePaidCharge(c, &charge)
	}
	if charge.Status == model.ChargeStatusCancelled {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Charge is already cancelled",
		})
	}

	return applyChargeStatus(c, &charge, model.ChargeStatusPaid, paidAt)
}

// resettlePaidCharge re-runs the settlement fan-out for a charge that is
// already paid, recovering a charge whose earlier settlement failed after the
// status flip. The fan-out is a no-op once the Payment row exists, so this is
// safe on every repeat.
func resettlePaidCharge(c *fiber.Ctx, charge *model.Charge) error {
	if err := service.OnChargePaid(database.DB, chargeCfg.Billing, chargeNotifier, charge.ID); err != nil {
		log.Printf("Settlement failed for charge %d: %v", charge.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Charge is paid but settlement failed",
		})
	}

	database.DB.Preload("Client").First(charge, charge.ID)
	return c.JSON(charge)
}

func applyChargeStatus(c *fiber.Ctx, charge *model.Charge, status string, when time.Time) error {
	updates := map[string]interface{}{"status": status}
	switch status {
	case model.ChargeStatusPaid:
		updates["paid_at"] = when
	case model.ChargeStatusCancelled:
		updates["cancelled_at"] = when
	}

	if err := database.DB.Model(charge).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update charge status",
		})
	}

	if status == model.ChargeStatusPaid {
		if err := service.OnChargePaid(database.DB, chargeCfg.Billing, chargeNotifier, charge.ID); err != nil {
			log.Printf("Settlement failed for charge %d: %v", charge.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Charge was marked paid but settlement failed",
			})
		}
	}

	database.DB.Preload("Client").First(charge, charge.ID)
	return c.JSON(charge)
}

func CancelCharge(c *fiber.Ctx) error {
	var charge model.Charge
	if err := database.DB.First(&charge, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Charge not found",
		})
	}

	if charge.IsTerminal() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Charge is already " + charge.Status,
		})
	}

	return applyChargeStatus(c, &charge, model.ChargeStatusCancelled, time.Now())
}
