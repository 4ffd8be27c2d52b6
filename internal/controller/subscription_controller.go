package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/internal/service"
	"gestorapp_backend/pkg/billing"
	"gestorapp_backend/pkg/config"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/utils/jwt"
)

var (
	subCfg      *config.Config
	subNotifier service.Notifier
)

func InitSubscriptionController(cfg *config.Config, notifier service.Notifier) {
	subCfg = cfg
	subNotifier = notifier
}

type SubscriptionInput struct {
	ClientID      uint    `json:"client_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Cycle         string  `json:"cycle" validate:"required"`
	CustomDays    *int    `json:"custom_days"`
	PaymentMethod string  `json:"payment_method"`
	StartDate     string  `json:"start_date"` // optional, YYYY-MM-DD, defaults to today
}

type SuspendInput struct {
	Reason string `json:"reason"`
}

func ListMySubscriptions(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	var subs []model.Subscription
	if err := database.DB.Preload("Client").Where("user_id = ?", claims.UserID).Find(&subs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch subscriptions",
		})
	}

	return c.JSON(subs)
}

// CreateSubscription creates a recurring agreement and emits its first
// charge synchronously, in one transaction.
func CreateSubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(SubscriptionInput)
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
	if !model.ValidCycle(input.Cycle) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid billing cycle",
		})
	}
	if input.Cycle == model.CycleCustom && (input.CustomDays == nil || *input.CustomDays <= 0) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "custom_days must be a positive number for custom cycles",
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

	startDate := billing.DateOnly(time.Now())
	if input.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", input.StartDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid start date, expected YYYY-MM-DD",
			})
		}
		startDate = billing.DateOnly(parsed)
	}

	var client model.Client
	if err := database.DB.Where("id = ? AND user_id = ?", input.ClientID, claims.UserID).First(&client).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Client not found",
		})
	}

	sub := model.Subscription{
		UserID:        claims.UserID,
		ClientID:      client.ID,
		Amount:        billing.Round2(input.Amount),
		Cycle:         input.Cycle,
		CustomDays:    input.CustomDays,
		PaymentMethod: method,
		Status:        model.SubscriptionStatusActive,
		StartDate:     startDate,
	}

	var charge model.Charge
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// The first charge is due on the start date; the next billing date
		// advances one cycle past it.
		sub.NextBillingDate = billing.NextBillingDate(sub.Cycle, sub.CustomDays, startDate)
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}

		charge = model.Charge{
			UserID:            claims.UserID,
			ClientID:          &client.ID,
			SubscriptionID:    &sub.ID,
			Amount:            sub.Amount,
			DueDate:           startDate,
			PaymentMethod:     method,
			Status:            model.ChargeStatusPending,
			Description:       "Recurring subscription charge",
			ExternalReference: uuid.NewString(),
		}
		return tx.Create(&charge).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create subscription",
		})
	}

	if subNotifier != nil {
		var user model.User
		database.DB.First(&user, claims.UserID)
		if err := subNotifier.ChargeCreated(&client, &charge, user.CompanyName); err != nil {
			log.Printf("Could not send new-charge notification for charge %d: %v", charge.ID, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"subscription":   sub,
		"initial_charge": charge,
	})
}

func SuspendSubscription(c *fiber.Ctx) error {
	input := new(SuspendInput)
	if err := c.BodyParser(input); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var sub model.Subscription
	if err := database.DB.First(&sub, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}

	if sub.Status != model.SubscriptionStatusActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only active subscriptions can be suspended",
		})
	}

	now := time.Now()
	if err := database.DB.Model(&sub).Updates(map[string]interface{}{
		"status":         model.SubscriptionStatusSuspended,
		"suspended_at":   now,
		"suspend_reason": input.Reason,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not suspend subscription",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Subscription suspended",
	})
}

// ReactivateSubscription resumes billing. The next billing date restarts one
// cycle from today, not from where the schedule stopped.
func ReactivateSubscription(c *fiber.Ctx) error {
	var sub model.Subscription
	if err := database.DB.First(&sub, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}

	if sub.Status != model.SubscriptionStatusSuspended {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only suspended subscriptions can be reactivated",
		})
	}

	nextBilling := billing.NextBillingDate(sub.Cycle, sub.CustomDays, billing.DateOnly(time.Now()))
	if err := database.DB.Model(&sub).Updates(map[string]interface{}{
		"status":            model.SubscriptionStatusActive,
		"suspended_at":      nil,
		"suspend_reason":    "",
		"next_billing_date": nextBilling,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not reactivate subscription",
		})
	}

	database.DB.First(&sub, sub.ID)
	return c.JSON(sub)
}

func CancelClientSubscription(c *fiber.Ctx) error {
	input := new(SuspendInput)
	if err := c.BodyParser(input); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var sub model.Subscription
	if err := database.DB.First(&sub, c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}

	if sub.Status == model.SubscriptionStatusCancelled {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Subscription is already cancelled",
		})
	}

	now := time.Now()
	if err := database.DB.Model(&sub).Updates(map[string]interface{}{
		"status":        model.SubscriptionStatusCancelled,
		"cancelled_at":  now,
		"cancel_reason": input.Reason,
	}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not cancel subscription",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Subscription cancelled",
	})
}
