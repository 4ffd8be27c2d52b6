package controller

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"gestorapp_backend/internal/model"
	"gestorapp_backend/internal/service"
	"gestorapp_backend/pkg/config"
	"gestorapp_backend/pkg/database"
	"gestorapp_backend/pkg/mercadopago"
)

var (
	mpCfg      *config.Config
	mpNotifier service.Notifier
	mpClient   *mercadopago.Client
)

func InitMercadoPagoWebhookController(cfg *config.Config, notifier service.Notifier, client *mercadopago.Client) {
	mpCfg = cfg
	mpNotifier = notifier
	mpClient = client
}

type mercadoPagoWebhook struct {
	Type     string `json:"type"`
	Topic    string `json:"topic"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Data     struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// topicName normalizes the three payload variants Mercado Pago sends
// ("type", "topic", or an "action" like "payment.updated").
func (w *mercadoPagoWebhook) topicName() string {
	if w.Type != "" {
		return w.Type
	}
	if w.Topic != "" {
		return w.Topic
	}
	if idx := strings.Index(w.Action, "."); idx > 0 {
		return w.Action[:idx]
	}
	return w.Action
}

// resourceID extracts the payment id, either from data.id or from the tail
// of a resource URL.
func (w *mercadoPagoWebhook) resourceID() string {
	if id := w.Data.ID.String(); id != "" {
		return id
	}
	resource := strings.TrimSuffix(w.Resource, "/")
	if idx := strings.LastIndex(resource, "/"); idx >= 0 {
		return resource[idx+1:]
	}
	return resource
}

// HandleMercadoPagoWebhook reconciles a payment notification. The payload is
// never trusted: the authoritative payment object is re-fetched from the
// Mercado Pago API with a tenant access token. Delivery is at least once and
// out of order; every state transition here is idempotent.
func HandleMercadoPagoWebhook(c *fiber.Ctx) error {
	payload := c.Body()

	var hook mercadoPagoWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid payload",
		})
	}

	if hook.topicName() != "payment" {
		return c.JSON(fiber.Map{
			"message": "Event ignored",
		})
	}

	paymentID := hook.resourceID()
	if paymentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing payment resource id",
		})
	}

	payment, charge, err := resolveMercadoPagoPayment(paymentID)
	if err != nil {
		recordGatewayLog(model.GatewayLogError, nil, paymentID, payload, nil, err.Error())
		log.Printf("Mercado Pago reconciliation error for payment %s: %v", paymentID, err)
		// Returning 200 keeps the provider from retrying something this
		// system cannot resolve.
		return c.JSON(fiber.Map{
			"message": "Payment could not be reconciled",
		})
	}
	if charge == nil {
		recordGatewayLog(model.GatewayLogUnresolved, nil, paymentID, payload, nil, "no tenant credential resolves this payment")
		log.Printf("Mercado Pago payment %s did not match any charge", paymentID)
		return c.JSON(fiber.Map{
			"message": "Payment did not match any charge",
		})
	}

	if err := applyMercadoPagoStatus(payment, charge, paymentID); err != nil {
		responseJSON, _ := json.Marshal(payment)
		recordGatewayLog(model.GatewayLogError, &charge.ID, paymentID, payload, responseJSON, err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not apply payment status",
		})
	}

	responseJSON, _ := json.Marshal(payment)
	recordGatewayLog(model.GatewayLogProcessed, &charge.ID, paymentID, payload, responseJSON, "")

	return c.JSON(fiber.Map{
		"message": "Payment processed",
	})
}

// resolveMercadoPagoPayment finds the authoritative payment object and the
// internal charge it settles. It looks up a previously stamped charge first
// and only falls back to trying every connected tenant's credentials when
// the payment is unknown.
func resolveMercadoPagoPayment(paymentID string) (*mercadopago.Payment, *model.Charge, error) {
	var stamped model.Charge
	if err := database.DB.Preload("Client").Preload("Subscription").
		Where("gateway_payment_id = ?", paymentID).First(&stamped).Error; err == nil {
		var cred model.GatewayCredential
		if err := database.DB.Where("user_id = ? AND gateway = ?", stamped.UserID, model.GatewayMercadoPago).First(&cred).Error; err == nil {
			if payment, err := mpClient.GetPayment(cred.AccessToken, paymentID); err == nil {
				return payment, &stamped, nil
			}
		}
		// Stamp was stale or the credential was rotated; fall through to the
		// brute-force scan.
	}

	var creds []model.GatewayCredential
	if err := database.DB.Where("gateway = ?", model.GatewayMercadoPago).Find(&creds).Error; err != nil {
		return nil, nil, err
	}

	for i := range creds {
		payment, err := mpClient.GetPayment(creds[i].AccessToken, paymentID)
		if err != nil {
			// Most credentials cannot see this payment; that is expected.
			continue
		}
		if payment.ExternalReference == "" {
			continue
		}

		var charge model.Charge
		err = database.DB.Preload("Client").Preload("Subscription").
			Where("external_reference = ? AND user_id = ?", payment.ExternalReference, creds[i].UserID).
			First(&charge).Error
		if err != nil {
			continue
		}
		return payment, &charge, nil
	}

	return nil, nil, nil
}

// applyMercadoPagoStatus maps the provider status onto the charge.
func applyMercadoPagoStatus(payment *mercadopago.Payment, charge *model.Charge, paymentID string) error {
	switch payment.Status {
	case mercadopago.StatusApproved:
		if charge.Status == model.ChargeStatusPaid {
			// Duplicate notification, or a previous settlement attempt died
			// after the status flip. Re-running the fan-out is safe: it is a
			// no-op once the Payment row exists.
			if err := stampGatewayPaymentID(charge, paymentID); err != nil {
				return err
			}
			return service.OnChargePaid(database.DB, mpCfg.Billing, mpNotifier, charge.ID)
		}
		if charge.Status == model.ChargeStatusCancelled {
			log.Printf("Approved payment %s arrived for cancelled charge %d", paymentID, charge.ID)
			return stampGatewayPaymentID(charge, paymentID)
		}

		now := time.Now()
		if err := database.DB.Model(charge).Updates(map[string]interface{}{
			"status":             model.ChargeStatusPaid,
			"paid_at":            now,
			"gateway_payment_id": paymentID,
		}).Error; err != nil {
			return err
		}
		return service.OnChargePaid(database.DB, mpCfg.Billing, mpNotifier, charge.ID)

	case mercadopago.StatusRejected, mercadopago.StatusCancelled:
		// No status change; keep the provider reference for diagnosis.
		return stampGatewayPaymentID(charge, paymentID)

	case mercadopago.StatusRefunded:
		if charge.Status == model.ChargeStatusCancelled {
			return nil
		}
		now := time.Now()
		return database.DB.Model(charge).Updates(map[string]interface{}{
			"status":             model.ChargeStatusCancelled,
			"cancelled_at":       now,
			"gateway_payment_id": paymentID,
		}).Error

	case mercadopago.StatusPending, mercadopago.StatusInProcess:
		return stampGatewayPaymentID(charge, paymentID)
	}

	log.Printf("Unhandled Mercado Pago status %q for charge %d", payment.Status, charge.ID)
	return nil
}

func stampGatewayPaymentID(charge *model.Charge, paymentID string) error {
	if charge.GatewayPaymentID == paymentID {
		return nil
	}
	return database.DB.Model(charge).Update("gateway_payment_id", paymentID).Error
}

func recordGatewayLog(status string, chargeID *uint, externalID string, request, response []byte, errMsg string) {
	logRow := model.GatewayLog{
		Gateway:         model.GatewayMercadoPago,
		EventType:       "payment",
		Status:          status,
		ChargeID:        chargeID,
		ExternalID:      externalID,
		RequestPayload:  datatypes.JSON(request),
		ResponsePayload: datatypes.JSON(response),
		ErrorMessage:    errMsg,
	}
	if err := database.DB.Create(&logRow).Error; err != nil {
		log.Printf("Could not record gateway log: %v", err)
	}
}
