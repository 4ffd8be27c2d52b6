package service

import (
	"time"

	"gestorapp_backend/internal/model"
)

// Notifier is what the billing core needs from the notification layer.
// Implementations must be safe to call after the ledger transaction has
// committed; failures are logged by callers and never roll billing back.
type Notifier interface {
	ChargeCreated(client *model.Client, charge *model.Charge, companyName string) error
	PaymentConfirmed(client *model.Client, charge *model.Charge, payment *model.Payment, nextBillingDate *time.Time) error
	ResellerRenewed(account *model.User, days int, expiresAt time.Time) error
}
