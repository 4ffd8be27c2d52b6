package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	InvoiceEventActivation   = "activation"
	InvoiceEventReactivation = "reactivation"
	InvoiceEventRenewal      = "renewal"
	InvoiceEventCancellation = "cancellation"
)

// PlatformInvoice is a SaaS-level billing record of a tenant paying the
// platform, written by the Stripe webhook handler. Keyed by the Stripe
// invoice id so duplicate webhook deliveries upsert instead of duplicating.
type PlatformInvoice struct {
	gorm.Model
	UserID               uint           `json:"user_id" gorm:"index;not null"`
	StripeInvoiceID      string         `json:"stripe_invoice_id" gorm:"uniqueIndex"`
	StripeSubscriptionID string         `json:"stripe_subscription_id" gorm:"index"`
	EventType            string         `json:"event_type" gorm:"not null"`
	AmountPaid           float64        `json:"amount_paid"`
	Currency             string         `json:"currency"`
	PaidAt               *time.Time     `json:"paid_at"`
	Metadata             datatypes.JSON `json:"metadata"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
