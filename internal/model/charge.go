package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	ChargeStatusPending   = "pending"
	ChargeStatusPaid      = "paid"
	ChargeStatusOverdue   = "overdue"
	ChargeStatusCancelled = "cancelled"
)

const (
	PaymentMethodPix        = "pix"
	PaymentMethodBoleto     = "boleto"
	PaymentMethodCreditCard = "credit_card"
)

// ChargeOrigin discriminates which settlement path a charge belongs to.
type ChargeOrigin string

const (
	OriginSubscription ChargeOrigin = "subscription"
	OriginReseller     ChargeOrigin = "reseller"
	OriginStandalone   ChargeOrigin = "standalone"
)

// Charge is a billable obligation owed by a client to a tenant. Once paid or
// cancelled it is terminal and is never reprocessed by settlement.
type Charge struct {
	gorm.Model
	UserID   uint  `json:"user_id" gorm:"index;not null"`
	ClientID *uint `json:"client_id" gorm:"index"`

	// At most one of these is set; see Origin.
	SubscriptionID          *uint `json:"subscription_id" gorm:"index"`
	ResellerChargeAccountID *uint `json:"reseller_charge_account_id" gorm:"index"`

	Amount        float64   `json:"amount" gorm:"not null"`
	DueDate       time.Time `json:"due_date" gorm:"index;not null"`
	PaymentMethod string    `json:"payment_method" gorm:"default:'pix'"`
	Status        string    `json:"status" gorm:"default:'pending';index"`
	Description   string    `json:"description"`

	PaidAt      *time.Time `json:"paid_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	LastNotificationAt *time.Time `json:"last_notification_at"`
	NotificationCount  int        `json:"notification_count" gorm:"default:0"`

	// ExternalReference is sent to the payment gateway and echoed back on
	// webhooks; GatewayPaymentID is stamped once the provider payment is known
	// so later notifications resolve the owning tenant without brute force.
	ExternalReference string `json:"external_reference" gorm:"uniqueIndex"`
	GatewayPaymentID  string `json:"gateway_payment_id" gorm:"index"`

	User         User          `json:"-" gorm:"foreignKey:UserID"`
	Client       *Client       `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Subscription *Subscription `json:"-" gorm:"foreignKey:SubscriptionID"`
}

// Origin returns the settlement path this charge belongs to.
func (c *Charge) Origin() ChargeOrigin {
	switch {
	case c.ResellerChargeAccountID != nil:
		return OriginReseller
	case c.SubscriptionID != nil:
		return OriginSubscription
	default:
		return OriginStandalone
	}
}

// IsTerminal reports whether the charge may no longer change status.
func (c *Charge) IsTerminal() bool {
	return c.Status == ChargeStatusPaid || c.Status == ChargeStatusCancelled
}

func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodPix, PaymentMethodBoleto, PaymentMethodCreditCard:
		return true
	}
	return false
}
