package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment is an immutable record of a settled transaction, derived from a
// charge. The unique index on ChargeID is the defense-in-depth backstop for
// the at-most-one-payment-per-charge guarantee.
type Payment struct {
	gorm.Model
	UserID         uint  `json:"user_id" gorm:"index;not null"`
	ClientID       *uint `json:"client_id" gorm:"index"`
	ChargeID       *uint `json:"charge_id" gorm:"uniqueIndex"`
	SubscriptionID *uint `json:"subscription_id" gorm:"index"`
	PlanID         *uint `json:"plan_id"`

	Amount        float64 `json:"amount" gorm:"not null"`
	Fee           float64 `json:"fee"`
	NetAmount     float64 `json:"net_amount"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status" gorm:"default:'completed'"`

	TransactionID string     `json:"transaction_id" gorm:"uniqueIndex;not null"`
	CompletedAt   *time.Time `json:"completed_at"`

	Charge *Charge `json:"-" gorm:"foreignKey:ChargeID"`
}
