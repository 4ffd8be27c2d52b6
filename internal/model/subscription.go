package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusSuspended = "suspended"
	SubscriptionStatusCancelled = "cancelled"
)

const (
	CycleWeekly     = "weekly"
	CycleBiweekly   = "biweekly"
	CycleMonthly    = "monthly"
	CycleQuarterly  = "quarterly"
	CycleSemiannual = "semiannual"
	CycleAnnual     = "annual"
	CycleCustom     = "custom"
)

// Subscription is a recurring billing agreement between a tenant and one of
// its clients. NextBillingDate only moves forward, one cycle at a time,
// computed from its previous value so monthly billing never drifts.
type Subscription struct {
	gorm.Model
	UserID   uint  `json:"user_id" gorm:"index;not null"`
	ClientID uint  `json:"client_id" gorm:"index;not null"`
	PlanID   *uint `json:"plan_id"`

	Amount        float64 `json:"amount" gorm:"not null"`
	Cycle         string  `json:"cycle" gorm:"not null"`
	CustomDays    *int    `json:"custom_days"`
	PaymentMethod string  `json:"payment_method" gorm:"default:'pix'"`

	Status          string     `json:"status" gorm:"default:'active'"`
	StartDate       time.Time  `json:"start_date"`
	NextBillingDate time.Time  `json:"next_billing_date" gorm:"index"`
	LastPaymentDate *time.Time `json:"last_payment_date"`

	SuspendedAt   *time.Time `json:"suspended_at"`
	SuspendReason string     `json:"suspend_reason"`
	CancelledAt   *time.Time `json:"cancelled_at"`
	CancelReason  string     `json:"cancel_reason"`

	User   User   `json:"-" gorm:"foreignKey:UserID"`
	Client Client `json:"client" gorm:"foreignKey:ClientID"`
}

// ValidCycle reports whether cycle is one of the supported billing cycles.
func ValidCycle(cycle string) bool {
	switch cycle {
	case CycleWeekly, CycleBiweekly, CycleMonthly, CycleQuarterly, CycleSemiannual, CycleAnnual, CycleCustom:
		return true
	}
	return false
}
