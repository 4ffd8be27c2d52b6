package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Platform-level tenant status, driven by Stripe webhooks.
const (
	UserStatusActive     = "active"
	UserStatusOverdue    = "overdue"
	UserStatusCancelling = "cancelling"
	UserStatusCancelled  = "cancelled"
	UserStatusInactive   = "inactive"
)

type User struct {
	gorm.Model
	Email       string `json:"email" gorm:"uniqueIndex;not null"`
	Password    string `json:"-" gorm:"not null"`
	Username    string `json:"username" gorm:"uniqueIndex;not null"`
	CompanyName string `json:"company_name" gorm:"not null"`

	PhoneNumber    string `json:"phone_number"`
	WhatsAppNumber string `json:"whats_app_number"`

	Status string `json:"status" gorm:"default:'active'"`
	PlanID *uint  `json:"plan_id"`

	// Stripe platform billing
	StripeCustomerID     string     `json:"-"`
	StripeSubscriptionID string     `json:"-" gorm:"index"`
	SubscriptionEndsAt   *time.Time `json:"subscription_ends_at"`

	// Reseller sub-account fields. A user with ResellerID set is a sub-account
	// owned by another tenant and billed through reseller charges.
	ResellerID        *uint      `json:"reseller_id" gorm:"index"`
	ResellerPrice     float64    `json:"reseller_price"`
	ResellerExpiresAt *time.Time `json:"reseller_expires_at"`

	Plan *Plan `json:"-" gorm:"foreignKey:PlanID"`
}

func (u *User) GetFullName() string {
	return strings.TrimSpace(u.CompanyName)
}

// IsResellerAccount reports whether this user is a sub-account resold by
// another tenant.
func (u *User) IsResellerAccount() bool {
	return u.ResellerID != nil
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":               u.ID,
		"username":         u.Username,
		"company_name":     u.CompanyName,
		"phone_number":     u.PhoneNumber,
		"whats_app_number": u.WhatsAppNumber,
		"status":           u.Status,
	}
}
