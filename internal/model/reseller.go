package model

import (
	"time"

	"gorm.io/gorm"
)

// ResellerRenewalLog is an append-only audit trail of sub-account renewals.
// Rows are only ever inserted.
type ResellerRenewalLog struct {
	gorm.Model
	AccountID    uint       `json:"account_id" gorm:"index;not null"`
	RenewedBy    uint       `json:"renewed_by"`
	ChargeID     *uint      `json:"charge_id"`
	Days         int        `json:"days"`
	OldExpiresAt *time.Time `json:"old_expires_at"`
	NewExpiresAt time.Time  `json:"new_expires_at"`

	Account User `json:"-" gorm:"foreignKey:AccountID"`
}
