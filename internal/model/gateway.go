package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	GatewayMercadoPago = "mercadopago"
	GatewayStripe      = "stripe"
)

const (
	GatewayLogProcessed  = "processed"
	GatewayLogIgnored    = "ignored"
	GatewayLogUnresolved = "unresolved"
	GatewayLogError      = "error"
)

// GatewayCredential holds a tenant's connected payment-gateway account.
// Tenants never share credentials; gateway payment ids are gateway-global.
type GatewayCredential struct {
	gorm.Model
	UserID      uint   `json:"user_id" gorm:"not null;index:idx_gateway_user,unique"`
	Gateway     string `json:"gateway" gorm:"default:'mercadopago';index:idx_gateway_user,unique"`
	AccessToken string `json:"-" gorm:"not null"`
	AccountID   string `json:"account_id"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// GatewayLog records every reconciliation attempt, resolved or not, for
// operator diagnosis.
type GatewayLog struct {
	gorm.Model
	Gateway         string         `json:"gateway"`
	EventType       string         `json:"event_type"`
	Status          string         `json:"status"`
	ChargeID        *uint          `json:"charge_id"`
	ExternalID      string         `json:"external_id" gorm:"index"`
	RequestPayload  datatypes.JSON `json:"request_payload"`
	ResponsePayload datatypes.JSON `json:"response_payload"`
	ErrorMessage    string         `json:"error_message"`
}
