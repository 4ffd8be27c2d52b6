package model

import "gorm.io/gorm"

// Plan is a platform subscription plan a tenant pays for (via Stripe).
type Plan struct {
	gorm.Model
	Name            string  `json:"name" gorm:"not null"`
	Description     string  `json:"description"`
	Price           float64 `json:"price" gorm:"not null"`
	Duration        int     `json:"duration" gorm:"not null"` // days
	MaxClients      int     `json:"max_clients" gorm:"not null"`
	StripeProductID string  `json:"stripe_product_id"`
	StripePriceID   string  `json:"stripe_price_id"`
}
