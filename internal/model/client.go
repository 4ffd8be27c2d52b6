package model

import "gorm.io/gorm"

// Client is an end customer of a tenant. Charges and subscriptions are always
// issued against a client.
type Client struct {
	gorm.Model
	UserID         uint   `json:"user_id" gorm:"index;not null"`
	Name           string `json:"name" gorm:"not null"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	WhatsAppNumber string `json:"whats_app_number"`
	Document       string `json:"document"`
	Notes          string `json:"notes" gorm:"type:text"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
