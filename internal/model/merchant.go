package model

import "time"

// Merchant is an API-key-authenticated external party submitting
// transactions without a user session.
type Merchant struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	APIKey     string    `gorm:"size:64;uniqueIndex;not null" json:"apiKey"`
	WebhookURL *string   `json:"webhookUrl"`
	IsActive   bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Merchant) TableName() string { return "merchants" }
