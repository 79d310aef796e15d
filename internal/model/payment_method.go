package model

import "time"

// PaymentMethod types: credit_card, debit_card, pix, boleto.
// CardNumber is stored masked, last four digits only.
type PaymentMethod struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	UserID         *uint64   `json:"userId"`
	Type           string    `gorm:"size:20;not null" json:"type"`
	CardNumber     *string   `json:"cardNumber"`
	CardHolderName *string   `json:"cardHolderName"`
	ExpiryMonth    *int      `json:"expiryMonth"`
	ExpiryYear     *int      `json:"expiryYear"`
	IsDefault      bool      `gorm:"not null;default:false" json:"isDefault"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }
