package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction status values. A transaction starts at StatusPending and the
// settler moves it to StatusCompleted or StatusFailed. StatusProcessing and
// StatusCancelled are reachable only through the status-update endpoint.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Transaction is a single payment attempt. UserID and PaymentMethodID are nil
// for merchant-gateway transactions.
type Transaction struct {
	ID              uint64          `gorm:"primaryKey" json:"id"`
	UserID          *uint64         `json:"userId"`
	PaymentMethodID *uint64         `json:"paymentMethodId"`
	Amount          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	Status          string          `gorm:"size:20;not null" json:"status"`
	Description     *string         `json:"description"`
	ReferenceID     string          `gorm:"size:64;uniqueIndex;not null" json:"referenceId"`
	GatewayResponse *string         `json:"gatewayResponse"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Transaction) TableName() string { return "transactions" }
