package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paygate/internal/model"
	"paygate/internal/store"
)

// ErrAPIKeyRequired means the gateway request carried no API key.
var ErrAPIKeyRequired = errors.New("API key required")

// GatewayService handles merchant-initiated payments. Unlike the user path,
// settlement is resolved inline and the response carries the outcome, not a
// pending record.
type GatewayService struct {
	store   store.Storage
	settler *Settler
	log     *zap.SugaredLogger
}

func NewGatewayService(st store.Storage, settler *Settler, log *zap.SugaredLogger) *GatewayService {
	return &GatewayService{store: st, settler: settler, log: log}
}

type ProcessPaymentInput struct {
	APIKey        string
	Amount        string
	Currency      string
	Description   *string
	PaymentMethod string
}

type ProcessPaymentResult struct {
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ProcessedAt   string          `json:"processed_at"`
}

// webhookPayload is what the poller publishes to Kafka for delivery.
type webhookPayload struct {
	WebhookURL    string          `json:"webhook_url"`
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ProcessedAt   string          `json:"processed_at"`
}

// ProcessPayment authenticates the merchant, creates a transaction with no
// owning user and settles it synchronously at the gateway threshold. A
// webhook-delivery outbox event is recorded when the merchant has a webhook
// URL configured.
func (s *GatewayService) ProcessPayment(ctx context.Context, in ProcessPaymentInput) (*ProcessPaymentResult, error) {
	if in.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	merchant, err := s.store.GetMerchantByAPIKey(ctx, in.APIKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !merchant.IsActive {
		return nil, ErrForbidden
	}

	amt, err := ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	desc := "External payment"
	if in.Description != nil && *in.Description != "" {
		desc = *in.Description
	}

	tx, err := s.store.CreateTransaction(ctx, store.CreateTransactionInput{
		UserID:          nil,
		PaymentMethodID: nil,
		Amount:          amt,
		Currency:        in.Currency,
		Description:     &desc,
	})
	if err != nil {
		return nil, err
	}

	settled, err := s.settler.SettleNow(ctx, tx.ID, GatewayFailureThreshold, &merchant.ID, in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	processedAt := time.Now().UTC().Format(time.RFC3339)
	if merchant.WebhookURL != nil && *merchant.WebhookURL != "" {
		payload, err := json.Marshal(webhookPayload{
			WebhookURL:    *merchant.WebhookURL,
			TransactionID: settled.ReferenceID,
			Status:        settled.Status,
			Amount:        settled.Amount,
			Currency:      settled.Currency,
			ProcessedAt:   processedAt,
		})
		if err == nil {
			evt := &model.OutboxEvent{
				Aggregate:   "Merchant",
				AggregateID: merchant.ID,
				EventType:   model.EventWebhookDelivery,
				Payload:     string(payload),
			}
			if err := s.store.CreateOutboxEvent(ctx, evt); err != nil {
				s.log.Warnf("webhook outbox for merchant %d: %v", merchant.ID, err)
			}
		}
	}

	return &ProcessPaymentResult{
		TransactionID: settled.ReferenceID,
		Status:        settled.Status,
		Amount:        settled.Amount,
		Currency:      settled.Currency,
		ProcessedAt:   processedAt,
	}, nil
}
