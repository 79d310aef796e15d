package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"paygate/internal/model"
	"paygate/internal/store"
)

// Failure thresholds per entry path. Merchant-API traffic is assumed
// pre-vetted, hence the lower threshold.
const (
	UserFailureThreshold    = 0.2
	GatewayFailureThreshold = 0.1
)

const (
	msgSuccess = "Payment processed successfully"
	msgFailure = "Payment processing failed"
)

// OutcomeDecider decides whether a simulated settlement succeeds. Tests
// inject deterministic implementations.
type OutcomeDecider interface {
	Decide(failureThreshold float64) bool
}

type randomDecider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDecider returns the production decider: a uniform draw in [0,1)
// must exceed the failure threshold for the payment to succeed.
func NewRandomDecider() OutcomeDecider {
	return &randomDecider{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (d *randomDecider) Decide(failureThreshold float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Float64() > failureThreshold
}

// GatewayResponse is the payload attached to a transaction on settlement,
// stored as a JSON string.
type GatewayResponse struct {
	GatewayTransactionID string  `json:"gateway_transaction_id"`
	ProcessedAt          string  `json:"processed_at"`
	Status               string  `json:"status"`
	Message              string  `json:"message"`
	MerchantID           *uint64 `json:"merchant_id,omitempty"`
	PaymentMethod        string  `json:"payment_method,omitempty"`
}

// Settler resolves pending transactions to a terminal outcome. The delayed
// path is fire-and-forget: the timer always fires, the outcome is attempted
// exactly once, and a failed write (record gone in the interim) is logged
// and dropped.
type Settler struct {
	store   store.Storage
	decider OutcomeDecider
	delay   time.Duration
	log     *zap.SugaredLogger
}

func NewSettler(st store.Storage, decider OutcomeDecider, delay time.Duration, log *zap.SugaredLogger) *Settler {
	return &Settler{store: st, decider: decider, delay: delay, log: log}
}

// Schedule arms a one-shot timer for the transaction. The caller does not
// wait for the outcome; the task holds only the transaction id.
func (s *Settler) Schedule(txID uint64, failureThreshold float64) {
	time.AfterFunc(s.delay, func() {
		if _, err := s.settle(context.Background(), txID, failureThreshold, nil, ""); err != nil {
			s.log.Warnf("delayed settlement of transaction %d dropped: %v", txID, err)
		}
	})
}

// SettleNow resolves the transaction inline. Used by the merchant gateway
// path, which returns the outcome in the HTTP response.
func (s *Settler) SettleNow(ctx context.Context, txID uint64, failureThreshold float64, merchantID *uint64, paymentMethod string) (*model.Transaction, error) {
	return s.settle(ctx, txID, failureThreshold, merchantID, paymentMethod)
}

func (s *Settler) settle(ctx context.Context, txID uint64, failureThreshold float64, merchantID *uint64, paymentMethod string) (*model.Transaction, error) {
	success := s.decider.Decide(failureThreshold)
	status := model.StatusFailed
	message := msgFailure
	if success {
		status = model.StatusCompleted
		message = msgSuccess
	}

	resp := GatewayResponse{
		GatewayTransactionID: "GTW_" + store.RandomToken(12),
		ProcessedAt:          time.Now().UTC().Format(time.RFC3339),
		Status:               status,
		Message:              message,
		MerchantID:           merchantID,
		PaymentMethod:        paymentMethod,
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	raw := string(payload)

	tx, err := s.store.UpdateTransactionStatus(ctx, txID, status, &raw)
	if err != nil {
		return nil, err
	}

	evt := &model.OutboxEvent{
		Aggregate:   "Transaction",
		AggregateID: tx.ID,
		EventType:   model.EventTransactionSettled,
		Payload:     raw,
	}
	if err := s.store.CreateOutboxEvent(ctx, evt); err != nil {
		s.log.Warnf("outbox event for transaction %d: %v", tx.ID, err)
	}
	return tx, nil
}
