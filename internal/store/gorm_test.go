package store

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"paygate/internal/model"
)

func newTestGormStore(t *testing.T) *GormStore {
	// SQLite in-memory DB
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	s, err := NewGormStore(db)
	assert.NoError(t, err)
	return s
}

func TestGormStore_TransactionFlow(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	u := &model.User{Username: "bob", Password: "x", Email: "bob@example.com"}
	assert.NoError(t, s.CreateUser(ctx, u))

	card := "**** **** **** 4242"
	pm := &model.PaymentMethod{UserID: &u.ID, Type: "credit_card", CardNumber: &card}
	assert.NoError(t, s.CreatePaymentMethod(ctx, pm))

	tx, err := s.CreateTransaction(ctx, CreateTransactionInput{
		UserID:          &u.ID,
		PaymentMethodID: &pm.ID,
		Amount:          decimal.RequireFromString("42.50"),
	})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, tx.Status)
	assert.Equal(t, DefaultCurrency, tx.Currency)
	assert.True(t, strings.HasPrefix(tx.ReferenceID, "TXN_"))

	byRef, err := s.GetTransactionByReference(ctx, tx.ReferenceID)
	assert.NoError(t, err)
	assert.Equal(t, tx.ID, byRef.ID)

	resp := `{"status":"completed"}`
	updated, err := s.UpdateTransactionStatus(ctx, tx.ID, model.StatusCompleted, &resp)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.NotNil(t, updated.GatewayResponse)
	assert.True(t, updated.UpdatedAt.After(tx.UpdatedAt) || updated.UpdatedAt.Equal(tx.UpdatedAt))

	_, err = s.UpdateTransactionStatus(ctx, 9999, model.StatusFailed, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := s.ListTransactions(ctx, &u.ID)
	assert.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestGormStore_UserUniqueEmail(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	assert.NoError(t, s.CreateUser(ctx, &model.User{Username: "a", Password: "x", Email: "same@example.com"}))
	err := s.CreateUser(ctx, &model.User{Username: "b", Password: "x", Email: "same@example.com"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGormStore_MerchantsAndOutbox(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	m := &model.Merchant{Name: "Loja", Email: "loja@example.com"}
	assert.NoError(t, s.CreateMerchant(ctx, m))
	assert.True(t, strings.HasPrefix(m.APIKey, "pk_"))

	byKey, err := s.GetMerchantByAPIKey(ctx, m.APIKey)
	assert.NoError(t, err)
	assert.Equal(t, m.ID, byKey.ID)

	evt := &model.OutboxEvent{Aggregate: "Merchant", AggregateID: m.ID, EventType: model.EventWebhookDelivery, Payload: "{}"}
	assert.NoError(t, s.CreateOutboxEvent(ctx, evt))

	pending, err := s.PollOutbox(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)

	assert.NoError(t, s.MarkOutboxProcessed(ctx, pending[0].ID))
	pending, err = s.PollOutbox(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, pending, 0)
}
