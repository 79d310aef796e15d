package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"paygate/internal/logger"
	"paygate/internal/model"
	"paygate/internal/store"
)

func newTestPaymentService(t *testing.T, success bool) (*PaymentService, *store.MemoryStore) {
	st := store.NewMemoryStore()
	log, err := logger.NewLogger("error")
	assert.NoError(t, err)
	settler := NewSettler(st, stubDecider{success: success}, time.Millisecond, log)
	return NewPaymentService(st, settler, log), st
}

func seedUserWithCard(t *testing.T, st *store.MemoryStore) (*model.User, *model.PaymentMethod) {
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	u := &model.User{Username: "alice", Password: string(hash), Email: "alice@example.com"}
	assert.NoError(t, st.CreateUser(ctx, u))

	card := "**** **** **** 1111"
	pm := &model.PaymentMethod{UserID: &u.ID, Type: "credit_card", CardNumber: &card}
	assert.NoError(t, st.CreatePaymentMethod(ctx, pm))
	return u, pm
}

func TestParseAmount(t *testing.T) {
	for _, raw := range []string{"100.00", "0.01", "42", "9.5"} {
		amt, err := ParseAmount(raw)
		assert.NoError(t, err, raw)
		assert.True(t, amt.IsPositive())
	}
	for _, raw := range []string{"0", "-5", "1.234", "abc", ""} {
		_, err := ParseAmount(raw)
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
	}
}

func TestCreateTransaction_HappyPath(t *testing.T) {
	svc, st := newTestPaymentService(t, true)
	u, pm := seedUserWithCard(t, st)
	ctx := context.Background()

	tx, err := svc.CreateTransaction(ctx, u.ID, CreateTransactionInput{
		UserID:          u.ID,
		PaymentMethodID: pm.ID,
		Amount:          "100.00",
		Currency:        "BRL",
	})
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, tx.Status)
	assert.Equal(t, "100.00", tx.Amount.String())

	assert.Eventually(t, func() bool {
		got, err := st.GetTransaction(ctx, tx.ID)
		return err == nil && got.Status == model.StatusCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestCreateTransaction_Forbidden(t *testing.T) {
	svc, st := newTestPaymentService(t, true)
	u, pm := seedUserWithCard(t, st)

	_, err := svc.CreateTransaction(context.Background(), u.ID+1, CreateTransactionInput{
		UserID:          u.ID,
		PaymentMethodID: pm.ID,
		Amount:          "10.00",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateTransaction_InvalidPaymentMethod(t *testing.T) {
	svc, st := newTestPaymentService(t, true)
	u, _ := seedUserWithCard(t, st)
	ctx := context.Background()

	// other user's card
	other := uint64(99)
	card := "**** **** **** 2222"
	foreign := &model.PaymentMethod{UserID: &other, Type: "credit_card", CardNumber: &card}
	assert.NoError(t, st.CreatePaymentMethod(ctx, foreign))

	_, err := svc.CreateTransaction(ctx, u.ID, CreateTransactionInput{
		UserID:          u.ID,
		PaymentMethodID: foreign.ID,
		Amount:          "10.00",
	})
	assert.ErrorIs(t, err, ErrInvalidReference)

	// unknown payment method id
	_, err = svc.CreateTransaction(ctx, u.ID, CreateTransactionInput{
		UserID:          u.ID,
		PaymentMethodID: 4242,
		Amount:          "10.00",
	})
	assert.ErrorIs(t, err, ErrInvalidReference)

	// nothing persisted
	all, err := st.ListTransactions(ctx, nil)
	assert.NoError(t, err)
	assert.Len(t, all, 0)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestPaymentService(t, true)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "carol", Password: "secretpw1", Email: "carol@example.com"})
	assert.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "secretpw1", u.Password, "password must be hashed")

	_, err = svc.Register(ctx, RegisterInput{Username: "carol2", Password: "secretpw1", Email: "carol@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := svc.Login(ctx, "carol", "secretpw1")
	assert.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Login(ctx, "carol", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody", "secretpw1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPaymentMethodOwnership(t *testing.T) {
	svc, st := newTestPaymentService(t, true)
	u, pm := seedUserWithCard(t, st)
	ctx := context.Background()

	created, err := svc.CreatePaymentMethod(ctx, u.ID, CreatePaymentMethodInput{
		UserID:     u.ID,
		Type:       "debit_card",
		CardNumber: "4111111111111234",
	})
	assert.NoError(t, err)
	assert.Equal(t, "**** **** **** 1234", *created.CardNumber)

	_, err = svc.CreatePaymentMethod(ctx, u.ID+1, CreatePaymentMethodInput{
		UserID:     u.ID,
		Type:       "debit_card",
		CardNumber: "4111111111111234",
	})
	assert.ErrorIs(t, err, ErrForbidden)

	for _, card := range []string{"", "123", "411111111111", "41111111111112345678"} {
		_, err = svc.CreatePaymentMethod(ctx, u.ID, CreatePaymentMethodInput{
			UserID:     u.ID,
			Type:       "debit_card",
			CardNumber: card,
		})
		assert.ErrorIs(t, err, ErrInvalidCardNumber, card)
	}

	err = svc.DeletePaymentMethod(ctx, u.ID+1, pm.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.NoError(t, svc.DeletePaymentMethod(ctx, u.ID, pm.ID))
	err = svc.DeletePaymentMethod(ctx, u.ID, pm.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateStatus_ArbitraryOverwrite(t *testing.T) {
	svc, st := newTestPaymentService(t, true)
	ctx := context.Background()

	tx, err := st.CreateTransaction(ctx, store.CreateTransactionInput{Amount: mustAmount(t, "5.00")})
	assert.NoError(t, err)

	// completed -> pending is allowed; no transition check exists
	updated, err := svc.UpdateStatus(ctx, tx.ID, model.StatusCompleted, nil)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, updated.Status)

	back, err := svc.UpdateStatus(ctx, tx.ID, model.StatusPending, nil)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, back.Status)
}

func mustAmount(t *testing.T, raw string) decimal.Decimal {
	amt, err := ParseAmount(raw)
	assert.NoError(t, err)
	return amt
}
