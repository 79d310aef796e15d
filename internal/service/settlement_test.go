package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"paygate/internal/logger"
	"paygate/internal/model"
	"paygate/internal/store"
)

// stubDecider always returns the same outcome.
type stubDecider struct{ success bool }

func (d stubDecider) Decide(float64) bool { return d.success }

func newTestSettler(t *testing.T, success bool, delay time.Duration) (*Settler, *store.MemoryStore) {
	st := store.NewMemoryStore()
	log, err := logger.NewLogger("error")
	assert.NoError(t, err)
	return NewSettler(st, stubDecider{success: success}, delay, log), st
}

func createPending(t *testing.T, st *store.MemoryStore) *model.Transaction {
	tx, err := st.CreateTransaction(context.Background(), store.CreateTransactionInput{
		Amount: decimal.RequireFromString("100.00"),
	})
	assert.NoError(t, err)
	return tx
}

func TestSettleNow_Success(t *testing.T) {
	settler, st := newTestSettler(t, true, 0)
	tx := createPending(t, st)

	settled, err := settler.SettleNow(context.Background(), tx.ID, GatewayFailureThreshold, nil, "")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, settled.Status)
	assert.NotNil(t, settled.GatewayResponse)

	var resp GatewayResponse
	assert.NoError(t, json.Unmarshal([]byte(*settled.GatewayResponse), &resp))
	assert.Contains(t, resp.GatewayTransactionID, "GTW_")
	assert.Equal(t, model.StatusCompleted, resp.Status)
	assert.Equal(t, "Payment processed successfully", resp.Message)
	_, err = time.Parse(time.RFC3339, resp.ProcessedAt)
	assert.NoError(t, err)
}

func TestSettleNow_Failure(t *testing.T) {
	settler, st := newTestSettler(t, false, 0)
	tx := createPending(t, st)

	settled, err := settler.SettleNow(context.Background(), tx.ID, UserFailureThreshold, nil, "")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusFailed, settled.Status)

	var resp GatewayResponse
	assert.NoError(t, json.Unmarshal([]byte(*settled.GatewayResponse), &resp))
	assert.Equal(t, "Payment processing failed", resp.Message)
}

func TestSettleNow_MerchantFields(t *testing.T) {
	settler, st := newTestSettler(t, true, 0)
	tx := createPending(t, st)

	mid := uint64(3)
	settled, err := settler.SettleNow(context.Background(), tx.ID, GatewayFailureThreshold, &mid, "pix")
	assert.NoError(t, err)

	var resp GatewayResponse
	assert.NoError(t, json.Unmarshal([]byte(*settled.GatewayResponse), &resp))
	assert.NotNil(t, resp.MerchantID)
	assert.Equal(t, mid, *resp.MerchantID)
	assert.Equal(t, "pix", resp.PaymentMethod)
}

func TestSchedule_ResolvesAfterDelay(t *testing.T) {
	settler, st := newTestSettler(t, true, 5*time.Millisecond)
	tx := createPending(t, st)

	settler.Schedule(tx.ID, UserFailureThreshold)

	// pending until the timer fires
	now, err := st.GetTransaction(context.Background(), tx.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, now.Status)

	assert.Eventually(t, func() bool {
		got, err := st.GetTransaction(context.Background(), tx.ID)
		if err != nil {
			return false
		}
		return got.Status == model.StatusCompleted && got.GatewayResponse != nil
	}, time.Second, 5*time.Millisecond)
}

func TestSchedule_MissingTransactionIsDropped(t *testing.T) {
	settler, st := newTestSettler(t, true, time.Millisecond)

	// never created; the timer must fire and the failure must stay internal
	settler.Schedule(12345, UserFailureThreshold)
	time.Sleep(20 * time.Millisecond)

	all, err := st.ListTransactions(context.Background(), nil)
	assert.NoError(t, err)
	assert.Len(t, all, 0)
}

func TestSettle_WritesOutboxEvent(t *testing.T) {
	settler, st := newTestSettler(t, true, 0)
	tx := createPending(t, st)

	_, err := settler.SettleNow(context.Background(), tx.ID, GatewayFailureThreshold, nil, "")
	assert.NoError(t, err)

	events, err := st.PollOutbox(context.Background(), 10)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, model.EventTransactionSettled, events[0].EventType)
	assert.Equal(t, tx.ID, events[0].AggregateID)
}

func TestRandomDecider_SuccessRates(t *testing.T) {
	d := &randomDecider{rng: rand.New(rand.NewSource(42))}

	const n = 5000
	for _, tc := range []struct {
		threshold float64
		expected  float64
	}{
		{UserFailureThreshold, 0.80},
		{GatewayFailureThreshold, 0.90},
	} {
		successes := 0
		for i := 0; i < n; i++ {
			if d.Decide(tc.threshold) {
				successes++
			}
		}
		rate := float64(successes) / n
		assert.InDelta(t, tc.expected, rate, 0.03, "threshold %.2f", tc.threshold)
	}
}
