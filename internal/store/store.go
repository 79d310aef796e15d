package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"paygate/internal/model"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a unique constraint was violated on creation.
	ErrConflict = errors.New("unique constraint violation")
)

// DefaultCurrency is applied when a transaction is created without one.
const DefaultCurrency = "BRL"

// CreateTransactionInput carries the caller-supplied fields. Id, reference,
// status and timestamps are assigned by the store.
type CreateTransactionInput struct {
	UserID          *uint64
	PaymentMethodID *uint64
	Amount          decimal.Decimal
	Currency        string
	Description     *string
}

// Storage is the injected persistence capability. MemoryStore and GormStore
// implement it; services never see which backend they run on.
type Storage interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id uint64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	CreatePaymentMethod(ctx context.Context, pm *model.PaymentMethod) error
	GetPaymentMethod(ctx context.Context, id uint64) (*model.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, userID uint64) ([]model.PaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, id uint64) error

	CreateTransaction(ctx context.Context, in CreateTransactionInput) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error)
	GetTransactionByReference(ctx context.Context, referenceID string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, userID *uint64) ([]model.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id uint64, status string, gatewayResponse *string) (*model.Transaction, error)

	CreateMerchant(ctx context.Context, m *model.Merchant) error
	GetMerchant(ctx context.Context, id uint64) (*model.Merchant, error)
	GetMerchantByAPIKey(ctx context.Context, apiKey string) (*model.Merchant, error)
	ListMerchants(ctx context.Context) ([]model.Merchant, error)
	SetMerchantActive(ctx context.Context, id uint64, active bool) error

	CreateOutboxEvent(ctx context.Context, evt *model.OutboxEvent) error
	PollOutbox(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id uint64) error
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	tokenMu  sync.Mutex
	tokenRNG = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomToken returns n lowercase alphanumeric characters.
func RandomToken(n int) string {
	tokenMu.Lock()
	defer tokenMu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[tokenRNG.Intn(len(tokenAlphabet))]
	}
	return string(b)
}

// NewReferenceID builds the externally-visible transaction token.
func NewReferenceID() string {
	return fmt.Sprintf("TXN_%d_%s", time.Now().UnixMilli(), RandomToken(9))
}

// NewAPIKey builds a merchant API key.
func NewAPIKey() string {
	return "pk_" + RandomToken(32)
}
