package store

import (
	"context"
	"sync"
	"time"

	"paygate/internal/model"
)

// MemoryStore keeps all records in process-wide maps keyed by
// auto-incrementing counters. A single mutex guards every operation; the
// settlement timer fires on its own goroutine, so the maps must not rely on
// handler-goroutine serialization.
type MemoryStore struct {
	mu sync.Mutex

	users          map[uint64]*model.User
	paymentMethods map[uint64]*model.PaymentMethod
	transactions   map[uint64]*model.Transaction
	merchants      map[uint64]*model.Merchant
	outbox         map[uint64]*model.OutboxEvent

	// insertion order for list operations
	txOrder       []uint64
	pmOrder       []uint64
	merchantOrder []uint64
	outboxOrder   []uint64

	nextUserID          uint64
	nextPaymentMethodID uint64
	nextTransactionID   uint64
	nextMerchantID      uint64
	nextOutboxID        uint64
}

// NewMemoryStore returns an empty in-memory backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:               make(map[uint64]*model.User),
		paymentMethods:      make(map[uint64]*model.PaymentMethod),
		transactions:        make(map[uint64]*model.Transaction),
		merchants:           make(map[uint64]*model.Merchant),
		outbox:              make(map[uint64]*model.OutboxEvent),
		nextUserID:          1,
		nextPaymentMethodID: 1,
		nextTransactionID:   1,
		nextMerchantID:      1,
		nextOutboxID:        1,
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return ErrConflict
		}
	}
	u.ID = s.nextUserID
	s.nextUserID++
	u.CreatedAt = time.Now()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreatePaymentMethod(ctx context.Context, pm *model.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm.ID = s.nextPaymentMethodID
	s.nextPaymentMethodID++
	pm.CreatedAt = time.Now()
	cp := *pm
	s.paymentMethods[pm.ID] = &cp
	s.pmOrder = append(s.pmOrder, pm.ID)
	return nil
}

func (s *MemoryStore) GetPaymentMethod(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm, ok := s.paymentMethods[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *pm
	return &cp, nil
}

func (s *MemoryStore) ListPaymentMethods(ctx context.Context, userID uint64) ([]model.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PaymentMethod, 0)
	for _, id := range s.pmOrder {
		pm, ok := s.paymentMethods[id]
		if !ok {
			continue
		}
		if pm.UserID != nil && *pm.UserID == userID {
			out = append(out, *pm)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeletePaymentMethod(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paymentMethods[id]; !ok {
		return ErrNotFound
	}
	delete(s.paymentMethods, id)
	return nil
}

func (s *MemoryStore) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	referenceID := NewReferenceID()
	for _, t := range s.transactions {
		if t.ReferenceID == referenceID {
			return nil, ErrConflict
		}
	}

	currency := in.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	now := time.Now()
	tx := &model.Transaction{
		ID:              s.nextTransactionID,
		UserID:          in.UserID,
		PaymentMethodID: in.PaymentMethodID,
		Amount:          in.Amount,
		Currency:        currency,
		Status:          model.StatusPending,
		Description:     in.Description,
		ReferenceID:     referenceID,
		GatewayResponse: nil,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.nextTransactionID++
	s.transactions[tx.ID] = tx
	s.txOrder = append(s.txOrder, tx.ID)
	cp := *tx
	return &cp, nil
}

func (s *MemoryStore) GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *MemoryStore) GetTransactionByReference(ctx context.Context, referenceID string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.ReferenceID == referenceID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListTransactions(ctx context.Context, userID *uint64) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Transaction, 0)
	for _, id := range s.txOrder {
		tx := s.transactions[id]
		if userID != nil {
			if tx.UserID == nil || *tx.UserID != *userID {
				continue
			}
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (s *MemoryStore) UpdateTransactionStatus(ctx context.Context, id uint64, status string, gatewayResponse *string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	tx.Status = status
	tx.GatewayResponse = gatewayResponse
	tx.UpdatedAt = time.Now()
	cp := *tx
	return &cp, nil
}

func (s *MemoryStore) CreateMerchant(ctx context.Context, m *model.Merchant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.merchants {
		if existing.Email == m.Email {
			return ErrConflict
		}
	}
	m.ID = s.nextMerchantID
	s.nextMerchantID++
	m.APIKey = NewAPIKey()
	m.IsActive = true
	m.CreatedAt = time.Now()
	cp := *m
	s.merchants[m.ID] = &cp
	s.merchantOrder = append(s.merchantOrder, m.ID)
	return nil
}

func (s *MemoryStore) GetMerchant(ctx context.Context, id uint64) (*model.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.merchants[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) GetMerchantByAPIKey(ctx context.Context, apiKey string) (*model.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.merchants {
		if m.APIKey == apiKey {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListMerchants(ctx context.Context) ([]model.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Merchant, 0, len(s.merchantOrder))
	for _, id := range s.merchantOrder {
		out = append(out, *s.merchants[id])
	}
	return out, nil
}

func (s *MemoryStore) SetMerchantActive(ctx context.Context, id uint64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.merchants[id]
	if !ok {
		return ErrNotFound
	}
	m.IsActive = active
	return nil
}

func (s *MemoryStore) CreateOutboxEvent(ctx context.Context, evt *model.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	evt.ID = s.nextOutboxID
	s.nextOutboxID++
	evt.CreatedAt = time.Now()
	cp := *evt
	s.outbox[evt.ID] = &cp
	s.outboxOrder = append(s.outboxOrder, evt.ID)
	return nil
}

func (s *MemoryStore) PollOutbox(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OutboxEvent, 0)
	if limit <= 0 {
		return out, nil
	}
	for _, id := range s.outboxOrder {
		evt := s.outbox[id]
		if evt.Processed {
			continue
		}
		out = append(out, *evt)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkOutboxProcessed(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	evt, ok := s.outbox[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	evt.Processed = true
	evt.ProcessedAt = &now
	return nil
}
