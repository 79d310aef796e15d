package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"paygate/internal/model"
)

// GormStore is the persistent backend. Open the DB with TranslateError so
// duplicate-key violations surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and returns the store.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&model.User{},
		&model.PaymentMethod{},
		&model.Transaction{},
		&model.Merchant{},
		&model.OutboxEvent{},
	); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) CreatePaymentMethod(ctx context.Context, pm *model.PaymentMethod) error {
	return translate(s.db.WithContext(ctx).Create(pm).Error)
}

func (s *GormStore) GetPaymentMethod(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
	var pm model.PaymentMethod
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&pm).Error; err != nil {
		return nil, translate(err)
	}
	return &pm, nil
}

func (s *GormStore) ListPaymentMethods(ctx context.Context, userID uint64) ([]model.PaymentMethod, error) {
	var pms []model.PaymentMethod
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&pms).Error
	return pms, translate(err)
}

func (s *GormStore) DeletePaymentMethod(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&model.PaymentMethod{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*model.Transaction, error) {
	currency := in.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	tx := &model.Transaction{
		UserID:          in.UserID,
		PaymentMethodID: in.PaymentMethodID,
		Amount:          in.Amount,
		Currency:        currency,
		Status:          model.StatusPending,
		Description:     in.Description,
		ReferenceID:     NewReferenceID(),
	}
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, translate(err)
	}
	return tx, nil
}

func (s *GormStore) GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error) {
	var tx model.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormStore) GetTransactionByReference(ctx context.Context, referenceID string) (*model.Transaction, error) {
	var tx model.Transaction
	if err := s.db.WithContext(ctx).Where("reference_id = ?", referenceID).First(&tx).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (s *GormStore) ListTransactions(ctx context.Context, userID *uint64) ([]model.Transaction, error) {
	q := s.db.WithContext(ctx).Order("id")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var txs []model.Transaction
	err := q.Find(&txs).Error
	return txs, translate(err)
}

func (s *GormStore) UpdateTransactionStatus(ctx context.Context, id uint64, status string, gatewayResponse *string) (*model.Transaction, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           status,
			"gateway_response": gatewayResponse,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetTransaction(ctx, id)
}

func (s *GormStore) CreateMerchant(ctx context.Context, m *model.Merchant) error {
	m.APIKey = NewAPIKey()
	m.IsActive = true
	return translate(s.db.WithContext(ctx).Create(m).Error)
}

func (s *GormStore) GetMerchant(ctx context.Context, id uint64) (*model.Merchant, error) {
	var m model.Merchant
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *GormStore) GetMerchantByAPIKey(ctx context.Context, apiKey string) (*model.Merchant, error) {
	var m model.Merchant
	if err := s.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *GormStore) ListMerchants(ctx context.Context) ([]model.Merchant, error) {
	var ms []model.Merchant
	err := s.db.WithContext(ctx).Order("id").Find(&ms).Error
	return ms, translate(err)
}

func (s *GormStore) SetMerchantActive(ctx context.Context, id uint64, active bool) error {
	res := s.db.WithContext(ctx).Model(&model.Merchant{}).Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateOutboxEvent(ctx context.Context, evt *model.OutboxEvent) error {
	return translate(s.db.WithContext(ctx).Create(evt).Error)
}

func (s *GormStore) PollOutbox(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	var evts []model.OutboxEvent
	err := s.db.WithContext(ctx).Where("processed = false").Order("created_at").Limit(limit).Find(&evts).Error
	return evts, translate(err)
}

func (s *GormStore) MarkOutboxProcessed(ctx context.Context, id uint64) error {
	now := time.Now()
	return translate(s.db.WithContext(ctx).Model(&model.OutboxEvent{}).Where("id = ?", id).
		Updates(map[string]interface{}{"processed": true, "processed_at": &now}).Error)
}
