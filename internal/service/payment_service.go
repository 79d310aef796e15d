package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"paygate/internal/model"
	"paygate/internal/store"
)

var (
	// ErrInvalidAmount means the amount is not a positive decimal with at
	// most two fractional digits.
	ErrInvalidAmount = errors.New("amount must be a positive decimal with at most 2 decimal places")
	// ErrInvalidReference means the payment method does not exist or is not
	// owned by the transaction's user.
	ErrInvalidReference = errors.New("invalid payment method")
	// ErrInvalidCardNumber means the card number is outside 13 to 19 digits.
	ErrInvalidCardNumber = errors.New("card number must be 13 to 19 digits")
	// ErrForbidden means the caller does not own the targeted resource.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized means missing or invalid credentials.
	ErrUnauthorized = errors.New("invalid credentials")
)

// PaymentService carries the session-authenticated business logic: users,
// payment methods, and user-initiated transactions.
type PaymentService struct {
	store   store.Storage
	settler *Settler
	log     *zap.SugaredLogger
}

func NewPaymentService(st store.Storage, settler *Settler, log *zap.SugaredLogger) *PaymentService {
	return &PaymentService{store: st, settler: settler, log: log}
}

// ParseAmount validates a decimal amount string: positive, at most two
// fractional digits.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if !amt.IsPositive() || amt.Exponent() < -2 {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return amt, nil
}

type RegisterInput struct {
	Username string
	Password string
	Email    string
	FullName *string
}

// Register creates a user with a bcrypt password hash.
func (s *PaymentService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if _, err := s.store.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, store.ErrConflict
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username: in.Username,
		Password: string(hash),
		Email:    in.Email,
		FullName: in.FullName,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns the user.
func (s *PaymentService) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// GetUser fetches a user by id.
func (s *PaymentService) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	return s.store.GetUser(ctx, id)
}

type CreatePaymentMethodInput struct {
	UserID         uint64
	Type           string
	CardNumber     string
	CardHolderName *string
	ExpiryMonth    *int
	ExpiryYear     *int
}

// CreatePaymentMethod stores a payment method with the card number masked to
// its last four digits. Callers may only create methods for themselves.
func (s *PaymentService) CreatePaymentMethod(ctx context.Context, callerID uint64, in CreatePaymentMethodInput) (*model.PaymentMethod, error) {
	if callerID != in.UserID {
		return nil, ErrForbidden
	}
	if n := len(in.CardNumber); n < 13 || n > 19 {
		return nil, ErrInvalidCardNumber
	}
	masked := "**** **** **** " + in.CardNumber[len(in.CardNumber)-4:]
	uid := in.UserID
	pm := &model.PaymentMethod{
		UserID:         &uid,
		Type:           in.Type,
		CardNumber:     &masked,
		CardHolderName: in.CardHolderName,
		ExpiryMonth:    in.ExpiryMonth,
		ExpiryYear:     in.ExpiryYear,
		IsDefault:      false,
	}
	if err := s.store.CreatePaymentMethod(ctx, pm); err != nil {
		return nil, err
	}
	return pm, nil
}

// ListPaymentMethods returns the caller's own payment methods.
func (s *PaymentService) ListPaymentMethods(ctx context.Context, callerID, userID uint64) ([]model.PaymentMethod, error) {
	if callerID != userID {
		return nil, ErrForbidden
	}
	return s.store.ListPaymentMethods(ctx, userID)
}

// DeletePaymentMethod removes a payment method the caller owns.
func (s *PaymentService) DeletePaymentMethod(ctx context.Context, callerID, id uint64) error {
	pm, err := s.store.GetPaymentMethod(ctx, id)
	if err != nil {
		return err
	}
	if pm.UserID == nil || *pm.UserID != callerID {
		return ErrForbidden
	}
	return s.store.DeletePaymentMethod(ctx, id)
}

type CreateTransactionInput struct {
	UserID          uint64
	PaymentMethodID uint64
	Amount          string
	Currency        string
	Description     *string
}

// CreateTransaction validates the request, creates the pending record and
// schedules delayed settlement. The pending record is returned immediately;
// the outcome lands through the settler.
func (s *PaymentService) CreateTransaction(ctx context.Context, callerID uint64, in CreateTransactionInput) (*model.Transaction, error) {
	if callerID != in.UserID {
		return nil, ErrForbidden
	}
	amt, err := ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	pm, err := s.store.GetPaymentMethod(ctx, in.PaymentMethodID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidReference
		}
		return nil, err
	}
	if pm.UserID == nil || *pm.UserID != in.UserID {
		return nil, ErrInvalidReference
	}

	uid := in.UserID
	pmID := in.PaymentMethodID
	tx, err := s.store.CreateTransaction(ctx, store.CreateTransactionInput{
		UserID:          &uid,
		PaymentMethodID: &pmID,
		Amount:          amt,
		Currency:        in.Currency,
		Description:     in.Description,
	})
	if err != nil {
		return nil, err
	}
	s.settler.Schedule(tx.ID, UserFailureThreshold)
	return tx, nil
}

// ListTransactions returns the caller's transactions.
func (s *PaymentService) ListTransactions(ctx context.Context, callerID uint64) ([]model.Transaction, error) {
	return s.store.ListTransactions(ctx, &callerID)
}

// GetTransaction fetches by internal id.
func (s *PaymentService) GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// GetTransactionByReference fetches by the external reference token.
func (s *PaymentService) GetTransactionByReference(ctx context.Context, referenceID string) (*model.Transaction, error) {
	return s.store.GetTransactionByReference(ctx, referenceID)
}

// UpdateStatus overwrites a transaction's status. No transition-legality
// check is performed: this is an administrative override and any status may
// replace any other.
func (s *PaymentService) UpdateStatus(ctx context.Context, id uint64, status string, gatewayResponse *string) (*model.Transaction, error) {
	return s.store.UpdateTransactionStatus(ctx, id, status, gatewayResponse)
}

type CreateMerchantInput struct {
	Name       string
	Email      string
	WebhookURL *string
}

// CreateMerchant registers a merchant; the store assigns the API key.
func (s *PaymentService) CreateMerchant(ctx context.Context, in CreateMerchantInput) (*model.Merchant, error) {
	m := &model.Merchant{
		Name:       in.Name,
		Email:      in.Email,
		WebhookURL: in.WebhookURL,
	}
	if err := s.store.CreateMerchant(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListMerchants returns all merchants.
func (s *PaymentService) ListMerchants(ctx context.Context) ([]model.Merchant, error) {
	return s.store.ListMerchants(ctx)
}
