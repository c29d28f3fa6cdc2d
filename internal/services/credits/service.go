package credits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/humapedia/humapedia/internal/domain/model"
	pgrepo "github.com/humapedia/humapedia/internal/repo/postgres"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

var supportedPaymentMethods = map[string]struct{}{
	"credit_card": {},
	"paypal":      {},
	"stripe":      {},
}

type Ledger interface {
	GetAccount(ctx context.Context, userID string) (model.CreditAccount, error)
	ApplyPurchase(ctx context.Context, purchase model.Purchase) error
	Reserve(ctx context.Context, usage model.Usage) (int, error)
	Refund(ctx context.Context, userID, usageID string, amount int) error
	ListPurchases(ctx context.Context, userID string) ([]model.Purchase, error)
	ListUsages(ctx context.Context, userID string) ([]model.Usage, error)
}

type Config struct {
	FaceSearchCost  int
	TextSearchCost  int
	BulkSearchCost  int
	Pricing         Pricing
	ProviderTimeout time.Duration
}

type Service struct {
	ledger   Ledger
	provider PaymentProvider
	breaker  *gobreaker.CircuitBreaker
	cfg      Config
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

type PurchaseInput struct {
	Amount        int
	PaymentMethod string
}

type PurchaseResult struct {
	Purchase model.Purchase
	Account  model.CreditAccount
}

type Overview struct {
	Account   model.CreditAccount
	Purchases []model.Purchase
	Usages    []model.Usage
	Pricing   Pricing
	Costs     OperationCosts
}

type OperationCosts struct {
	FaceSearch int
	TextSearch int
	BulkSearch int
}

func NewService(ledger Ledger, provider PaymentProvider, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FaceSearchCost <= 0 {
		cfg.FaceSearchCost = 3
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-provider",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Service{
		ledger:   ledger,
		provider: provider,
		breaker:  breaker,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	if strings.TrimSpace(userID) == "" {
		return Overview{}, ErrValidation
	}

	account, err := s.ledger.GetAccount(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("get credit account: %w", err)
	}

	purchases, err := s.ledger.ListPurchases(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("list purchases: %w", err)
	}

	usages, err := s.ledger.ListUsages(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("list usages: %w", err)
	}

	return Overview{
		Account:   account,
		Purchases: purchases,
		Usages:    usages,
		Pricing:   s.cfg.Pricing,
		Costs: OperationCosts{
			FaceSearch: s.cfg.FaceSearchCost,
			TextSearch: s.cfg.TextSearchCost,
			BulkSearch: s.cfg.BulkSearchCost,
		},
	}, nil
}

// Purchase charges the payment provider first and only credits the account
// once the charge succeeded. A declined charge leaves the ledger untouched.
func (s *Service) Purchase(ctx context.Context, userID string, in PurchaseInput) (PurchaseResult, error) {
	if strings.TrimSpace(userID) == "" || in.Amount < 1 {
		return PurchaseResult{}, ErrValidation
	}
	if _, ok := supportedPaymentMethods[in.PaymentMethod]; !ok {
		return PurchaseResult{}, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, in.PaymentMethod)
	}

	cost, savings := s.cfg.Pricing.CostFor(in.Amount)

	charge, err := s.charge(ctx, ChargeInput{
		UserID:        userID,
		PaymentMethod: in.PaymentMethod,
		AmountUSD:     cost,
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	purchase := model.Purchase{
		ID:            s.newID(),
		UserID:        userID,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		Cost:          cost,
		Savings:       savings,
		TransactionID: charge.TransactionID,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.ledger.ApplyPurchase(ctx, purchase); err != nil {
		// The charge went through but the ledger write failed. Surface the
		// transaction id so the charge can be reconciled.
		s.logger.Error("purchase charged but not credited",
			zap.String("user_id", userID),
			zap.String("transaction_id", charge.TransactionID),
			zap.Error(err),
		)
		return PurchaseResult{}, fmt.Errorf("apply purchase %s: %w", charge.TransactionID, err)
	}

	account, err := s.ledger.GetAccount(ctx, userID)
	if err != nil {
		return PurchaseResult{}, fmt.Errorf("reload credit account: %w", err)
	}

	return PurchaseResult{Purchase: purchase, Account: account}, nil
}

// charge runs the provider call under the circuit breaker. Declines are a
// business outcome and are smuggled out as a successful breaker execution so
// they never count toward tripping it.
func (s *Service) charge(ctx context.Context, in ChargeInput) (ChargeResult, error) {
	out, err := s.breaker.Execute(func() (any, error) {
		cctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()

		result, err := s.provider.Charge(cctx, in)
		if errors.Is(err, ErrPaymentDeclined) {
			return err, nil
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.logger.Warn("payment provider circuit open", zap.String("user_id", in.UserID))
			return ChargeResult{}, fmt.Errorf("%w: provider unavailable", ErrPaymentDeclined)
		}
		return ChargeResult{}, fmt.Errorf("charge payment provider: %w", err)
	}

	switch v := out.(type) {
	case error:
		return ChargeResult{}, v
	case ChargeResult:
		return v, nil
	default:
		return ChargeResult{}, fmt.Errorf("unexpected provider result %T", out)
	}
}

// FaceSearchCost is the fixed price of one face search in credits.
func (s *Service) FaceSearchCost() int {
	return s.cfg.FaceSearchCost
}

// ReserveFaceSearch deducts the face search cost up front and records the
// usage. The returned usage record is the handle for a later refund; the
// int is the balance left after the deduction, read from the same
// statement that performed it.
func (s *Service) ReserveFaceSearch(ctx context.Context, userID, description string) (model.Usage, int, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Usage{}, 0, ErrValidation
	}

	usage := model.Usage{
		ID:          s.newID(),
		UserID:      userID,
		Type:        model.SearchTypeFace,
		CreditsUsed: s.cfg.FaceSearchCost,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}

	remaining, err := s.ledger.Reserve(ctx, usage)
	if err != nil {
		if errors.Is(err, pgrepo.ErrInsufficientCredits) {
			return model.Usage{}, 0, ErrInsufficientCredits
		}
		return model.Usage{}, 0, fmt.Errorf("reserve credits: %w", err)
	}

	return usage, remaining, nil
}

// RefundFaceSearch reverses a reservation after the inference provider
// failed. A missing usage row means the refund already happened.
func (s *Service) RefundFaceSearch(ctx context.Context, usage model.Usage) error {
	err := s.ledger.Refund(ctx, usage.UserID, usage.ID, usage.CreditsUsed)
	if err != nil && !errors.Is(err, pgrepo.ErrUsageNotFound) {
		return fmt.Errorf("refund credits: %w", err)
	}
	return nil
}

func (s *Service) Balance(ctx context.Context, userID string) (model.CreditAccount, error) {
	if strings.TrimSpace(userID) == "" {
		return model.CreditAccount{}, ErrValidation
	}

	account, err := s.ledger.GetAccount(ctx, userID)
	if err != nil {
		return model.CreditAccount{}, fmt.Errorf("get credit account: %w", err)
	}

	return account, nil
}
