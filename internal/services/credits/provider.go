package credits

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// ErrPaymentDeclined is a business outcome of the provider, not an
// infrastructure failure; it never trips the circuit breaker.
var ErrPaymentDeclined = errors.New("payment declined")

type ChargeInput struct {
	UserID        string
	PaymentMethod string
	AmountUSD     float64
}

type ChargeResult struct {
	TransactionID string
}

// PaymentProvider is the capability boundary to the payment gateway. The
// simulated implementation below stands in for a real integration.
type PaymentProvider interface {
	Charge(ctx context.Context, in ChargeInput) (ChargeResult, error)
}

type SimulatedPaymentProvider struct {
	latency     time.Duration
	successRate float64
	randFloat   func() float64
}

func NewSimulatedPaymentProvider(latency time.Duration, successRate float64) *SimulatedPaymentProvider {
	if successRate <= 0 || successRate > 1 {
		successRate = 0.9
	}

	return &SimulatedPaymentProvider{
		latency:     latency,
		successRate: successRate,
		randFloat:   rand.Float64,
	}
}

func (p *SimulatedPaymentProvider) Charge(ctx context.Context, in ChargeInput) (ChargeResult, error) {
	if in.AmountUSD <= 0 {
		return ChargeResult{}, fmt.Errorf("charge amount must be positive")
	}

	if err := sleepCtx(ctx, p.latency); err != nil {
		return ChargeResult{}, err
	}

	if p.randFloat() >= p.successRate {
		return ChargeResult{}, ErrPaymentDeclined
	}

	return ChargeResult{
		TransactionID: fmt.Sprintf("txn_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8]),
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
