package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"stationery-store/internal/models"
	"stationery-store/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Terminal payment outcomes reported by the provider.
var (
	ErrPaymentCancelled = errors.New("payment cancelled by customer")
	ErrPaymentDeclined  = errors.New("payment declined")
)

// PaymentProvider is the external payment collaborator. Charge returns a
// provider transaction id on success, ErrPaymentCancelled when the
// customer dismisses the payment flow, or ErrPaymentDeclined on failure.
type PaymentProvider interface {
	Charge(ctx context.Context, amount float64, currency, description string) (string, error)
}

// PaymentResult is the terminal outcome handed back to the booking flow.
type PaymentResult struct {
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	PaymentID   string     `json:"payment_id,omitempty"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PaymentService collects payment for a booking before it is persisted.
type PaymentService struct {
	provider PaymentProvider
	currency string
	logger   *zap.Logger
}

// NewPaymentService creates a payment service backed by provider.
func NewPaymentService(provider PaymentProvider, currency string) *PaymentService {
	return &PaymentService{
		provider: provider,
		currency: currency,
		logger:   util.GetLogger(),
	}
}

// Collect obtains a terminal payment outcome for the given method and
// amount. Cash on delivery requires no provider round trip and reports
// not_required; online payment charges the provider.
func (ps *PaymentService) Collect(ctx context.Context, method string, amount float64, description string) (*PaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.Collect")
	defer span.End()

	util.PaymentAttemptsTotal.WithLabelValues(method).Inc()
	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	switch method {
	case models.PaymentMethodCashOnDelivery:
		util.PaymentOutcomesTotal.WithLabelValues(models.PaymentStatusNotRequired).Inc()
		return &PaymentResult{
			Method:   method,
			Status:   models.PaymentStatusNotRequired,
			Amount:   amount,
			Currency: ps.currency,
		}, nil

	case models.PaymentMethodOnline:
		txID, err := ps.provider.Charge(ctx, amount, ps.currency, description)
		if err != nil {
			if errors.Is(err, ErrPaymentCancelled) {
				util.PaymentOutcomesTotal.WithLabelValues("cancelled").Inc()
				ps.logger.Info("Payment cancelled", zap.Float64("amount", amount))
			} else {
				util.PaymentOutcomesTotal.WithLabelValues(models.PaymentStatusFailed).Inc()
				ps.logger.Warn("Payment failed", zap.Float64("amount", amount), zap.Error(err))
			}
			return nil, err
		}

		util.PaymentOutcomesTotal.WithLabelValues(models.PaymentStatusCompleted).Inc()
		ps.logger.Info("Payment succeeded",
			zap.String("tx_id", txID),
			zap.Float64("amount", amount))

		now := time.Now()
		return &PaymentResult{
			Method:      method,
			Status:      models.PaymentStatusCompleted,
			PaymentID:   txID,
			Amount:      amount,
			Currency:    ps.currency,
			CompletedAt: &now,
		}, nil

	default:
		return nil, fmt.Errorf("unknown payment method: %q", method)
	}
}

// MockProvider simulates an online payment gateway, succeeding at a
// configurable rate. It stands in for the real gateway in development.
type MockProvider struct {
	SuccessRate float64 // 0.0 - 1.0
}

// NewMockProvider creates a mock provider with a 90% success rate.
func NewMockProvider() *MockProvider {
	return &MockProvider{SuccessRate: 0.9}
}

// Charge simulates a gateway round trip.
func (mp *MockProvider) Charge(ctx context.Context, amount float64, currency, description string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Duration(100+rand.Intn(400)) * time.Millisecond):
	}

	if rand.Float64() >= mp.SuccessRate {
		return "", ErrPaymentDeclined
	}
	return fmt.Sprintf("pay_%s", uuid.New().String()[:8]), nil
}
