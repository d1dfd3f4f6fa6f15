package bank

import (
	"context"
	"math/rand"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	bankdto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/bank"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/reconcile"
)

const (
	// MaxOrderCode is the provider's safe-integer ceiling.
	MaxOrderCode      int64 = 9007199254740991
	MinAmount         int64 = 1000
	MaxDescriptionLen       = 25
)

type BankUsecase interface {
	CreatePaymentLink(ctx context.Context, input *bankdto.CreatePaymentLinkInput) (*bankdto.CreatePaymentLinkOutput, error)
	GetPaymentInfo(ctx context.Context, orderCode int64) (*domain.PaymentInfo, error)
	GetOrder(ctx context.Context, orderCode int64) (*bankdto.OrderOutput, error)
	HandleWebhook(ctx context.Context, body []byte) (*reconcile.Applied, error)
}

type DefaultBankUsecase struct {
	InstrumentRepo domain.InstrumentRepository
	Provider       domain.BankProvider
	Directory      domain.BankDirectory
	Queue          domain.Queue
	Reconciler     reconcile.ReconcileUsecase
	Metrics        *metrics.GatewayMetrics

	now   func() time.Time
	randN func(n int64) int64
}

// NewDefaultBankUsecase wires the bank order flow. directory may be nil.
func NewDefaultBankUsecase(
	instrumentRepo domain.InstrumentRepository,
	provider domain.BankProvider,
	directory domain.BankDirectory,
	queue domain.Queue,
	reconciler reconcile.ReconcileUsecase,
	gatewayMetrics *metrics.GatewayMetrics,
) *DefaultBankUsecase {
	return &DefaultBankUsecase{
		InstrumentRepo: instrumentRepo,
		Provider:       provider,
		Directory:      directory,
		Queue:          queue,
		Reconciler:     reconciler,
		Metrics:        gatewayMetrics,
		now:            time.Now,
		randN:          rand.Int63n,
	}
}

// WithClock replaces the time source used for order code generation.
func (uc *DefaultBankUsecase) WithClock(now func() time.Time) *DefaultBankUsecase {
	uc.now = now
	return uc
}

// NewOrderCode returns now_millis*100 plus two random digits, or plain now_millis when
// that would pass MaxOrderCode.
func (uc *DefaultBankUsecase) NewOrderCode() int64 {
	ms := uc.now().UnixMilli()
	if ms > (MaxOrderCode-99)/100 {
		return ms
	}
	return ms*100 + uc.randN(100)
}
