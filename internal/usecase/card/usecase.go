package card

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/provider/thesieutoc"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	carddto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/card"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/reconcile"
)

type CardUsecase interface {
	Submit(ctx context.Context, input *carddto.SubmitCardInput) (*carddto.SubmitCardOutput, error)
	Status(ctx context.Context, ref string) (*carddto.CardStatusOutput, error)
	Discount(ctx context.Context, account string) (json.RawMessage, error)
	HandleCallback(ctx context.Context, cb thesieutoc.Callback, raw string) (*reconcile.Applied, error)
}

type DefaultCardUsecase struct {
	InstrumentRepo domain.InstrumentRepository
	Guard          usecase.GuardUsecase
	Provider       domain.CardProvider
	Queue          domain.Queue
	Reconciler     reconcile.ReconcileUsecase
	Metrics        *metrics.GatewayMetrics

	DuplicateWindowHours int
	NewRef               func(now time.Time) string
	now                  func() time.Time
}

func NewDefaultCardUsecase(
	instrumentRepo domain.InstrumentRepository,
	guard usecase.GuardUsecase,
	provider domain.CardProvider,
	queue domain.Queue,
	reconciler reconcile.ReconcileUsecase,
	gatewayMetrics *metrics.GatewayMetrics,
	duplicateWindowHours int,
) *DefaultCardUsecase {
	return &DefaultCardUsecase{
		InstrumentRepo:       instrumentRepo,
		Guard:                guard,
		Provider:             provider,
		Queue:                queue,
		Reconciler:           reconciler,
		Metrics:              gatewayMetrics,
		DuplicateWindowHours: duplicateWindowHours,
		NewRef:               thesieutoc.NewTransactionRef,
		now:                  time.Now,
	}
}

func (uc *DefaultCardUsecase) Discount(ctx context.Context, account string) (json.RawMessage, error) {
	return uc.Provider.Discount(ctx, account)
}
