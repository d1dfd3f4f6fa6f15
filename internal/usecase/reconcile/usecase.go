package reconcile

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
)

const (
	DefaultPollWindow  = 24 * time.Hour
	DefaultPollDelay   = 500 * time.Millisecond
	DefaultOrderExpiry = 60 * time.Minute
	callbackTimeout    = 10 * time.Second
)

// Signal is an inbound provider notification. Decode maps it to an outcome once the
// target row is known, since card outcomes depend on the declared amount.
type Signal struct {
	Match  domain.Match
	Decode func(in *domain.Instrument) domain.Outcome
	Raw    string
	Code   string
}

type Applied struct {
	Instrument *domain.Instrument
	Outcome    domain.Outcome
	// Changed is true only for the call that committed the transition.
	Changed bool
	// Replay marks a signal for an already settled instrument. It is acknowledged, not applied.
	Replay bool
	// Conflict marks a replay whose outcome disagrees with the stored status.
	Conflict bool
}

type PollReport struct {
	Checked      int `json:"checked"`
	Settled      int `json:"settled"`
	StillPending int `json:"stillPending"`
	Errors       int `json:"errors"`
}

type ReconcileUsecase interface {
	ApplyCallback(ctx context.Context, s Signal) (*Applied, error)
	ApplyOutcome(ctx context.Context, in *domain.Instrument, o domain.Outcome, raw, code, source string) (*Applied, error)
	PollPending(ctx context.Context) (*PollReport, error)
	ExpireBankOrders(ctx context.Context) (int, error)
	SyncPendingChecks(ctx context.Context) (added, removed int, err error)
}

type DefaultReconcileUsecase struct {
	instrumentRepo domain.InstrumentRepository
	queue          domain.Queue
	cardProvider   domain.CardProvider
	bankProvider   domain.BankProvider
	successLog     domain.SuccessLog
	publisher      domain.EventPublisher
	sender         domain.CallbackSender
	Metrics        *metrics.GatewayMetrics

	PollWindow  time.Duration
	PollDelay   time.Duration
	OrderExpiry time.Duration
	now         func() time.Time
}

func NewDefaultReconcileUsecase(
	instrumentRepo domain.InstrumentRepository,
	queue domain.Queue,
	cardProvider domain.CardProvider,
	bankProvider domain.BankProvider,
	successLog domain.SuccessLog,
	publisher domain.EventPublisher,
	sender domain.CallbackSender,
	gatewayMetrics *metrics.GatewayMetrics,
) *DefaultReconcileUsecase {
	return &DefaultReconcileUsecase{
		instrumentRepo: instrumentRepo,
		queue:          queue,
		cardProvider:   cardProvider,
		bankProvider:   bankProvider,
		successLog:     successLog,
		publisher:      publisher,
		sender:         sender,
		Metrics:        gatewayMetrics,
		PollWindow:     DefaultPollWindow,
		PollDelay:      DefaultPollDelay,
		OrderExpiry:    DefaultOrderExpiry,
		now:            time.Now,
	}
}

// WithClock replaces the time source.
func (uc *DefaultReconcileUsecase) WithClock(now func() time.Time) *DefaultReconcileUsecase {
	uc.now = now
	return uc
}
