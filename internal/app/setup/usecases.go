package setup

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/provider/thesieutoc"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/bank"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/card"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/reconcile"
)

type UseCases struct {
	GuardUsecase         usecase.GuardUsecase
	ReconcileUsecase     reconcile.ReconcileUsecase
	CardUsecase          card.CardUsecase
	BankUsecase          bank.BankUsecase
	InstrumentUsecase    usecase.InstrumentUsecase
	CallbackRetryUsecase usecase.CallbackRetryUsecase
	MaintenanceUsecase   usecase.MaintenanceUsecase
}

func InitializeUseCases(deps *Dependencies) *UseCases {
	cfg := deps.Config
	repos := deps.Repositories

	guardUsecase := usecase.NewDefaultGuardUsecase(repos.InstrumentRepo, repos.BlacklistRepo, thesieutoc.Format)

	reconcileUsecase := reconcile.NewDefaultReconcileUsecase(
		repos.InstrumentRepo,
		deps.Queue,
		deps.CardProvider,
		deps.BankProvider,
		deps.SuccessLog,
		deps.Publisher,
		deps.Sender,
		deps.Metrics,
	)
	if cfg.PayOS.ExpiryMins > 0 {
		reconcileUsecase.OrderExpiry = time.Duration(cfg.PayOS.ExpiryMins) * time.Minute
	}

	cardUsecase := card.NewDefaultCardUsecase(
		repos.InstrumentRepo,
		guardUsecase,
		deps.CardProvider,
		deps.Queue,
		reconcileUsecase,
		deps.Metrics,
		cfg.Guard.DuplicateCheckHours,
	)

	bankUsecase := bank.NewDefaultBankUsecase(
		repos.InstrumentRepo,
		deps.BankProvider,
		deps.Directory,
		deps.Queue,
		reconcileUsecase,
		deps.Metrics,
	)

	maintenanceUsecase := usecase.NewDefaultMaintenanceUsecase(
		repos.InstrumentRepo,
		repos.BlacklistRepo,
		repos.Maintainer,
		deps.Queue,
		deps.Metrics,
		usecase.RetentionPolicy{
			TransactionDays: cfg.Cleanup.TransactionDays,
			LogDays:         cfg.Cleanup.LogDays,
			BlacklistDays:   cfg.Cleanup.BlacklistDays,
		},
		cfg.LogConfig.LogDir,
		deps.Location,
	)

	return &UseCases{
		GuardUsecase:         guardUsecase,
		ReconcileUsecase:     reconcileUsecase,
		CardUsecase:          cardUsecase,
		BankUsecase:          bankUsecase,
		InstrumentUsecase:    usecase.NewDefaultInstrumentUsecase(repos.InstrumentRepo),
		CallbackRetryUsecase: usecase.NewDefaultCallbackRetryUsecase(deps.Queue, deps.Sender, deps.Metrics),
		MaintenanceUsecase:   maintenanceUsecase,
	}
}
