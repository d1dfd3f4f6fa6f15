package background

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/reconcile"
)

const (
	TaskPendingPoll     = "pending-poll"
	TaskCallbackRetry   = "callback-retry"
	TaskBankOrderExpiry = "bank-order-expiry"
	TaskCleanup         = "cleanup"
	TaskDBMaintenance   = "db-maintenance"
	TaskDailyStats      = "daily-stats"
)

type BackgroundTasks struct {
	Reconciler    reconcile.ReconcileUsecase
	CallbackRetry usecase.CallbackRetryUsecase
	Maintenance   usecase.MaintenanceUsecase
}

func NewBackgroundTasks(reconciler reconcile.ReconcileUsecase, retry usecase.CallbackRetryUsecase, maintenance usecase.MaintenanceUsecase) *BackgroundTasks {
	return &BackgroundTasks{
		Reconciler:    reconciler,
		CallbackRetry: retry,
		Maintenance:   maintenance,
	}
}

func (bt *BackgroundTasks) Tasks() []Task {
	return []Task{
		{Name: TaskPendingPoll, Schedule: "*/5 * * * *", Run: bt.pollPending},
		{Name: TaskCallbackRetry, Schedule: "* * * * *", Run: bt.retryCallbacks},
		{Name: TaskBankOrderExpiry, Schedule: "*/5 * * * *", Run: bt.expireBankOrders},
		{Name: TaskCleanup, Schedule: "0 3 * * *", Run: bt.cleanup},
		{Name: TaskDBMaintenance, Schedule: "0 4 * * 0", Run: bt.optimize},
		{Name: TaskDailyStats, Schedule: "5 0 * * *", Run: bt.dailyStats},
	}
}

// Register adds every task to s.
func (bt *BackgroundTasks) Register(s *Scheduler) error {
	for _, t := range bt.Tasks() {
		if err := s.Add(t); err != nil {
			return err
		}
	}
	return nil
}

// pollPending leaves the sweep summary to the reconciler.
func (bt *BackgroundTasks) pollPending(ctx context.Context) error {
	_, err := bt.Reconciler.PollPending(ctx)
	return err
}

func (bt *BackgroundTasks) retryCallbacks(ctx context.Context) error {
	report, err := bt.CallbackRetry.ProcessDueRetries(ctx)
	if err != nil {
		return err
	}
	if report.Due > 0 {
		slog.Info("callback retries processed",
			"due", report.Due,
			"delivered", report.Delivered,
			"rescheduled", report.Rescheduled,
			"dead_lettered", report.DeadLettered,
		)
	}
	return nil
}

func (bt *BackgroundTasks) expireBankOrders(ctx context.Context) error {
	n, err := bt.Reconciler.ExpireBankOrders(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("expired bank orders cancelled", "count", n)
	}
	return nil
}

func (bt *BackgroundTasks) cleanup(ctx context.Context) error {
	_, err := bt.Maintenance.Cleanup(ctx)
	return err
}

func (bt *BackgroundTasks) optimize(ctx context.Context) error {
	_, err := bt.Maintenance.Optimize(ctx)
	return err
}

func (bt *BackgroundTasks) dailyStats(ctx context.Context) error {
	_, err := bt.Maintenance.DailyStats(ctx)
	return err
}
