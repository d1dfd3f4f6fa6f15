package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

// ExpireBankOrders cancels PENDING bank orders older than OrderExpiry without asking the provider.
func (uc *DefaultReconcileUsecase) ExpireBankOrders(ctx context.Context) (int, error) {
	cutoff := uc.now().Add(-uc.OrderExpiry)
	stale, err := uc.instrumentRepo.ListPending(ctx, domain.KindBankOrder, time.Time{}, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired orders: %w", err)
	}

	expired := 0
	for _, in := range stale {
		applied, err := uc.ApplyOutcome(ctx, in, domain.BankCancelled{Reason: "expired"}, "", "expired", "expiry")
		if err != nil {
			slog.Error("failed to expire bank order", "ref", in.ExternalRef, "error", err)
			continue
		}
		if applied.Changed {
			expired++
		}
	}
	if expired > 0 {
		slog.Info("expired bank orders", "count", expired, "older_than", uc.OrderExpiry)
	}
	return expired, nil
}
