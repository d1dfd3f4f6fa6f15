package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SyncPendingChecks rebuilds the pending-check list from the ledger: every PENDING row gets
// a job and jobs without a PENDING row are dropped.
func (uc *DefaultReconcileUsecase) SyncPendingChecks(ctx context.Context) (added, removed int, err error) {
	pending, err := uc.instrumentRepo.ListPending(ctx, "", time.Time{}, time.Time{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list pending instruments: %w", err)
	}
	jobs, err := uc.queue.ListPendingChecks(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list pending checks: %w", err)
	}

	queued := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		queued[j.ExternalRef] = struct{}{}
	}
	live := make(map[string]struct{}, len(pending))
	for _, in := range pending {
		live[in.ExternalRef] = struct{}{}
		if _, ok := queued[in.ExternalRef]; ok {
			continue
		}
		if err := uc.queue.EnqueuePendingCheck(ctx, in.Kind, in.ExternalRef); err != nil {
			return added, removed, fmt.Errorf("failed to enqueue %s: %w", in.ExternalRef, err)
		}
		added++
	}
	for _, j := range jobs {
		if _, ok := live[j.ExternalRef]; ok {
			continue
		}
		if err := uc.queue.RemovePendingCheck(ctx, j.ExternalRef); err != nil {
			return added, removed, fmt.Errorf("failed to remove %s: %w", j.ExternalRef, err)
		}
		removed++
	}

	if added > 0 || removed > 0 {
		slog.Info("pending checks synced", "added", added, "removed", removed)
	}
	return added, removed, nil
}
