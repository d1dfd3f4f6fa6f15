package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

// PollPending asks the providers about PENDING instruments younger than PollWindow.
// Provider failures are logged per instrument and leave it PENDING for the next run.
func (uc *DefaultReconcileUsecase) PollPending(ctx context.Context) (*PollReport, error) {
	now := uc.now()
	pending, err := uc.instrumentRepo.ListPending(ctx, "", now.Add(-uc.PollWindow), time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending instruments: %w", err)
	}
	slog.Info("polling pending instruments", "count", len(pending))

	report := &PollReport{}
	for i, in := range pending {
		if i > 0 && uc.PollDelay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(uc.PollDelay):
			}
		}

		report.Checked++
		applied, err := uc.pollOne(ctx, in)
		if markErr := uc.queue.MarkChecked(ctx, in.ExternalRef, uc.now()); markErr != nil {
			slog.Debug("failed to mark pending check", "ref", in.ExternalRef, "error", markErr)
		}
		if err != nil {
			report.Errors++
			slog.Error("failed to poll instrument", "kind", in.Kind, "ref", in.ExternalRef, "error", err)
			if uc.Metrics != nil {
				uc.Metrics.RecordError(in.Kind, "poll")
			}
			continue
		}
		if applied.Changed || applied.Replay {
			report.Settled++
		} else {
			report.StillPending++
		}
	}

	slog.Info("poll finished",
		"checked", report.Checked,
		"settled", report.Settled,
		"still_pending", report.StillPending,
		"errors", report.Errors,
	)
	return report, nil
}

func (uc *DefaultReconcileUsecase) pollOne(ctx context.Context, in *domain.Instrument) (*Applied, error) {
	switch in.Kind {
	case domain.KindCard:
		if uc.cardProvider == nil {
			return &Applied{Instrument: in}, nil
		}
		st, err := uc.cardProvider.CheckStatus(ctx, in.ExternalRef)
		if err != nil {
			return nil, err
		}
		raw, _ := json.Marshal(map[string]interface{}{"status": st.Code, "amount": st.Amount, "msg": st.Message})
		return uc.ApplyOutcome(ctx, in, st.Outcome, string(raw), st.Code, "poll")

	case domain.KindBankOrder:
		if uc.bankProvider == nil {
			return &Applied{Instrument: in}, nil
		}
		orderCode, err := strconv.ParseInt(in.ExternalRef, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid order code %q: %w", in.ExternalRef, err)
		}
		info, err := uc.bankProvider.GetPaymentInfo(ctx, orderCode)
		if err != nil {
			return nil, err
		}
		o := info.Outcome
		if o == nil {
			o = domain.StillPending{Reason: info.Status}
		}
		raw, _ := json.Marshal(info)
		return uc.ApplyOutcome(ctx, in, o, string(raw), info.Status, "poll")

	default:
		return nil, fmt.Errorf("unknown instrument kind %q", in.Kind)
	}
}
