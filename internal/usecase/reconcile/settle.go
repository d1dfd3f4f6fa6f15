package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/notifier"
)

// ApplyOutcome writes a decoded outcome for in. Pending outcomes are a no-op. Losing a race
// against another signal with the same result is reported as a replay, not an error.
func (uc *DefaultReconcileUsecase) ApplyOutcome(ctx context.Context, in *domain.Instrument, o domain.Outcome, raw, code, source string) (*Applied, error) {
	if o.Status() == domain.StatusPending {
		return &Applied{Instrument: in, Outcome: o}, nil
	}
	if wa, ok := o.(domain.CardWrongAmount); ok && wa.Declared == 0 {
		wa.Declared = in.DeclaredAmount
		o = wa
	}

	updated, err := uc.instrumentRepo.Transition(ctx, domain.ByID(in.ID), domain.TransitionFor(o, raw))
	if err != nil {
		var ite *domain.InvalidTransitionError
		if !errors.As(err, &ite) {
			return nil, fmt.Errorf("failed to settle %s: %w", in.ExternalRef, err)
		}
		if current, gerr := uc.instrumentRepo.Get(ctx, domain.ByID(in.ID)); gerr == nil {
			in = current
		}
		applied := &Applied{Instrument: in, Outcome: o, Replay: true}
		if ite.From != o.Status() {
			applied.Conflict = true
			slog.Error("refused transition of settled instrument",
				"ref", in.ExternalRef, "from", ite.From, "to", ite.To, "source", source)
		}
		return applied, nil
	}

	uc.afterSettle(ctx, updated, code, source)
	return &Applied{Instrument: updated, Outcome: o, Changed: true}, nil
}

func (uc *DefaultReconcileUsecase) afterSettle(ctx context.Context, in *domain.Instrument, code, source string) {
	if err := uc.queue.RemovePendingCheck(ctx, in.ExternalRef); err != nil {
		slog.Error("failed to remove pending check", "ref", in.ExternalRef, "error", err)
	}

	if in.Status.Settled() && uc.successLog != nil {
		if err := uc.successLog.Append(in, code); err != nil {
			slog.Error("failed to append success log", "ref", in.ExternalRef, "error", err)
		}
	}

	if uc.Metrics != nil {
		uc.Metrics.RecordSettled(in, source)
	}

	slog.Info("instrument settled",
		"id", in.ID,
		"kind", in.Kind,
		"ref", in.ExternalRef,
		"status", in.Status,
		"source", source,
		"provider_code", code,
	)

	if uc.publisher != nil {
		event := domain.InstrumentEvent{
			InstrumentID:   in.ID,
			Kind:           in.Kind,
			ExternalRef:    in.ExternalRef,
			From:           domain.StatusPending,
			To:             in.Status,
			DeclaredAmount: in.DeclaredAmount,
			ActualAmount:   in.ActualAmount,
			NetAmount:      in.NetAmount,
			OccurredAt:     in.UpdatedAt,
		}
		if err := uc.publisher.PublishInstrumentEvent(ctx, event); err != nil {
			slog.Warn("failed to publish instrument event", "ref", in.ExternalRef, "error", err)
		}
	}

	uc.notifyMerchant(ctx, in)
}

// notifyMerchant posts the result to the instrument's callback URL and queues a retry on failure.
func (uc *DefaultReconcileUsecase) notifyMerchant(ctx context.Context, in *domain.Instrument) {
	if in.CallbackURL == "" || uc.sender == nil {
		return
	}

	payload, err := json.Marshal(notifier.NewCallbackPayload(in))
	if err != nil {
		slog.Error("failed to marshal merchant callback", "ref", in.ExternalRef, "error", err)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, callbackTimeout)
	defer cancel()
	sendErr := uc.sender.Send(sendCtx, in.CallbackURL, payload)
	if sendErr == nil {
		slog.Info("merchant callback delivered", "ref", in.ExternalRef)
		return
	}

	jobID, err := uc.queue.EnqueueRetry(ctx, in.ExternalRef, in.CallbackURL, payload, domain.DefaultMaxAttempts)
	if err != nil {
		slog.Error("failed to queue merchant callback retry", "ref", in.ExternalRef, "error", err)
		return
	}
	slog.Warn("merchant callback failed, retry queued", "ref", in.ExternalRef, "job", jobID, "error", sendErr)
}
