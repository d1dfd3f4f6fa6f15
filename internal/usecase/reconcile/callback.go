package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

// ApplyCallback settles the PENDING instrument the signal points at. A signal for an
// instrument that already settled with the same identity is acknowledged as a replay.
func (uc *DefaultReconcileUsecase) ApplyCallback(ctx context.Context, s Signal) (*Applied, error) {
	in, err := uc.instrumentRepo.FindPendingByMatch(ctx, s.Match)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to find pending instrument: %w", err)
		}
		return uc.unmatched(ctx, s)
	}

	applied, err := uc.ApplyOutcome(ctx, in, s.Decode(in), s.Raw, s.Code, "callback")
	if err != nil {
		return nil, err
	}
	uc.recordWebhook(s.Match.Kind, applied)
	return applied, nil
}

func (uc *DefaultReconcileUsecase) unmatched(ctx context.Context, s Signal) (*Applied, error) {
	m := s.Match
	existing, err := uc.instrumentRepo.Get(ctx, domain.ByRef(m.Kind, m.ExternalRef))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("callback for unknown instrument", "kind", m.Kind, "ref", m.ExternalRef)
			uc.recordWebhookResult(m.Kind, "not_found")
			return nil, fmt.Errorf("no pending instrument %s: %w", m.ExternalRef, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load instrument: %w", err)
	}

	if !sameIdentity(existing, m) {
		want, got := existing.Secret.Masked(), m.Secret.Masked()
		slog.Warn("callback near-miss: reference matches but identifying fields differ",
			"kind", m.Kind,
			"ref", m.ExternalRef,
			"status", existing.Status,
			"stored_card_type", existing.CardType,
			"callback_card_type", m.CardType,
			"stored_serial", want.Serial,
			"callback_serial", got.Serial,
			"pin_matches", existing.Secret.Pin == m.Secret.Pin,
		)
		uc.recordWebhookResult(m.Kind, "near_miss")
		return nil, fmt.Errorf("no pending instrument %s matching callback: %w", m.ExternalRef, domain.ErrNotFound)
	}

	o := s.Decode(existing)
	applied := &Applied{Instrument: existing, Outcome: o, Replay: true}
	if o.Status() != existing.Status && o.Status() != domain.StatusPending {
		applied.Conflict = true
		slog.Error("refused callback for settled instrument",
			"kind", m.Kind, "ref", m.ExternalRef, "from", existing.Status, "to", o.Status())
	} else {
		slog.Info("duplicate callback acknowledged", "kind", m.Kind, "ref", m.ExternalRef, "status", existing.Status)
	}
	uc.recordWebhook(m.Kind, applied)
	return applied, nil
}

func sameIdentity(in *domain.Instrument, m domain.Match) bool {
	if in.Kind != m.Kind {
		return false
	}
	if m.Kind != domain.KindCard {
		return true
	}
	if in.Secret != m.Secret {
		return false
	}
	return m.CardType == "" || strings.EqualFold(in.CardType, m.CardType)
}

func (uc *DefaultReconcileUsecase) recordWebhook(kind domain.InstrumentKind, a *Applied) {
	switch {
	case a.Conflict:
		uc.recordWebhookResult(kind, "conflict")
	case a.Replay:
		uc.recordWebhookResult(kind, "replay")
	case a.Changed:
		uc.recordWebhookResult(kind, "applied")
	default:
		uc.recordWebhookResult(kind, "pending")
	}
}

func (uc *DefaultReconcileUsecase) recordWebhookResult(kind domain.InstrumentKind, result string) {
	if uc.Metrics != nil {
		uc.Metrics.RecordWebhook(kind, result)
	}
}
