package card

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/provider/thesieutoc"
	carddto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/card"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/reconcile"
)

// Status merges the ledger row with a live provider check. A terminal provider answer
// for a PENDING row is applied on the spot.
func (uc *DefaultCardUsecase) Status(ctx context.Context, ref string) (*carddto.CardStatusOutput, error) {
	out := &carddto.CardStatusOutput{TransactionRef: ref}

	local, err := uc.InstrumentRepo.Get(ctx, domain.ByRef(domain.KindCard, ref))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load card %s: %w", ref, err)
	}

	st, perr := uc.Provider.CheckStatus(ctx, ref)
	if perr != nil {
		if local == nil {
			return nil, perr
		}
		slog.Warn("card status check failed", "ref", ref, "error", perr)
		out.ProviderError = perr.Error()
		out.Local = carddto.NewLocalCard(local)
		return out, nil
	}

	out.ProviderCode = st.Code
	out.ProviderMessage = st.Message
	out.ProviderAmount = st.Amount
	if local == nil {
		return out, nil
	}

	if local.Status == domain.StatusPending && st.Outcome != nil {
		raw, _ := json.Marshal(map[string]interface{}{"status": st.Code, "amount": st.Amount, "msg": st.Message})
		applied, err := uc.Reconciler.ApplyOutcome(ctx, local, st.Outcome, string(raw), st.Code, "status")
		if err != nil {
			slog.Error("failed to apply card status", "ref", ref, "error", err)
		} else {
			local = applied.Instrument
		}
	}
	out.Local = carddto.NewLocalCard(local)
	return out, nil
}

// HandleCallback applies a provider charging result.
func (uc *DefaultCardUsecase) HandleCallback(ctx context.Context, cb thesieutoc.Callback, raw string) (*reconcile.Applied, error) {
	return uc.Reconciler.ApplyCallback(ctx, reconcile.Signal{
		Match:  cb.Match(),
		Decode: func(in *domain.Instrument) domain.Outcome { return cb.Outcome(in.DeclaredAmount) },
		Raw:    raw,
		Code:   cb.Status,
	})
}
