package card

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/provider/thesieutoc"
	carddto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/card"
)

// Submit validates the card, hands it to the provider and records it as PENDING.
// The card is blacklisted only after the provider accepted it.
func (uc *DefaultCardUsecase) Submit(ctx context.Context, input *carddto.SubmitCardInput) (*carddto.SubmitCardOutput, error) {
	verr := &domain.ValidationError{}
	cardType, ok := thesieutoc.CanonicalType(input.CardType)
	if !ok {
		verr.Add("kind", fmt.Sprintf("unsupported card type %q", input.CardType))
	}
	if !thesieutoc.ValidAmount(input.Amount) {
		verr.Add("amount", fmt.Sprintf("unsupported face value %d", input.Amount))
	}
	if strings.TrimSpace(input.PayerName) == "" {
		verr.Add("payerName", "required")
	}
	if !verr.Empty() {
		return nil, verr
	}

	secret := domain.SecretFields{
		Serial: strings.TrimSpace(input.Serial),
		Pin:    strings.TrimSpace(input.Pin),
	}
	check, err := uc.Guard.Validate(ctx, cardType, secret, uc.DuplicateWindowHours)
	if err != nil {
		return nil, err
	}
	if err := check.Err(); err != nil {
		slog.Info("card rejected by guard",
			"type", cardType,
			"serial", domain.Mask(secret.Serial),
			"errors", strings.Join(check.Errors, "; "),
		)
		if uc.Metrics != nil {
			uc.Metrics.RecordError(domain.KindCard, "guard")
		}
		return nil, err
	}
	if len(check.Warnings) > 0 {
		slog.Warn("card submitted again within duplicate window",
			"payer", input.PayerName,
			"serial", domain.Mask(secret.Serial),
			"previous_ref", check.DuplicateRef,
		)
	}

	ref := uc.NewRef(uc.now())
	result, err := uc.Provider.Submit(ctx, domain.CardSubmission{
		CardType:    cardType,
		Secret:      secret,
		Amount:      input.Amount,
		ExternalRef: ref,
	})
	if err != nil {
		slog.Warn("card submission refused by provider",
			"ref", ref,
			"type", cardType,
			"serial", domain.Mask(secret.Serial),
			"error", err,
		)
		if uc.Metrics != nil {
			uc.Metrics.RecordError(domain.KindCard, "submit")
		}
		return nil, err
	}

	in := &domain.Instrument{
		Kind:           domain.KindCard,
		ExternalRef:    ref,
		PayerName:      strings.TrimSpace(input.PayerName),
		CardType:       cardType,
		DeclaredAmount: input.Amount,
		Secret:         secret,
		CallbackURL:    input.CallbackURL,
		ClientIP:       input.ClientIP,
		UserAgent:      input.UserAgent,
	}
	if err := uc.InstrumentRepo.Create(ctx, in); err != nil {
		return nil, fmt.Errorf("failed to record card %s: %w", ref, err)
	}

	if err := uc.Queue.EnqueuePendingCheck(ctx, domain.KindCard, ref); err != nil {
		slog.Error("failed to enqueue pending check", "ref", ref, "error", err)
	}
	if err := uc.Guard.Blacklist(ctx, cardType, secret, "submitted"); err != nil {
		slog.Error("failed to blacklist submitted card", "ref", ref, "serial", domain.Mask(secret.Serial), "error", err)
	}
	if uc.Metrics != nil {
		uc.Metrics.RecordCreated(domain.KindCard, cardType, input.Amount)
	}

	slog.Info("card submitted",
		"id", in.ID,
		"ref", ref,
		"payer", in.PayerName,
		"type", cardType,
		"amount", input.Amount,
		"serial", domain.Mask(secret.Serial),
	)

	return &carddto.SubmitCardOutput{
		TransactionRef: ref,
		ProviderCode:   result.Code,
		Message:        result.Message,
		Amount:         result.Amount,
		Warnings:       check.Warnings,
	}, nil
}
