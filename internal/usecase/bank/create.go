package bank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	bankdto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/bank"
)

// CreatePaymentLink records a PENDING bank order and returns the provider checkout link.
// An order code already in the ledger fails with ErrDuplicateOrder before the provider is called.
func (uc *DefaultBankUsecase) CreatePaymentLink(ctx context.Context, input *bankdto.CreatePaymentLinkInput) (*bankdto.CreatePaymentLinkOutput, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	orderCode := input.OrderCode
	if orderCode == 0 {
		orderCode = uc.NewOrderCode()
	}
	ref := strconv.FormatInt(orderCode, 10)

	_, err := uc.InstrumentRepo.Get(ctx, domain.ByRef(domain.KindBankOrder, ref))
	switch {
	case err == nil:
		return nil, fmt.Errorf("order %s: %w", ref, domain.ErrDuplicateOrder)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to check order code: %w", err)
	}

	link, err := uc.Provider.CreatePaymentLink(ctx, domain.PaymentLinkRequest{
		OrderCode:   orderCode,
		Amount:      input.Amount,
		Description: input.Description,
		ReturnURL:   input.ReturnURL,
		CancelURL:   input.CancelURL,
		BuyerName:   input.BuyerName,
		BuyerEmail:  input.BuyerEmail,
		BuyerPhone:  input.BuyerPhone,
	})
	if err != nil {
		slog.Warn("payment link creation failed", "order_code", orderCode, "error", err)
		if uc.Metrics != nil {
			uc.Metrics.RecordError(domain.KindBankOrder, "create_link")
		}
		return nil, err
	}

	in := &domain.Instrument{
		Kind:           domain.KindBankOrder,
		ExternalRef:    ref,
		PayerName:      input.BuyerName,
		DeclaredAmount: input.Amount,
		Description:    input.Description,
		CheckoutURL:    link.CheckoutURL,
		CallbackURL:    input.CallbackURL,
		ClientIP:       input.ClientIP,
		UserAgent:      input.UserAgent,
	}
	if err := uc.InstrumentRepo.Create(ctx, in); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("order %s: %w", ref, domain.ErrDuplicateOrder)
		}
		return nil, fmt.Errorf("failed to record order %s: %w", ref, err)
	}

	if err := uc.Queue.EnqueuePendingCheck(ctx, domain.KindBankOrder, ref); err != nil {
		slog.Error("failed to enqueue pending check", "ref", ref, "error", err)
	}
	if uc.Metrics != nil {
		uc.Metrics.RecordCreated(domain.KindBankOrder, "", input.Amount)
	}
	slog.Info("payment link created", "id", in.ID, "order_code", orderCode, "amount", input.Amount)

	return &bankdto.CreatePaymentLinkOutput{
		OrderCode:     orderCode,
		Amount:        input.Amount,
		Description:   input.Description,
		CheckoutURL:   link.CheckoutURL,
		QRCode:        link.QRCode,
		PaymentLinkID: link.PaymentLinkID,
		Status:        link.Status,
	}, nil
}

func validateCreate(input *bankdto.CreatePaymentLinkInput) error {
	verr := &domain.ValidationError{}
	if input.OrderCode < 0 || input.OrderCode > MaxOrderCode {
		verr.Add("orderCode", "must be a positive integer within the safe range")
	}
	if input.Amount < MinAmount {
		verr.Add("amount", fmt.Sprintf("must be at least %d", MinAmount))
	}
	desc := strings.TrimSpace(input.Description)
	if desc == "" {
		verr.Add("description", "required")
	} else if utf8.RuneCountInString(desc) > MaxDescriptionLen {
		verr.Add("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLen))
	}
	if !validURL(input.ReturnURL) {
		verr.Add("returnUrl", "must be an absolute http(s) URL")
	}
	if !validURL(input.CancelURL) {
		verr.Add("cancelUrl", "must be an absolute http(s) URL")
	}
	if input.CallbackURL != "" && !validURL(input.CallbackURL) {
		verr.Add("callbackUrl", "must be an absolute http(s) URL")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

func validURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
