package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	bankdto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/bank"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/reconcile"
)

// GetPaymentInfo returns the provider snapshot and settles a PENDING local row when the
// snapshot is terminal.
func (uc *DefaultBankUsecase) GetPaymentInfo(ctx context.Context, orderCode int64) (*domain.PaymentInfo, error) {
	info, err := uc.Provider.GetPaymentInfo(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	local, err := uc.InstrumentRepo.Get(ctx, domain.ByRef(domain.KindBankOrder, strconv.FormatInt(orderCode, 10)))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("failed to load bank order", "order_code", orderCode, "error", err)
		}
		return info, nil
	}
	if local.Status == domain.StatusPending && info.Outcome != nil {
		raw, _ := json.Marshal(info)
		if _, err := uc.Reconciler.ApplyOutcome(ctx, local, info.Outcome, string(raw), info.Status, "status"); err != nil {
			slog.Error("failed to apply payment info", "order_code", orderCode, "error", err)
		}
	}
	return info, nil
}

func (uc *DefaultBankUsecase) GetOrder(ctx context.Context, orderCode int64) (*bankdto.OrderOutput, error) {
	in, err := uc.InstrumentRepo.Get(ctx, domain.ByRef(domain.KindBankOrder, strconv.FormatInt(orderCode, 10)))
	if err != nil {
		return nil, err
	}

	out := &bankdto.OrderOutput{
		ID:            in.ID,
		OrderCode:     in.ExternalRef,
		Amount:        in.DeclaredAmount,
		PaidAmount:    in.NetAmount,
		Description:   in.Description,
		Status:        in.Status,
		CheckoutURL:   in.CheckoutURL,
		Reference:     in.Reference,
		TransactionAt: in.TransactionAt,
		CreatedAt:     in.CreatedAt,
		UpdatedAt:     in.UpdatedAt,
	}
	out.BankCode = counterBankID(in.RawPayload)
	if out.BankCode != "" && uc.Directory != nil {
		out.BankName = uc.Directory.Name(ctx, out.BankCode)
	}
	return out, nil
}

// HandleWebhook verifies a signed provider notification and applies it. Signature
// failures are returned unwrapped so the caller can reject them.
func (uc *DefaultBankUsecase) HandleWebhook(ctx context.Context, body []byte) (*reconcile.Applied, error) {
	data, err := uc.Provider.VerifyWebhook(body)
	if err != nil {
		slog.Warn("rejected bank webhook", "error", err)
		if uc.Metrics != nil {
			uc.Metrics.RecordWebhook(domain.KindBankOrder, "bad_signature")
		}
		return nil, err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook data: %w", err)
	}
	outcome := data.Outcome
	if outcome == nil {
		outcome = domain.StillPending{Reason: data.Code}
	}

	slog.Info("bank webhook received", "order_code", data.OrderCode, "code", data.Code, "amount", data.Amount)
	return uc.Reconciler.ApplyCallback(ctx, reconcile.Signal{
		Match: domain.Match{
			Kind:        domain.KindBankOrder,
			ExternalRef: strconv.FormatInt(data.OrderCode, 10),
		},
		Decode: func(*domain.Instrument) domain.Outcome { return outcome },
		Raw:    string(raw),
		Code:   data.Code,
	})
}

// counterBankID pulls the payer bank bin out of a stored webhook body or payment snapshot.
func counterBankID(raw string) string {
	if raw == "" {
		return ""
	}
	var payload struct {
		CounterAccountBankID *string `json:"counterAccountBankId"`
		Transactions         []struct {
			CounterAccountBankID *string `json:"counterAccountBankId"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ""
	}
	if payload.CounterAccountBankID != nil {
		return *payload.CounterAccountBankID
	}
	for i := len(payload.Transactions) - 1; i >= 0; i-- {
		if id := payload.Transactions[i].CounterAccountBankID; id != nil && *id != "" {
			return *id
		}
	}
	return ""
}
