package payos

import (
	"strings"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

const (
	WebhookPaid      = "00"
	WebhookPending   = "01"
	WebhookFailed    = "02"
	WebhookCancelled = "03"
)

// WebhookOutcome maps a verified webhook to a ledger outcome.
func WebhookOutcome(d *domain.WebhookData) domain.Outcome {
	switch d.Code {
	case WebhookPaid:
		return domain.BankPaid{Amount: d.Amount, Reference: d.Reference, TransactionAt: d.TransactionDateTime}
	case WebhookPending:
		return domain.StillPending{Reason: d.Desc}
	case WebhookCancelled:
		return domain.BankCancelled{Reason: d.Desc}
	default:
		return domain.BankFailed{Code: d.Code, Reason: d.Desc}
	}
}

// InfoOutcome maps a polled payment-link snapshot. Unknown states stay pending.
func InfoOutcome(info *domain.PaymentInfo) domain.Outcome {
	switch strings.ToUpper(info.Status) {
	case "PAID":
		out := domain.BankPaid{Amount: info.AmountPaid}
		if out.Amount == 0 {
			out.Amount = info.Amount
		}
		if n := len(info.Transactions); n > 0 {
			out.Reference = info.Transactions[n-1].Reference
			out.TransactionAt = info.Transactions[n-1].TransactionDateTime
		}
		return out
	case "CANCELLED", "EXPIRED":
		reason := strings.ToLower(info.Status)
		if info.CancellationReason != nil && *info.CancellationReason != "" {
			reason = *info.CancellationReason
		}
		return domain.BankCancelled{Reason: reason}
	default:
		return domain.StillPending{Reason: info.Status}
	}
}
