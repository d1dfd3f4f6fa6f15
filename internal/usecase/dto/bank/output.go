package bankdto

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

type CreatePaymentLinkOutput struct {
	OrderCode     int64
	Amount        int64
	Description   string
	CheckoutURL   string
	QRCode        string
	PaymentLinkID string
	Status        string
}

type OrderOutput struct {
	ID            uint64
	OrderCode     string
	Amount        int64
	PaidAmount    *int64
	Description   string
	Status        domain.InstrumentStatus
	CheckoutURL   string
	Reference     string
	TransactionAt string
	BankCode      string
	BankName      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
