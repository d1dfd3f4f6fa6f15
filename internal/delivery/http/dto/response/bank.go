package response

import (
	"time"

	bankdto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/bank"
)

type PaymentLinkResponse struct {
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode,omitempty"`
	PaymentLinkID string `json:"paymentLinkId,omitempty"`
	Status        string `json:"status,omitempty"`
}

func FromPaymentLink(out *bankdto.CreatePaymentLinkOutput) PaymentLinkResponse {
	return PaymentLinkResponse{
		OrderCode:     out.OrderCode,
		Amount:        out.Amount,
		Description:   out.Description,
		CheckoutURL:   out.CheckoutURL,
		QRCode:        out.QRCode,
		PaymentLinkID: out.PaymentLinkID,
		Status:        out.Status,
	}
}

type BankOrderResponse struct {
	ID            uint64    `json:"id"`
	OrderCode     string    `json:"orderCode"`
	Amount        int64     `json:"amount"`
	PaidAmount    *int64    `json:"paidAmount,omitempty"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	CheckoutURL   string    `json:"checkoutUrl,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	TransactionAt string    `json:"transactionDateTime,omitempty"`
	BankCode      string    `json:"bankCode,omitempty"`
	BankName      string    `json:"bankName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func FromBankOrder(out *bankdto.OrderOutput) BankOrderResponse {
	return BankOrderResponse{
		ID:            out.ID,
		OrderCode:     out.OrderCode,
		Amount:        out.Amount,
		PaidAmount:    out.PaidAmount,
		Description:   out.Description,
		Status:        string(out.Status),
		CheckoutURL:   out.CheckoutURL,
		Reference:     out.Reference,
		TransactionAt: out.TransactionAt,
		BankCode:      out.BankCode,
		BankName:      out.BankName,
		CreatedAt:     out.CreatedAt,
		UpdatedAt:     out.UpdatedAt,
	}
}
