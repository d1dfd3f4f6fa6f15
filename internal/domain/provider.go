package domain

import (
	"context"
	"encoding/json"
	"regexp"
)

// CardFormat is the serial and pin pattern pair for one card type.
type CardFormat struct {
	Serial *regexp.Regexp
	Pin    *regexp.Regexp
}

type CardSubmission struct {
	CardType    string
	Secret      SecretFields
	Amount      int64
	ExternalRef string
}

type CardSubmitResult struct {
	Code          string
	Title         string
	Message       string
	TransactionID string
	Amount        int64
}

type CardStatus struct {
	Code    string
	Message string
	Amount  int64
	Outcome Outcome
}

type CardProvider interface {
	Submit(ctx context.Context, s CardSubmission) (*CardSubmitResult, error)
	CheckStatus(ctx context.Context, ref string) (*CardStatus, error)
	Discount(ctx context.Context, account string) (json.RawMessage, error)
}

type PaymentLinkRequest struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
	BuyerName   string
	BuyerEmail  string
	BuyerPhone  string
}

type PaymentLink struct {
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	CheckoutURL   string `json:"checkoutUrl"`
	QRCode        string `json:"qrCode"`
	PaymentLinkID string `json:"paymentLinkId"`
	Status        string `json:"status"`
}

type PaymentTransaction struct {
	Reference              string  `json:"reference"`
	Amount                 int64   `json:"amount"`
	AccountNumber          string  `json:"accountNumber"`
	Description            string  `json:"description"`
	TransactionDateTime    string  `json:"transactionDateTime"`
	CounterAccountBankID   *string `json:"counterAccountBankId"`
	CounterAccountBankName *string `json:"counterAccountBankName"`
	CounterAccountName     *string `json:"counterAccountName"`
	CounterAccountNumber   *string `json:"counterAccountNumber"`
}

type PaymentInfo struct {
	ID                 string               `json:"id"`
	OrderCode          int64                `json:"orderCode"`
	Amount             int64                `json:"amount"`
	AmountPaid         int64                `json:"amountPaid"`
	AmountRemaining    int64                `json:"amountRemaining"`
	Status             string               `json:"status"`
	CreatedAt          string               `json:"createdAt"`
	CanceledAt         *string              `json:"canceledAt"`
	CancellationReason *string              `json:"cancellationReason"`
	Transactions       []PaymentTransaction `json:"transactions"`

	// Outcome is the snapshot decoded by the provider client.
	Outcome Outcome `json:"-"`
}

// WebhookData is the verified body of a bank provider webhook.
type WebhookData struct {
	OrderCode              int64   `json:"orderCode"`
	Amount                 int64   `json:"amount"`
	Description            string  `json:"description"`
	AccountNumber          string  `json:"accountNumber"`
	Reference              string  `json:"reference"`
	TransactionDateTime    string  `json:"transactionDateTime"`
	Currency               string  `json:"currency"`
	PaymentLinkID          string  `json:"paymentLinkId"`
	Code                   string  `json:"code"`
	Desc                   string  `json:"desc"`
	CounterAccountBankID   *string `json:"counterAccountBankId"`
	CounterAccountBankName *string `json:"counterAccountBankName"`
	CounterAccountName     *string `json:"counterAccountName"`
	CounterAccountNumber   *string `json:"counterAccountNumber"`
	VirtualAccountName     *string `json:"virtualAccountName"`
	VirtualAccountNumber   *string `json:"virtualAccountNumber"`

	Outcome Outcome `json:"-"`
}

type BankProvider interface {
	CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error)
	GetPaymentInfo(ctx context.Context, orderCode int64) (*PaymentInfo, error)
	CancelPaymentLink(ctx context.Context, orderCode int64, reason string) (*PaymentInfo, error)
	VerifyWebhook(body []byte) (*WebhookData, error)
}

// BankDirectory resolves a bank bin to a display name. Lookups never fail, they fall back to the code.
type BankDirectory interface {
	Name(ctx context.Context, bin string) string
}
