package bankdto

// CreatePaymentLinkInput describes a checkout. A zero OrderCode asks for a generated one.
type CreatePaymentLinkInput struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
	BuyerName   string
	BuyerEmail  string
	BuyerPhone  string
	CallbackURL string
	ClientIP    string
	UserAgent   string
}
