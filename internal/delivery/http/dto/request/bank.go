package request

type CreatePaymentLinkRequest struct {
	OrderCode   int64  `json:"orderCode" validate:"omitempty,gt=0"`
	Amount      int64  `json:"amount" validate:"required,gte=1000"`
	Description string `json:"description" validate:"required,max=25"`
	ReturnURL   string `json:"returnUrl" validate:"required,url"`
	CancelURL   string `json:"cancelUrl" validate:"required,url"`
	BuyerName   string `json:"buyerName" validate:"omitempty,max=100"`
	BuyerEmail  string `json:"buyerEmail" validate:"omitempty,email"`
	BuyerPhone  string `json:"buyerPhone" validate:"omitempty,max=20"`
	CallbackURL string `json:"callbackUrl" validate:"omitempty,url"`
}
