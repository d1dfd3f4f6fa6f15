package request

type SubmitCardRequest struct {
	Username    string `json:"username" validate:"required,max=100,alphanumspace"`
	CardType    string `json:"card_type" validate:"required"`
	CardAmount  int64  `json:"card_amount" validate:"required,gt=0"`
	Serial      string `json:"serial" validate:"required"`
	Pin         string `json:"pin" validate:"required"`
	CallbackURL string `json:"callback_url" validate:"omitempty,url"`
}

type CheckCardStatusRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}
