package carddto

type SubmitCardInput struct {
	PayerName   string
	CardType    string
	Amount      int64
	Serial      string
	Pin         string
	CallbackURL string
	ClientIP    string
	UserAgent   string
}
