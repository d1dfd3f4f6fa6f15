package thesieutoc

import (
	"strconv"
	"strings"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

// Callback is the provider's charging result notification.
type Callback struct {
	Status        string `json:"status" form:"status" binding:"required"`
	Serial        string `json:"serial" form:"serial" binding:"required"`
	Pin           string `json:"pin" form:"pin" binding:"required"`
	CardType      string `json:"card_type" form:"card_type" binding:"required"`
	Amount        string `json:"amount" form:"amount" binding:"required"`
	ReceiveAmount string `json:"receive_amount" form:"receive_amount"`
	RealAmount    string `json:"real_amount" form:"real_amount" binding:"required"`
	Noidung       string `json:"noidung" form:"noidung"`
	Content       string `json:"content" form:"content" binding:"required"`
}

func (c Callback) Secret() domain.SecretFields {
	return domain.SecretFields{Serial: strings.TrimSpace(c.Serial), Pin: strings.TrimSpace(c.Pin)}
}

func (c Callback) Match() domain.Match {
	return domain.Match{
		Kind:        domain.KindCard,
		ExternalRef: strings.TrimSpace(c.Content),
		CardType:    strings.TrimSpace(c.CardType),
		Secret:      c.Secret(),
	}
}

// Outcome maps the callback status: thanhcong is SUCCESS, saimenhgia is WRONG_AMOUNT
// with the corrected face value, anything else is FAILED.
func (c Callback) Outcome(declared int64) domain.Outcome {
	amount, amountOK := parseAmount(c.Amount)
	var net *int64
	if v, ok := parseAmount(c.RealAmount); ok {
		net = &v
	}

	switch strings.ToLower(strings.TrimSpace(c.Status)) {
	case CallbackSuccess:
		if !amountOK {
			amount = declared
		}
		return domain.CardSuccess{Amount: amount, NetAmount: net}
	case CallbackWrongAmount:
		if !amountOK {
			amount = 0
		}
		return domain.CardWrongAmount{Declared: declared, Actual: amount, NetAmount: net}
	default:
		reason := c.Noidung
		if reason == "" {
			reason = c.Status
		}
		return domain.CardFailed{Reason: reason}
	}
}

func parseAmount(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(v), true
}
