package notifier

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

// CallbackPayload is the merchant notification for a settled instrument.
type CallbackPayload struct {
	InstrumentID   uint64    `json:"instrument_id"`
	Kind           string    `json:"kind"`
	ExternalRef    string    `json:"external_ref"`
	Status         string    `json:"status"`
	DeclaredAmount int64     `json:"declared_amount"`
	ActualAmount   *int64    `json:"actual_amount,omitempty"`
	NetAmount      *int64    `json:"net_amount,omitempty"`
	CardType       string    `json:"card_type,omitempty"`
	Serial         string    `json:"serial,omitempty"`
	Reference      string    `json:"reference,omitempty"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

// NewCallbackPayload builds the payload. The serial is masked.
func NewCallbackPayload(in *domain.Instrument) CallbackPayload {
	return CallbackPayload{
		InstrumentID:   in.ID,
		Kind:           string(in.Kind),
		ExternalRef:    in.ExternalRef,
		Status:         string(in.Status),
		DeclaredAmount: in.DeclaredAmount,
		ActualAmount:   in.ActualAmount,
		NetAmount:      in.NetAmount,
		CardType:       in.CardType,
		Serial:         domain.Mask(in.Secret.Serial),
		Reference:      in.Reference,
		ConfirmedAt:    in.UpdatedAt,
	}
}
