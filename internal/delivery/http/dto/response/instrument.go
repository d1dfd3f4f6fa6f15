package response

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	carddto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/card"
)

// Instrument is the public ledger view. The serial is masked and the pin never leaves the server.
type Instrument struct {
	ID             uint64    `json:"id"`
	Kind           string    `json:"kind"`
	ExternalRef    string    `json:"externalRef"`
	PayerName      string    `json:"payerName,omitempty"`
	CardType       string    `json:"cardType,omitempty"`
	Serial         string    `json:"serial,omitempty"`
	DeclaredAmount int64     `json:"declaredAmount"`
	ActualAmount   *int64    `json:"actualAmount,omitempty"`
	NetAmount      *int64    `json:"netAmount,omitempty"`
	Status         string    `json:"status"`
	Description    string    `json:"description,omitempty"`
	CheckoutURL    string    `json:"checkoutUrl,omitempty"`
	Reference      string    `json:"reference,omitempty"`
	TransactionAt  string    `json:"transactionAt,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func FromInstrument(in *domain.Instrument) Instrument {
	return Instrument{
		ID:             in.ID,
		Kind:           string(in.Kind),
		ExternalRef:    in.ExternalRef,
		PayerName:      in.PayerName,
		CardType:       in.CardType,
		Serial:         domain.Mask(in.Secret.Serial),
		DeclaredAmount: in.DeclaredAmount,
		ActualAmount:   in.ActualAmount,
		NetAmount:      in.NetAmount,
		Status:         string(in.Status),
		Description:    in.Description,
		CheckoutURL:    in.CheckoutURL,
		Reference:      in.Reference,
		TransactionAt:  in.TransactionAt,
		CreatedAt:      in.CreatedAt,
		UpdatedAt:      in.UpdatedAt,
	}
}

func FromInstruments(list []*domain.Instrument) []Instrument {
	out := make([]Instrument, 0, len(list))
	for _, in := range list {
		out = append(out, FromInstrument(in))
	}
	return out
}

type InstrumentList struct {
	Items  []Instrument `json:"items"`
	Count  int          `json:"count"`
	Limit  int          `json:"limit,omitempty"`
	Offset int          `json:"offset,omitempty"`
}

type InstrumentLogs struct {
	Transaction Instrument              `json:"transaction"`
	Logs        []usecase.TimelineEntry `json:"logs"`
}

func fromLocalCard(ref string, lc *carddto.LocalCard) *Instrument {
	if lc == nil {
		return nil
	}
	return &Instrument{
		ID:             lc.ID,
		Kind:           string(domain.KindCard),
		ExternalRef:    ref,
		PayerName:      lc.PayerName,
		CardType:       lc.CardType,
		Serial:         lc.Serial,
		DeclaredAmount: lc.DeclaredAmount,
		ActualAmount:   lc.ActualAmount,
		NetAmount:      lc.NetAmount,
		Status:         string(lc.Status),
		CreatedAt:      lc.CreatedAt,
		UpdatedAt:      lc.UpdatedAt,
	}
}
