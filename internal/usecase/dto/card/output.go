package carddto

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

type SubmitCardOutput struct {
	TransactionRef string
	ProviderCode   string
	Message        string
	Amount         int64
	Warnings       []string
}

// LocalCard is the ledger view of a card. Serial is masked.
type LocalCard struct {
	ID             uint64
	PayerName      string
	CardType       string
	Serial         string
	DeclaredAmount int64
	ActualAmount   *int64
	NetAmount      *int64
	Status         domain.InstrumentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type CardStatusOutput struct {
	TransactionRef  string
	ProviderCode    string
	ProviderMessage string
	ProviderAmount  int64
	ProviderError   string
	Local           *LocalCard
}

func NewLocalCard(in *domain.Instrument) *LocalCard {
	return &LocalCard{
		ID:             in.ID,
		PayerName:      in.PayerName,
		CardType:       in.CardType,
		Serial:         domain.Mask(in.Secret.Serial),
		DeclaredAmount: in.DeclaredAmount,
		ActualAmount:   in.ActualAmount,
		NetAmount:      in.NetAmount,
		Status:         in.Status,
		CreatedAt:      in.CreatedAt,
		UpdatedAt:      in.UpdatedAt,
	}
}
