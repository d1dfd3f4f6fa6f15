package response

import (
	carddto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/card"
)

type SubmitCardResponse struct {
	TransactionID string   `json:"transaction_id"`
	Amount        int64    `json:"amount,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

type CardStatusResponse struct {
	TransactionID string      `json:"transaction_id"`
	APIStatus     string      `json:"api_status,omitempty"`
	APIMessage    string      `json:"api_message,omitempty"`
	APIAmount     int64       `json:"api_amount,omitempty"`
	APIError      string      `json:"api_error,omitempty"`
	Local         *Instrument `json:"local,omitempty"`
}

func FromCardStatus(out *carddto.CardStatusOutput) CardStatusResponse {
	return CardStatusResponse{
		TransactionID: out.TransactionRef,
		APIStatus:     out.ProviderCode,
		APIMessage:    out.ProviderMessage,
		APIAmount:     out.ProviderAmount,
		APIError:      out.ProviderError,
		Local:         fromLocalCard(out.TransactionRef, out.Local),
	}
}

type CallbackResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Replay        bool   `json:"replay,omitempty"`
}
