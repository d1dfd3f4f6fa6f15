package mappers

import (
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/models"
)

// ToDomainInstrument reports timestamps in the process time zone. Rows are stored in UTC.
func ToDomainInstrument(model *models.InstrumentModel) *domain.Instrument {
	return &domain.Instrument{
		ID:             model.ID,
		Kind:           model.Kind,
		ExternalRef:    model.ExternalRef,
		PayerName:      model.PayerName,
		CardType:       model.CardType,
		DeclaredAmount: model.DeclaredAmount,
		ActualAmount:   model.ActualAmount,
		NetAmount:      model.NetAmount,
		Secret: domain.SecretFields{
			Serial: model.Serial,
			Pin:    model.Pin,
		},
		Status:        model.Status,
		Description:   model.Description,
		CheckoutURL:   model.CheckoutURL,
		CallbackURL:   model.CallbackURL,
		Reference:     model.Reference,
		TransactionAt: model.TransactionAt,
		RawPayload:    model.RawPayload,
		ClientIP:      model.ClientIP,
		UserAgent:     model.UserAgent,
		CreatedAt:     model.CreatedAt.In(time.Local),
		UpdatedAt:     model.UpdatedAt.In(time.Local),
	}
}

func ToGORMInstrument(in *domain.Instrument) *models.InstrumentModel {
	return &models.InstrumentModel{
		ID:             in.ID,
		Kind:           in.Kind,
		ExternalRef:    in.ExternalRef,
		PayerName:      in.PayerName,
		CardType:       in.CardType,
		DeclaredAmount: in.DeclaredAmount,
		ActualAmount:   in.ActualAmount,
		NetAmount:      in.NetAmount,
		Serial:         in.Secret.Serial,
		Pin:            in.Secret.Pin,
		Status:         in.Status,
		Description:    in.Description,
		CheckoutURL:    in.CheckoutURL,
		CallbackURL:    in.CallbackURL,
		Reference:      in.Reference,
		TransactionAt:  in.TransactionAt,
		RawPayload:     in.RawPayload,
		ClientIP:       in.ClientIP,
		UserAgent:      in.UserAgent,
		CreatedAt:      in.CreatedAt,
		UpdatedAt:      in.UpdatedAt,
	}
}

func ToDomainInstruments(list []models.InstrumentModel) []*domain.Instrument {
	out := make([]*domain.Instrument, len(list))
	for i := range list {
		out[i] = ToDomainInstrument(&list[i])
	}
	return out
}

func ToDomainBlacklist(model *models.BlacklistModel) *domain.BlacklistEntry {
	return &domain.BlacklistEntry{
		Serial:    model.Serial,
		Pin:       model.Pin,
		CardType:  model.CardType,
		Reason:    model.Reason,
		CreatedAt: model.CreatedAt.In(time.Local),
	}
}

func ToDomainStats(row models.KindStatsRow) domain.KindStats {
	return domain.KindStats{
		Kind:          row.Kind,
		Total:         row.Total,
		Success:       row.Success,
		WrongAmount:   row.WrongAmount,
		Failed:        row.Failed,
		Pending:       row.Pending,
		Cancelled:     row.Cancelled,
		SuccessAmount: row.SuccessAmount,
	}
}
