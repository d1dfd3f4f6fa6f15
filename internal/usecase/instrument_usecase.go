package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

const DefaultSearchLimit = 20

type TimelineEntry struct {
	Time    time.Time `json:"time"`
	Event   string    `json:"event"`
	Message string    `json:"message"`
}

type InstrumentLogs struct {
	Instrument *domain.Instrument
	Timeline   []TimelineEntry
}

type InstrumentUsecase interface {
	Lookup(ctx context.Context, ref string) (*domain.Instrument, error)
	Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.Instrument, error)
	History(ctx context.Context, limit int) ([]*domain.Instrument, error)
	Logs(ctx context.Context, id uint64) (*InstrumentLogs, error)
}

type DefaultInstrumentUsecase struct {
	InstrumentRepo domain.InstrumentRepository
}

func NewDefaultInstrumentUsecase(instrumentRepo domain.InstrumentRepository) *DefaultInstrumentUsecase {
	return &DefaultInstrumentUsecase{InstrumentRepo: instrumentRepo}
}

// Lookup finds an instrument by external reference, trying cards before bank orders.
func (uc *DefaultInstrumentUsecase) Lookup(ctx context.Context, ref string) (*domain.Instrument, error) {
	for _, kind := range []domain.InstrumentKind{domain.KindCard, domain.KindBankOrder} {
		in, err := uc.InstrumentRepo.Get(ctx, domain.ByRef(kind, ref))
		if err == nil {
			return in, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("instrument %s: %w", ref, domain.ErrNotFound)
}

func (uc *DefaultInstrumentUsecase) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.Instrument, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultSearchLimit
	}
	filter.Limit = domain.ClampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.InstrumentRepo.Search(ctx, filter)
}

func (uc *DefaultInstrumentUsecase) History(ctx context.Context, limit int) ([]*domain.Instrument, error) {
	return uc.InstrumentRepo.History(ctx, domain.ClampLimit(limit))
}

// Logs returns the instrument with a timeline derived from its stored fields.
func (uc *DefaultInstrumentUsecase) Logs(ctx context.Context, id uint64) (*InstrumentLogs, error) {
	in, err := uc.InstrumentRepo.Get(ctx, domain.ByID(id))
	if err != nil {
		return nil, err
	}
	return &InstrumentLogs{Instrument: in, Timeline: timeline(in)}, nil
}

func timeline(in *domain.Instrument) []TimelineEntry {
	created := fmt.Sprintf("%s created, amount %d", kindLabel(in.Kind), in.DeclaredAmount)
	if in.Kind == domain.KindCard {
		created += fmt.Sprintf(", %s serial %s", in.CardType, domain.Mask(in.Secret.Serial))
	}
	entries := []TimelineEntry{{Time: in.CreatedAt, Event: "CREATED", Message: created}}

	if in.Status == domain.StatusPending {
		return append(entries, TimelineEntry{
			Time:    in.UpdatedAt,
			Event:   "PENDING",
			Message: "awaiting provider result",
		})
	}

	msg := "status changed to " + string(in.Status)
	if in.ActualAmount != nil {
		msg += fmt.Sprintf(", corrected amount %d", *in.ActualAmount)
	}
	if in.NetAmount != nil {
		msg += fmt.Sprintf(", net amount %d", *in.NetAmount)
	}
	if in.Reference != "" {
		msg += ", reference " + in.Reference
	}
	return append(entries, TimelineEntry{Time: in.UpdatedAt, Event: "STATUS_CHANGE", Message: msg})
}

func kindLabel(kind domain.InstrumentKind) string {
	if kind == domain.KindBankOrder {
		return "bank order"
	}
	return "card"
}
