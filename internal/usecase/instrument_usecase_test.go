package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/dbtest"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/repository"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
)

func TestInstrumentLookupAcrossKinds(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDefaultInstrumentRepository(dbtest.New(t))
	uc := usecase.NewDefaultInstrumentUsecase(repo)

	card := &domain.Instrument{Kind: domain.KindCard, ExternalRef: "abc", CardType: "Viettel", DeclaredAmount: 10000, Secret: viettel}
	order := &domain.Instrument{Kind: domain.KindBankOrder, ExternalRef: "1700000000001", DeclaredAmount: 20000}
	for _, in := range []*domain.Instrument{card, order} {
		if err := repo.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := uc.Lookup(ctx, "1700000000001")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Kind != domain.KindBankOrder {
		t.Fatalf("expected bank order, got %s", got.Kind)
	}
	if got, err = uc.Lookup(ctx, "abc"); err != nil || got.Kind != domain.KindCard {
		t.Fatalf("expected card, got %v %v", got, err)
	}
	if _, err := uc.Lookup(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInstrumentHistoryClamp(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDefaultInstrumentRepository(dbtest.New(t))
	uc := usecase.NewDefaultInstrumentUsecase(repo)

	for i := 0; i < 105; i++ {
		in := &domain.Instrument{Kind: domain.KindBankOrder, ExternalRef: fmt.Sprintf("%d", 1000+i), DeclaredAmount: 1000}
		if err := repo.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 1000, want: domain.MaxHistoryLimit},
		{limit: 0, want: domain.DefaultHistoryLimit},
		{limit: -5, want: domain.DefaultHistoryLimit},
		{limit: 3, want: 3},
	}
	for _, tt := range tests {
		list, err := uc.History(ctx, tt.limit)
		if err != nil {
			t.Fatalf("history(%d): %v", tt.limit, err)
		}
		if len(list) != tt.want {
			t.Errorf("history(%d) returned %d rows, want %d", tt.limit, len(list), tt.want)
		}
	}
}

func TestInstrumentLogsTimeline(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDefaultInstrumentRepository(dbtest.New(t))
	uc := usecase.NewDefaultInstrumentUsecase(repo)

	in := &domain.Instrument{Kind: domain.KindCard, ExternalRef: "abc", CardType: "Viettel", DeclaredAmount: 50000, Secret: viettel}
	if err := repo.Create(ctx, in); err != nil {
		t.Fatalf("create: %v", err)
	}
	actual := int64(20000)
	if _, err := repo.Transition(ctx, domain.ByID(in.ID), domain.Transition{To: domain.StatusWrongAmount, CorrectedAmount: &actual}); err != nil {
		t.Fatalf("transition: %v", err)
	}

	logs, err := uc.Logs(ctx, in.ID)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs.Timeline) != 2 || logs.Timeline[0].Event != "CREATED" || logs.Timeline[1].Event != "STATUS_CHANGE" {
		t.Fatalf("unexpected timeline %+v", logs.Timeline)
	}
	want := "status changed to WRONG_AMOUNT, corrected amount 20000"
	if logs.Timeline[1].Message != want {
		t.Fatalf("got %q, want %q", logs.Timeline[1].Message, want)
	}
	if _, err := uc.Logs(ctx, 9999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
