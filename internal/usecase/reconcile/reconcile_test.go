package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/dbtest"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/repository"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/provider/thesieutoc"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/queue"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/reconcile"
	"github.com/prometheus/client_golang/prometheus"
)

type harness struct {
	uc         *reconcile.DefaultReconcileUsecase
	repo       *repository.DefaultInstrumentRepository
	queue      *queue.MemoryQueue
	cards      *fakeCardProvider
	banks      *fakeBankProvider
	successLog *recordingSuccessLog
	publisher  *recordingPublisher
	sender     *fakeSender
	now        time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	q, err := queue.NewMemoryQueue()
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	h := &harness{
		repo:       repository.NewDefaultInstrumentRepository(dbtest.New(t)),
		queue:      q,
		cards:      &fakeCardProvider{statuses: map[string]*domain.CardStatus{}, errs: map[string]error{}},
		banks:      &fakeBankProvider{infos: map[int64]*domain.PaymentInfo{}},
		successLog: &recordingSuccessLog{},
		publisher:  &recordingPublisher{},
		sender:     &fakeSender{},
		now:        time.Now().UTC(),
	}
	h.uc = reconcile.NewDefaultReconcileUsecase(
		h.repo, h.queue, h.cards, h.banks, h.successLog, h.publisher, h.sender,
		metrics.NewGatewayMetrics(prometheus.NewRegistry()),
	).WithClock(func() time.Time { return h.now })
	h.uc.PollDelay = 0
	return h
}

var secret = domain.SecretFields{Serial: "10012345678", Pin: "123456789012"}

func (h *harness) createCard(t *testing.T, ref string, createdAt time.Time) *domain.Instrument {
	t.Helper()
	in := &domain.Instrument{
		Kind:           domain.KindCard,
		ExternalRef:    ref,
		PayerName:      "alice",
		CardType:       "Viettel",
		DeclaredAmount: 50000,
		Secret:         secret,
		CallbackURL:    "http://merchant.test/cb",
		CreatedAt:      createdAt,
	}
	if err := h.repo.Create(context.Background(), in); err != nil {
		t.Fatalf("create card: %v", err)
	}
	return in
}

func (h *harness) createBank(t *testing.T, ref string, createdAt time.Time) *domain.Instrument {
	t.Helper()
	in := &domain.Instrument{
		Kind:           domain.KindBankOrder,
		ExternalRef:    ref,
		DeclaredAmount: 10000,
		Description:    "order",
		CreatedAt:      createdAt,
	}
	if err := h.repo.Create(context.Background(), in); err != nil {
		t.Fatalf("create bank: %v", err)
	}
	return in
}

func cardSignal(cb thesieutoc.Callback) reconcile.Signal {
	return reconcile.Signal{
		Match:  cb.Match(),
		Decode: func(in *domain.Instrument) domain.Outcome { return cb.Outcome(in.DeclaredAmount) },
		Raw:    `{"status":"` + cb.Status + `"}`,
		Code:   cb.Status,
	}
}

func callback(status, ref, pin, amount string) thesieutoc.Callback {
	return thesieutoc.Callback{
		Status:     status,
		Serial:     secret.Serial,
		Pin:        pin,
		CardType:   "Viettel",
		Amount:     amount,
		RealAmount: "42000",
		Content:    ref,
	}
}

func TestCallbackSettlesOnceAndAcksReplay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createCard(t, "TXN1", time.Time{})
	if err := h.queue.EnqueuePendingCheck(ctx, domain.KindCard, "TXN1"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	sig := cardSignal(callback("thanhcong", "TXN1", secret.Pin, "50000"))

	first, err := h.uc.ApplyCallback(ctx, sig)
	if err != nil {
		t.Fatalf("first callback: %v", err)
	}
	if !first.Changed || first.Replay {
		t.Fatalf("expected change, got %+v", first)
	}
	if first.Instrument.Status != domain.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", first.Instrument.Status)
	}
	if first.Instrument.NetAmount == nil || *first.Instrument.NetAmount != 42000 {
		t.Fatalf("expected net amount 42000, got %v", first.Instrument.NetAmount)
	}

	second, err := h.uc.ApplyCallback(ctx, sig)
	if err != nil {
		t.Fatalf("second callback: %v", err)
	}
	if second.Changed || !second.Replay || second.Conflict {
		t.Fatalf("expected plain replay, got %+v", second)
	}

	if len(h.successLog.entries) != 1 {
		t.Fatalf("expected one success log entry, got %d", len(h.successLog.entries))
	}
	if len(h.publisher.events) != 1 || h.publisher.events[0].To != domain.StatusSuccess {
		t.Fatalf("expected one SUCCESS event, got %+v", h.publisher.events)
	}
	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one merchant callback, got %d", len(h.sender.sent))
	}
	checks, _ := h.queue.ListPendingChecks(ctx)
	if len(checks) != 0 {
		t.Fatalf("expected pending check removed, got %+v", checks)
	}
}

func TestCallbackRacingPollSettlesOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	in := h.createCard(t, "TXN-RACE", time.Time{})
	if err := h.queue.EnqueuePendingCheck(ctx, domain.KindCard, "TXN-RACE"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	sig := cardSignal(callback("thanhcong", "TXN-RACE", secret.Pin, "50000"))

	const rounds = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
		errs    []error
	)
	record := func(a *reconcile.Applied, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
			return
		}
		if a.Changed {
			changed++
		}
	}
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			record(h.uc.ApplyCallback(ctx, sig))
		}()
		go func() {
			defer wg.Done()
			record(h.uc.ApplyOutcome(ctx, in, domain.CardSuccess{Amount: 50000}, "{}", "00", "poll"))
		}()
	}
	wg.Wait()

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if changed != 1 {
		t.Fatalf("expected exactly one settling signal, got %d", changed)
	}
	if len(h.successLog.entries) != 1 {
		t.Fatalf("expected one success log entry, got %d", len(h.successLog.entries))
	}
	if len(h.publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(h.publisher.events))
	}
	if len(h.sender.sent) != 1 {
		t.Fatalf("expected one merchant callback, got %d", len(h.sender.sent))
	}
	checks, _ := h.queue.ListPendingChecks(ctx)
	if len(checks) != 0 {
		t.Fatalf("expected pending check removed, got %+v", checks)
	}
}

func TestCallbackIdentityMismatchIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createCard(t, "TXN1", time.Time{})

	_, err := h.uc.ApplyCallback(ctx, cardSignal(callback("thanhcong", "TXN1", "999999999999", "50000")))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	cb := callback("thanhcong", "TXN1", secret.Pin, "50000")
	cb.CardType = "Mobifone"
	if _, err := h.uc.ApplyCallback(ctx, cardSignal(cb)); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for card type mismatch, got %v", err)
	}

	if _, err := h.uc.ApplyCallback(ctx, cardSignal(callback("thanhcong", "NOPE", secret.Pin, "50000"))); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown ref, got %v", err)
	}

	got, err := h.repo.Get(ctx, domain.ByRef(domain.KindCard, "TXN1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("expected row untouched, got %s", got.Status)
	}
}

func TestCallbackConflictKeepsTerminalStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createCard(t, "TXN1", time.Time{})

	if _, err := h.uc.ApplyCallback(ctx, cardSignal(callback("thanhcong", "TXN1", secret.Pin, "50000"))); err != nil {
		t.Fatalf("callback: %v", err)
	}
	res, err := h.uc.ApplyCallback(ctx, cardSignal(callback("thatbai", "TXN1", secret.Pin, "50000")))
	if err != nil {
		t.Fatalf("conflicting callback: %v", err)
	}
	if !res.Replay || !res.Conflict || res.Instrument.Status != domain.StatusSuccess {
		t.Fatalf("expected acknowledged conflict on SUCCESS, got %+v", res)
	}
}

func TestCallbackWrongAmountCorrectsAmount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createCard(t, "TXN1", time.Time{})

	res, err := h.uc.ApplyCallback(ctx, cardSignal(callback("saimenhgia", "TXN1", secret.Pin, "20000")))
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	in := res.Instrument
	if in.Status != domain.StatusWrongAmount {
		t.Fatalf("expected WRONG_AMOUNT, got %s", in.Status)
	}
	if in.ActualAmount == nil || *in.ActualAmount != 20000 || in.DeclaredAmount != 50000 {
		t.Fatalf("unexpected amounts declared=%d actual=%v", in.DeclaredAmount, in.ActualAmount)
	}
	if len(h.successLog.entries) != 1 {
		t.Fatalf("wrong amount is settled and must be logged")
	}
}

func TestMerchantCallbackFailureQueuesRetry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.sender.err = errors.New("connection refused")
	h.createCard(t, "TXN1", time.Time{})

	if _, err := h.uc.ApplyCallback(ctx, cardSignal(callback("thanhcong", "TXN1", secret.Pin, "50000"))); err != nil {
		t.Fatalf("callback: %v", err)
	}
	stats, err := h.queue.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.CallbackRetry != 1 {
		t.Fatalf("expected one queued retry, got %+v", stats)
	}
}

func TestPollPendingWindowAndErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.createCard(t, "TXN_OLD", h.now.Add(-25*time.Hour))
	h.createCard(t, "TXN_ERR", h.now.Add(-time.Hour))
	h.createCard(t, "TXN_OK", h.now.Add(-time.Hour))
	h.createBank(t, "1700000000001", h.now.Add(-30*time.Minute))

	h.cards.errs["TXN_ERR"] = &domain.UpstreamError{Provider: "thesieutoc", Op: "check", Message: "timeout"}
	h.cards.statuses["TXN_OK"] = &domain.CardStatus{Code: "00", Amount: 50000, Outcome: domain.CardSuccess{Amount: 50000}}
	h.banks.infos[1700000000001] = &domain.PaymentInfo{
		OrderCode:  1700000000001,
		Amount:     10000,
		AmountPaid: 10000,
		Status:     "PAID",
		Outcome:    domain.BankPaid{Amount: 10000, Reference: "FT123"},
	}

	report, err := h.uc.PollPending(ctx)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if report.Checked != 3 || report.Settled != 2 || report.Errors != 1 || report.StillPending != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	for _, ref := range h.cards.checked {
		if ref == "TXN_OLD" {
			t.Fatalf("instrument older than the poll window was polled")
		}
	}

	old, _ := h.repo.Get(ctx, domain.ByRef(domain.KindCard, "TXN_OLD"))
	if old.Status != domain.StatusPending {
		t.Fatalf("old row must stay PENDING, got %s", old.Status)
	}
	failed, _ := h.repo.Get(ctx, domain.ByRef(domain.KindCard, "TXN_ERR"))
	if failed.Status != domain.StatusPending {
		t.Fatalf("errored row must stay PENDING, got %s", failed.Status)
	}
	bank, _ := h.repo.Get(ctx, domain.ByRef(domain.KindBankOrder, "1700000000001"))
	if bank.Status != domain.StatusSuccess || bank.Reference != "FT123" {
		t.Fatalf("expected paid bank order, got %+v", bank)
	}
}

func TestExpireBankOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.createBank(t, "1700000000001", h.now.Add(-61*time.Minute))
	h.createBank(t, "1700000000002", h.now.Add(-10*time.Minute))
	h.createCard(t, "TXN1", h.now.Add(-2*time.Hour))

	n, err := h.uc.ExpireBankOrders(ctx)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one expired order, got %d", n)
	}

	expired, _ := h.repo.Get(ctx, domain.ByRef(domain.KindBankOrder, "1700000000001"))
	if expired.Status != domain.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", expired.Status)
	}
	fresh, _ := h.repo.Get(ctx, domain.ByRef(domain.KindBankOrder, "1700000000002"))
	card, _ := h.repo.Get(ctx, domain.ByRef(domain.KindCard, "TXN1"))
	if fresh.Status != domain.StatusPending || card.Status != domain.StatusPending {
		t.Fatalf("only stale bank orders expire, got %s and %s", fresh.Status, card.Status)
	}
	if len(h.successLog.entries) != 0 {
		t.Fatalf("cancelled orders are not success-logged")
	}
}

func TestSyncPendingChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.createCard(t, "TXN1", time.Time{})
	h.createBank(t, "1700000000001", time.Time{})
	if err := h.queue.EnqueuePendingCheck(ctx, domain.KindCard, "GONE"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	added, removed, err := h.uc.SyncPendingChecks(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if added != 2 || removed != 1 {
		t.Fatalf("expected 2 added and 1 removed, got %d and %d", added, removed)
	}
	checks, _ := h.queue.ListPendingChecks(ctx)
	if len(checks) != 2 {
		t.Fatalf("expected two checks, got %+v", checks)
	}
}
