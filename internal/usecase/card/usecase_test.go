package card_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/dbtest"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/repository"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/provider/thesieutoc"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/queue"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/card"
	carddto "github.com/LavaJover/shvark-payment-gateway/internal/usecase/dto/card"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase/reconcile"
)

// provider stands in for the charging API.
type provider struct {
	mu           sync.Mutex
	submitStatus string
	checkBody    string
	submits      int
}

func (p *provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch r.URL.Path {
	case "/chargingws/v2":
		p.submits++
		w.Write([]byte(`{"status":"` + p.submitStatus + `","msg":"","title":"t"}`))
	case "/chargingws/status_card":
		w.Write([]byte(p.checkBody))
	default:
		http.NotFound(w, r)
	}
}

func (p *provider) submitCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submits
}

func (p *provider) setSubmitStatus(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitStatus = status
}

type successLog struct {
	mu   sync.Mutex
	refs []string
}

func (s *successLog) Append(in *domain.Instrument, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, in.ExternalRef)
	return nil
}

type env struct {
	uc         *card.DefaultCardUsecase
	repo       *repository.DefaultInstrumentRepository
	blacklist  *repository.DefaultBlacklistRepository
	queue      *queue.MemoryQueue
	provider   *provider
	successLog *successLog
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	p := &provider{submitStatus: "00", checkBody: `{"status":"-9","msg":""}`}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)

	q, err := queue.NewMemoryQueue()
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	e := &env{
		repo:       repository.NewDefaultInstrumentRepository(db),
		blacklist:  repository.NewDefaultBlacklistRepository(db),
		queue:      q,
		provider:   p,
		successLog: &successLog{},
	}
	client := thesieutoc.NewClient(srv.URL, "key", time.Second, nil)
	guard := usecase.NewDefaultGuardUsecase(e.repo, e.blacklist, thesieutoc.Format)
	reconciler := reconcile.NewDefaultReconcileUsecase(e.repo, q, client, nil, e.successLog, nil, nil, nil)
	e.uc = card.NewDefaultCardUsecase(e.repo, guard, client, q, reconciler, nil, 24)

	n := 0
	e.uc.NewRef = func(time.Time) string {
		n++
		return []string{"REF1", "REF2", "REF3"}[n-1]
	}
	return e
}

func submitInput() *carddto.SubmitCardInput {
	return &carddto.SubmitCardInput{
		PayerName: "alice",
		CardType:  "viettel",
		Amount:    50000,
		Serial:    "12345678901",
		Pin:       "123456789012",
	}
}

func TestSubmitThenCallback(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	out, err := e.uc.Submit(ctx, submitInput())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.TransactionRef != "REF1" {
		t.Fatalf("unexpected ref %q", out.TransactionRef)
	}

	in, err := e.repo.Get(ctx, domain.ByRef(domain.KindCard, "REF1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if in.Status != domain.StatusPending || in.CardType != "Viettel" || in.DeclaredAmount != 50000 {
		t.Fatalf("unexpected row %+v", in)
	}
	checks, _ := e.queue.ListPendingChecks(ctx)
	if len(checks) != 1 || checks[0].ExternalRef != "REF1" {
		t.Fatalf("expected pending check for REF1, got %+v", checks)
	}
	entry, err := e.blacklist.Find(ctx, domain.SecretFields{Serial: "12345678901", Pin: "123456789012"})
	if err != nil || entry == nil {
		t.Fatalf("expected blacklist entry, got %v %v", entry, err)
	}

	applied, err := e.uc.HandleCallback(ctx, thesieutoc.Callback{
		Status:     "thanhcong",
		Serial:     "12345678901",
		Pin:        "123456789012",
		CardType:   "Viettel",
		Amount:     "50000",
		RealAmount: "44000",
		Content:    "REF1",
	}, `{"status":"thanhcong"}`)
	if err != nil {
		t.Fatalf("callback: %v", err)
	}
	if applied.Instrument.Status != domain.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", applied.Instrument.Status)
	}
	if applied.Instrument.NetAmount == nil || *applied.Instrument.NetAmount != 44000 {
		t.Fatalf("expected net 44000, got %v", applied.Instrument.NetAmount)
	}
	checks, _ = e.queue.ListPendingChecks(ctx)
	if len(checks) != 0 {
		t.Fatalf("expected pending check removed, got %+v", checks)
	}
	if len(e.successLog.refs) != 1 || e.successLog.refs[0] != "REF1" {
		t.Fatalf("expected success log line, got %v", e.successLog.refs)
	}
}

func TestSubmitSameCardTwiceIsBlacklisted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.uc.Submit(ctx, submitInput()); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := e.uc.Submit(ctx, submitInput())
	if !errors.Is(err, domain.ErrBlacklisted) {
		t.Fatalf("expected ErrBlacklisted, got %v", err)
	}
	if n := e.provider.submitCount(); n != 1 {
		t.Fatalf("blacklisted card must not reach the provider, got %d submits", n)
	}

	// after removal the prior attempt is only a warning
	if err := e.blacklist.Remove(ctx, domain.SecretFields{Serial: "12345678901", Pin: "123456789012"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	out, err := e.uc.Submit(ctx, submitInput())
	if err != nil {
		t.Fatalf("third submit: %v", err)
	}
	if len(out.Warnings) != 1 {
		t.Fatalf("expected duplicate warning, got %v", out.Warnings)
	}
}

func TestSubmitRejectedByProvider(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.provider.setSubmitStatus(thesieutoc.SubmitCardUsed)

	_, err := e.uc.Submit(ctx, submitInput())
	var up *domain.UpstreamError
	if !errors.As(err, &up) || up.Message != thesieutoc.SubmitMessage(thesieutoc.SubmitCardUsed) {
		t.Fatalf("expected provider message, got %v", err)
	}
	if _, err := e.repo.Get(ctx, domain.ByRef(domain.KindCard, "REF1")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("rejected card must not be recorded, got %v", err)
	}
	entry, _ := e.blacklist.Find(ctx, domain.SecretFields{Serial: "12345678901", Pin: "123456789012"})
	if entry != nil {
		t.Fatalf("rejected card must not be blacklisted")
	}
}

func TestSubmitValidation(t *testing.T) {
	e := newEnv(t)
	in := submitInput()
	in.CardType = "Nokia"
	in.Amount = 12345

	_, err := e.uc.Submit(context.Background(), in)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["kind"]; !ok {
		t.Fatalf("expected kind error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["amount"]; !ok {
		t.Fatalf("expected amount error, got %v", verr.Fields)
	}
	if e.provider.submitCount() != 0 {
		t.Fatalf("invalid input must not reach the provider")
	}
}

func TestStatusAppliesProviderResult(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.uc.Submit(ctx, submitInput()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	out, err := e.uc.Status(ctx, "REF1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if out.ProviderCode != "-9" || out.Local == nil || out.Local.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %+v", out)
	}

	e.provider.mu.Lock()
	e.provider.checkBody = `{"status":"99","amount":"20000","msg":"wrong value"}`
	e.provider.mu.Unlock()

	out, err = e.uc.Status(ctx, "REF1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if out.Local.Status != domain.StatusWrongAmount {
		t.Fatalf("expected WRONG_AMOUNT, got %s", out.Local.Status)
	}
	if out.Local.ActualAmount == nil || *out.Local.ActualAmount != 20000 {
		t.Fatalf("expected corrected amount 20000, got %v", out.Local.ActualAmount)
	}
	if out.Local.Serial != "1234*******" {
		t.Fatalf("expected masked serial, got %q", out.Local.Serial)
	}
}
