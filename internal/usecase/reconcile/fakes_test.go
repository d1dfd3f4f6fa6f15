package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
)

type fakeCardProvider struct {
	mu       sync.Mutex
	statuses map[string]*domain.CardStatus
	errs     map[string]error
	checked  []string
}

func (f *fakeCardProvider) Submit(context.Context, domain.CardSubmission) (*domain.CardSubmitResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCardProvider) CheckStatus(_ context.Context, ref string) (*domain.CardStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, ref)
	if err := f.errs[ref]; err != nil {
		return nil, err
	}
	if st, ok := f.statuses[ref]; ok {
		return st, nil
	}
	return &domain.CardStatus{Code: "99", Outcome: domain.StillPending{Reason: "99"}}, nil
}

func (f *fakeCardProvider) Discount(context.Context, string) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

type fakeBankProvider struct {
	infos map[int64]*domain.PaymentInfo
}

func (f *fakeBankProvider) CreatePaymentLink(context.Context, domain.PaymentLinkRequest) (*domain.PaymentLink, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBankProvider) GetPaymentInfo(_ context.Context, orderCode int64) (*domain.PaymentInfo, error) {
	if info, ok := f.infos[orderCode]; ok {
		return info, nil
	}
	return &domain.PaymentInfo{OrderCode: orderCode, Status: "PENDING", Outcome: domain.StillPending{Reason: "PENDING"}}, nil
}

func (f *fakeBankProvider) CancelPaymentLink(context.Context, int64, string) (*domain.PaymentInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBankProvider) VerifyWebhook([]byte) (*domain.WebhookData, error) {
	return nil, domain.ErrSignature
}

type recordingSuccessLog struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingSuccessLog) Append(in *domain.Instrument, callbackStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, in.ExternalRef)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.InstrumentEvent
}

func (r *recordingPublisher) PublishInstrumentEvent(_ context.Context, e domain.InstrumentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (f *fakeSender) Send(_ context.Context, url string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, url)
	return f.err
}
