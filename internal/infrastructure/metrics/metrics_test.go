package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSettled(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())

	actual := int64(20000)
	created := time.Now().Add(-time.Minute)
	m.RecordSettled(&domain.Instrument{
		Kind:           domain.KindCard,
		Status:         domain.StatusWrongAmount,
		DeclaredAmount: 50000,
		ActualAmount:   &actual,
		CreatedAt:      created,
		UpdatedAt:      created.Add(30 * time.Second),
	}, "callback")
	m.RecordSettled(&domain.Instrument{Kind: domain.KindCard, Status: domain.StatusFailed, DeclaredAmount: 10000}, "poll")

	if got := testutil.ToFloat64(m.InstrumentsSettledAmountTotal.WithLabelValues("CARD", "WRONG_AMOUNT")); got != 20000 {
		t.Fatalf("settled amount = %v, want corrected amount", got)
	}
	if got := testutil.ToFloat64(m.InstrumentsSettledTotal.WithLabelValues("CARD", "FAILED", "poll")); got != 1 {
		t.Fatalf("failed count = %v", got)
	}
}

func TestObserveProviderCall(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())

	m.ObserveProviderCall("thesieutoc", "submit", time.Millisecond, nil)
	m.ObserveProviderCall("thesieutoc", "submit", time.Millisecond, &domain.UpstreamError{Provider: "thesieutoc", Code: "2"})
	m.ObserveProviderCall("payos", "get_info", time.Millisecond, errors.New("timeout"))

	if got := testutil.ToFloat64(m.ProviderErrorsTotal.WithLabelValues("thesieutoc", "submit", "2")); got != 1 {
		t.Fatalf("coded errors = %v", got)
	}
	if got := testutil.ToFloat64(m.ProviderErrorsTotal.WithLabelValues("payos", "get_info", "transport")); got != 1 {
		t.Fatalf("transport errors = %v", got)
	}
}

func TestQueueDepthAndDailyStats(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())

	m.SetQueueDepth(domain.QueueStats{CallbackRetry: 3, PendingCheck: 7, Failed: 1})
	if got := testutil.ToFloat64(m.QueueDepth.WithLabelValues("pending_check")); got != 7 {
		t.Fatalf("pending depth = %v", got)
	}

	m.RecordDailyStats([]domain.KindStats{{Kind: domain.KindBankOrder, Total: 4, Success: 3, Pending: 1}})
	if got := testutil.ToFloat64(m.DailyInstruments.WithLabelValues("BANK_ORDER", "SUCCESS")); got != 3 {
		t.Fatalf("daily success = %v", got)
	}
}
