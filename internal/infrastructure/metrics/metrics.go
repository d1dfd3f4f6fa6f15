package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GatewayMetrics holds every instrument, provider, queue and scheduler metric.
type GatewayMetrics struct {
	// Submissions
	InstrumentsCreatedTotal       prometheus.CounterVec
	InstrumentsCreatedAmountTotal prometheus.CounterVec

	// Terminal transitions
	InstrumentsSettledTotal       prometheus.CounterVec
	InstrumentsSettledAmountTotal prometheus.CounterVec
	InstrumentProcessingDuration  prometheus.HistogramVec

	// Daily snapshot
	DailyInstruments prometheus.GaugeVec

	// Upstream providers
	ProviderCallDuration prometheus.HistogramVec
	ProviderErrorsTotal  prometheus.CounterVec

	WebhooksTotal        prometheus.CounterVec
	CallbackRetriesTotal prometheus.CounterVec
	QueueDepth           prometheus.GaugeVec

	SchedulerRunsTotal    prometheus.CounterVec
	SchedulerRunDuration  prometheus.HistogramVec
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	InstrumentErrorsTotal prometheus.CounterVec
}

// NewGatewayMetrics registers the metrics with reg, the default registerer when nil.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &GatewayMetrics{
		InstrumentsCreatedTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instruments_created_total",
				Help: "Number of instruments accepted by a provider",
			},
			[]string{"kind", "card_type"},
		),

		InstrumentsCreatedAmountTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instruments_created_amount_total",
				Help: "Declared amount of accepted instruments",
			},
			[]string{"kind"},
		),

		InstrumentsSettledTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instruments_settled_total",
				Help: "Number of instruments that reached a terminal status",
			},
			[]string{"kind", "status", "source"},
		),

		InstrumentsSettledAmountTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instruments_settled_amount_total",
				Help: "Credited amount of SUCCESS and WRONG_AMOUNT instruments",
			},
			[]string{"kind", "status"},
		),

		InstrumentProcessingDuration: *f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "instrument_processing_duration_seconds",
				Help:    "Time from submission to terminal status",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s .. ~2h
			},
			[]string{"kind", "status"},
		),

		DailyInstruments: *f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "instruments_daily",
				Help: "Instruments created on the previous local day by status",
			},
			[]string{"kind", "status"},
		),

		ProviderCallDuration: *f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_call_duration_seconds",
				Help:    "Duration of upstream provider calls",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"provider", "op", "result"},
		),

		ProviderErrorsTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_errors_total",
				Help: "Failed or rejected upstream provider calls",
			},
			[]string{"provider", "op", "code"},
		),

		WebhooksTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhooks_total",
				Help: "Inbound provider callbacks by result",
			},
			[]string{"kind", "result"},
		),

		CallbackRetriesTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "merchant_callback_retries_total",
				Help: "Merchant callback replay attempts by result",
			},
			[]string{"result"},
		),

		QueueDepth: *f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "queue_depth",
				Help: "Jobs waiting per queue",
			},
			[]string{"queue"},
		),

		SchedulerRunsTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_runs_total",
				Help: "Scheduled task runs by result",
			},
			[]string{"task", "result"},
		),

		SchedulerRunDuration: *f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scheduler_run_duration_seconds",
				Help:    "Duration of scheduled task runs",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"task"},
		),

		HTTPRequestsTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: *f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		InstrumentErrorsTotal: *f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "instrument_errors_total",
				Help: "Errors while submitting or reconciling instruments",
			},
			[]string{"kind", "error_type"},
		),
	}
}

func (m *GatewayMetrics) RecordCreated(kind domain.InstrumentKind, cardType string, amount int64) {
	m.InstrumentsCreatedTotal.WithLabelValues(string(kind), cardType).Inc()
	m.InstrumentsCreatedAmountTotal.WithLabelValues(string(kind)).Add(float64(amount))
}

// RecordSettled records a terminal transition. source is callback, poll or expiry.
func (m *GatewayMetrics) RecordSettled(in *domain.Instrument, source string) {
	kind, status := string(in.Kind), string(in.Status)
	m.InstrumentsSettledTotal.WithLabelValues(kind, status, source).Inc()
	if in.Status.Settled() {
		amount := in.DeclaredAmount
		if in.ActualAmount != nil {
			amount = *in.ActualAmount
		}
		m.InstrumentsSettledAmountTotal.WithLabelValues(kind, status).Add(float64(amount))
	}
	if !in.CreatedAt.IsZero() && in.UpdatedAt.After(in.CreatedAt) {
		m.InstrumentProcessingDuration.WithLabelValues(kind, status).Observe(in.UpdatedAt.Sub(in.CreatedAt).Seconds())
	}
}

func (m *GatewayMetrics) RecordDailyStats(stats []domain.KindStats) {
	for _, s := range stats {
		kind := string(s.Kind)
		m.DailyInstruments.WithLabelValues(kind, "total").Set(float64(s.Total))
		m.DailyInstruments.WithLabelValues(kind, string(domain.StatusSuccess)).Set(float64(s.Success))
		m.DailyInstruments.WithLabelValues(kind, string(domain.StatusWrongAmount)).Set(float64(s.WrongAmount))
		m.DailyInstruments.WithLabelValues(kind, string(domain.StatusFailed)).Set(float64(s.Failed))
		m.DailyInstruments.WithLabelValues(kind, string(domain.StatusPending)).Set(float64(s.Pending))
		m.DailyInstruments.WithLabelValues(kind, string(domain.StatusCancelled)).Set(float64(s.Cancelled))
	}
}

// ObserveProviderCall satisfies the provider clients' Observer.
func (m *GatewayMetrics) ObserveProviderCall(provider, op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		code := "transport"
		var up *domain.UpstreamError
		if errors.As(err, &up) && up.Code != "" {
			code = up.Code
		}
		m.ProviderErrorsTotal.WithLabelValues(provider, op, code).Inc()
	}
	m.ProviderCallDuration.WithLabelValues(provider, op, result).Observe(d.Seconds())
}

func (m *GatewayMetrics) RecordWebhook(kind domain.InstrumentKind, result string) {
	m.WebhooksTotal.WithLabelValues(string(kind), result).Inc()
}

func (m *GatewayMetrics) RecordCallbackRetry(result string) {
	m.CallbackRetriesTotal.WithLabelValues(result).Inc()
}

func (m *GatewayMetrics) SetQueueDepth(s domain.QueueStats) {
	m.QueueDepth.WithLabelValues("callback_retry").Set(float64(s.CallbackRetry))
	m.QueueDepth.WithLabelValues("pending_check").Set(float64(s.PendingCheck))
	m.QueueDepth.WithLabelValues("failed").Set(float64(s.Failed))
}

func (m *GatewayMetrics) ObserveTask(task string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SchedulerRunsTotal.WithLabelValues(task, result).Inc()
	m.SchedulerRunDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (m *GatewayMetrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *GatewayMetrics) RecordError(kind domain.InstrumentKind, errorType string) {
	m.InstrumentErrorsTotal.WithLabelValues(string(kind), errorType).Inc()
}
