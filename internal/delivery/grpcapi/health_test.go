package grpcapi

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type stubReporter struct {
	mu     sync.Mutex
	report usecase.HealthReport
}

func (s *stubReporter) Health(context.Context) usecase.HealthReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

func (s *stubReporter) set(r usecase.HealthReport) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

func TestHealthFollowsReport(t *testing.T) {
	ctx := context.Background()
	rep := &stubReporter{}
	h := NewHealthHandler(rep, time.Minute)

	if st, _ := h.Check(ctx, ServiceName); st != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING before first check, got %v", st)
	}

	rep.set(usecase.HealthReport{Status: "ok", Database: true, Queue: domain.QueueStats{Backend: "memory"}})
	if st := h.Refresh(ctx); st != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", st)
	}
	for _, svc := range []string{"", ServiceName} {
		if st, err := h.Check(ctx, svc); err != nil || st != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("service %q: %v %v", svc, st, err)
		}
	}

	rep.set(usecase.HealthReport{Status: "degraded", Queue: domain.QueueStats{Backend: "redis"}})
	h.Refresh(ctx)
	if st, _ := h.Check(ctx, ""); st != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %v", st)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	rep := &stubReporter{report: usecase.HealthReport{Status: "ok", Database: true}}
	h := NewHealthHandler(rep, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if st, _ := h.Check(context.Background(), ""); st != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING after shutdown, got %v", st)
	}
}
