package grpcapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/usecase"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ServiceName = "payment-gateway"

type HealthReporter interface {
	Health(ctx context.Context) usecase.HealthReport
}

// HealthHandler mirrors store and queue readiness into the standard gRPC health service.
type HealthHandler struct {
	server   *health.Server
	reporter HealthReporter
	interval time.Duration
}

func NewHealthHandler(reporter HealthReporter, interval time.Duration) *HealthHandler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	h := &HealthHandler{
		server:   health.NewServer(),
		reporter: reporter,
		interval: interval,
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Refresh runs one health check and publishes the result.
func (h *HealthHandler) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	report := h.reporter.Health(ctx)
	status := healthpb.HealthCheckResponse_SERVING
	if !report.Healthy() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		slog.Warn("gateway not ready", "database", report.Database, "queue_backend", report.Queue.Backend, "queue_connected", report.Queue.BackendConnected)
	}
	h.set(status)
	return status
}

// Run refreshes on every interval until ctx is done, then marks the service as shutting down.
func (h *HealthHandler) Run(ctx context.Context) {
	h.Refresh(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

func (h *HealthHandler) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func (h *HealthHandler) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}
