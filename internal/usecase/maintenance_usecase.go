package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
)

// RetentionPolicy is measured in days. Zero disables that part of the cleanup.
type RetentionPolicy struct {
	TransactionDays int
	LogDays         int
	BlacklistDays   int
}

type CleanupReport struct {
	Instruments int64 `json:"instruments"`
	Blacklist   int64 `json:"blacklist"`
	LogFiles    int   `json:"logFiles"`
}

type HealthReport struct {
	Status    string            `json:"status"`
	Database  bool              `json:"database"`
	Queue     domain.QueueStats `json:"queue"`
	CheckedAt time.Time         `json:"checkedAt"`
}

func (h HealthReport) Healthy() bool { return h.Status == "ok" }

type MaintenanceUsecase interface {
	Cleanup(ctx context.Context) (*CleanupReport, error)
	Optimize(ctx context.Context) ([]string, error)
	DailyStats(ctx context.Context) ([]domain.KindStats, error)
	Health(ctx context.Context) HealthReport
	QueueStats(ctx context.Context) (domain.QueueStats, error)
}

type DefaultMaintenanceUsecase struct {
	InstrumentRepo domain.InstrumentRepository
	BlacklistRepo  domain.BlacklistRepository
	Maintainer     domain.Maintainer
	Queue          domain.Queue
	Metrics        *metrics.GatewayMetrics
	Retention      RetentionPolicy
	LogDir         string

	location *time.Location
	now      func() time.Time
}

func NewDefaultMaintenanceUsecase(
	instrumentRepo domain.InstrumentRepository,
	blacklistRepo domain.BlacklistRepository,
	maintainer domain.Maintainer,
	queue domain.Queue,
	gatewayMetrics *metrics.GatewayMetrics,
	retention RetentionPolicy,
	logDir string,
	location *time.Location,
) *DefaultMaintenanceUsecase {
	if location == nil {
		location = time.Local
	}
	return &DefaultMaintenanceUsecase{
		InstrumentRepo: instrumentRepo,
		BlacklistRepo:  blacklistRepo,
		Maintainer:     maintainer,
		Queue:          queue,
		Metrics:        gatewayMetrics,
		Retention:      retention,
		LogDir:         logDir,
		location:       location,
		now:            time.Now,
	}
}

// WithClock replaces the time source.
func (uc *DefaultMaintenanceUsecase) WithClock(now func() time.Time) *DefaultMaintenanceUsecase {
	uc.now = now
	return uc
}

// Cleanup removes terminal instruments, stale blacklist entries and old log files, then
// compacts the store. PENDING rows and the success audit logs are never removed.
func (uc *DefaultMaintenanceUsecase) Cleanup(ctx context.Context) (*CleanupReport, error) {
	now := uc.now()
	report := &CleanupReport{}

	if days := uc.Retention.TransactionDays; days > 0 {
		n, err := uc.InstrumentRepo.DeleteSettledBefore(ctx, now.AddDate(0, 0, -days))
		if err != nil {
			return report, err
		}
		report.Instruments = n
	}

	if days := uc.Retention.BlacklistDays; days > 0 {
		n, err := uc.BlacklistRepo.DeleteBefore(ctx, now.AddDate(0, 0, -days))
		if err != nil {
			return report, err
		}
		report.Blacklist = n
	}

	if days := uc.Retention.LogDays; days > 0 && uc.LogDir != "" {
		n, err := logger.PruneDir(uc.LogDir, now.AddDate(0, 0, -days), logger.ProtectedLogs)
		if err != nil {
			slog.Error("failed to prune log dir", "dir", uc.LogDir, "error", err)
		}
		report.LogFiles = n
	}

	if err := uc.Maintainer.Vacuum(ctx); err != nil {
		slog.Warn("vacuum failed", "error", err)
	}

	slog.Info("cleanup finished",
		"instruments", report.Instruments,
		"blacklist", report.Blacklist,
		"log_files", report.LogFiles,
	)
	return report, nil
}

func (uc *DefaultMaintenanceUsecase) Optimize(ctx context.Context) ([]string, error) {
	report, err := uc.Maintainer.Optimize(ctx)
	if err != nil {
		return nil, fmt.Errorf("database maintenance failed: %w", err)
	}
	if len(report) > 0 && report[0] != "ok" {
		slog.Error("database integrity check reported problems", "report", report)
	} else {
		slog.Info("database maintenance finished")
	}
	return report, nil
}

// DailyStats summarizes instruments created on the previous local day.
func (uc *DefaultMaintenanceUsecase) DailyStats(ctx context.Context) ([]domain.KindStats, error) {
	local := uc.now().In(uc.location)
	to := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, uc.location)
	from := to.AddDate(0, 0, -1)

	stats, err := uc.InstrumentRepo.Stats(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for _, s := range stats {
		slog.Info("daily stats",
			"day", from.Format("2006-01-02"),
			"kind", s.Kind,
			"total", s.Total,
			"success", s.Success+s.WrongAmount,
			"failed", s.Failed,
			"pending", s.Pending,
			"success_amount", s.SuccessAmount,
		)
	}
	if uc.Metrics != nil {
		uc.Metrics.RecordDailyStats(stats)
	}
	return stats, nil
}

func (uc *DefaultMaintenanceUsecase) Health(ctx context.Context) HealthReport {
	report := HealthReport{Status: "ok", Database: true, CheckedAt: uc.now()}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := uc.Maintainer.Ping(pingCtx); err != nil {
		slog.Error("database ping failed", "error", err)
		report.Database = false
		report.Status = "degraded"
	}

	stats, err := uc.QueueStats(ctx)
	if err != nil {
		slog.Warn("queue stats unavailable", "error", err)
	}
	report.Queue = stats
	if stats.Backend != "memory" && !stats.BackendConnected {
		report.Status = "degraded"
	}
	return report
}

func (uc *DefaultMaintenanceUsecase) QueueStats(ctx context.Context) (domain.QueueStats, error) {
	stats, err := uc.Queue.Stats(ctx)
	if err != nil {
		return stats, err
	}
	if uc.Metrics != nil {
		uc.Metrics.SetQueueDepth(stats)
	}
	return stats, nil
}
