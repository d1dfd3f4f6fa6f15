package setup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/config"
	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/bankdir"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/database/repository"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/provider/payos"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/provider/thesieutoc"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/queue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

const (
	callbackTimeout   = 10 * time.Second
	eventFlushTimeout = 10 * time.Second
)

type Dependencies struct {
	Config     *config.GatewayConfig
	DB         *gorm.DB
	Queue      domain.Queue
	Registry   *prometheus.Registry
	Metrics    *metrics.GatewayMetrics
	Location   *time.Location
	SuccessLog *logger.FileSuccessLog

	CardProvider domain.CardProvider
	BankProvider domain.BankProvider
	Directory    domain.BankDirectory
	Publisher    domain.EventPublisher
	Sender       domain.CallbackSender

	Repositories *Repositories

	kafkaPublisher *kafka.KafkaPublisher
	eventPublisher *kafka.EventPublisher
}

type Repositories struct {
	InstrumentRepo domain.InstrumentRepository
	BlacklistRepo  domain.BlacklistRepository
	Maintainer     domain.Maintainer
}

func InitializeDependencies(ctx context.Context, cfg *config.GatewayConfig) (*Dependencies, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := migrate.RunMigrations(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("migrations: %w", err)
	}

	q, err := queue.New(ctx, cfg.Redis)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("queue: %w", err)
	}

	successLog, err := logger.NewFileSuccessLog(cfg.LogConfig.LogDir)
	if err != nil {
		_ = q.Close()
		_ = database.Close(db)
		return nil, fmt.Errorf("success log: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gatewayMetrics := metrics.NewGatewayMetrics(registry)

	deps := &Dependencies{
		Config:     cfg,
		DB:         db,
		Queue:      q,
		Registry:   registry,
		Metrics:    gatewayMetrics,
		Location:   loc,
		SuccessLog: successLog,
		Sender:     notifier.NewHTTPSender(callbackTimeout),
		Repositories: &Repositories{
			InstrumentRepo: repository.NewDefaultInstrumentRepository(db),
			BlacklistRepo:  repository.NewDefaultBlacklistRepository(db),
			Maintainer:     repository.NewDefaultMaintainer(db),
		},
	}

	deps.CardProvider = thesieutoc.NewClient(cfg.TheSieuToc.BaseURL, cfg.TheSieuToc.APIKey, cfg.TheSieuToc.Timeout, gatewayMetrics)
	deps.BankProvider = payos.NewClient(payos.Options{
		BaseURL:     cfg.PayOS.BaseURL,
		ClientID:    cfg.PayOS.ClientID,
		APIKey:      cfg.PayOS.APIKey,
		ChecksumKey: cfg.PayOS.ChecksumKey,
		Timeout:     cfg.PayOS.Timeout,
		LinkExpiry:  time.Duration(cfg.PayOS.ExpiryMins) * time.Minute,
	}, gatewayMetrics)
	if cfg.BankDir.URL != "" {
		deps.Directory = bankdir.NewVietQRDirectory(cfg.BankDir.URL, cfg.BankDir.CacheTTL)
	}

	deps.Publisher = initEventPublisher(deps, cfg.Kafka)

	if cfg.TheSieuToc.APIKey == "" {
		slog.Warn("THESIEUTOC_API_KEY is empty, card submissions will be refused upstream")
	}
	if cfg.PayOS.ChecksumKey == "" {
		slog.Warn("PAYOS_CHECKSUM_KEY is empty, bank webhooks cannot be verified")
	}
	return deps, nil
}

func initEventPublisher(deps *Dependencies, cfg config.Kafka) domain.EventPublisher {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		slog.Info("kafka brokers not configured, instrument events disabled")
		return kafka.NopEventPublisher{}
	}
	deps.kafkaPublisher = kafka.NewKafkaPublisher(brokers)
	deps.eventPublisher = kafka.NewEventPublisher(deps.kafkaPublisher, cfg.Topic)
	slog.Info("instrument events enabled", "brokers", brokers, "topic", cfg.Topic)
	return deps.eventPublisher
}

// Close releases everything InitializeDependencies opened. Errors are logged, not returned.
func (d *Dependencies) Close() {
	if d.eventPublisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), eventFlushTimeout)
		if err := d.eventPublisher.Flush(ctx); err != nil {
			slog.Error("instrument events still in flight", "error", err.Error())
		}
		cancel()
	}
	if d.kafkaPublisher != nil {
		if err := d.kafkaPublisher.Close(); err != nil {
			slog.Error("failed to close kafka writer", "error", err.Error())
		}
	}
	if err := d.SuccessLog.Close(); err != nil {
		slog.Error("failed to close success log", "error", err.Error())
	}
	if err := d.Queue.Close(); err != nil {
		slog.Error("failed to close queue", "error", err.Error())
	}
	if err := database.Close(d.DB); err != nil {
		slog.Error("failed to close database", "error", err.Error())
	}
}
