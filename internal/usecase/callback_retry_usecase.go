package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/LavaJover/shvark-payment-gateway/internal/infrastructure/metrics"
)

const retrySendTimeout = 10 * time.Second

type RetryReport struct {
	Due          int `json:"due"`
	Delivered    int `json:"delivered"`
	Rescheduled  int `json:"rescheduled"`
	DeadLettered int `json:"deadLettered"`
}

type CallbackRetryUsecase interface {
	ProcessDueRetries(ctx context.Context) (*RetryReport, error)
	DeadLetters(ctx context.Context, limit int) ([]domain.RetryJob, error)
}

type DefaultCallbackRetryUsecase struct {
	Queue   domain.Queue
	Sender  domain.CallbackSender
	Metrics *metrics.GatewayMetrics
	now     func() time.Time
}

func NewDefaultCallbackRetryUsecase(queue domain.Queue, sender domain.CallbackSender, gatewayMetrics *metrics.GatewayMetrics) *DefaultCallbackRetryUsecase {
	return &DefaultCallbackRetryUsecase{
		Queue:   queue,
		Sender:  sender,
		Metrics: gatewayMetrics,
		now:     time.Now,
	}
}

// ProcessDueRetries redelivers due merchant callbacks. A delivered job is done; a failed one
// goes back to the queue with backoff or to the dead-letter list.
func (uc *DefaultCallbackRetryUsecase) ProcessDueRetries(ctx context.Context) (*RetryReport, error) {
	jobs, err := uc.Queue.DueRetries(ctx, uc.now())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due retries: %w", err)
	}

	report := &RetryReport{Due: len(jobs)}
	for _, job := range jobs {
		sendCtx, cancel := context.WithTimeout(ctx, retrySendTimeout)
		sendErr := uc.Sender.Send(sendCtx, job.CallbackURL, job.Payload)
		cancel()

		if sendErr == nil {
			report.Delivered++
			uc.record("delivered")
			slog.Info("merchant callback redelivered", "job", job.ID, "ref", job.TargetRef, "attempt", job.Attempts+1)
			continue
		}

		dead, err := uc.Queue.Reschedule(ctx, job, sendErr)
		if err != nil {
			slog.Error("failed to reschedule callback", "job", job.ID, "ref", job.TargetRef, "error", err)
			continue
		}
		if dead {
			report.DeadLettered++
			uc.record("dead_lettered")
			slog.Error("merchant callback dead-lettered",
				"job", job.ID,
				"ref", job.TargetRef,
				"attempts", job.Attempts+1,
				"error", sendErr,
			)
			continue
		}
		report.Rescheduled++
		uc.record("rescheduled")
		slog.Warn("merchant callback retry failed", "job", job.ID, "ref", job.TargetRef, "attempt", job.Attempts+1, "error", sendErr)
	}
	return report, nil
}

func (uc *DefaultCallbackRetryUsecase) DeadLetters(ctx context.Context, limit int) ([]domain.RetryJob, error) {
	return uc.Queue.DeadLetters(ctx, domain.ClampLimit(limit))
}

func (uc *DefaultCallbackRetryUsecase) record(result string) {
	if uc.Metrics != nil {
		uc.Metrics.RecordCallbackRetry(result)
	}
}

// WithClock replaces the time source.
func (uc *DefaultCallbackRetryUsecase) WithClock(now func() time.Time) *DefaultCallbackRetryUsecase {
	uc.now = now
	return uc
}
