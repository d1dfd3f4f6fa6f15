package domain

import (
	"context"
	"encoding/json"
	"time"
)

const (
	DefaultMaxAttempts = 5
	FirstRetryDelay    = 60 * time.Second
	RetryBackoffBase   = time.Minute
)

type RetryJob struct {
	ID          string          `json:"id"`
	TargetRef   string          `json:"targetRef"`
	CallbackURL string          `json:"callbackUrl"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	NextRetryAt time.Time       `json:"nextRetryAt"`
	LastError   string          `json:"lastError,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Backoff is the delay before the next attempt once attempts failures are recorded.
func Backoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	return RetryBackoffBase * time.Duration(int64(1)<<uint(attempts))
}

type PendingCheckJob struct {
	ExternalRef   string         `json:"externalRef"`
	Kind          InstrumentKind `json:"kind"`
	CheckCount    int            `json:"checkCount"`
	LastCheckedAt *time.Time     `json:"lastCheckedAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

type QueueStats struct {
	Backend          string `json:"backend"`
	BackendConnected bool   `json:"backendConnected"`
	CallbackRetry    int64  `json:"callbackRetry"`
	PendingCheck     int64  `json:"pendingCheck"`
	Failed           int64  `json:"failed"`
}

// Queue is the work list for webhook replay and pending polls. The ledger stays authoritative.
type Queue interface {
	EnqueuePendingCheck(ctx context.Context, kind InstrumentKind, ref string) error
	RemovePendingCheck(ctx context.Context, ref string) error
	ListPendingChecks(ctx context.Context) ([]PendingCheckJob, error)
	MarkChecked(ctx context.Context, ref string, at time.Time) error

	EnqueueRetry(ctx context.Context, ref, callbackURL string, payload []byte, maxAttempts int) (string, error)
	DueRetries(ctx context.Context, now time.Time) ([]RetryJob, error)
	Reschedule(ctx context.Context, job RetryJob, cause error) (deadLettered bool, err error)
	DeadLetters(ctx context.Context, limit int) ([]RetryJob, error)

	Stats(ctx context.Context) (QueueStats, error)
	Close() error
}
