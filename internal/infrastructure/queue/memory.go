package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/jaevor/go-nanoid"
)

// MemoryQueue is the process-local fallback. Contents do not survive restarts.
type MemoryQueue struct {
	mu      sync.Mutex
	retries map[string]domain.RetryJob
	pending map[string]domain.PendingCheckJob
	failed  []domain.RetryJob
	newID   func() string
	now     func() time.Time
}

func NewMemoryQueue() (*MemoryQueue, error) {
	idGenerator, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}
	return &MemoryQueue{
		retries: make(map[string]domain.RetryJob),
		pending: make(map[string]domain.PendingCheckJob),
		newID:   idGenerator,
		now:     time.Now,
	}, nil
}

func (q *MemoryQueue) EnqueuePendingCheck(ctx context.Context, kind domain.InstrumentKind, ref string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[ref]; ok {
		return nil
	}
	q.pending[ref] = domain.PendingCheckJob{ExternalRef: ref, Kind: kind, CreatedAt: q.now()}
	return nil
}

func (q *MemoryQueue) RemovePendingCheck(ctx context.Context, ref string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, ref)
	return nil
}

func (q *MemoryQueue) ListPendingChecks(ctx context.Context) ([]domain.PendingCheckJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.PendingCheckJob, 0, len(q.pending))
	for _, job := range q.pending {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (q *MemoryQueue) MarkChecked(ctx context.Context, ref string, at time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.pending[ref]
	if !ok {
		return nil
	}
	job.CheckCount++
	job.LastCheckedAt = &at
	q.pending[ref] = job
	return nil
}

func (q *MemoryQueue) EnqueueRetry(ctx context.Context, ref, callbackURL string, payload []byte, maxAttempts int) (string, error) {
	job := newRetryJob(q.newID(), ref, callbackURL, payload, maxAttempts, q.now())
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retries[job.ID] = job
	return job.ID, nil
}

// DueRetries hands each due job to exactly one caller.
func (q *MemoryQueue) DueRetries(ctx context.Context, now time.Time) ([]domain.RetryJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due []domain.RetryJob
	for id, job := range q.retries {
		if !job.NextRetryAt.After(now) {
			due = append(due, job)
			delete(q.retries, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextRetryAt.Before(due[j].NextRetryAt) })
	return due, nil
}

func (q *MemoryQueue) Reschedule(ctx context.Context, job domain.RetryJob, cause error) (bool, error) {
	next, dead := nextAttempt(job, cause, q.now())
	q.mu.Lock()
	defer q.mu.Unlock()
	if dead {
		q.failed = append([]domain.RetryJob{next}, q.failed...)
		if len(q.failed) > maxDeadLetters {
			q.failed = q.failed[:maxDeadLetters]
		}
		return true, nil
	}
	q.retries[next.ID] = next
	return false, nil
}

func (q *MemoryQueue) DeadLetters(ctx context.Context, limit int) ([]domain.RetryJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if limit <= 0 || limit > len(q.failed) {
		limit = len(q.failed)
	}
	out := make([]domain.RetryJob, limit)
	copy(out, q.failed[:limit])
	return out, nil
}

func (q *MemoryQueue) Stats(ctx context.Context) (domain.QueueStats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return domain.QueueStats{
		Backend:       "memory",
		CallbackRetry: int64(len(q.retries)),
		PendingCheck:  int64(len(q.pending)),
		Failed:        int64(len(q.failed)),
	}, nil
}

func (q *MemoryQueue) Close() error { return nil }

func newRetryJob(id, ref, callbackURL string, payload []byte, maxAttempts int, now time.Time) domain.RetryJob {
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultMaxAttempts
	}
	return domain.RetryJob{
		ID:          id,
		TargetRef:   ref,
		CallbackURL: callbackURL,
		Payload:     append([]byte(nil), payload...),
		MaxAttempts: maxAttempts,
		NextRetryAt: now.Add(domain.FirstRetryDelay),
		CreatedAt:   now,
	}
}

// nextAttempt records a failed attempt. The job is dead once attempts reach maxAttempts,
// otherwise the n-th failure delays it by 2^(n-1) minutes: 1, 2, 4, 8.
func nextAttempt(job domain.RetryJob, cause error, now time.Time) (domain.RetryJob, bool) {
	delay := domain.Backoff(job.Attempts)
	job.Attempts++
	if cause != nil {
		job.LastError = cause.Error()
	}
	if job.Attempts >= job.MaxAttempts {
		return job, true
	}
	job.NextRetryAt = now.Add(delay)
	return job, false
}
