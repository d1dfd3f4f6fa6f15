package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/domain"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
)

// popDue removes and returns every member scored at or below ARGV[1] in one step.
var popDue = redis.NewScript(`
local items = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if #items > 0 then
  redis.call('ZREM', KEYS[1], unpack(items))
end
return items
`)

type RedisQueue struct {
	client *redis.Client
	newID  func() string
	now    func() time.Time
}

func NewRedisQueue(client *redis.Client) (*RedisQueue, error) {
	idGenerator, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}
	return &RedisQueue{client: client, newID: idGenerator, now: time.Now}, nil
}

func (q *RedisQueue) EnqueuePendingCheck(ctx context.Context, kind domain.InstrumentKind, ref string) error {
	body, err := json.Marshal(domain.PendingCheckJob{ExternalRef: ref, Kind: kind, CreatedAt: q.now()})
	if err != nil {
		return err
	}
	if err := q.client.HSetNX(ctx, KeyPendingCheck, ref, body).Err(); err != nil {
		return fmt.Errorf("enqueue pending check: %w", err)
	}
	return nil
}

func (q *RedisQueue) RemovePendingCheck(ctx context.Context, ref string) error {
	if err := q.client.HDel(ctx, KeyPendingCheck, ref).Err(); err != nil {
		return fmt.Errorf("remove pending check: %w", err)
	}
	return nil
}

func (q *RedisQueue) ListPendingChecks(ctx context.Context) ([]domain.PendingCheckJob, error) {
	all, err := q.client.HGetAll(ctx, KeyPendingCheck).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending checks: %w", err)
	}
	out := make([]domain.PendingCheckJob, 0, len(all))
	for _, body := range all {
		var job domain.PendingCheckJob
		if err := json.Unmarshal([]byte(body), &job); err != nil {
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

func (q *RedisQueue) MarkChecked(ctx context.Context, ref string, at time.Time) error {
	body, err := q.client.HGet(ctx, KeyPendingCheck, ref).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	var job domain.PendingCheckJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return err
	}
	job.CheckCount++
	job.LastCheckedAt = &at
	updated, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.HSet(ctx, KeyPendingCheck, ref, updated).Err()
}

func (q *RedisQueue) EnqueueRetry(ctx context.Context, ref, callbackURL string, payload []byte, maxAttempts int) (string, error) {
	job := newRetryJob(q.newID(), ref, callbackURL, payload, maxAttempts, q.now())
	if err := q.schedule(ctx, job); err != nil {
		return "", fmt.Errorf("enqueue retry: %w", err)
	}
	return job.ID, nil
}

func (q *RedisQueue) DueRetries(ctx context.Context, now time.Time) ([]domain.RetryJob, error) {
	items, err := popDue.Run(ctx, q.client, []string{KeyCallbackRetry}, strconv.FormatInt(now.UnixMilli(), 10)).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("pop due retries: %w", err)
	}
	out := make([]domain.RetryJob, 0, len(items))
	for _, item := range items {
		var job domain.RetryJob
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

func (q *RedisQueue) Reschedule(ctx context.Context, job domain.RetryJob, cause error) (bool, error) {
	next, dead := nextAttempt(job, cause, q.now())
	if !dead {
		return false, q.schedule(ctx, next)
	}
	body, err := json.Marshal(next)
	if err != nil {
		return true, err
	}
	_, err = q.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, KeyFailed, body)
		p.LTrim(ctx, KeyFailed, 0, maxDeadLetters-1)
		return nil
	})
	if err != nil {
		return true, fmt.Errorf("dead-letter job %s: %w", job.ID, err)
	}
	return true, nil
}

func (q *RedisQueue) DeadLetters(ctx context.Context, limit int) ([]domain.RetryJob, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	items, err := q.client.LRange(ctx, KeyFailed, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.RetryJob, 0, len(items))
	for _, item := range items {
		var job domain.RetryJob
		if err := json.Unmarshal([]byte(item), &job); err == nil {
			out = append(out, job)
		}
	}
	return out, nil
}

func (q *RedisQueue) Stats(ctx context.Context) (domain.QueueStats, error) {
	stats := domain.QueueStats{Backend: "redis"}
	if err := q.client.Ping(ctx).Err(); err != nil {
		return stats, nil
	}
	stats.BackendConnected = true

	var retry, pending, failed *redis.IntCmd
	_, err := q.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		retry = p.ZCard(ctx, KeyCallbackRetry)
		pending = p.HLen(ctx, KeyPendingCheck)
		failed = p.LLen(ctx, KeyFailed)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("queue stats: %w", err)
	}
	stats.CallbackRetry = retry.Val()
	stats.PendingCheck = pending.Val()
	stats.Failed = failed.Val()
	return stats, nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) schedule(ctx context.Context, job domain.RetryJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.ZAdd(ctx, KeyCallbackRetry, redis.Z{
		Score:  float64(job.NextRetryAt.UnixMilli()),
		Member: string(body),
	}).Err()
}
