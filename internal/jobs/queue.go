package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue is the storage behind the job runner.
type Queue interface {
	Enqueue(ctx context.Context, job *Job) error
	Dequeue(ctx context.Context) (*Job, error)
	Complete(ctx context.Context, job *Job) error
	Fail(ctx context.Context, job *Job, jobErr error) error
	Retry(ctx context.Context, job *Job) error
	Get(ctx context.Context, jobID string) (*Job, error)
	Stats(ctx context.Context) (*Stats, error)
}

// RedisQueue keeps pending jobs in a sorted set scored by scheduled
// time, so delayed retries order themselves naturally.
type RedisQueue struct {
	client *redis.Client
	prefix string
	logger *slog.Logger

	// completed and failed jobs are kept this long for inspection
	resultTTL time.Duration
}

type RedisQueueConfig struct {
	Client    *redis.Client
	Prefix    string
	Logger    *slog.Logger
	ResultTTL time.Duration
}

func NewRedisQueue(cfg *RedisQueueConfig) (*RedisQueue, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, errors.New("redis client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "jobs:"
	}
	ttl := cfg.ResultTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &RedisQueue{client: cfg.Client, prefix: prefix, logger: logger, resultTTL: ttl}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.ScheduledAt.IsZero() {
		job.ScheduledAt = job.CreatedAt
	}
	if job.Status != StatusRetrying {
		job.Status = StatusPending
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, q.jobKey(job.ID), data, 0)
	pipe.ZAdd(ctx, q.queueKey(), redis.Z{Score: float64(job.ScheduledAt.Unix()), Member: job.ID})
	pipe.Incr(ctx, q.statsKey("pending"))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}

	q.logger.Debug("job enqueued", "job_id", job.ID, "type", job.Type)
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	results, err := q.client.ZRangeByScore(ctx, q.queueKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", time.Now().Unix()),
		Count: 1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	jobID := results[0]

	// ZRem settles races between workers: only the one that removes
	// the member owns the job.
	removed, err := q.client.ZRem(ctx, q.queueKey(), jobID).Result()
	if err != nil || removed == 0 {
		return nil, nil
	}

	job, err := q.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job.Status = StatusProcessing
	job.Attempts++
	job.StartedAt = &now
	if err := q.save(ctx, job, 0); err != nil {
		return nil, err
	}

	pipe := q.client.Pipeline()
	pipe.Decr(ctx, q.statsKey("pending"))
	pipe.Incr(ctx, q.statsKey("processing"))
	pipe.Exec(ctx)

	return job, nil
}

func (q *RedisQueue) Complete(ctx context.Context, job *Job) error {
	now := time.Now()
	job.Status = StatusCompleted
	job.CompletedAt = &now
	if err := q.save(ctx, job, q.resultTTL); err != nil {
		return err
	}

	pipe := q.client.Pipeline()
	pipe.Decr(ctx, q.statsKey("processing"))
	pipe.Incr(ctx, q.statsKey("completed"))
	pipe.Set(ctx, q.statsKey("last_run"), now.Unix(), 0)
	pipe.Exec(ctx)
	return nil
}

func (q *RedisQueue) Fail(ctx context.Context, job *Job, jobErr error) error {
	job.Status = StatusFailed
	job.Error = jobErr.Error()
	if err := q.save(ctx, job, q.resultTTL); err != nil {
		return err
	}

	pipe := q.client.Pipeline()
	pipe.Decr(ctx, q.statsKey("processing"))
	pipe.Incr(ctx, q.statsKey("failed"))
	pipe.Exec(ctx)
	return nil
}

func (q *RedisQueue) Retry(ctx context.Context, job *Job) error {
	q.client.Decr(ctx, q.statsKey("processing"))
	job.Status = StatusRetrying
	job.ScheduledAt = time.Now().Add(Backoff(job.Attempts))
	return q.Enqueue(ctx, job)
}

func (q *RedisQueue) Get(ctx context.Context, jobID string) (*Job, error) {
	data, err := q.client.Get(ctx, q.jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("job not found: %s", jobID)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

func (q *RedisQueue) Stats(ctx context.Context) (*Stats, error) {
	pipe := q.client.Pipeline()
	pending := pipe.Get(ctx, q.statsKey("pending"))
	processing := pipe.Get(ctx, q.statsKey("processing"))
	completed := pipe.Get(ctx, q.statsKey("completed"))
	failed := pipe.Get(ctx, q.statsKey("failed"))
	lastRun := pipe.Get(ctx, q.statsKey("last_run"))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	stats := &Stats{}
	stats.Pending, _ = pending.Int64()
	stats.Processing, _ = processing.Int64()
	stats.Completed, _ = completed.Int64()
	stats.Failed, _ = failed.Int64()
	if ts, _ := lastRun.Int64(); ts > 0 {
		stats.LastRun = time.Unix(ts, 0)
	}
	return stats, nil
}

func (q *RedisQueue) save(ctx context.Context, job *Job, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.client.Set(ctx, q.jobKey(job.ID), data, ttl).Err()
}

func (q *RedisQueue) jobKey(id string) string { return q.prefix + "job:" + id }
func (q *RedisQueue) queueKey() string        { return q.prefix + "queue" }
func (q *RedisQueue) statsKey(s string) string {
	return q.prefix + "stats:" + s
}
