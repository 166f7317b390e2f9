package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Runner pulls jobs from the queue and dispatches them to registered
// handlers across a fixed pool of workers.
type Runner struct {
	queue    Queue
	registry *Registry
	config   *RunnerConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

type RunnerConfig struct {
	NumWorkers   int
	JobTimeout   time.Duration
	PollInterval time.Duration
	MaxRetries   int
	Logger       *slog.Logger
}

func DefaultRunnerConfig() *RunnerConfig {
	return &RunnerConfig{
		NumWorkers:   2,
		JobTimeout:   5 * time.Minute,
		PollInterval: time.Second,
		MaxRetries:   3,
	}
}

func NewRunner(queue Queue, registry *Registry, config *RunnerConfig) *Runner {
	if config == nil {
		config = DefaultRunnerConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	return &Runner{
		queue:    queue,
		registry: registry,
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the worker goroutines. They run until Stop is called
// or ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	for i := 1; i <= r.config.NumWorkers; i++ {
		r.wg.Add(1)
		go r.work(ctx, i)
	}
	r.logger.Info("job runner started", "workers", r.config.NumWorkers, "types", r.registry.Types())
}

// Stop waits for in-flight jobs to finish.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.logger.Info("job runner stopped")
}

// Enqueue schedules a job for execution after the given delay.
func (r *Runner) Enqueue(ctx context.Context, jobType string, payload any, delay time.Duration) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	job := &Job{
		Type:        jobType,
		Payload:     data,
		MaxRetries:  r.config.MaxRetries,
		ScheduledAt: time.Now().Add(delay),
	}
	if err := r.queue.Enqueue(ctx, job); err != nil {
		return "", err
	}
	return job.ID, nil
}

func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	logger := r.logger.With("worker_id", id)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		default:
		}

		job, err := r.queue.Dequeue(ctx)
		if err != nil {
			logger.Error("dequeue failed", "error", err)
			r.sleep(r.config.PollInterval)
			continue
		}
		if job == nil {
			r.sleep(r.config.PollInterval)
			continue
		}
		r.process(ctx, logger, job)
	}
}

func (r *Runner) process(ctx context.Context, logger *slog.Logger, job *Job) {
	handler, ok := r.registry.Get(job.Type)
	if !ok {
		err := fmt.Errorf("no handler for job type %q", job.Type)
		logger.Error("unknown job type", "job_id", job.ID, "type", job.Type)
		r.queue.Fail(ctx, job, err)
		return
	}

	start := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	result, err := handler(jobCtx, job.Payload)
	cancel()

	if err != nil {
		logger.Error("job failed", "job_id", job.ID, "type", job.Type,
			"attempts", job.Attempts, "error", err)
		if job.Attempts <= job.MaxRetries {
			r.queue.Retry(ctx, job)
		} else {
			r.queue.Fail(ctx, job, err)
		}
		return
	}

	if result != nil {
		if data, marshalErr := json.Marshal(result); marshalErr == nil {
			job.Result = data
		}
	}
	r.queue.Complete(ctx, job)
	logger.Info("job completed", "job_id", job.ID, "type", job.Type,
		"duration", time.Since(start).String())
}

func (r *Runner) sleep(d time.Duration) {
	select {
	case <-time.After(d):
	case <-r.stopCh:
	}
}
