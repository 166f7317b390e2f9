// Package jobs provides a Redis-backed background job queue with a
// worker pool and a lightweight scheduler for recurring maintenance
// work such as stock reconciliation.
package jobs

import (
	"context"
	"encoding/json"
	"time"
)

// Job types handled by this system.
const (
	TypeStockReconcile = "stock.reconcile"
	TypePayrollPrepare = "payroll.prepare"
)

// Job is a unit of background work.
type Job struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      Status          `json:"status"`
	MaxRetries  int             `json:"max_retries"`
	Attempts    int             `json:"attempts"`
	CreatedAt   time.Time       `json:"created_at"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRetrying   Status = "retrying"
)

// Handler processes a job payload and returns an optional result.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Registry maps job types to handlers. Registration happens at startup
// before workers run, so no locking is needed.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(jobType string, h Handler) {
	r.handlers[jobType] = h
}

func (r *Registry) Get(jobType string) (Handler, bool) {
	h, ok := r.handlers[jobType]
	return h, ok
}

func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}

// Backoff returns the delay before the next retry attempt,
// doubling per attempt and capped at one hour.
func Backoff(attempt int) time.Duration {
	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > time.Hour {
		return time.Hour
	}
	return delay
}

// Stats summarizes queue activity.
type Stats struct {
	Pending    int64     `json:"pending"`
	Processing int64     `json:"processing"`
	Completed  int64     `json:"completed"`
	Failed     int64     `json:"failed"`
	LastRun    time.Time `json:"last_run"`
}
