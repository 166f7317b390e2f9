package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Schedule computes the next execution time after t.
type Schedule interface {
	Next(t time.Time) time.Time
}

// IntervalSchedule fires at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// DailySchedule fires once a day at the given local time.
type DailySchedule struct {
	Hour   int
	Minute int
}

func (s *DailySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// MonthlySchedule fires on a fixed day of each month, used for the
// payroll preparation run.
type MonthlySchedule struct {
	Day    int
	Hour   int
	Minute int
}

func (s *MonthlySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), s.Day, s.Hour, s.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = time.Date(t.Year(), t.Month()+1, s.Day, s.Hour, s.Minute, 0, 0, t.Location())
	}
	return next
}

func Every(interval time.Duration) Schedule    { return &IntervalSchedule{Interval: interval} }
func Daily(hour, minute int) Schedule          { return &DailySchedule{Hour: hour, Minute: minute} }
func Monthly(day, hour, minute int) Schedule   { return &MonthlySchedule{Day: day, Hour: hour, Minute: minute} }

type scheduledJob struct {
	id       string
	schedule Schedule
	jobType  string
	payload  any
}

// Scheduler enqueues recurring jobs through a Runner.
type Scheduler struct {
	runner   *Runner
	logger   *slog.Logger
	mu       sync.Mutex
	entries  map[string]*scheduledJob
	nextRuns map[string]time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(runner *Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		logger:   logger,
		entries:  make(map[string]*scheduledJob),
		nextRuns: make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}
}

// Register adds a recurring job under a stable id.
func (s *Scheduler) Register(id string, schedule Schedule, jobType string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = &scheduledJob{id: id, schedule: schedule, jobType: jobType, payload: payload}
	s.nextRuns[id] = schedule.Next(time.Now())

	s.logger.Info("scheduled job registered",
		"id", id,
		"type", jobType,
		"next_run", s.nextRuns[id].Format(time.RFC3339),
	)
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
	s.logger.Info("scheduler started")
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// NextRun reports the next planned run of a scheduled job.
func (s *Scheduler) NextRun(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.nextRuns[id]
	return t, ok
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]*scheduledJob, 0)
	for id, nextRun := range s.nextRuns {
		if entry, ok := s.entries[id]; ok && now.After(nextRun) {
			due = append(due, entry)
			s.nextRuns[id] = entry.schedule.Next(now)
		}
	}
	s.mu.Unlock()

	for _, entry := range due {
		jobID, err := s.runner.Enqueue(ctx, entry.jobType, entry.payload, 0)
		if err != nil {
			s.logger.Error("failed to enqueue scheduled job", "id", entry.id, "error", err)
			continue
		}
		s.logger.Info("scheduled job enqueued", "id", entry.id, "job_id", jobID)
	}
}
