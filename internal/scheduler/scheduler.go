// Package scheduler drives the pipeline: round-robin merging of producer
// output, the per-run cap, and the long-running daemon loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work, typically a pipeline run.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Every returns a schedule that fires d after the previous activation.
func Every(d time.Duration) cron.Schedule {
	return intervalSchedule(d)
}

type intervalSchedule time.Duration

func (s intervalSchedule) Next(t time.Time) time.Time { return t.Add(time.Duration(s)) }

// ParseCron parses a standard five-field cron expression (or a descriptor such
// as "@hourly").
func ParseCron(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing cron expression %q: %w", expr, err)
	}
	return sched, nil
}

// Scheduler owns the main loop: one immediate run, then one run per schedule
// activation.
type Scheduler struct {
	job      Job
	schedule cron.Schedule
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler. A nil loc means time.Local.
func NewScheduler(job Job, schedule cron.Schedule, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		job:      job,
		schedule: schedule,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Run starts the loop. It returns nil when ctx is cancelled (graceful
// shutdown). A failed run is logged and does not stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler", "next", s.schedule.Next(s.now().In(s.loc)).Format(time.RFC3339))

	s.runOnce(ctx)

	for {
		now := s.now().In(s.loc)
		next := s.schedule.Next(now)
		if next.IsZero() {
			s.logger.Warn("schedule has no further activations")
			return nil
		}
		s.logger.Debug("waiting for next run", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(next.Sub(now)):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job.Run(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}
