package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/monitor"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Runner is the work the scheduler drives.
type Runner interface {
	EnhancedInventoryMonitoring(ctx context.Context) monitor.RunResult
	RunNow(ctx context.Context) monitor.RunResult
	CleanupOldNotifications(ctx context.Context) (int64, error)
}

type job struct {
	name     string
	schedule cron.Schedule
	run      func(ctx context.Context)
}

type Scheduler struct {
	runner Runner
	clock  Clock
	logger logger.ZapLogger
	jobs   []job
}

// New parses the standard 5-field expressions. An empty cleanupExpr disables the
// cleanup job.
func New(runner Runner, clock Clock, log logger.ZapLogger, monitorExpr, cleanupExpr string) (*Scheduler, error) {
	if clock == nil {
		clock = RealClock
	}
	s := &Scheduler{runner: runner, clock: clock, logger: log}

	sched, err := cron.ParseStandard(monitorExpr)
	if err != nil {
		return nil, fmt.Errorf("parse monitor schedule %q: %w", monitorExpr, err)
	}
	s.jobs = append(s.jobs, job{name: "inventory-monitoring", schedule: sched, run: s.runMonitoring})

	if cleanupExpr != "" {
		sched, err := cron.ParseStandard(cleanupExpr)
		if err != nil {
			return nil, fmt.Errorf("parse cleanup schedule %q: %w", cleanupExpr, err)
		}
		s.jobs = append(s.jobs, job{name: "notification-cleanup", schedule: sched, run: s.runCleanup})
	}
	return s, nil
}

// Start blocks until ctx is cancelled. Ticks missed while a run is in progress
// are not replayed.
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			s.loop(ctx, j)
		}(j)
	}
	wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	for {
		now := s.clock.Now()
		next := j.schedule.Next(now)
		s.logger.Debug("next run scheduled", zap.String("job", j.name), zap.Time("at", next))

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(next.Sub(now)):
			j.run(ctx)
		}
	}
}

// Trigger runs the monitoring pipeline synchronously, outside the schedule. It
// waits behind a scheduled run that is already in flight.
func (s *Scheduler) Trigger(ctx context.Context) monitor.RunResult {
	s.logger.Info("manual monitoring trigger")
	return s.runner.RunNow(ctx)
}

func (s *Scheduler) runMonitoring(ctx context.Context) {
	s.logger.Info("running scheduled inventory monitoring")
	res := s.runner.EnhancedInventoryMonitoring(ctx)
	s.logger.Info("scheduled inventory monitoring finished",
		zap.String("status", string(res.Status)),
		zap.Duration("duration", res.Duration),
	)
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	if _, err := s.runner.CleanupOldNotifications(ctx); err != nil {
		s.logger.Error("scheduled notification cleanup failed", zap.Error(err))
	}
}
