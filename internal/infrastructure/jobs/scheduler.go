// Package jobs runs background work on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"time"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/robfig/cron/v3"
)

// Scheduler runs registered jobs; a job still running when its next tick fires skips that tick
type Scheduler struct {
	cron   *cron.Cron
	logger coreport.Logger
}

// NewScheduler creates a scheduler evaluating specs in loc
func NewScheduler(loc *time.Location, logger coreport.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add registers run under a standard five-field cron spec
func (s *Scheduler) Add(ctx context.Context, spec, name string, run func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.logger.Debug("Job started", map[string]any{"job": name})
		if err := run(ctx); err != nil {
			s.logger.Error("Job failed", map[string]any{"job": name, "error": err})
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Info("Job scheduled", map[string]any{"job": name, "spec": spec})
	return nil
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs or ctx, whichever ends first
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Jobs still running at shutdown", nil)
	}
}

// cronLogger routes cron's own messages into the application logger
type cronLogger struct {
	logger coreport.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, pairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := pairs(keysAndValues)
	fields["error"] = err
	l.logger.Error("cron: "+msg, fields)
}

func pairs(kv []any) map[string]any {
	fields := make(map[string]any, len(kv)/2+1)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
