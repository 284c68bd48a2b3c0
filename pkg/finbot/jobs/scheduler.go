// Package jobs – scheduler.go runs the periodic jobs on in-process cron
// schedules. Deployments that prefer an external cron can leave this
// disabled and hit the gateway's cron endpoints instead.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jholhewres/finbot/pkg/finbot/config"
)

// Scheduler drives the runner on cron schedules in the assistant's
// timezone.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler builds a scheduler from the configured cron expressions.
// Expressions are standard 5-field cron, evaluated in loc.
func NewScheduler(runner *Runner, cfg config.SchedulerConfig, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	c := cron.New(cron.WithLocation(loc))

	entries := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{JobMorningBriefing, cfg.MorningCron, runner.MorningBriefing},
		{JobHourlyNudge, cfg.NudgeCron, runner.HourlyNudge},
		{JobEveningSummary, cfg.EveningCron, runner.EveningSummary},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		e := e
		_, err := c.AddFunc(e.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := e.run(ctx); err != nil {
				logger.Error("scheduled job failed", "job", e.name, "err", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", e.name, e.spec, err)
		}
		logger.Info("job scheduled", "job", e.name, "cron", e.spec, "tz", loc.String())
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
